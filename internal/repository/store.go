// Package repository defines the persistence contract for the six collections
// the tracker owns. The interfaces are the binding contract — any embedded
// engine that preserves the primary keys and unique indexes declared here can
// back the services.
package repository

import "context"

// Store bundles the per-collection repositories and the transaction boundary.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Settings() SettingsRepository
	CurrentSessions() CurrentSessionRepository
	HistorySessions() HistorySessionRepository
	AuthState() AuthStateRepository

	// WithTx runs fn with a Store whose repositories all share one
	// transaction. Every write commits together or not at all; an error or
	// panic from fn rolls the whole batch back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
