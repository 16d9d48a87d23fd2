package repository

import (
	"context"

	"fasttrack/internal/domain"
)

// CurrentSessionRepository manages the single active fast per user. The user
// id is the primary key, so Create on an already-fasting user surfaces
// domain.ErrDuplicateKey.
type CurrentSessionRepository interface {
	Create(ctx context.Context, session *domain.CurrentSession) error
	Get(ctx context.Context, userID int64) (*domain.CurrentSession, error)
	ListActive(ctx context.Context) ([]domain.CurrentSession, error)
	Delete(ctx context.Context, userID int64) error

	// MarkNotified flips the persisted notification latch. It reports true
	// only when this call changed the flag from false to true, which is what
	// makes the goal notification fire exactly once across repeated ticks
	// and process restarts.
	MarkNotified(ctx context.Context, userID int64) (bool, error)
}

// HistorySessionRepository appends and reads the immutable fasting history.
// ListByUser returns rows sorted by start time descending.
type HistorySessionRepository interface {
	Append(ctx context.Context, session *domain.HistorySession) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.HistorySession, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
