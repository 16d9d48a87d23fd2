// Package domain defines the entities persisted by the store and the sentinel
// errors shared across layers. Callers match these values with errors.Is.
package domain

import "errors"

var (
	// ErrValidation indicates malformed input rejected before any store access.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateKey indicates a unique-index violation on write.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound indicates a lookup by key or index matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPassword indicates a password hash mismatch on login.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrSessionActive indicates a start attempted while a fast is running.
	ErrSessionActive = errors.New("session already active")

	// ErrStore indicates an engine-level failure. Fatal to the requesting
	// operation; nothing in the core retries automatically.
	ErrStore = errors.New("store failure")

	// ErrBusy indicates the per-operation in-flight latch is already held,
	// i.e. the same mutating operation was double-submitted.
	ErrBusy = errors.New("operation already in flight")
)
