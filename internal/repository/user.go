package repository

import (
	"context"
	"time"

	"fasttrack/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Username and email are unique indexes; Create surfaces
// domain.ErrDuplicateKey when either collides.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// ProfileRepository manages the one-per-user profile row.
type ProfileRepository interface {
	Put(ctx context.Context, profile *domain.Profile) error
	Get(ctx context.Context, userID int64) (*domain.Profile, error)
	Delete(ctx context.Context, userID int64) error
}

// SettingsRepository manages the one-per-user settings row.
type SettingsRepository interface {
	Put(ctx context.Context, settings *domain.Settings) error
	Get(ctx context.Context, userID int64) (*domain.Settings, error)
	Delete(ctx context.Context, userID int64) error
}

// AuthStateRepository manages the logged-in-user singleton. Set replaces any
// existing row; Get returns domain.ErrNotFound when logged out.
type AuthStateRepository interface {
	Set(ctx context.Context, state *domain.AuthState) error
	Get(ctx context.Context) (*domain.AuthState, error)
	Clear(ctx context.Context) error
}
