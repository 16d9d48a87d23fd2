package sqlite

import (
	"context"

	"fasttrack/internal/domain"
)

type AuthStateRepository struct {
	db DBTX
}

// Set writes the singleton row. The fixed id means a second login simply
// replaces whoever was logged in before.
func (r *AuthStateRepository) Set(ctx context.Context, state *domain.AuthState) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO auth_state (id, user_id, login_time)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, login_time = excluded.login_time`,
		state.UserID,
		state.LoginTime.UTC(),
	); err != nil {
		return wrapErr("set auth state", err)
	}
	return nil
}

func (r *AuthStateRepository) Get(ctx context.Context) (*domain.AuthState, error) {
	var s domain.AuthState
	if err := r.db.QueryRowContext(ctx, `
SELECT user_id, login_time FROM auth_state WHERE id = 1`,
	).Scan(&s.UserID, &s.LoginTime); err != nil {
		return nil, wrapErr("scan auth state", err)
	}
	return &s, nil
}

func (r *AuthStateRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_state WHERE id = 1`); err != nil {
		return wrapErr("clear auth state", err)
	}
	return nil
}
