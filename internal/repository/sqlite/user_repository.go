package sqlite

import (
	"context"
	"time"

	"fasttrack/internal/domain"
)

type UserRepository struct {
	db DBTX
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, email, password_hash, created_at, last_login)
VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		return 0, wrapErr("insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("user last insert id", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at, last_login
FROM users
WHERE id = ?`,
		id,
	))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at, last_login
FROM users
WHERE username = ?`,
		username,
	))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at, last_login
FROM users
WHERE email = ?`,
		email,
	))
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE users SET last_login = ? WHERE id = ?`,
		at.UTC(), id,
	); err != nil {
		return wrapErr("update last login", err)
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLogin,
	); err != nil {
		return nil, wrapErr("scan user", err)
	}
	return &user, nil
}
