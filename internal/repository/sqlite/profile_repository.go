package sqlite

import (
	"context"

	"fasttrack/internal/domain"
)

type ProfileRepository struct {
	db DBTX
}

// Put upserts the profile row keyed by user id.
func (r *ProfileRepository) Put(ctx context.Context, profile *domain.Profile) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, name, joined_at, is_guest)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, is_guest = excluded.is_guest`,
		profile.UserID,
		profile.Name,
		profile.JoinedAt.UTC(),
		profile.IsGuest,
	); err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.QueryRowContext(ctx, `
SELECT user_id, name, joined_at, is_guest
FROM profiles
WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.JoinedAt, &p.IsGuest); err != nil {
		return nil, wrapErr("scan profile", err)
	}
	return &p, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return wrapErr("delete profile", err)
	}
	return nil
}
