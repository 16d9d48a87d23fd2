package sqlite

import (
	"context"

	"fasttrack/internal/domain"
)

type SettingsRepository struct {
	db DBTX
}

// Put upserts the settings row keyed by user id.
func (r *SettingsRepository) Put(ctx context.Context, settings *domain.Settings) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO settings (user_id, goal_hours, theme, notifications)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET goal_hours = excluded.goal_hours,
	theme = excluded.theme,
	notifications = excluded.notifications`,
		settings.UserID,
		settings.GoalHours,
		settings.Theme,
		settings.Notifications,
	); err != nil {
		return wrapErr("upsert settings", err)
	}
	return nil
}

func (r *SettingsRepository) Get(ctx context.Context, userID int64) (*domain.Settings, error) {
	var s domain.Settings
	if err := r.db.QueryRowContext(ctx, `
SELECT user_id, goal_hours, theme, notifications
FROM settings
WHERE user_id = ?`,
		userID,
	).Scan(&s.UserID, &s.GoalHours, &s.Theme, &s.Notifications); err != nil {
		return nil, wrapErr("scan settings", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE user_id = ?`, userID); err != nil {
		return wrapErr("delete settings", err)
	}
	return nil
}
