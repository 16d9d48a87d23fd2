package sqlite

import (
	"context"

	"fasttrack/internal/domain"
)

type CurrentSessionRepository struct {
	db DBTX
}

// Create inserts the active fast for a user. The user_id primary key makes a
// second insert fail with domain.ErrDuplicateKey, which is what upholds the
// at-most-one-active-fast invariant even when two starts race.
func (r *CurrentSessionRepository) Create(ctx context.Context, session *domain.CurrentSession) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO current_sessions (user_id, start_time, end_time, goal_hours, notification_sent)
VALUES (?, ?, ?, ?, ?)`,
		session.UserID,
		session.StartTime.UTC(),
		session.EndTime.UTC(),
		session.GoalHours,
		session.NotificationSent,
	); err != nil {
		return wrapErr("insert current session", err)
	}
	return nil
}

func (r *CurrentSessionRepository) Get(ctx context.Context, userID int64) (*domain.CurrentSession, error) {
	var s domain.CurrentSession
	if err := r.db.QueryRowContext(ctx, `
SELECT user_id, start_time, end_time, goal_hours, notification_sent
FROM current_sessions
WHERE user_id = ?`,
		userID,
	).Scan(&s.UserID, &s.StartTime, &s.EndTime, &s.GoalHours, &s.NotificationSent); err != nil {
		return nil, wrapErr("scan current session", err)
	}
	return &s, nil
}

// ListActive returns every in-progress fast, used to resume tick loops after
// a restart.
func (r *CurrentSessionRepository) ListActive(ctx context.Context) ([]domain.CurrentSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, start_time, end_time, goal_hours, notification_sent
FROM current_sessions`,
	)
	if err != nil {
		return nil, wrapErr("list current sessions", err)
	}
	defer rows.Close()

	var sessions []domain.CurrentSession
	for rows.Next() {
		var s domain.CurrentSession
		if err := rows.Scan(&s.UserID, &s.StartTime, &s.EndTime, &s.GoalHours, &s.NotificationSent); err != nil {
			return nil, wrapErr("scan current session", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate current sessions", err)
	}
	return sessions, nil
}

func (r *CurrentSessionRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM current_sessions WHERE user_id = ?`, userID); err != nil {
		return wrapErr("delete current session", err)
	}
	return nil
}

// MarkNotified flips notification_sent in a single guarded update. The WHERE
// clause makes the flip a test-and-set: only the call that actually changes
// the flag reports true, so the caller fires the notification exactly once no
// matter how many ticks or reloads observe the threshold.
func (r *CurrentSessionRepository) MarkNotified(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE current_sessions SET notification_sent = 1
WHERE user_id = ? AND notification_sent = 0`,
		userID,
	)
	if err != nil {
		return false, wrapErr("mark notified", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("mark notified rows affected", err)
	}
	return affected == 1, nil
}
