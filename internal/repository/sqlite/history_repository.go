package sqlite

import (
	"context"

	"fasttrack/internal/domain"
)

type HistorySessionRepository struct {
	db DBTX
}

func (r *HistorySessionRepository) Append(ctx context.Context, session *domain.HistorySession) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO history_sessions (user_id, start_time, end_time, duration, goal_hours, completed)
VALUES (?, ?, ?, ?, ?, ?)`,
		session.UserID,
		session.StartTime.UTC(),
		session.EndTime.UTC(),
		session.Duration,
		session.GoalHours,
		session.Completed,
	)
	if err != nil {
		return 0, wrapErr("insert history session", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("history last insert id", err)
	}
	session.ID = id
	return id, nil
}

// ListByUser returns the user's history newest first, the order the streak
// and chart computations expect.
func (r *HistorySessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.HistorySession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, start_time, end_time, duration, goal_hours, completed
FROM history_sessions
WHERE user_id = ?
ORDER BY start_time DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapErr("list history sessions", err)
	}
	defer rows.Close()

	var sessions []domain.HistorySession
	for rows.Next() {
		var s domain.HistorySession
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Duration, &s.GoalHours, &s.Completed); err != nil {
			return nil, wrapErr("scan history session", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate history sessions", err)
	}
	return sessions, nil
}

func (r *HistorySessionRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM history_sessions WHERE user_id = ?`, userID); err != nil {
		return wrapErr("delete history sessions", err)
	}
	return nil
}
