package service

import (
	"context"
	"time"

	"fasttrack/internal/domain"
	"fasttrack/internal/repository"
)

// streakGap is the largest pause between the end of one fast and the start of
// the next that still counts as a continued streak.
const streakGap = 48 * time.Hour

// HistoryService computes read-only aggregates over a user's fasting history.
type HistoryService interface {
	List(ctx context.Context, userID int64) ([]domain.HistorySession, error)
	Summary(ctx context.Context, userID int64, now time.Time) (*domain.HistorySummary, error)
}

type historyService struct {
	store repository.Store
}

func NewHistoryService(store repository.Store) HistoryService {
	return &historyService{store: store}
}

func (s *historyService) List(ctx context.Context, userID int64) ([]domain.HistorySession, error) {
	return s.store.HistorySessions().ListByUser(ctx, userID)
}

func (s *historyService) Summary(ctx context.Context, userID int64, now time.Time) (*domain.HistorySummary, error) {
	sessions, err := s.store.HistorySessions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.HistorySummary{
		TotalSessions: len(sessions),
		Streak:        streak(sessions),
		Weekly:        weeklyBuckets(sessions, now),
	}
	for _, session := range sessions {
		summary.TotalHours += session.Duration
		if session.Completed {
			summary.CompletedSessions++
		}
	}
	return summary, nil
}

// streak counts consecutive sessions from the newest backwards, chaining
// while the pause between adjacent fasts stays under streakGap. This is a
// plain prefix scan over sorted history with no anchor to today: a user who
// stopped fasting days ago keeps their streak until a gap inside the history
// itself breaks the chain.
func streak(sessions []domain.HistorySession) int {
	if len(sessions) == 0 {
		return 0
	}
	count := 1
	for i := 0; i+1 < len(sessions); i++ {
		newer, older := sessions[i], sessions[i+1]
		if newer.StartTime.Sub(older.EndTime) >= streakGap {
			break
		}
		count++
	}
	return count
}

// weeklyBuckets sums durations into the last 7 local calendar days, oldest
// first. A session lands in the day its end time falls into.
func weeklyBuckets(sessions []domain.HistorySession, now time.Time) []domain.DayBucket {
	buckets := make([]domain.DayBucket, 0, 7)
	for offset := 6; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		bucket := domain.DayBucket{Date: dayStart}
		for _, session := range sessions {
			end := session.EndTime.In(day.Location())
			if !end.Before(dayStart) && end.Before(dayEnd) {
				bucket.Hours += session.Duration
			}
		}
		bucket.Active = bucket.Hours > 0
		buckets = append(buckets, bucket)
	}
	return buckets
}
