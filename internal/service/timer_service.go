package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fasttrack/internal/domain"
	"fasttrack/internal/notify"
	"fasttrack/internal/repository"
)

// TimerService is the fasting-session state machine. Every state it reports
// is derived from the persisted current-session row plus the clock, so a
// restart reconstructs exactly where the timer was.
type TimerService interface {
	Start(ctx context.Context, userID int64, goalHours float64) (*domain.CurrentSession, error)
	Tick(ctx context.Context, userID int64, now time.Time) (*domain.TimerSnapshot, error)
	End(ctx context.Context, userID int64) (*domain.HistorySession, error)
	ActiveSessions(ctx context.Context) ([]domain.CurrentSession, error)
}

type timerService struct {
	store    repository.Store
	notifier notify.Notifier
	latch    *inflight
	now      func() time.Time
}

func NewTimerService(store repository.Store, notifier notify.Notifier) TimerService {
	if notifier == nil {
		notifier = notify.NewLogNotifier(nil)
	}
	return &timerService{
		store:    store,
		notifier: notifier,
		latch:    newInflight(),
		now:      time.Now,
	}
}

// Start begins a fast. Valid only from Idle; the user_id primary key on the
// current-session collection backs that up even if two starts race past the
// latch.
func (s *timerService) Start(ctx context.Context, userID int64, goalHours float64) (*domain.CurrentSession, error) {
	if goalHours <= 0 {
		return nil, fmt.Errorf("%w: goal hours must be positive", domain.ErrValidation)
	}

	key := fmt.Sprintf("start:%d", userID)
	if !s.latch.acquire(key) {
		return nil, domain.ErrBusy
	}
	defer s.latch.release(key)

	now := s.now().UTC()
	session := &domain.CurrentSession{
		UserID:           userID,
		StartTime:        now,
		EndTime:          now.Add(time.Duration(goalHours * float64(time.Hour))),
		GoalHours:        goalHours,
		NotificationSent: false,
	}

	if err := s.store.CurrentSessions().Create(ctx, session); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrSessionActive
		}
		return nil, err
	}
	return session, nil
}

// Tick recomputes the display state at the given instant. The first tick past
// the goal flips the persisted notification latch and emits the notification
// iff this call won the flip, so repeated ticks and reloads never re-fire it.
func (s *timerService) Tick(ctx context.Context, userID int64, now time.Time) (*domain.TimerSnapshot, error) {
	session, err := s.store.CurrentSessions().Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.TimerSnapshot{State: domain.TimerIdle}, nil
	}
	if err != nil {
		return nil, err
	}

	snapshot := buildSnapshot(session, now)

	if snapshot.State == domain.TimerOvertime && !session.NotificationSent {
		changed, err := s.store.CurrentSessions().MarkNotified(ctx, userID)
		if err != nil {
			return nil, err
		}
		if changed {
			s.notifier.GoalReached(ctx, userID, session.GoalHours)
		}
	}

	return snapshot, nil
}

// End closes the active fast: the immutable history row is appended and the
// current session deleted in one transaction, so a crash in between cannot
// lose or duplicate the record.
func (s *timerService) End(ctx context.Context, userID int64) (*domain.HistorySession, error) {
	key := fmt.Sprintf("end:%d", userID)
	if !s.latch.acquire(key) {
		return nil, domain.ErrBusy
	}
	defer s.latch.release(key)

	session, err := s.store.CurrentSessions().Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	duration := now.Sub(session.StartTime).Hours()
	history := &domain.HistorySession{
		UserID:    userID,
		StartTime: session.StartTime,
		EndTime:   now,
		Duration:  duration,
		GoalHours: session.GoalHours,
		Completed: duration >= session.GoalHours,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.HistorySessions().Append(ctx, history); err != nil {
			return err
		}
		return tx.CurrentSessions().Delete(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (s *timerService) ActiveSessions(ctx context.Context) ([]domain.CurrentSession, error) {
	return s.store.CurrentSessions().ListActive(ctx)
}

func buildSnapshot(session *domain.CurrentSession, now time.Time) *domain.TimerSnapshot {
	elapsed := now.Sub(session.StartTime)
	remaining := session.EndTime.Sub(now)
	goal := session.EndTime.Sub(session.StartTime)

	progress := 1.0
	if goal > 0 {
		progress = float64(elapsed) / float64(goal)
		if progress > 1 {
			progress = 1
		}
	}

	snapshot := &domain.TimerSnapshot{
		State:     session.State(now),
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		GoalHours: session.GoalHours,
		Elapsed:   elapsed,
		Remaining: remaining,
		Progress:  progress,
	}

	if snapshot.State == domain.TimerOvertime {
		snapshot.Display = "+" + domain.FormatClock(now.Sub(session.EndTime))
	} else {
		snapshot.Display = domain.FormatClock(elapsed)
	}
	return snapshot
}
