// Package timer drives the recurring tick for active fasting sessions.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fasttrack/internal/domain"
	"fasttrack/internal/service"
)

// Runner owns one cooperative tick loop per fasting user. Canceling a loop is
// the only cancellation semantic; the fast itself has no timeout and may sit
// in overtime indefinitely.
type Runner struct {
	cfg    Config
	timers service.TimerService

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[int64]*watchHandle
}

type Config struct {
	TickInterval time.Duration
	Logger       *logrus.Logger
}

type watchHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(cfg Config, timers service.TimerService) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Runner{
		cfg:    cfg,
		timers: timers,
		active: make(map[int64]*watchHandle),
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.cfg.Logger.Infof("timer runner started, tick interval %s", r.cfg.TickInterval)
}

func (r *Runner) Shutdown() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.cfg.Logger.Info("timer runner stopped")
}

// Resume restarts tick loops for every fast that was active when the process
// last stopped, so goal notifications still fire after a restart.
func (r *Runner) Resume(ctx context.Context) error {
	sessions, err := r.timers.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	for i := range sessions {
		r.Watch(sessions[i].UserID)
	}
	return nil
}

// Watch starts the tick loop for a user. Idempotent: a user already being
// watched keeps their existing loop.
func (r *Runner) Watch(userID int64) {
	r.mu.Lock()
	if _, ok := r.active[userID]; ok {
		r.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(r.ctx)
	handle := &watchHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.active[userID] = handle
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.unregister(userID)
			close(handle.done)
		}()
		r.watchLoop(loopCtx, userID)
	}()
}

// Cancel stops a user's tick loop and waits for it to drain.
func (r *Runner) Cancel(ctx context.Context, userID int64) error {
	r.mu.Lock()
	handle, ok := r.active[userID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	handle.cancel()

	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) unregister(userID int64) {
	r.mu.Lock()
	delete(r.active, userID)
	r.mu.Unlock()
}

func (r *Runner) watchLoop(ctx context.Context, userID int64) {
	logger := r.cfg.Logger.WithField("user_id", userID)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("tick loop cancelled")
			return
		case <-ticker.C:
			snapshot, err := r.timers.Tick(ctx, userID, time.Now())
			if err != nil {
				// surfaced, never retried beyond the next scheduled tick
				logger.Warnf("tick: %v", err)
				continue
			}
			if snapshot.State == domain.TimerIdle {
				logger.Debug("session ended, stopping tick loop")
				return
			}
		}
	}
}
