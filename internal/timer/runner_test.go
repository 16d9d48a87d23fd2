package timer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fasttrack/internal/notify"
	"fasttrack/internal/repository/sqlite"
	"fasttrack/internal/service"
)

func setupRunner(t *testing.T) (*Runner, service.TimerService) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))

	timers := service.NewTimerService(sqlite.NewStore(db), notify.NewLogNotifier(nil))
	runner := NewRunner(Config{TickInterval: 10 * time.Millisecond}, timers)
	runner.Start(context.Background())
	t.Cleanup(runner.Shutdown)
	return runner, timers
}

func TestWatch_StopsWhenSessionEnds(t *testing.T) {
	runner, timers := setupRunner(t)
	ctx := context.Background()

	_, err := timers.Start(ctx, 1, 16)
	require.NoError(t, err)

	runner.Watch(1)
	runner.Watch(1) // idempotent

	_, err = timers.End(ctx, 1)
	require.NoError(t, err)

	// the loop notices the idle state on its next tick and drains itself
	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		_, watching := runner.active[1]
		return !watching
	}, time.Second, 10*time.Millisecond)
}

func TestCancel_StopsLoop(t *testing.T) {
	runner, timers := setupRunner(t)
	ctx := context.Background()

	_, err := timers.Start(ctx, 1, 16)
	require.NoError(t, err)
	runner.Watch(1)

	cancelCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, runner.Cancel(cancelCtx, 1))

	// canceling an unwatched user is a no-op
	require.NoError(t, runner.Cancel(cancelCtx, 42))
}
