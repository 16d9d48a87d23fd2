// Package notify dispatches the one-shot goal notification. Negotiating user
// permission for system notifications belongs to whatever front end embeds
// the core; this package only hands the event over.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier receives the goal-completion event for a user. It is invoked at
// most once per fasting session; the persisted latch upstream guarantees
// that, so implementations need no dedup of their own.
type Notifier interface {
	GoalReached(ctx context.Context, userID int64, goalHours float64)
}

// LogNotifier writes the notification to the application log. It doubles as
// the default sink when no platform notifier is wired in.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) GoalReached(ctx context.Context, userID int64, goalHours float64) {
	n.logger.WithField("user_id", userID).Infof("fasting goal of %g hours reached", goalHours)
}

var _ Notifier = (*LogNotifier)(nil)
