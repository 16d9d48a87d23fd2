package domain

import (
	"fmt"
	"time"
)

// TimerState describes what the active-session timer is doing for a user.
// It is always re-derived from the persisted CurrentSession row plus the
// clock, never cached in memory, so a process restart cannot lose it.
type TimerState string

const (
	TimerIdle     TimerState = "idle"
	TimerRunning  TimerState = "running"
	TimerOvertime TimerState = "overtime"
)

// CurrentSession is the single in-progress fast for a user. The user id is the
// primary key, so the engine itself enforces at most one active fast per user.
type CurrentSession struct {
	UserID           int64
	StartTime        time.Time
	EndTime          time.Time
	GoalHours        float64
	NotificationSent bool
}

// State derives the timer state at the given instant.
func (s *CurrentSession) State(now time.Time) TimerState {
	if s == nil {
		return TimerIdle
	}
	if now.Before(s.EndTime) {
		return TimerRunning
	}
	return TimerOvertime
}

// HistorySession is an immutable record appended when a fast ends.
type HistorySession struct {
	ID        int64
	UserID    int64
	StartTime time.Time
	EndTime   time.Time
	Duration  float64 // hours
	GoalHours float64
	Completed bool
}

// TimerSnapshot is the display-ready view of a session computed by a tick.
type TimerSnapshot struct {
	State     TimerState
	StartTime time.Time
	EndTime   time.Time
	GoalHours float64
	Elapsed   time.Duration
	Remaining time.Duration
	Progress  float64
	Display   string
}

// FormatClock renders a duration as H:MM:SS, the form the timer display uses.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Snapshot is the export document for a single user: profile, preferences and
// the full fasting history. Export only; there is no import path.
type Snapshot struct {
	Profile    Profile          `json:"profile"`
	Sessions   []HistorySession `json:"sessions"`
	Settings   Settings         `json:"settings"`
	ExportedAt time.Time        `json:"exportedAt"`
}
