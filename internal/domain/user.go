package domain

import "time"

// User represents a registered account. PasswordHash is a bcrypt digest and
// never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Profile carries the display attributes attached to a user at registration.
type Profile struct {
	UserID   int64
	Name     string
	JoinedAt time.Time
	IsGuest  bool
}

// Settings holds the per-user fasting preferences. Defaults apply when no row
// has been written yet.
type Settings struct {
	UserID        int64
	GoalHours     float64
	Theme         string
	Notifications bool
}

// DefaultSettings returns the settings written for a fresh account.
func DefaultSettings(userID int64, goalHours float64) Settings {
	return Settings{
		UserID:        userID,
		GoalHours:     goalHours,
		Theme:         "light",
		Notifications: true,
	}
}

// AuthState is the persisted "who is logged in" singleton. At most one row
// exists; its absence means logged out.
type AuthState struct {
	UserID    int64
	LoginTime time.Time
}
