package domain

import "time"

// DayBucket is one calendar day of the weekly chart. Hours sums the duration
// of every session whose end time fell inside the day's local window.
type DayBucket struct {
	Date   time.Time `json:"date"`
	Hours  float64   `json:"hours"`
	Active bool      `json:"active"`
}

// HistorySummary aggregates a user's fasting history for display.
type HistorySummary struct {
	TotalHours        float64     `json:"totalHours"`
	Streak            int         `json:"streak"`
	TotalSessions     int         `json:"totalSessions"`
	CompletedSessions int         `json:"completedSessions"`
	Weekly            []DayBucket `json:"weekly"`
}
