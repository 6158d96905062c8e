package model

import "time"

// ScheduleStatus represents the lifecycle state of a schedule entry
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// Valid reports whether s is one of the known schedule statuses.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// Schedule is a user-created follow-up reminder, optionally linked to a
// ticket. Status transitions are user-driven except NotificationSent, which
// the reminder loop flips false->true exactly once.
type Schedule struct {
	ID               string         `json:"id"`
	TicketID         string         `json:"srIdx,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Date             string         `json:"date"` // YYYY-MM-DD
	Time             string         `json:"time"` // HH:MM
	Status           ScheduleStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	TicketTitle      string         `json:"requestTitle,omitempty"`
	NotificationSent bool           `json:"notificationSent"`
}

// DueTime parses the schedule's date and time in the given location.
func (s Schedule) DueTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.Time, loc)
}
