package models

import "time"

// Event represents a single calendar entry. The calendar store is the source
// of truth; an Event value is a transient in-memory copy of one of its rows.
type Event struct {
	ID              int64  `json:"id" db:"id"`
	CalendarID      int64  `json:"calendar_id" db:"calendar_id"`
	TimeZone        string `json:"time_zone" db:"event_timezone"`
	Title           string `json:"title" db:"title"`
	Location        string `json:"location" db:"location"`
	Description     string `json:"description" db:"description"`
	StartTime       int64  `json:"start_time" db:"dtstart"` // milliseconds since epoch, UTC
	EndTime         int64  `json:"end_time" db:"dtend"`     // milliseconds since epoch, UTC
	AllDay          bool   `json:"all_day" db:"all_day"`
	ReminderMinutes int    `json:"reminder_minutes"` // 0 or negative means no reminder
}

// NewEvent returns an event with the defaults the edit form starts from:
// not yet persisted, starting now, instantaneous, reminder 15 minutes before.
func NewEvent() *Event {
	now := time.Now().UnixMilli()
	return &Event{
		TimeZone:        time.Local.String(),
		StartTime:       now,
		EndTime:         now,
		ReminderMinutes: 15,
	}
}

// Start returns the start instant as a time.Time.
func (e *Event) Start() time.Time {
	return time.UnixMilli(e.StartTime)
}

// End returns the end instant as a time.Time.
func (e *Event) End() time.Time {
	return time.UnixMilli(e.EndTime)
}

// IsUpcoming returns true if the event hasn't started yet.
func (e *Event) IsUpcoming() bool {
	return time.Now().UnixMilli() < e.StartTime
}

// Overlaps reports whether the event overlaps the half-open interval
// [from, to) in milliseconds: it either starts inside the interval, or
// started earlier but is still running when the interval begins.
func (e *Event) Overlaps(from, to int64) bool {
	if e.StartTime >= from && e.StartTime < to {
		return true
	}
	return e.StartTime < from && e.EndTime >= from
}

// HasReminder returns true if a reminder should fire for this event.
func (e *Event) HasReminder() bool {
	return e.ReminderMinutes > 0
}

// ReminderAt returns the instant the reminder fires: start time minus the
// reminder lead. The result is meaningless when HasReminder is false.
func (e *Event) ReminderAt() time.Time {
	return time.UnixMilli(e.StartTime - int64(e.ReminderMinutes)*60_000)
}
