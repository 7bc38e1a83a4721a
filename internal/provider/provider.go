// Package provider defines the contract to the shared calendar store. The
// store is external: other applications read and write it concurrently, and
// nothing above this package may assume a row it read is still there.
package provider

import "context"

// Account type of a calendar row. Google calendars are preferred during
// default-calendar discovery; the local type marks calendars provisioned by
// this application when no usable calendar exists.
const (
	AccountTypeGoogle = "com.google"
	AccountTypeLocal  = "local"
)

// LocalAccountName is the synthetic account that owns self-provisioned
// calendars.
const LocalAccountName = "LocalCalendar"

// Reminder delivery method. Only alerts are written by this application.
const MethodAlert = "alert"

// DurationOneDay is the duration encoding the store uses for all-day events
// that carry no explicit end.
const DurationOneDay = "P1D"

// AccessOwner is the access level granted on self-provisioned calendars.
const AccessOwner = 700

// CalendarRow mirrors one row of the store's calendars collection.
type CalendarRow struct {
	ID           int64
	DisplayName  string
	AccountName  string
	AccountType  string
	OwnerAccount string
	TimeZone     string
	IsPrimary    bool
	SyncEnabled  bool
	Visible      bool
	AccessLevel  int
}

// EventRow mirrors one row of the store's events collection. DTEnd and
// Duration are nullable: the store accepts either an explicit end instant or
// a duration string, never requires both.
type EventRow struct {
	ID          int64
	CalendarID  int64
	Title       string
	Location    string
	Description string
	DTStart     int64
	DTEnd       *int64
	Duration    *string
	TimeZone    string
	AllDay      bool
}

// ReminderRow mirrors one row of the reminders sub-collection, keyed by the
// event it belongs to.
type ReminderRow struct {
	ID      int64
	EventID int64
	Method  string
	Minutes int
}

// TimeRange is a half-open interval [From, To) in epoch milliseconds.
type TimeRange struct {
	From int64
	To   int64
}

// EventFilter narrows an event query. Nil/zero fields are ignored. Overlaps
// selects rows that start inside the range or start before it and end at or
// after its beginning; Match is a substring matched against title,
// description and location with OR semantics, case rules delegated to the
// store's text-match operator.
type EventFilter struct {
	ID         *int64
	CalendarID *int64
	StartFrom  *int64
	Overlaps   *TimeRange
	Match      string
	SortBy     EventSort
}

// EventSort orders event query results.
type EventSort int

const (
	SortUnspecified EventSort = iota
	SortByStartAsc
	SortByStartDesc
)

// CalendarFilter narrows a calendar query. PrimaryFirst sorts primary
// calendars before the rest, then by display name.
type CalendarFilter struct {
	ID           *int64
	AccountType  *string
	SyncEnabled  *bool
	Visible      *bool
	PrimaryFirst bool
}

// Client is the store access contract the repository depends on. Missing
// rows are empty results, not errors; errors mean the store itself failed
// (permission denied, transport, corruption).
type Client interface {
	QueryCalendars(ctx context.Context, filter CalendarFilter) ([]CalendarRow, error)
	InsertCalendar(ctx context.Context, row CalendarRow) (int64, error)

	QueryEvents(ctx context.Context, filter EventFilter) ([]EventRow, error)
	InsertEvent(ctx context.Context, row EventRow) (int64, error)
	UpdateEvent(ctx context.Context, id int64, row EventRow) (int64, error)
	DeleteEvent(ctx context.Context, id int64) (int64, error)

	QueryReminders(ctx context.Context, eventID int64) ([]ReminderRow, error)
	InsertReminder(ctx context.Context, row ReminderRow) (int64, error)
	DeleteReminders(ctx context.Context, eventID int64) (int64, error)
}

// Int64 returns a pointer to v, for filter literals.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v, for filter literals.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for filter literals.
func String(v string) *string { return &v }
