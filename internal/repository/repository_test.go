package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
	"github.com/Kerhoff/Schedulo/pkg/logger"
)

// fakeClient is an in-memory provider.Client. Setting err makes every call
// fail with it.
type fakeClient struct {
	mu             sync.Mutex
	calendars      []provider.CalendarRow
	events         []provider.EventRow
	reminders      []provider.ReminderRow
	nextCalendarID int64
	nextEventID    int64
	nextReminderID int64
	err            error
}

func newFakeClient() *fakeClient {
	return &fakeClient{nextCalendarID: 1, nextEventID: 1, nextReminderID: 1}
}

func (f *fakeClient) addCalendar(row provider.CalendarRow) int64 {
	id, _ := f.InsertCalendar(context.Background(), row)
	return id
}

func (f *fakeClient) QueryCalendars(_ context.Context, filter provider.CalendarFilter) ([]provider.CalendarRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []provider.CalendarRow
	for _, c := range f.calendars {
		if filter.ID != nil && c.ID != *filter.ID {
			continue
		}
		if filter.AccountType != nil && c.AccountType != *filter.AccountType {
			continue
		}
		if filter.SyncEnabled != nil && c.SyncEnabled != *filter.SyncEnabled {
			continue
		}
		if filter.Visible != nil && c.Visible != *filter.Visible {
			continue
		}
		out = append(out, c)
	}
	if filter.PrimaryFirst {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsPrimary != out[j].IsPrimary {
				return out[i].IsPrimary
			}
			return out[i].DisplayName < out[j].DisplayName
		})
	}
	return out, nil
}

func (f *fakeClient) InsertCalendar(_ context.Context, row provider.CalendarRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	row.ID = f.nextCalendarID
	f.nextCalendarID++
	f.calendars = append(f.calendars, row)
	return row.ID, nil
}

func (f *fakeClient) QueryEvents(_ context.Context, filter provider.EventFilter) ([]provider.EventRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []provider.EventRow
	for _, e := range f.events {
		if filter.ID != nil && e.ID != *filter.ID {
			continue
		}
		if filter.CalendarID != nil && e.CalendarID != *filter.CalendarID {
			continue
		}
		if filter.StartFrom != nil && e.DTStart < *filter.StartFrom {
			continue
		}
		if r := filter.Overlaps; r != nil {
			end := int64(0)
			if e.DTEnd != nil {
				end = *e.DTEnd
			}
			startsIn := e.DTStart >= r.From && e.DTStart < r.To
			runsInto := e.DTStart < r.From && end >= r.From
			if !startsIn && !runsInto {
				continue
			}
		}
		if filter.Match != "" {
			needle := strings.ToLower(filter.Match)
			if !strings.Contains(strings.ToLower(e.Title), needle) &&
				!strings.Contains(strings.ToLower(e.Description), needle) &&
				!strings.Contains(strings.ToLower(e.Location), needle) {
				continue
			}
		}
		out = append(out, e)
	}
	switch filter.SortBy {
	case provider.SortByStartAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DTStart < out[j].DTStart })
	case provider.SortByStartDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DTStart > out[j].DTStart })
	}
	return out, nil
}

func (f *fakeClient) InsertEvent(_ context.Context, row provider.EventRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	row.ID = f.nextEventID
	f.nextEventID++
	f.events = append(f.events, row)
	return row.ID, nil
}

func (f *fakeClient) UpdateEvent(_ context.Context, id int64, row provider.EventRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for i, e := range f.events {
		if e.ID == id {
			row.ID = id
			row.CalendarID = e.CalendarID // updates never re-parent
			f.events[i] = row
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeClient) DeleteEvent(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for i, e := range f.events {
		if e.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeClient) QueryReminders(_ context.Context, eventID int64) ([]provider.ReminderRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []provider.ReminderRow
	for _, r := range f.reminders {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeClient) InsertReminder(_ context.Context, row provider.ReminderRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	row.ID = f.nextReminderID
	f.nextReminderID++
	f.reminders = append(f.reminders, row)
	return row.ID, nil
}

func (f *fakeClient) DeleteReminders(_ context.Context, eventID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var kept []provider.ReminderRow
	var removed int64
	for _, r := range f.reminders {
		if r.EventID == eventID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.reminders = kept
	return removed, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestRepo(t *testing.T, client provider.Client) *Repository {
	t.Helper()
	r := New(client, time.UTC, logger.NewSilent())
	t.Cleanup(r.Close)
	return r
}

func syncEnabledCalendar(name string) provider.CalendarRow {
	return provider.CalendarRow{
		DisplayName: name,
		AccountName: "someone@example.com",
		AccountType: provider.AccountTypeGoogle,
		SyncEnabled: true,
		Visible:     true,
	}
}

type opResult struct {
	id  int64
	err error
}

func insertSync(t *testing.T, r *Repository, e *models.Event) (int64, error) {
	t.Helper()
	ch := make(chan opResult, 1)
	r.Insert(e, func(id int64, err error) { ch <- opResult{id, err} })
	res := <-ch
	return res.id, res.err
}

func updateSync(t *testing.T, r *Repository, e *models.Event) (int64, error) {
	t.Helper()
	ch := make(chan opResult, 1)
	r.Update(e, func(id int64, err error) { ch <- opResult{id, err} })
	res := <-ch
	return res.id, res.err
}

func deleteSync(t *testing.T, r *Repository, e *models.Event) (int64, error) {
	t.Helper()
	ch := make(chan opResult, 1)
	r.Delete(e, func(id int64, err error) { ch <- opResult{id, err} })
	res := <-ch
	return res.id, res.err
}

func getByIDSync(t *testing.T, r *Repository, id int64) (*models.Event, error) {
	t.Helper()
	type result struct {
		event *models.Event
		err   error
	}
	ch := make(chan result, 1)
	r.GetEventByID(id, func(event *models.Event, err error) { ch <- result{event, err} })
	res := <-ch
	return res.event, res.err
}

func eventsSync(t *testing.T, submit func(EventsCallback)) ([]*models.Event, error) {
	t.Helper()
	type result struct {
		events []*models.Event
		err    error
	}
	ch := make(chan result, 1)
	submit(func(events []*models.Event, err error) { ch <- result{events, err} })
	res := <-ch
	return res.events, res.err
}

func millis(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestInsertRoundTrip(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	event := &models.Event{
		CalendarID:      calID,
		Title:           "Dentist",
		Location:        "Main St 5",
		Description:     "Bring insurance card",
		StartTime:       millis(2026, time.March, 10, 9),
		EndTime:         millis(2026, time.March, 10, 10),
		ReminderMinutes: 30,
	}

	id, err := insertSync(t, repo, event)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id <= 0 {
		t.Fatalf("insert returned id %d", id)
	}

	got, err := getByIDSync(t, repo, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("inserted event not found")
	}
	if got.Title != event.Title || got.Location != event.Location || got.Description != event.Description {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.AllDay != event.AllDay || got.ReminderMinutes != 30 {
		t.Errorf("flags lost: allDay=%v reminder=%d", got.AllDay, got.ReminderMinutes)
	}
	if got.EndTime < got.StartTime {
		t.Errorf("end %d before start %d", got.EndTime, got.StartTime)
	}
}

func TestInsertAllDayDefaultsToOneDay(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Home"))
	repo := newTestRepo(t, client)

	start := millis(2026, time.June, 1, 0)
	event := &models.Event{
		CalendarID: calID,
		Title:      "Holiday",
		StartTime:  start,
		EndTime:    start, // no explicit end
		AllDay:     true,
		TimeZone:   "UTC",
	}

	id, err := insertSync(t, repo, event)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := getByIDSync(t, repo, id)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	wantEnd := start + 24*time.Hour.Milliseconds()
	if got.EndTime != wantEnd {
		t.Errorf("all-day end: got %d, want %d", got.EndTime, wantEnd)
	}
}

func TestInsertInstantaneousEvent(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Home"))
	repo := newTestRepo(t, client)

	start := millis(2026, time.June, 2, 12)
	id, err := insertSync(t, repo, &models.Event{
		CalendarID: calID,
		Title:      "Ping",
		StartTime:  start,
		EndTime:    start - 1000, // end before start: stored as instantaneous
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, _ := getByIDSync(t, repo, id)
	if got.EndTime != start {
		t.Errorf("instantaneous end: got %d, want %d", got.EndTime, start)
	}
}

func TestInsertWithoutCalendarPicksGooglePrimary(t *testing.T) {
	client := newFakeClient()
	other := syncEnabledCalendar("Other")
	other.AccountType = "com.example"
	client.addCalendar(other)
	client.addCalendar(syncEnabledCalendar("Google secondary"))
	primary := syncEnabledCalendar("Google primary")
	primary.IsPrimary = true
	primaryID := client.addCalendar(primary)
	repo := newTestRepo(t, client)

	event := &models.Event{Title: "Auto", StartTime: millis(2026, time.May, 1, 8)}
	if _, err := insertSync(t, repo, event); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if event.CalendarID != primaryID {
		t.Errorf("auto-selected calendar %d, want primary %d", event.CalendarID, primaryID)
	}
}

func TestInsertProvisionsLocalCalendarWhenStoreIsEmpty(t *testing.T) {
	client := newFakeClient()
	repo := newTestRepo(t, client)

	event := &models.Event{Title: "First ever", StartTime: millis(2026, time.May, 2, 8)}
	id, err := insertSync(t, repo, event)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if event.CalendarID <= 0 {
		t.Fatalf("no calendar assigned")
	}

	cals, err := client.QueryCalendars(context.Background(), provider.CalendarFilter{})
	if err != nil || len(cals) != 1 {
		t.Fatalf("expected exactly one provisioned calendar, got %d (%v)", len(cals), err)
	}
	if cals[0].AccountType != provider.AccountTypeLocal || !cals[0].SyncEnabled || !cals[0].Visible {
		t.Errorf("local calendar misconfigured: %+v", cals[0])
	}
	if event.CalendarID != cals[0].ID {
		t.Errorf("event filed under %d, want %d", event.CalendarID, cals[0].ID)
	}

	got, _ := getByIDSync(t, repo, id)
	if got == nil || got.CalendarID != cals[0].ID {
		t.Errorf("read-back calendar mismatch: %+v", got)
	}
}

func TestInsertFailsWhenCalendarVanished(t *testing.T) {
	client := newFakeClient()
	repo := newTestRepo(t, client)

	_, err := insertSync(t, repo, &models.Event{
		CalendarID: 42, // never existed
		Title:      "Ghost",
		StartTime:  millis(2026, time.May, 3, 8),
	})
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("want ErrCalendarUnavailable, got %v", err)
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	event := &models.Event{
		CalendarID: calID,
		Title:      "Old title",
		Location:   "Old place",
		StartTime:  millis(2026, time.April, 1, 9),
		EndTime:    millis(2026, time.April, 1, 10),
	}
	id, err := insertSync(t, repo, event)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	event.ID = id
	event.Title = "New title"
	event.Location = "New place"
	event.StartTime = millis(2026, time.April, 2, 9)
	event.EndTime = millis(2026, time.April, 2, 11)

	gotID, err := updateSync(t, repo, event)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotID != id {
		t.Errorf("update changed id: %d -> %d", id, gotID)
	}

	got, _ := getByIDSync(t, repo, id)
	if got.Title != "New title" || got.Location != "New place" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.StartTime != event.StartTime || got.EndTime != event.EndTime {
		t.Errorf("times not applied: %+v", got)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	repo := newTestRepo(t, newFakeClient())
	_, err := updateSync(t, repo, &models.Event{Title: "No id"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateMissingEventIsNotFound(t *testing.T) {
	client := newFakeClient()
	client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	_, err := updateSync(t, repo, &models.Event{ID: 99, Title: "Stale"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestReminderReplaceIsIdempotent(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	event := &models.Event{
		CalendarID:      calID,
		Title:           "Standup",
		StartTime:       millis(2026, time.April, 6, 9),
		EndTime:         millis(2026, time.April, 6, 9),
		ReminderMinutes: 10,
	}
	id, err := insertSync(t, repo, event)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	event.ID = id

	for i := 0; i < 2; i++ {
		if _, err := updateSync(t, repo, event); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	rows, err := client.QueryReminders(context.Background(), id)
	if err != nil {
		t.Fatalf("query reminders: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want exactly one reminder record, got %d", len(rows))
	}
	if rows[0].Minutes != 10 {
		t.Errorf("reminder minutes: got %d, want 10", rows[0].Minutes)
	}
}

func TestUpdateClearsReminderWhenZero(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	event := &models.Event{
		CalendarID:      calID,
		Title:           "Lunch",
		StartTime:       millis(2026, time.April, 7, 12),
		EndTime:         millis(2026, time.April, 7, 13),
		ReminderMinutes: 15,
	}
	id, _ := insertSync(t, repo, event)
	event.ID = id
	event.ReminderMinutes = 0

	if _, err := updateSync(t, repo, event); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, _ := client.QueryReminders(context.Background(), id)
	if len(rows) != 0 {
		t.Fatalf("reminder not cleared: %d rows", len(rows))
	}
	got, _ := getByIDSync(t, repo, id)
	if got.ReminderMinutes != 0 {
		t.Errorf("read-back reminder: got %d, want 0", got.ReminderMinutes)
	}
}

func TestDeleteRemovesEventAndReminder(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	event := &models.Event{
		CalendarID:      calID,
		Title:           "Doomed",
		StartTime:       millis(2026, time.April, 8, 9),
		EndTime:         millis(2026, time.April, 8, 10),
		ReminderMinutes: 30,
	}
	id, _ := insertSync(t, repo, event)
	event.ID = id

	if _, err := deleteSync(t, repo, event); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := getByIDSync(t, repo, id)
	if err != nil || got != nil {
		t.Fatalf("event still readable after delete: %v, %v", got, err)
	}
	rows, _ := client.QueryReminders(context.Background(), id)
	if len(rows) != 0 {
		t.Fatalf("reminder survived delete: %d rows", len(rows))
	}
}

func TestDeleteMissingEventIsNotFound(t *testing.T) {
	repo := newTestRepo(t, newFakeClient())
	_, err := deleteSync(t, repo, &models.Event{ID: 7})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := deleteSync(t, repo, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument for nil event, got %v", err)
	}
}

func TestGetEventByIDNotFoundIsNilNotError(t *testing.T) {
	repo := newTestRepo(t, newFakeClient())

	got, err := getByIDSync(t, repo, 12345)
	if err != nil {
		t.Fatalf("missing row must not be an error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}

	got, err = getByIDSync(t, repo, -1)
	if err != nil || got != nil {
		t.Fatalf("invalid id must yield (nil, nil), got %v, %v", got, err)
	}
}

func TestGetEventsByMonthOverlapRule(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	// E1 fully inside March, E2 starts in February and runs into March,
	// E3 entirely in January.
	mustInsert := func(title string, start, end int64) {
		t.Helper()
		if _, err := insertSync(t, repo, &models.Event{
			CalendarID: calID, Title: title, StartTime: start, EndTime: end,
		}); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}
	mustInsert("E1", millis(2026, time.March, 5, 9), millis(2026, time.March, 5, 10))
	mustInsert("E2", millis(2026, time.February, 27, 9), millis(2026, time.March, 2, 10))
	mustInsert("E3", millis(2026, time.January, 10, 9), millis(2026, time.January, 10, 10))

	events, err := eventsSync(t, func(done EventsCallback) {
		repo.GetEventsByMonth("03-2026", done)
	})
	if err != nil {
		t.Fatalf("month query: %v", err)
	}

	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	sort.Strings(titles)
	want := []string{"E1", "E2"}
	if len(titles) != len(want) || titles[0] != want[0] || titles[1] != want[1] {
		t.Fatalf("month filter: got %v, want %v", titles, want)
	}
}

func TestGetEventsByMonthBadKey(t *testing.T) {
	repo := newTestRepo(t, newFakeClient())
	for _, key := range []string{"", "march", "13-2026", "3", "03/2026", "0-2026"} {
		events, err := eventsSync(t, func(done EventsCallback) {
			repo.GetEventsByMonth(key, done)
		})
		if err != nil {
			t.Errorf("key %q: got error %v, want empty result", key, err)
		}
		if len(events) != 0 {
			t.Errorf("key %q: got %d events, want 0", key, len(events))
		}
	}
}

func TestSearchMatchesLocationAlone(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	if _, err := insertSync(t, repo, &models.Event{
		CalendarID: calID,
		Title:      "Offsite",
		Location:   "Rotterdam",
		StartTime:  millis(2026, time.September, 1, 9),
		EndTime:    millis(2026, time.September, 1, 17),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	events, err := eventsSync(t, func(done EventsCallback) {
		repo.SearchEvents("rotter", done)
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Offsite" {
		t.Fatalf("location-only match failed: %+v", events)
	}
}

func TestGetUpcomingEvents(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := newTestRepo(t, client)

	now := time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mustInsert := func(title string, start int64) {
		t.Helper()
		if _, err := insertSync(t, repo, &models.Event{
			CalendarID: calID, Title: title, StartTime: start, EndTime: start,
		}); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}
	mustInsert("past", millis(2026, time.July, 14, 9))
	mustInsert("later", millis(2026, time.July, 20, 9))
	mustInsert("soon", millis(2026, time.July, 16, 9))

	events, err := eventsSync(t, func(done EventsCallback) {
		repo.GetUpcomingEvents(done)
	})
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(events) != 2 || events[0].Title != "soon" || events[1].Title != "later" {
		t.Fatalf("upcoming order wrong: %+v", events)
	}
}

func TestGetAvailableCalendarsSortsPrimaryFirst(t *testing.T) {
	client := newFakeClient()
	b := syncEnabledCalendar("Beta")
	client.addCalendar(b)
	p := syncEnabledCalendar("Zulu")
	p.IsPrimary = true
	client.addCalendar(p)
	a := syncEnabledCalendar("Alpha")
	client.addCalendar(a)
	hidden := syncEnabledCalendar("Hidden")
	hidden.Visible = false
	client.addCalendar(hidden)
	repo := newTestRepo(t, client)

	type result struct {
		calendars []models.CalendarInfo
		err       error
	}
	ch := make(chan result, 1)
	repo.GetAvailableCalendars(func(calendars []models.CalendarInfo, err error) {
		ch <- result{calendars, err}
	})
	res := <-ch
	if res.err != nil {
		t.Fatalf("calendars: %v", res.err)
	}
	var names []string
	for _, c := range res.calendars {
		names = append(names, c.DisplayName)
	}
	want := []string{"Zulu", "Alpha", "Beta"}
	if len(names) != 3 || names[0] != want[0] || names[1] != want[1] || names[2] != want[2] {
		t.Fatalf("calendar order: got %v, want %v", names, want)
	}
}

func TestPermissionDeniedPropagates(t *testing.T) {
	client := newFakeClient()
	client.err = provider.ErrPermissionDenied
	repo := newTestRepo(t, client)

	_, err := eventsSync(t, repo.GetAllEvents)
	if !errors.Is(err, provider.ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestOperationsAfterCloseReportErrClosed(t *testing.T) {
	repo := New(newFakeClient(), time.UTC, logger.NewSilent())
	repo.Close()

	_, err := insertSync(t, repo, &models.Event{Title: "Late"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	_, err = eventsSync(t, repo.GetAllEvents)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestCloseDrainsPendingOperations(t *testing.T) {
	client := newFakeClient()
	calID := client.addCalendar(syncEnabledCalendar("Work"))
	repo := New(client, time.UTC, logger.NewSilent())

	const n = 20
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		repo.Insert(&models.Event{
			CalendarID: calID,
			Title:      "burst",
			StartTime:  millis(2026, time.August, 1, 9),
			EndTime:    millis(2026, time.August, 1, 10),
		}, func(_ int64, err error) { results <- err })
	}
	repo.Close()

	for i := 0; i < n; i++ {
		if err := <-results; err != nil {
			t.Fatalf("queued insert %d failed: %v", i, err)
		}
	}
}
