// Package service is the coordination layer between the transport (HTTP) and
// the repository: it validates and normalizes events before they are
// persisted, adapts the repository's callback contract to plain calls, and
// keeps reminder alarms in step with successful writes.
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/repository"
)

// ErrTitleRequired reports an event submitted without a title.
var ErrTitleRequired = errors.New("title is required")

// ReminderScheduler arms and disarms the timed notification for an event.
type ReminderScheduler interface {
	Schedule(eventID int64, title string, fireAt time.Time)
	Cancel(eventID int64)
}

// Service wraps the repository for synchronous callers.
type Service struct {
	repo      *repository.Repository
	scheduler ReminderScheduler
	logger    *logrus.Logger
	loc       *time.Location
}

// New creates a Service. scheduler may be nil, in which case reminder alarms
// are simply not armed.
func New(repo *repository.Repository, scheduler ReminderScheduler, loc *time.Location, logger *logrus.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, scheduler: scheduler, logger: logger, loc: loc}
}

// CreateEvent validates and persists a new event, then arms its reminder.
// Returns the assigned id.
func (s *Service) CreateEvent(event *models.Event) (int64, error) {
	if err := s.normalize(event); err != nil {
		return 0, err
	}
	id, err := s.awaitOp(func(done repository.OpCallback) {
		s.repo.Insert(event, done)
	})
	if err != nil {
		return 0, err
	}
	event.ID = id
	s.syncReminder(event)
	return id, nil
}

// UpdateEvent validates and rewrites an existing event, then re-arms or
// disarms its reminder.
func (s *Service) UpdateEvent(event *models.Event) error {
	if err := s.normalize(event); err != nil {
		return err
	}
	if _, err := s.awaitOp(func(done repository.OpCallback) {
		s.repo.Update(event, done)
	}); err != nil {
		return err
	}
	s.syncReminder(event)
	return nil
}

// DeleteEvent removes an event and cancels its reminder.
func (s *Service) DeleteEvent(event *models.Event) error {
	id, err := s.awaitOp(func(done repository.OpCallback) {
		s.repo.Delete(event, done)
	})
	if err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(id)
	}
	return nil
}

// EventByID returns one event, or nil when it does not exist.
func (s *Service) EventByID(id int64) (*models.Event, error) {
	type result struct {
		event *models.Event
		err   error
	}
	ch := make(chan result, 1)
	s.repo.GetEventByID(id, func(event *models.Event, err error) {
		ch <- result{event, err}
	})
	res := <-ch
	return res.event, res.err
}

// ListEvents returns all events when query is empty, otherwise the search
// results for it.
func (s *Service) ListEvents(query string) ([]*models.Event, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.awaitEvents(s.repo.GetAllEvents)
	}
	return s.awaitEvents(func(done repository.EventsCallback) {
		s.repo.SearchEvents(query, done)
	})
}

// MonthEvents returns the events overlapping the month named by monthKey.
func (s *Service) MonthEvents(monthKey string) ([]*models.Event, error) {
	return s.awaitEvents(func(done repository.EventsCallback) {
		s.repo.GetEventsByMonth(monthKey, done)
	})
}

// MonthListing returns the month's events as a grouped listing with month
// headers.
func (s *Service) MonthListing(monthKey string) ([]models.ListItem, error) {
	events, err := s.MonthEvents(monthKey)
	if err != nil {
		return nil, err
	}
	return s.GroupByMonth(events), nil
}

// UpcomingEvents returns events that have not started yet.
func (s *Service) UpcomingEvents() ([]*models.Event, error) {
	return s.awaitEvents(s.repo.GetUpcomingEvents)
}

// Calendars returns the calendars an event may be filed under.
func (s *Service) Calendars() ([]models.CalendarInfo, error) {
	type result struct {
		calendars []models.CalendarInfo
		err       error
	}
	ch := make(chan result, 1)
	s.repo.GetAvailableCalendars(func(calendars []models.CalendarInfo, err error) {
		ch <- result{calendars, err}
	})
	res := <-ch
	return res.calendars, res.err
}

// GroupByMonth folds a start-sorted event list into a listing where every
// run of events sharing a month is preceded by one header for it.
func (s *Service) GroupByMonth(events []*models.Event) []models.ListItem {
	items := make([]models.ListItem, 0, len(events))
	lastMonth, lastYear := 0, 0
	for _, event := range events {
		start := event.Start().In(s.loc)
		month, year := int(start.Month()), start.Year()
		if month != lastMonth || year != lastYear {
			items = append(items, models.MonthHeader{Month: month, Year: year})
			lastMonth, lastYear = month, year
		}
		items = append(items, models.EventItem{Event: event})
	}
	return items
}

// normalize applies the edit-form rules before a write: a title is
// mandatory; all-day events snap to local midnight and span exactly one
// day; an end before the start is clamped to the start.
func (s *Service) normalize(event *models.Event) error {
	if event == nil {
		return repository.ErrInvalidArgument
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return ErrTitleRequired
	}

	if event.AllDay {
		start := time.UnixMilli(event.StartTime).In(s.loc)
		midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
		event.StartTime = midnight.UnixMilli()
		if event.EndTime <= event.StartTime {
			event.EndTime = midnight.AddDate(0, 0, 1).UnixMilli()
		}
	} else if event.EndTime < event.StartTime {
		s.logger.Warnf("Event %q: end before start, clamping to start", event.Title)
		event.EndTime = event.StartTime
	}
	return nil
}

// syncReminder arms or disarms the reminder alarm to match the event just
// written.
func (s *Service) syncReminder(event *models.Event) {
	if s.scheduler == nil {
		return
	}
	if event.HasReminder() {
		s.scheduler.Schedule(event.ID, event.Title, event.ReminderAt())
	} else {
		s.scheduler.Cancel(event.ID)
	}
}

func (s *Service) awaitOp(submit func(repository.OpCallback)) (int64, error) {
	type result struct {
		id  int64
		err error
	}
	ch := make(chan result, 1)
	submit(func(id int64, err error) {
		ch <- result{id, err}
	})
	res := <-ch
	return res.id, res.err
}

func (s *Service) awaitEvents(submit func(repository.EventsCallback)) ([]*models.Event, error) {
	type result struct {
		events []*models.Event
		err    error
	}
	ch := make(chan result, 1)
	submit(func(events []*models.Event, err error) {
		ch <- result{events, err}
	})
	res := <-ch
	return res.events, res.err
}
