// Package repository is the sole mediator between the domain model and the
// external calendar store. Every operation runs on a single worker owned by
// the Repository, strictly one at a time in submission order, and reports its
// result through a one-shot callback. Callers never block; once submitted an
// operation cannot be cancelled.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
)

// OpCallback delivers the result of a write operation: the id of the
// affected event, or an error. Invoked exactly once, from the worker
// goroutine.
type OpCallback func(id int64, err error)

// EventCallback delivers a single event. A nil event with a nil error is the
// not-found signal, distinct from a store failure.
type EventCallback func(event *models.Event, err error)

// EventsCallback delivers a snapshot list of events. The list reflects the
// store at read time and is never refreshed; re-invoke to get a newer one.
type EventsCallback func(events []*models.Event, err error)

// CalendarsCallback delivers the list of usable calendars.
type CalendarsCallback func(calendars []models.CalendarInfo, err error)

// Repository owns the worker queue and the store client.
type Repository struct {
	client provider.Client
	logger *logrus.Logger
	loc    *time.Location
	now    func() time.Time

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func(ctx context.Context)
	closed bool
	done   chan struct{}
}

// New creates a repository over the given store client and starts its
// worker. loc is the zone month boundaries and all-day arithmetic are
// computed in; nil means the system default. Call Close when done.
func New(client provider.Client, loc *time.Location, logger *logrus.Logger) *Repository {
	if loc == nil {
		loc = time.Local
	}
	r := &Repository{
		client: client,
		logger: logger,
		loc:    loc,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

// Close stops accepting new operations, waits for already-submitted ones to
// finish, and returns. Safe to call more than once.
func (r *Repository) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
	<-r.done
}

// enqueue appends fn to the worker queue. It reports false when the
// repository is closed.
func (r *Repository) enqueue(fn func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.queue = append(r.queue, fn)
	r.cond.Signal()
	return true
}

// run is the worker loop. After Close it drains what was already queued,
// then exits.
func (r *Repository) run() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		fn(context.Background())
	}
}

// Insert persists a new event, resolving a usable calendar first if the
// event does not name one, and writes its companion reminder record. The
// callback receives the assigned id.
func (r *Repository) Insert(event *models.Event, done OpCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		id, err := r.doInsert(ctx, event)
		r.observe(opInsert, err)
		done(id, err)
	})
	if !ok {
		done(0, ErrClosed)
	}
}

// Update rewrites the mutable fields of an existing event and replaces its
// reminder record. The event keeps its id and its calendar.
func (r *Repository) Update(event *models.Event, done OpCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		id, err := r.doUpdate(ctx, event)
		r.observe(opUpdate, err)
		done(id, err)
	})
	if !ok {
		done(0, ErrClosed)
	}
}

// Delete removes an event and its reminder records.
func (r *Repository) Delete(event *models.Event, done OpCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		id, err := r.doDelete(ctx, event)
		r.observe(opDelete, err)
		done(id, err)
	})
	if !ok {
		done(0, ErrClosed)
	}
}

// GetEventByID fetches one event. A missing row or a non-positive id yields
// (nil, nil), not an error.
func (r *Repository) GetEventByID(id int64, done EventCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		event, err := r.doGetEventByID(ctx, id)
		r.observe(opGetByID, err)
		done(event, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}

// GetAllEvents reads every event across all calendars, sorted by start time
// ascending.
func (r *Repository) GetAllEvents(done EventsCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		events, err := r.doGetAllEvents(ctx)
		r.observe(opGetAll, err)
		done(events, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}

// GetEventsByMonth returns the events overlapping the month named by
// monthKey ("MM-YYYY"). A malformed key yields an empty list, not an error.
func (r *Repository) GetEventsByMonth(monthKey string, done EventsCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		events, err := r.doGetEventsByMonth(ctx, monthKey)
		r.observe(opGetByMonth, err)
		done(events, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}

// SearchEvents returns events whose title, description or location contains
// the query string. Callers should not pass an empty query; use
// GetAllEvents instead.
func (r *Repository) SearchEvents(query string, done EventsCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		events, err := r.doSearchEvents(ctx, query)
		r.observe(opSearch, err)
		done(events, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}

// GetUpcomingEvents returns events that have not started yet, soonest first.
func (r *Repository) GetUpcomingEvents(done EventsCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		events, err := r.doGetUpcomingEvents(ctx)
		r.observe(opGetUpcoming, err)
		done(events, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}

// GetAvailableCalendars returns the sync-enabled, visible calendars,
// primary first, then by display name.
func (r *Repository) GetAvailableCalendars(done CalendarsCallback) {
	ok := r.enqueue(func(ctx context.Context) {
		calendars, err := r.doGetAvailableCalendars(ctx)
		r.observe(opGetCalendars, err)
		done(calendars, err)
	})
	if !ok {
		done(nil, ErrClosed)
	}
}
