// Package scheduler arms one-shot reminder alarms and keeps them in step
// with the calendar store.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/notify"
	"github.com/Kerhoff/Schedulo/internal/repository"
)

// EventSource is where the reconcile loop reads upcoming events from.
type EventSource interface {
	GetUpcomingEvents(done repository.EventsCallback)
}

// Scheduler holds one timer per event with a pending reminder. A periodic
// reconcile re-arms timers from the store, which also picks up events
// created or edited by other applications sharing it.
type Scheduler struct {
	source   EventSource
	notifier notify.Notifier
	logger   *logrus.Logger
	cron     *cron.Cron
	syncSpec string
	now      func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

// New creates a scheduler. syncSpec is the cron expression of the reconcile
// job, evaluated in loc.
func New(source EventSource, notifier notify.Notifier, loc *time.Location, syncSpec string, logger *logrus.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		source:   source,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(loc)),
		syncSpec: syncSpec,
		now:      time.Now,
		timers:   make(map[int64]*time.Timer),
	}
}

// Start arms alarms for everything already in the store, runs the periodic
// reconcile, and blocks until the context is cancelled. Launch it in its
// own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.syncSpec, s.reconcile); err != nil {
		return fmt.Errorf("failed to add reminder sync job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Reminder scheduler started")

	s.reconcile()

	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop halts the reconcile job and disarms every timer.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	<-stopped.Done()

	s.mu.Lock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.logger.Info("Reminder scheduler stopped")
}

// Schedule arms (or re-arms) the alarm for an event. A fire time already in
// the past fires immediately.
func (s *Scheduler) Schedule(eventID int64, title string, fireAt time.Time) {
	delay := fireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if old, ok := s.timers[eventID]; ok {
		old.Stop()
	}
	s.timers[eventID] = time.AfterFunc(delay, func() {
		s.fire(eventID, title)
	})
	s.mu.Unlock()

	s.logger.Debugf("Armed reminder for event %d at %s", eventID, fireAt.Format(time.RFC3339))
}

// Cancel disarms the alarm for an event, if one is pending.
func (s *Scheduler) Cancel(eventID int64) {
	s.mu.Lock()
	if timer, ok := s.timers[eventID]; ok {
		timer.Stop()
		delete(s.timers, eventID)
	}
	s.mu.Unlock()
}

func (s *Scheduler) fire(eventID int64, title string) {
	s.mu.Lock()
	delete(s.timers, eventID)
	s.mu.Unlock()

	if err := s.notifier.Notify(eventID, title); err != nil {
		s.logger.WithError(err).Errorf("Failed to deliver reminder for event %d", eventID)
	}
}

// reconcile re-arms alarms from the store. Reminders whose fire time has
// already passed are skipped rather than fired again.
func (s *Scheduler) reconcile() {
	s.source.GetUpcomingEvents(func(events []*models.Event, err error) {
		if err != nil {
			s.logger.WithError(err).Error("Reminder sync: failed to read upcoming events")
			return
		}
		armed := 0
		for _, event := range events {
			if !event.HasReminder() {
				continue
			}
			fireAt := event.ReminderAt()
			if fireAt.Before(s.now()) {
				continue
			}
			s.Schedule(event.ID, event.Title, fireAt)
			armed++
		}
		s.logger.Debugf("Reminder sync: %d alarms armed", armed)
	})
}
