package repository

import (
	"context"
	"fmt"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
)

func (r *Repository) doInsert(ctx context.Context, event *models.Event) (int64, error) {
	if event == nil {
		return 0, fmt.Errorf("insert failed: %w: event is nil", ErrInvalidArgument)
	}

	if event.CalendarID <= 0 {
		calendarID := r.findDefaultCalendar(ctx)
		if calendarID <= 0 {
			r.logger.Warn("No usable calendar found, provisioning a local one")
			var err error
			calendarID, err = r.createLocalCalendar(ctx)
			if err != nil {
				r.logger.WithError(err).Error("Failed to provision local calendar")
				return 0, fmt.Errorf("insert failed: %w", ErrCalendarUnavailable)
			}
		}
		r.logger.Debugf("Auto-selected calendar %d", calendarID)
		event.CalendarID = calendarID
	}

	// The calendar can disappear between discovery and use, e.g. when its
	// account is removed by another application.
	exists, err := r.calendarExists(ctx, event.CalendarID)
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("insert failed: calendar %d: %w", event.CalendarID, ErrCalendarUnavailable)
	}

	if event.TimeZone == "" {
		event.TimeZone = r.loc.String()
	}

	id, err := r.client.InsertEvent(ctx, eventToRow(event))
	if err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}
	r.logger.Debugf("Inserted event %d (calendar %d, title %q)", id, event.CalendarID, event.Title)

	if event.ReminderMinutes > 0 {
		// A failed reminder write does not undo the event insert.
		if _, err := r.client.InsertReminder(ctx, provider.ReminderRow{
			EventID: id,
			Method:  provider.MethodAlert,
			Minutes: event.ReminderMinutes,
		}); err != nil {
			r.logger.WithError(err).Warnf("Failed to add reminder for event %d", id)
		}
	}

	return id, nil
}

func (r *Repository) doUpdate(ctx context.Context, event *models.Event) (int64, error) {
	if event == nil || event.ID <= 0 {
		return 0, fmt.Errorf("update failed: %w: event id must be > 0", ErrInvalidArgument)
	}

	if event.TimeZone == "" {
		// Keep whatever timezone the row already carries rather than
		// overwriting it with an empty one.
		if existing, err := r.fetchRow(ctx, event.ID); err != nil {
			r.logger.WithError(err).Warnf("Update of event %d: could not read stored timezone", event.ID)
		} else if existing != nil {
			event.TimeZone = existing.TimeZone
		}
	}

	affected, err := r.client.UpdateEvent(ctx, event.ID, eventToRow(event))
	if err != nil {
		return 0, fmt.Errorf("update failed: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("update failed: event %d: %w", event.ID, ErrNotFound)
	}

	r.replaceReminder(ctx, event.ID, event.ReminderMinutes)
	return event.ID, nil
}

func (r *Repository) doDelete(ctx context.Context, event *models.Event) (int64, error) {
	if event == nil || event.ID <= 0 {
		return 0, fmt.Errorf("delete failed: %w: event id must be > 0", ErrInvalidArgument)
	}

	affected, err := r.client.DeleteEvent(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("delete failed: event %d: %w", event.ID, ErrNotFound)
	}

	// Stores that cascade reminder rows make this a no-op; stores that do
	// not would otherwise leak orphaned reminders.
	if _, err := r.client.DeleteReminders(ctx, event.ID); err != nil {
		r.logger.WithError(err).Warnf("Failed to delete reminders for event %d", event.ID)
	}

	r.logger.Debugf("Deleted event %d", event.ID)
	return event.ID, nil
}

// replaceReminder makes the companion reminder record match minutes by
// deleting whatever is there and inserting a fresh record when minutes is
// positive. Failures are logged and swallowed: the event write already
// succeeded and takes precedence.
func (r *Repository) replaceReminder(ctx context.Context, eventID int64, minutes int) {
	if _, err := r.client.DeleteReminders(ctx, eventID); err != nil {
		r.logger.WithError(err).Warnf("Failed to clear reminders for event %d", eventID)
		return
	}
	if minutes <= 0 {
		return
	}
	if _, err := r.client.InsertReminder(ctx, provider.ReminderRow{
		EventID: eventID,
		Method:  provider.MethodAlert,
		Minutes: minutes,
	}); err != nil {
		r.logger.WithError(err).Warnf("Failed to replace reminder for event %d", eventID)
	}
}

// eventToRow builds the store row for an event. End-time policy: an explicit
// end is written when it lies after the start; otherwise all-day events get
// a one-day duration (the store's convention) and anything else is written
// as an instantaneous event with end = start.
func eventToRow(event *models.Event) provider.EventRow {
	row := provider.EventRow{
		CalendarID:  event.CalendarID,
		Title:       event.Title,
		Location:    event.Location,
		Description: event.Description,
		DTStart:     event.StartTime,
		TimeZone:    event.TimeZone,
		AllDay:      event.AllDay,
	}

	switch {
	case event.EndTime > event.StartTime:
		end := event.EndTime
		row.DTEnd = &end
	case event.AllDay:
		duration := provider.DurationOneDay
		row.Duration = &duration
	default:
		end := event.StartTime
		row.DTEnd = &end
	}

	return row
}
