package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
)

// rowToEvent translates a raw store row into the domain type, inferring an
// end time when the row carries none. A one-day duration on an all-day row
// means end = start + 1 day (in the event's zone, so DST transitions keep
// the day whole). Other duration encodings are not interpreted: they are
// logged and approximated as an instantaneous event.
func (r *Repository) rowToEvent(ctx context.Context, row provider.EventRow) *models.Event {
	end := int64(0)
	if row.DTEnd != nil {
		end = *row.DTEnd
	}
	duration := ""
	if row.Duration != nil {
		duration = *row.Duration
	}

	zone := r.loc
	if row.TimeZone != "" {
		if z, err := time.LoadLocation(row.TimeZone); err == nil {
			zone = z
		} else {
			r.logger.Debugf("Event %d has unknown timezone %q, using default", row.ID, row.TimeZone)
		}
	}

	if end <= 0 {
		switch {
		case duration == provider.DurationOneDay && row.AllDay:
			end = time.UnixMilli(row.DTStart).In(zone).AddDate(0, 0, 1).UnixMilli()
		case duration != "":
			r.logger.Warnf("Event %d has duration %q and no end time, approximating end = start", row.ID, duration)
			end = row.DTStart
		case row.AllDay:
			end = time.UnixMilli(row.DTStart).In(zone).AddDate(0, 0, 1).UnixMilli()
		default:
			// Instantaneous event.
			end = row.DTStart
		}
	}

	return &models.Event{
		ID:              row.ID,
		CalendarID:      row.CalendarID,
		TimeZone:        row.TimeZone,
		Title:           row.Title,
		Location:        row.Location,
		Description:     row.Description,
		StartTime:       row.DTStart,
		EndTime:         end,
		AllDay:          row.AllDay,
		ReminderMinutes: r.reminderMinutes(ctx, row.ID),
	}
}

func (r *Repository) rowsToEvents(ctx context.Context, rows []provider.EventRow) []*models.Event {
	events := make([]*models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, r.rowToEvent(ctx, row))
	}
	return events
}

// reminderMinutes joins in the companion reminder record for an event, 0
// when there is none. The application only ever writes one reminder per
// event; should the store hold more, the first wins.
func (r *Repository) reminderMinutes(ctx context.Context, eventID int64) int {
	rows, err := r.client.QueryReminders(ctx, eventID)
	if err != nil {
		r.logger.WithError(err).Warnf("Failed to read reminder for event %d", eventID)
		return 0
	}
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Minutes
}

// monthRange resolves a "MM-YYYY" month key to the half-open interval
// [first instant of the month, first instant of the next month) in loc,
// as epoch milliseconds.
func monthRange(monthKey string, loc *time.Location) (from, to int64, err error) {
	parts := strings.Split(monthKey, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("month key %q is not MM-YYYY", monthKey)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("month key %q: bad month: %w", monthKey, err)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("month key %q: bad year: %w", monthKey, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month key %q: month out of range", monthKey)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start.UnixMilli(), start.AddDate(0, 1, 0).UnixMilli(), nil
}
