package repository

import (
	"context"
	"fmt"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
)

// findDefaultCalendar picks the calendar an insert should fall back to when
// the event does not name one: a sync-enabled Google calendar if there is
// one, else any sync-enabled calendar, primary calendars preferred in both
// passes. Returns 0 when nothing usable exists; the caller then provisions
// a local calendar instead of guessing at an id.
func (r *Repository) findDefaultCalendar(ctx context.Context) int64 {
	calendars, err := r.client.QueryCalendars(ctx, provider.CalendarFilter{
		AccountType:  provider.String(provider.AccountTypeGoogle),
		SyncEnabled:  provider.Bool(true),
		PrimaryFirst: true,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to query Google calendars")
	} else if len(calendars) > 0 {
		r.logger.Debugf("Found Google calendar %d (%s)", calendars[0].ID, calendars[0].DisplayName)
		return calendars[0].ID
	}

	calendars, err = r.client.QueryCalendars(ctx, provider.CalendarFilter{
		SyncEnabled:  provider.Bool(true),
		PrimaryFirst: true,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to query calendars")
	} else if len(calendars) > 0 {
		r.logger.Debugf("Found calendar %d (%s) as fallback", calendars[0].ID, calendars[0].DisplayName)
		return calendars[0].ID
	}

	return 0
}

// createLocalCalendar provisions a calendar under the synthetic local
// account, visible and sync-enabled, owned by this application. Used only
// when no usable calendar exists at all.
func (r *Repository) createLocalCalendar(ctx context.Context) (int64, error) {
	id, err := r.client.InsertCalendar(ctx, provider.CalendarRow{
		DisplayName:  "Personal Schedule",
		AccountName:  provider.LocalAccountName,
		AccountType:  provider.AccountTypeLocal,
		OwnerAccount: provider.LocalAccountName,
		TimeZone:     r.loc.String(),
		SyncEnabled:  true,
		Visible:      true,
		AccessLevel:  provider.AccessOwner,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create local calendar: %w", err)
	}
	r.logger.Infof("Created local calendar %d", id)
	return id, nil
}

func (r *Repository) calendarExists(ctx context.Context, calendarID int64) (bool, error) {
	if calendarID <= 0 {
		return false, nil
	}
	calendars, err := r.client.QueryCalendars(ctx, provider.CalendarFilter{ID: provider.Int64(calendarID)})
	if err != nil {
		return false, err
	}
	return len(calendars) > 0, nil
}

func (r *Repository) doGetAvailableCalendars(ctx context.Context) ([]models.CalendarInfo, error) {
	rows, err := r.client.QueryCalendars(ctx, provider.CalendarFilter{
		SyncEnabled:  provider.Bool(true),
		Visible:      provider.Bool(true),
		PrimaryFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("get calendars failed: %w", err)
	}

	calendars := make([]models.CalendarInfo, 0, len(rows))
	for _, row := range rows {
		calendars = append(calendars, models.CalendarInfo{
			ID:          row.ID,
			DisplayName: row.DisplayName,
			AccountName: row.AccountName,
			IsPrimary:   row.IsPrimary,
		})
	}
	return calendars, nil
}
