package repository

import (
	"context"
	"fmt"

	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
)

func (r *Repository) doGetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	if id <= 0 {
		r.logger.Warnf("GetEventByID called with invalid id %d", id)
		return nil, nil
	}
	row, err := r.fetchRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event %d failed: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return r.rowToEvent(ctx, *row), nil
}

// fetchRow reads one raw event row by id, nil when absent.
func (r *Repository) fetchRow(ctx context.Context, id int64) (*provider.EventRow, error) {
	rows, err := r.client.QueryEvents(ctx, provider.EventFilter{ID: provider.Int64(id)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *Repository) doGetAllEvents(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.client.QueryEvents(ctx, provider.EventFilter{SortBy: provider.SortByStartAsc})
	if err != nil {
		return nil, fmt.Errorf("get all events failed: %w", err)
	}
	return r.rowsToEvents(ctx, rows), nil
}

func (r *Repository) doGetEventsByMonth(ctx context.Context, monthKey string) ([]*models.Event, error) {
	from, to, err := monthRange(monthKey, r.loc)
	if err != nil {
		r.logger.WithError(err).Errorf("Bad month key %q", monthKey)
		return []*models.Event{}, nil
	}

	// Primary strategy: read everything and filter here. The store's native
	// range filtering has proven unreliable, so it is kept only as a
	// backstop below.
	all, err := r.doGetAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		var filtered []*models.Event
		for _, event := range all {
			if event.Overlaps(from, to) {
				filtered = append(filtered, event)
			}
		}
		if len(filtered) > 0 {
			r.logger.Debugf("Month %s: %d of %d events after in-memory filter", monthKey, len(filtered), len(all))
			return filtered, nil
		}
		r.logger.Debugf("Month %s: no events after in-memory filter, trying store range query", monthKey)
	}

	rows, err := r.client.QueryEvents(ctx, provider.EventFilter{
		Overlaps: &provider.TimeRange{From: from, To: to},
		SortBy:   provider.SortByStartAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("get events for month %s failed: %w", monthKey, err)
	}
	return r.rowsToEvents(ctx, rows), nil
}

func (r *Repository) doSearchEvents(ctx context.Context, query string) ([]*models.Event, error) {
	rows, err := r.client.QueryEvents(ctx, provider.EventFilter{
		Match:  query,
		SortBy: provider.SortByStartAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("search events failed: %w", err)
	}
	return r.rowsToEvents(ctx, rows), nil
}

func (r *Repository) doGetUpcomingEvents(ctx context.Context) ([]*models.Event, error) {
	now := r.now().UnixMilli()
	rows, err := r.client.QueryEvents(ctx, provider.EventFilter{
		StartFrom: provider.Int64(now),
		SortBy:    provider.SortByStartAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("get upcoming events failed: %w", err)
	}
	return r.rowsToEvents(ctx, rows), nil
}
