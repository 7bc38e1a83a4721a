package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Kerhoff/Schedulo/internal/provider"
)

const (
	calendarColumns = "id, display_name, account_name, account_type, owner_account, calendar_timezone, is_primary, sync_enabled, visible, access_level"
	eventColumns    = "id, calendar_id, title, location, description, dtstart, dtend, duration, event_timezone, all_day"
)

var _ provider.Client = (*Store)(nil)

func (s *Store) QueryCalendars(ctx context.Context, filter provider.CalendarFilter) ([]provider.CalendarRow, error) {
	query := "SELECT " + calendarColumns + " FROM calendars"
	var conds []string
	var args []interface{}

	if filter.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *filter.ID)
	}
	if filter.AccountType != nil {
		conds = append(conds, "account_type = ?")
		args = append(args, *filter.AccountType)
	}
	if filter.SyncEnabled != nil {
		conds = append(conds, "sync_enabled = ?")
		args = append(args, *filter.SyncEnabled)
	}
	if filter.Visible != nil {
		conds = append(conds, "visible = ?")
		args = append(args, *filter.Visible)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.PrimaryFirst {
		query += " ORDER BY is_primary DESC, display_name ASC"
	} else {
		query += " ORDER BY id ASC"
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrapErr("failed to query calendars", err)
	}
	defer rows.Close()

	var out []provider.CalendarRow
	for rows.Next() {
		var c provider.CalendarRow
		if err := rows.Scan(
			&c.ID,
			&c.DisplayName,
			&c.AccountName,
			&c.AccountType,
			&c.OwnerAccount,
			&c.TimeZone,
			&c.IsPrimary,
			&c.SyncEnabled,
			&c.Visible,
			&c.AccessLevel,
		); err != nil {
			return nil, s.wrapErr("failed to scan calendar", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertCalendar(ctx context.Context, row provider.CalendarRow) (int64, error) {
	query := `
		INSERT INTO calendars (display_name, account_name, account_type, owner_account, calendar_timezone, is_primary, sync_enabled, visible, access_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return s.insertID(ctx, "failed to insert calendar", query,
		row.DisplayName,
		row.AccountName,
		row.AccountType,
		row.OwnerAccount,
		row.TimeZone,
		row.IsPrimary,
		row.SyncEnabled,
		row.Visible,
		row.AccessLevel,
	)
}

func (s *Store) QueryEvents(ctx context.Context, filter provider.EventFilter) ([]provider.EventRow, error) {
	query := "SELECT " + eventColumns + " FROM events"
	var conds []string
	var args []interface{}

	if filter.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *filter.ID)
	}
	if filter.CalendarID != nil {
		conds = append(conds, "calendar_id = ?")
		args = append(args, *filter.CalendarID)
	}
	if filter.StartFrom != nil {
		conds = append(conds, "dtstart >= ?")
		args = append(args, *filter.StartFrom)
	}
	if filter.Overlaps != nil {
		// Starts inside the range, or started earlier but still running
		// when the range begins.
		conds = append(conds, "((dtstart >= ? AND dtstart < ?) OR (dtstart < ? AND dtend >= ?))")
		args = append(args, filter.Overlaps.From, filter.Overlaps.To, filter.Overlaps.From, filter.Overlaps.From)
	}
	if filter.Match != "" {
		like := s.likeOp()
		conds = append(conds, fmt.Sprintf("(title %s ? OR description %s ? OR location %s ?)", like, like, like))
		pattern := "%" + filter.Match + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	switch filter.SortBy {
	case provider.SortByStartAsc:
		query += " ORDER BY dtstart ASC"
	case provider.SortByStartDesc:
		query += " ORDER BY dtstart DESC"
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrapErr("failed to query events", err)
	}
	defer rows.Close()

	var out []provider.EventRow
	for rows.Next() {
		var e provider.EventRow
		var dtend sql.NullInt64
		var duration sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.CalendarID,
			&e.Title,
			&e.Location,
			&e.Description,
			&e.DTStart,
			&dtend,
			&duration,
			&e.TimeZone,
			&e.AllDay,
		); err != nil {
			return nil, s.wrapErr("failed to scan event", err)
		}
		if dtend.Valid {
			v := dtend.Int64
			e.DTEnd = &v
		}
		if duration.Valid {
			v := duration.String
			e.Duration = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) InsertEvent(ctx context.Context, row provider.EventRow) (int64, error) {
	query := `
		INSERT INTO events (calendar_id, title, location, description, dtstart, dtend, duration, event_timezone, all_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return s.insertID(ctx, "failed to insert event", query,
		row.CalendarID,
		row.Title,
		row.Location,
		row.Description,
		row.DTStart,
		nullInt64(row.DTEnd),
		nullString(row.Duration),
		row.TimeZone,
		row.AllDay,
	)
}

// UpdateEvent writes the mutable fields of an event row. The calendar_id
// column is deliberately left alone: an update never re-parents an event.
func (s *Store) UpdateEvent(ctx context.Context, id int64, row provider.EventRow) (int64, error) {
	query := `
		UPDATE events
		SET title = ?, location = ?, description = ?, dtstart = ?, dtend = ?, duration = ?, event_timezone = ?, all_day = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, s.rebind(query),
		row.Title,
		row.Location,
		row.Description,
		row.DTStart,
		nullInt64(row.DTEnd),
		nullString(row.Duration),
		row.TimeZone,
		row.AllDay,
		id,
	)
	if err != nil {
		return 0, s.wrapErr("failed to update event", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, s.wrapErr("failed to get rows affected", err)
	}
	return affected, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return 0, s.wrapErr("failed to delete event", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, s.wrapErr("failed to get rows affected", err)
	}
	return affected, nil
}

func (s *Store) QueryReminders(ctx context.Context, eventID int64) ([]provider.ReminderRow, error) {
	query := "SELECT id, event_id, method, minutes FROM reminders WHERE event_id = ? ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), eventID)
	if err != nil {
		return nil, s.wrapErr("failed to query reminders", err)
	}
	defer rows.Close()

	var out []provider.ReminderRow
	for rows.Next() {
		var r provider.ReminderRow
		if err := rows.Scan(&r.ID, &r.EventID, &r.Method, &r.Minutes); err != nil {
			return nil, s.wrapErr("failed to scan reminder", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InsertReminder(ctx context.Context, row provider.ReminderRow) (int64, error) {
	query := "INSERT INTO reminders (event_id, method, minutes) VALUES (?, ?, ?)"
	return s.insertID(ctx, "failed to insert reminder", query, row.EventID, row.Method, row.Minutes)
}

func (s *Store) DeleteReminders(ctx context.Context, eventID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM reminders WHERE event_id = ?"), eventID)
	if err != nil {
		return 0, s.wrapErr("failed to delete reminders", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, s.wrapErr("failed to get rows affected", err)
	}
	return affected, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
