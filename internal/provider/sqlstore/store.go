// Package sqlstore implements the provider.Client contract on top of a SQL
// database. It speaks both sqlite (the default, a single local file like the
// device store it stands in for) and postgres, selected from the DSN.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/Schedulo/internal/provider"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Store is a provider.Client backed by a SQL database.
type Store struct {
	db     *sql.DB
	driver string
	logger *logrus.Logger
}

// Open connects to the database named by dsn. A postgres:// URL selects the
// postgres driver; anything else is treated as a sqlite file path (or
// ":memory:"). The sqlite schema is created on open so a fresh file is
// immediately usable; postgres deployments run Migrate instead.
func Open(dsn string, logger *logrus.Logger) (*Store, error) {
	driver := driverSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = driverPostgres
	}

	if driver == driverSQLite && !strings.Contains(dsn, "?") {
		// Reminder rows cascade with their event at the schema level.
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == driverPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// sqlite serializes writers anyway; a single connection avoids
		// SQLITE_BUSY on concurrent statements.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: driver, logger: logger}

	if driver == driverSQLite {
		if err := s.ensureSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logger.Infof("Calendar store opened (%s)", driver)
	return s, nil
}

// Migrate runs the SQL migrations for a postgres-backed store. It is a no-op
// for sqlite, whose schema is created on open.
func (s *Store) Migrate(migrationsPath string) error {
	if s.driver != driverPostgres {
		return nil
	}

	driver, err := migratepg.WithInstance(s.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.logger.Info("Calendar store migrations completed successfully")
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ensureSchema creates the sqlite tables if they do not exist yet.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calendars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			display_name TEXT NOT NULL DEFAULT '',
			account_name TEXT NOT NULL DEFAULT '',
			account_type TEXT NOT NULL DEFAULT '',
			owner_account TEXT NOT NULL DEFAULT '',
			calendar_timezone TEXT NOT NULL DEFAULT '',
			is_primary INTEGER NOT NULL DEFAULT 0,
			sync_enabled INTEGER NOT NULL DEFAULT 0,
			visible INTEGER NOT NULL DEFAULT 0,
			access_level INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			calendar_id INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			dtstart INTEGER NOT NULL,
			dtend INTEGER,
			duration TEXT,
			event_timezone TEXT NOT NULL DEFAULT '',
			all_day INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			method TEXT NOT NULL DEFAULT 'alert',
			minutes INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_dtstart ON events(dtstart)`,
		`CREATE INDEX IF NOT EXISTS idx_events_calendar_id ON events(calendar_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_event_id ON reminders(event_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to the $n form postgres expects. Queries in
// this package are written with ? and rebound on the way out.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// likeOp returns the case-insensitive substring-match operator of the
// underlying database. sqlite's LIKE is already case-insensitive for ASCII.
func (s *Store) likeOp() string {
	if s.driver == driverPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// wrapErr classifies a driver error, surfacing permission problems as
// provider.ErrPermissionDenied so callers can distinguish them from
// transport failures.
func (s *Store) wrapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "42501" || pqErr.Code.Class() == "28" {
			return fmt.Errorf("%s: %w", op, provider.ErrPermissionDenied)
		}
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrAuth, sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrCantOpen:
			return fmt.Errorf("%s: %w", op, provider.ErrPermissionDenied)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// insertID runs an INSERT and returns the generated row id, using RETURNING
// on postgres where LastInsertId is not supported by the driver.
func (s *Store) insertID(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	if s.driver == driverPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, s.wrapErr(op, err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.wrapErr(op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.wrapErr(op, err)
	}
	return id, nil
}
