// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/votechain/db/migrations"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// sqliteDefaults are added to a SQLite DSN unless it already sets them.
var sqliteDefaults = []struct{ key, value string }{
	{"_pragma", "foreign_keys(1)"},
	{"_pragma", "busy_timeout(5000)"},
	{"_pragma", "journal_mode(WAL)"},
	{"_time_format", "sqlite"},
}

// Open connects to the database, verifies the connection and applies migrations.
func Open(ctx context.Context, dbType, url string) (*sql.DB, error) {
	driver, dsn, err := driverFor(dbType, url)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == TypeSQLite {
		// A single writer avoids SQLITE_BUSY storms; reads are cheap.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(10)
		conn.SetConnMaxLifetime(time.Hour)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := Migrate(ctx, conn, dbType); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func driverFor(dbType, url string) (driver, dsn string, err error) {
	switch dbType {
	case TypePostgres:
		return "postgres", url, nil
	case TypeSQLite:
		return "sqlite", withSQLiteDefaults(url), nil
	}
	return "", "", fmt.Errorf("unsupported database type %q (use %s or %s)", dbType, TypeSQLite, TypePostgres)
}

// withSQLiteDefaults merges the missing sqliteDefaults into dsn's query
// string, leaving settings the caller chose untouched.
func withSQLiteDefaults(dsn string) string {
	base, query, _ := strings.Cut(dsn, "?")
	existing, _ := url.ParseQuery(query)

	var parts []string
	if query != "" {
		parts = append(parts, query)
	}
	for _, d := range sqliteDefaults {
		if !hasSetting(existing[d.key], d.key, d.value) {
			parts = append(parts, d.key+"="+d.value)
		}
	}
	return base + "?" + strings.Join(parts, "&")
}

// hasSetting reports whether vals already covers key=value. Pragmas match
// by name, so "busy_timeout(100)" covers "busy_timeout(5000)".
func hasSetting(vals []string, key, value string) bool {
	if key != "_pragma" {
		return len(vals) > 0
	}
	name := pragmaName(value)
	for _, v := range vals {
		if strings.EqualFold(pragmaName(v), name) {
			return true
		}
	}
	return false
}

func pragmaName(p string) string {
	if i := strings.IndexAny(p, "(="); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSpace(p)
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded goose migrations.
// Safe to call multiple times.
func Migrate(ctx context.Context, conn *sql.DB, dbType string) error {
	dialect := "postgres"
	if dbType == TypeSQLite {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, conn, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Info("migration", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error("migration failed", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
