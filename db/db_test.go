// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, conn, TypeSQLite); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	for _, table := range []string{"poll", "poll_option", "vote"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s: %v", table, err)
		}
	}
}

func TestMigrateReportsFailure(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })
	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }

	err := Migrate(context.Background(), openMemory(t), TypeSQLite)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected wrapped migration error, got %v", err)
	}
}

func TestDriverFor(t *testing.T) {
	const allDefaults = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

	testCases := []struct {
		dbType     string
		url        string
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{TypePostgres, "postgres://u@h/db", "postgres", "postgres://u@h/db", false},
		{TypeSQLite, "votechain.db", "sqlite", "votechain.db?" + allDefaults, false},
		{TypeSQLite, "votechain.db?cache=shared", "sqlite", "votechain.db?cache=shared&" + allDefaults, false},
		{
			TypeSQLite, "file.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)&_time_format=sqlite",
			"sqlite", "file.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)&_time_format=sqlite&_pragma=journal_mode(WAL)",
			false,
		},
		{TypeSQLite, "file.db?_pragma=journal_mode=DELETE", "sqlite",
			"file.db?_pragma=journal_mode=DELETE&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", false},
		{"mysql", "x", "", "", true},
	}

	for _, tc := range testCases {
		driver, dsn, err := driverFor(tc.dbType, tc.url)
		if (err != nil) != tc.wantErr {
			t.Errorf("driverFor(%q) error = %v, wantErr %v", tc.dbType, err, tc.wantErr)
			continue
		}
		if driver != tc.wantDriver || dsn != tc.wantDSN {
			t.Errorf("driverFor(%q, %q) = %q, %q", tc.dbType, tc.url, driver, dsn)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := openMemory(t)
	ctx := context.Background()
	if err := Migrate(ctx, conn, TypeSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, title, description, created_by, deadline, is_active, created_at)
		VALUES ('p1', 't', 'd', 'w', CURRENT_TIMESTAMP, TRUE, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		t.Fatalf("insert poll: %v", err)
	}

	insertVote := func(id string) error {
		_, err := conn.Exec(`
			INSERT INTO vote (id, poll_id, option_index, voter_wallet, tx_hash, created_at)
			VALUES ($1, 'p1', 0, 'wallet', 'hash', CURRENT_TIMESTAMP)
		`, id)
		return err
	}
	if err := insertVote("v1"); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	dup := insertVote("v2")
	if !IsUniqueViolation(dup) {
		t.Errorf("Expected unique violation, got %v", dup)
	}

	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres fk", &pq.Error{Code: "23503"}, false},
		{"plain", errors.New("connection refused"), false},
	}
	for _, tc := range testCases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Errorf("%s: IsUniqueViolation = %v, want %v", tc.name, got, tc.want)
		}
	}
}
