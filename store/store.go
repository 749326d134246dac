// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/votechain/models"
)

// Clock supplies the current time. Stores normalize it to UTC.
type Clock func() time.Time

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const pollColumns = `id, title, description, created_by, deadline, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.Deadline, &p.IsActive, &p.CreatedAt)
	p.Deadline = p.Deadline.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

// loadPoll reads one poll and its options. sql.ErrNoRows is returned as is.
func loadPoll(ctx context.Context, q querier, id string) (models.Poll, error) {
	p, err := scanPoll(q.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, id))
	if err != nil {
		return models.Poll{}, err
	}
	opts, err := loadOptions(ctx, q, []string{id})
	if err != nil {
		return models.Poll{}, err
	}
	p.Options = opts[id]
	return p, nil
}

// loadOptions returns the options of each poll in index order.
func loadOptions(ctx context.Context, q querier, pollIDs []string) (map[string][]models.Option, error) {
	out := make(map[string][]models.Option, len(pollIDs))
	if len(pollIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(pollIDs))
	for i, id := range pollIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `
		SELECT poll_id, text FROM poll_option
		WHERE poll_id IN (`+placeholders(1, len(pollIDs))+`)
		ORDER BY poll_id, option_index
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pollID string
		var o models.Option
		if err := rows.Scan(&pollID, &o.Text); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		out[pollID] = append(out[pollID], o)
	}
	return out, rows.Err()
}

// placeholders renders "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

// withTx runs fn in a transaction, rolling back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// dbTime normalizes t for storage. Postgres keeps microseconds.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
