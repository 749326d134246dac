// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/models"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListFilter selects polls for List. A nil Active means no status filter.
type ListFilter struct {
	Active *bool
	Search string
	Page   int
	Limit  int
}

type PollPage struct {
	Polls      []models.Poll
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// PollStore persists polls and their options and applies lazy expiry on
// every read path.
type PollStore struct {
	db  *sql.DB
	now Clock
}

func NewPollStore(db *sql.DB, now Clock) *PollStore {
	if now == nil {
		now = time.Now
	}
	return &PollStore{db: db, now: now}
}

func (s *PollStore) clock() time.Time {
	return dbTime(s.now())
}

func pollNotFound(id string) error {
	return apperr.NotFound("Poll not found with id of %s", id)
}

func notOwner(wallet, action string) error {
	return apperr.Authorization("User %s is not authorized to %s this poll", wallet, action)
}

// List returns one page of polls, newest first, and the total match count.
func (s *PollStore) List(ctx context.Context, f ListFilter) (PollPage, error) {
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page-1 > math.MaxInt/limit {
		return PollPage{}, apperr.Validation("Page %d is out of range", page)
	}

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Active != nil {
		now := arg(s.clock())
		if *f.Active {
			where = append(where, "is_active = "+arg(true)+" AND deadline > "+now)
		} else {
			where = append(where, "(is_active = "+arg(false)+" OR deadline <= "+now+")")
		}
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		p := arg("%" + escapeLike(strings.ToLower(search)) + "%")
		where = append(where, `(LOWER(title) LIKE `+p+` ESCAPE '\' OR LOWER(description) LIKE `+p+` ESCAPE '\')`)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll`+whereSQL, args...).Scan(&total); err != nil {
		return PollPage{}, fmt.Errorf("failed to count polls: %w", err)
	}

	query := `SELECT ` + pollColumns + ` FROM poll` + whereSQL +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg((page-1)*limit)
	polls, err := s.queryPolls(ctx, query, args...)
	if err != nil {
		return PollPage{}, err
	}

	return PollPage{
		Polls:      polls,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// ListByCreator returns every poll created by wallet, newest first.
func (s *PollStore) ListByCreator(ctx context.Context, wallet string) ([]models.Poll, error) {
	return s.queryPolls(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
	`, wallet)
}

func (s *PollStore) queryPolls(ctx context.Context, query string, args ...any) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	polls := []models.Poll{}
	var ids []string
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	rows.Close()

	opts, err := loadOptions(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range polls {
		polls[i].Options = opts[polls[i].ID]
		if _, err := s.ExpireIfDue(ctx, &polls[i]); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// Get returns a poll, flipping it to inactive first if its deadline passed.
func (s *PollStore) Get(ctx context.Context, id string) (models.Poll, error) {
	p, err := loadPoll(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, pollNotFound(id)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}
	if _, err := s.ExpireIfDue(ctx, &p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// ExpireIfDue persists is_active=false for an active poll past its deadline
// and updates p to match. It reports whether this call performed the write;
// the conditional UPDATE makes the flip happen once across concurrent readers.
func (s *PollStore) ExpireIfDue(ctx context.Context, p *models.Poll) (bool, error) {
	if !p.IsActive || !p.Expired(s.clock()) {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll SET is_active = $1 WHERE id = $2 AND is_active = $3
	`, false, p.ID, true)
	if err != nil {
		return false, fmt.Errorf("failed to expire poll: %w", err)
	}
	p.IsActive = false

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to expire poll: %w", err)
	}
	if n > 0 {
		slog.Info("poll expired", "poll_id", p.ID, "deadline", p.Deadline)
	}
	return n > 0, nil
}

// Create validates and stores a new poll owned by creator.
func (s *PollStore) Create(ctx context.Context, creator string, req models.CreatePollRequest) (models.Poll, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return models.Poll{}, err
	}
	description, err := validateDescription(req.Description)
	if err != nil {
		return models.Poll{}, err
	}
	options, err := validateOptions(req.Options)
	if err != nil {
		return models.Poll{}, err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return models.Poll{}, err
	}

	p := models.Poll{
		ID:          auth.NewID(),
		Title:       title,
		Description: description,
		Options:     options,
		CreatedBy:   creator,
		Deadline:    deadline,
		IsActive:    true,
		CreatedAt:   s.clock(),
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll (id, title, description, created_by, deadline, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.Title, p.Description, p.CreatedBy, p.Deadline, p.IsActive, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert poll: %w", err)
		}
		return insertOptions(ctx, tx, p.ID, p.Options)
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("poll created", "poll_id", p.ID, "created_by", creator, "options", len(options))
	return p, nil
}

// Update applies a partial update. Options may only change while the poll
// has no votes.
func (s *PollStore) Update(ctx context.Context, id, wallet string, patch models.UpdatePollRequest) (models.Poll, error) {
	var updated models.Poll
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := loadPoll(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return pollNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}
		if p.CreatedBy != wallet {
			return notOwner(wallet, "update")
		}

		if patch.Options != nil {
			var votes int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE poll_id = $1`, id).Scan(&votes); err != nil {
				return fmt.Errorf("failed to count votes: %w", err)
			}
			if votes > 0 {
				return apperr.Conflict("Cannot update options after votes have been cast")
			}
			if p.Options, err = validateOptions(patch.Options); err != nil {
				return err
			}
		}
		if patch.Title != nil {
			if p.Title, err = validateTitle(*patch.Title); err != nil {
				return err
			}
		}
		if patch.Description != nil {
			if p.Description, err = validateDescription(*patch.Description); err != nil {
				return err
			}
		}
		if patch.Deadline != nil {
			if p.Deadline, err = parseDeadline(*patch.Deadline); err != nil {
				return err
			}
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE poll SET title = $1, description = $2, deadline = $3, is_active = $4
			WHERE id = $5
		`, p.Title, p.Description, p.Deadline, p.IsActive, id)
		if err != nil {
			return fmt.Errorf("failed to update poll: %w", err)
		}

		if patch.Options != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM poll_option WHERE poll_id = $1`, id); err != nil {
				return fmt.Errorf("failed to replace options: %w", err)
			}
			if err := insertOptions(ctx, tx, id, p.Options); err != nil {
				return err
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("poll updated", "poll_id", id)
	return updated, nil
}

// Close marks a poll inactive. Only the creator may close it.
func (s *PollStore) Close(ctx context.Context, id, wallet string) (models.Poll, error) {
	p, err := loadPoll(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, pollNotFound(id)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}
	if p.CreatedBy != wallet {
		return models.Poll{}, notOwner(wallet, "close")
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE poll SET is_active = $1 WHERE id = $2`, false, id); err != nil {
		return models.Poll{}, fmt.Errorf("failed to close poll: %w", err)
	}
	p.IsActive = false

	slog.Info("poll closed", "poll_id", id)
	return p, nil
}

// Delete removes a poll together with its options and votes.
func (s *PollStore) Delete(ctx context.Context, id, wallet string) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var createdBy string
		err := tx.QueryRowContext(ctx, `SELECT created_by FROM poll WHERE id = $1`, id).Scan(&createdBy)
		if errors.Is(err, sql.ErrNoRows) {
			return pollNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}
		if createdBy != wallet {
			return notOwner(wallet, "delete")
		}

		for _, stmt := range []string{
			`DELETE FROM vote WHERE poll_id = $1`,
			`DELETE FROM poll_option WHERE poll_id = $1`,
			`DELETE FROM poll WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete poll: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("poll deleted", "poll_id", id)
	return nil
}

func insertOptions(ctx context.Context, tx *sql.Tx, pollID string, options []models.Option) error {
	for i, o := range options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, option_index, text) VALUES ($1, $2, $3)
		`, pollID, i, o.Text)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}
	return nil
}

func validateTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("Please provide a poll title")
	}
	if utf8.RuneCountInString(s) > models.MaxTitleLength {
		return "", apperr.Validation("Title cannot exceed %d characters", models.MaxTitleLength)
	}
	return s, nil
}

func validateDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("Please provide a poll description")
	}
	return s, nil
}

func validateOptions(in []models.OptionInput) ([]models.Option, error) {
	if len(in) < 2 {
		return nil, apperr.Validation("Please provide at least two options")
	}
	out := make([]models.Option, len(in))
	for i, o := range in {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return nil, apperr.Validation("Option %d text cannot be empty", i+1)
		}
		out[i] = models.Option{Text: text}
	}
	return out, nil
}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Validation("Please provide a deadline")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.Validation("Invalid deadline format, expected RFC 3339"), err)
	}
	return dbTime(t), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
