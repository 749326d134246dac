// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/votechain/models"
)

// Tally is the vote count of one poll. PerOption has one entry per option.
type Tally struct {
	Total     int
	PerOption []int
}

// TallyEngine derives counts from the vote table on every read.
type TallyEngine struct {
	db  *sql.DB
	now Clock
}

func NewTallyEngine(db *sql.DB, now Clock) *TallyEngine {
	if now == nil {
		now = time.Now
	}
	return &TallyEngine{db: db, now: now}
}

// Tally counts votes per option. Rows with an index outside the poll's
// options are ignored, so Total always equals the sum of PerOption.
func (e *TallyEngine) Tally(ctx context.Context, p models.Poll) (Tally, error) {
	t := Tally{PerOption: make([]int, len(p.Options))}

	rows, err := e.db.QueryContext(ctx, `
		SELECT option_index, COUNT(*) FROM vote
		WHERE poll_id = $1
		GROUP BY option_index
	`, p.ID)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx, n int
		if err := rows.Scan(&idx, &n); err != nil {
			return Tally{}, fmt.Errorf("failed to scan tally: %w", err)
		}
		if idx < 0 || idx >= len(t.PerOption) {
			continue
		}
		t.PerOption[idx] = n
		t.Total += n
	}
	return t, rows.Err()
}

// Percentage is round(votes/total*100), or 0 when there are no votes.
func Percentage(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

// WithTally attaches counts and a human readable time left to p.
func (e *TallyEngine) WithTally(ctx context.Context, p models.Poll) (models.PollWithTally, error) {
	t, err := e.Tally(ctx, p)
	if err != nil {
		return models.PollWithTally{}, err
	}

	out := models.PollWithTally{
		Poll:           p,
		TotalVotes:     t.Total,
		VotesPerOption: make([]models.OptionVotes, len(p.Options)),
		TimeLeft:       TimeLeft(p, e.now()),
	}
	for i, o := range p.Options {
		out.VotesPerOption[i] = models.OptionVotes{
			Text:       o.Text,
			Votes:      t.PerOption[i],
			Percentage: Percentage(t.PerOption[i], t.Total),
		}
	}
	return out, nil
}

// WithTallies is WithTally over a slice.
func (e *TallyEngine) WithTallies(ctx context.Context, polls []models.Poll) ([]models.PollWithTally, error) {
	out := make([]models.PollWithTally, 0, len(polls))
	for _, p := range polls {
		pt, err := e.WithTally(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, nil
}

// TimeLeft renders the remaining time ("3 hours left") or "Ended" once the
// poll is closed or past its deadline.
func TimeLeft(p models.Poll, now time.Time) string {
	if !p.IsActive || p.Expired(now) {
		return "Ended"
	}
	return humanize.RelTime(p.Deadline, now, "ago", "left")
}
