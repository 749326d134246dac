// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/db"
	"github.com/danielhkuo/votechain/models"
)

// Stable client-facing messages. The frontend matches on "already voted".
const (
	MsgPollInactive   = "This poll is no longer active"
	MsgPollExpired    = "This poll has expired"
	MsgAlreadyVoted   = "You have already voted in this poll"
	MsgUnknownOption  = "Unknown option"
	msgInvalidOption  = "Invalid option index: %d"
	msgMissingVoteArg = "Please provide pollId and optionIndex"
)

// VoteLedger records at most one vote per (poll, wallet). The UNIQUE
// constraint on vote is authoritative; the pre-insert lookup only avoids
// minting a transaction hash for an obvious duplicate.
type VoteLedger struct {
	db    *sql.DB
	polls *PollStore
	now   Clock
}

func NewVoteLedger(db *sql.DB, polls *PollStore, now Clock) *VoteLedger {
	if now == nil {
		now = time.Now
	}
	return &VoteLedger{db: db, polls: polls, now: now}
}

// Cast records wallet's vote for option index in poll pollID.
func (l *VoteLedger) Cast(ctx context.Context, pollID, wallet string, optionIndex *int) (models.Vote, error) {
	if pollID == "" || optionIndex == nil {
		return models.Vote{}, apperr.Validation(msgMissingVoteArg)
	}
	idx := *optionIndex

	p, err := loadPoll(ctx, l.db, pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, pollNotFound(pollID)
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to load poll: %w", err)
	}

	if !p.IsActive {
		return models.Vote{}, apperr.VotingClosed(MsgPollInactive)
	}
	if expired, err := l.polls.ExpireIfDue(ctx, &p); err != nil {
		return models.Vote{}, err
	} else if expired || !p.IsActive {
		return models.Vote{}, apperr.VotingClosed(MsgPollExpired)
	}

	if idx < 0 || idx >= len(p.Options) {
		return models.Vote{}, apperr.Validation(msgInvalidOption, idx)
	}

	var existing int
	err = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND voter_wallet = $2
	`, pollID, wallet).Scan(&existing)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if existing > 0 {
		return models.Vote{}, apperr.DuplicateVote(MsgAlreadyVoted)
	}

	txHash, err := auth.NewTxHash()
	if err != nil {
		return models.Vote{}, err
	}
	v := models.Vote{
		ID:          auth.NewID(),
		PollID:      pollID,
		OptionIndex: idx,
		VoterWallet: wallet,
		TxHash:      txHash,
		Timestamp:   dbTime(l.now()),
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_index, voter_wallet, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.PollID, v.OptionIndex, v.VoterWallet, v.TxHash, v.Timestamp)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Vote{}, apperr.Wrap(apperr.DuplicateVote(MsgAlreadyVoted), err)
		}
		return models.Vote{}, fmt.Errorf("failed to insert vote: %w", err)
	}

	slog.Info("vote cast", "poll_id", pollID, "vote_id", v.ID, "option_index", idx)
	return v, nil
}

// ListForPoll returns all votes of a poll, oldest first. Only the poll's
// creator may see them.
func (l *VoteLedger) ListForPoll(ctx context.Context, pollID, wallet string) ([]models.Vote, error) {
	var createdBy string
	err := l.db.QueryRowContext(ctx, `SELECT created_by FROM poll WHERE id = $1`, pollID).Scan(&createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pollNotFound(pollID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load poll: %w", err)
	}
	if createdBy != wallet {
		return nil, apperr.Authorization("User %s is not authorized to view votes for this poll", wallet)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, poll_id, option_index, voter_wallet, tx_hash, created_at
		FROM vote WHERE poll_id = $1
		ORDER BY created_at ASC, id ASC
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionIndex, &v.VoterWallet, &v.TxHash, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Timestamp = v.Timestamp.UTC()
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// History returns wallet's votes, newest first, each with the poll as it
// reads now. Votes whose poll no longer exists are left out.
func (l *VoteLedger) History(ctx context.Context, wallet string) ([]models.VoteWithPoll, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT v.id, v.poll_id, v.option_index, v.voter_wallet, v.tx_hash, v.created_at,
		       p.id, p.title, p.is_active, p.deadline, o.text
		FROM vote v
		LEFT JOIN poll p ON p.id = v.poll_id
		LEFT JOIN poll_option o ON o.poll_id = v.poll_id AND o.option_index = v.option_index
		WHERE v.voter_wallet = $1
		ORDER BY v.created_at DESC, v.id DESC
	`, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote history: %w", err)
	}
	defer rows.Close()

	now := dbTime(l.now())
	history := []models.VoteWithPoll{}
	for rows.Next() {
		var (
			e        models.VoteWithPoll
			pollID   sql.NullString
			title    sql.NullString
			isActive sql.NullBool
			deadline sql.NullTime
			option   sql.NullString
		)
		err := rows.Scan(&e.ID, &e.PollID, &e.OptionIndex, &e.VoterWallet, &e.TxHash, &e.Timestamp,
			&pollID, &title, &isActive, &deadline, &option)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote history: %w", err)
		}
		if !pollID.Valid {
			continue
		}

		e.Timestamp = e.Timestamp.UTC()
		e.Poll = models.PollSnapshot{
			ID:             pollID.String,
			Title:          title.String,
			Deadline:       deadline.Time.UTC(),
			IsActive:       isActive.Bool && !now.After(deadline.Time),
			SelectedOption: MsgUnknownOption,
		}
		if option.Valid {
			e.Poll.SelectedOption = option.String
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// UserVote returns the option wallet chose in poll, or nil.
func (l *VoteLedger) UserVote(ctx context.Context, pollID, wallet string) (*int, error) {
	var idx int
	err := l.db.QueryRowContext(ctx, `
		SELECT option_index FROM vote WHERE poll_id = $1 AND voter_wallet = $2
	`, pollID, wallet).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user vote: %w", err)
	}
	return &idx, nil
}
