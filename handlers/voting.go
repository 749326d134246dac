// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/metrics"
	"github.com/danielhkuo/votechain/middleware"
	"github.com/danielhkuo/votechain/models"
	"github.com/danielhkuo/votechain/store"
)

type VotingHandler struct {
	ledger  *store.VoteLedger
	metrics *metrics.Metrics
	cfg     cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *VotingHandler {
	return &VotingHandler{
		ledger:  store.NewVoteLedger(db, store.NewPollStore(db, nil), nil),
		metrics: m,
		cfg:     cfg,
	}
}

// voteOutcome labels a cast attempt for the votes counter.
func voteOutcome(err error) string {
	if err == nil {
		return "success"
	}
	e, ok := apperr.As(err)
	if !ok {
		return "error"
	}
	switch e.Kind {
	case apperr.KindDuplicateVote:
		return "duplicate"
	case apperr.KindVotingClosed:
		return "closed"
	case apperr.KindNotFound:
		return "not_found"
	}
	return "invalid"
}

// CastVote handles POST /votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		h.metrics.VoteOutcome("invalid")
		writeError(w, r, h.cfg, apperr.Validation("Invalid JSON"))
		return
	}

	vote, err := h.ledger.Cast(r.Context(), req.PollID, callerWallet(r), req.OptionIndex)
	h.metrics.VoteOutcome(voteOutcome(err))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.DataResponse[models.Vote]{
		Success: true,
		Data:    vote,
	})
}

// PollVotes handles GET /votes/poll/:pollId. Only the poll's creator may
// see individual votes.
func (h *VotingHandler) PollVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.ledger.ListForPoll(r.Context(), r.PathValue("pollId"), callerWallet(r))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, listOf(votes))
}

// History handles GET /votes/history
func (h *VotingHandler) History(w http.ResponseWriter, r *http.Request) {
	votes, err := h.ledger.History(r.Context(), callerWallet(r))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, listOf(votes))
}
