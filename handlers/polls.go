// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/middleware"
	"github.com/danielhkuo/votechain/models"
	"github.com/danielhkuo/votechain/store"
)

type PollHandler struct {
	polls  *store.PollStore
	tally  *store.TallyEngine
	ledger *store.VoteLedger
	cfg    cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	polls := store.NewPollStore(db, nil)
	return &PollHandler{
		polls:  polls,
		tally:  store.NewTallyEngine(db, nil),
		ledger: store.NewVoteLedger(db, polls, nil),
		cfg:    cfg,
	}
}

// writeError renders err, exposing internal detail outside production.
func writeError(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, err error) {
	middleware.WriteError(w, r, err, !cfg.IsProduction())
}

// callerWallet returns the wallet set by the auth middleware.
func callerWallet(r *http.Request) string {
	wallet, _ := middleware.WalletFromContext(r.Context())
	return wallet
}

func listOf[T any](items []T) models.ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return models.ListResponse[T]{Success: true, Count: len(items), Data: items}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		writeError(w, r, h.cfg, apperr.Validation("Invalid JSON"))
		return
	}

	poll, err := h.polls.Create(r.Context(), callerWallet(r), req)
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.DataResponse[models.Poll]{
		Success: true,
		Data:    poll,
	})
}

// UpdatePoll handles PUT /polls/:id
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		writeError(w, r, h.cfg, apperr.Validation("Invalid JSON"))
		return
	}

	poll, err := h.polls.Update(r.Context(), r.PathValue("id"), callerWallet(r), req)
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DataResponse[models.Poll]{
		Success: true,
		Data:    poll,
	})
}

// ClosePoll handles PUT /polls/:id/close
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.Close(r.Context(), r.PathValue("id"), callerWallet(r))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DataResponse[models.Poll]{
		Success: true,
		Data:    poll,
	})
}

// DeletePoll handles DELETE /polls/:id. Votes on the poll go with it.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.polls.Delete(r.Context(), r.PathValue("id"), callerWallet(r)); err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DataResponse[models.Empty]{
		Success: true,
		Data:    models.Empty{},
	})
}

// MyPolls handles GET /polls/admin/mypolls
func (h *PollHandler) MyPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.polls.ListByCreator(r.Context(), callerWallet(r))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	withTally, err := h.tally.WithTallies(r.Context(), polls)
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, listOf(withTally))
}
