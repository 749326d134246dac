// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/gorilla/schema"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/middleware"
	"github.com/danielhkuo/votechain/models"
	"github.com/danielhkuo/votechain/store"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// parseActive maps the isActive query value onto a filter. Anything other
// than "true" or "false" means no status filter.
func parseActive(v string) *bool {
	switch v {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	}
	return nil
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	var q models.ListPollsQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		writeError(w, r, h.cfg, apperr.Wrap(apperr.Validation("Invalid query parameters"), err))
		return
	}

	page, err := h.polls.List(r.Context(), store.ListFilter{
		Active: parseActive(q.IsActive),
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	withTally, err := h.tally.WithTallies(r.Context(), page.Polls)
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollListResponse{
		Success: true,
		Count:   len(withTally),
		Total:   page.Total,
		Pagination: models.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
		Data: withTally,
	})
}

// GetPoll handles GET /polls/:id. An authenticated caller also gets the
// option index they voted for, if any.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.polls.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	withTally, err := h.tally.WithTally(r.Context(), poll)
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	detail := models.PollDetail{PollWithTally: withTally}
	if wallet := callerWallet(r); wallet != "" {
		detail.UserVote, err = h.ledger.UserVote(r.Context(), poll.ID, wallet)
		if err != nil {
			writeError(w, r, h.cfg, err)
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.DataResponse[models.PollDetail]{
		Success: true,
		Data:    detail,
	})
}
