// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/metrics"
	"github.com/danielhkuo/votechain/middleware"
	"github.com/danielhkuo/votechain/models"
)

type AuthHandler struct {
	verifier *auth.Verifier
	policy   *auth.Policy
	metrics  *metrics.Metrics
	cfg      cliparse.Config
}

func NewAuthHandler(verifier *auth.Verifier, policy *auth.Policy, m *metrics.Metrics, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{verifier: verifier, policy: policy, metrics: m, cfg: cfg}
}

// Nonce handles GET /auth/nonce
func (h *AuthHandler) Nonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.verifier.IssueNonce()
	if err != nil {
		writeError(w, r, h.cfg, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NonceResponse{
		Success: true,
		Nonce:   nonce,
	})
}

// Verify handles POST /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		h.metrics.AuthOutcome("failure")
		if errors.Is(err, models.ErrBadSignatureEncoding) {
			writeError(w, r, h.cfg, apperr.Wrap(apperr.Authentication("Invalid signature"), err))
			return
		}
		writeError(w, r, h.cfg, apperr.Validation("Invalid JSON"))
		return
	}

	session, err := h.verifier.Verify(req.WalletAddress, req.Signature, req.Message)
	if err != nil {
		h.metrics.AuthOutcome("failure")
		writeError(w, r, h.cfg, err)
		return
	}
	h.metrics.AuthOutcome("success")

	slog.Info("wallet authenticated", "wallet", session.WalletAddress, "is_admin", session.IsAdmin)

	middleware.JSONResponse(w, http.StatusOK, models.VerifyResponse{
		Success:       true,
		Token:         session.Token,
		WalletAddress: session.WalletAddress,
		IsAdmin:       session.IsAdmin,
	})
}

// CheckAdmin handles POST /auth/check-admin
func (h *AuthHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.CheckAdminRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		writeError(w, r, h.cfg, apperr.Validation("Invalid JSON"))
		return
	}
	if req.WalletAddress == "" {
		writeError(w, r, h.cfg, apperr.Validation("Please provide a wallet address"))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CheckAdminResponse{
		Success: true,
		IsAdmin: h.policy.IsAdmin(req.WalletAddress),
	})
}
