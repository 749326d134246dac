// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/metrics"
	"github.com/danielhkuo/votechain/models"
	"github.com/danielhkuo/votechain/testutil"
)

func newAuthHandler(cfg cliparse.Config) *AuthHandler {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	policy := auth.NewPolicy(tokens, cfg.AdminSource())
	verifier := auth.NewVerifier(auth.NewNonceStore(cfg.NonceTTL), tokens, policy)
	return NewAuthHandler(verifier, policy, metrics.New(), cfg)
}

func getNonce(t *testing.T, h *AuthHandler) string {
	t.Helper()
	w := httptest.NewRecorder()
	h.Nonce(w, testutil.MakeRequest("GET", "/auth/nonce", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.NonceResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Success || resp.Nonce == "" {
		t.Fatalf("Unexpected nonce response: %+v", resp)
	}
	return resp.Nonce
}

func TestNonce(t *testing.T) {
	h := newAuthHandler(testutil.GetTestConfig())

	first := getNonce(t, h)
	second := getNonce(t, h)
	if first == second {
		t.Errorf("Expected distinct nonces, got %q twice", first)
	}
}

func TestVerify(t *testing.T) {
	admin := testutil.NewWallet(t)
	user := testutil.NewWallet(t)
	cfg := testutil.GetTestConfig(admin.Address)
	h := newAuthHandler(cfg)

	verify := func(req models.VerifyRequest) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Verify(w, testutil.MakeRequest("POST", "/auth/verify", req, nil))
		return w
	}

	t.Run("admin wallet", func(t *testing.T) {
		msg := auth.ChallengeMessage(getNonce(t, h))
		w := verify(models.VerifyRequest{
			WalletAddress: admin.Address,
			Signature:     admin.Sign(msg),
			Message:       msg,
		})
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VerifyResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Success || !resp.IsAdmin || resp.WalletAddress != admin.Address {
			t.Errorf("Unexpected response: %+v", resp)
		}

		wallet, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn).Parse(resp.Token)
		if err != nil || wallet != admin.Address {
			t.Errorf("Token does not carry wallet: %q, %v", wallet, err)
		}
	})

	t.Run("regular wallet", func(t *testing.T) {
		msg := auth.ChallengeMessage(getNonce(t, h))
		w := verify(models.VerifyRequest{
			WalletAddress: user.Address,
			Signature:     user.Sign(msg),
			Message:       msg,
		})
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VerifyResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.IsAdmin {
			t.Error("Expected non-admin")
		}
	})

	t.Run("signature from another wallet", func(t *testing.T) {
		msg := auth.ChallengeMessage(getNonce(t, h))
		w := verify(models.VerifyRequest{
			WalletAddress: admin.Address,
			Signature:     user.Sign(msg),
			Message:       msg,
		})
		testutil.AssertStatus(t, w, http.StatusUnauthorized)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Invalid signature" {
			t.Errorf("Expected 'Invalid signature', got %q", resp.Message)
		}
	})

	t.Run("replayed nonce", func(t *testing.T) {
		msg := auth.ChallengeMessage(getNonce(t, h))
		req := models.VerifyRequest{
			WalletAddress: user.Address,
			Signature:     user.Sign(msg),
			Message:       msg,
		}
		testutil.AssertStatus(t, verify(req), http.StatusOK)
		testutil.AssertStatus(t, verify(req), http.StatusUnauthorized)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := verify(models.VerifyRequest{WalletAddress: user.Address})
		testutil.AssertStatus(t, w, http.StatusUnauthorized)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Please provide wallet address, signature, and message" {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Verify(w, testutil.MakeRequest("POST", "/auth/verify", nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)

		w = httptest.NewRecorder()
		h.Verify(w, httptest.NewRequest("POST", "/auth/verify", strings.NewReader(`{"walletAddress":`)))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Invalid JSON" {
			t.Errorf("Unexpected message %q", resp.Message)
		}
	})

	t.Run("undecodable signature", func(t *testing.T) {
		message := auth.ChallengeMessage(getNonce(t, h))
		for _, sig := range []string{`"notasig!!"`, `[1, 2, 256]`, `[-1]`, `42`} {
			body := `{"walletAddress":"` + user.Address + `","signature":` + sig + `,"message":"` + message + `"}`
			w := httptest.NewRecorder()
			h.Verify(w, httptest.NewRequest("POST", "/auth/verify", strings.NewReader(body)))
			testutil.AssertStatus(t, w, http.StatusUnauthorized)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Message != "Invalid signature" {
				t.Errorf("signature %s: unexpected message %q", sig, resp.Message)
			}
		}
	})
}

func TestCheckAdmin(t *testing.T) {
	const admin = "AdminWallet111"
	h := newAuthHandler(testutil.GetTestConfig(admin))

	testCases := []struct {
		name        string
		wallet      string
		wantStatus  int
		wantIsAdmin bool
	}{
		{"admin", admin, http.StatusOK, true},
		{"not admin", "SomeoneElse", http.StatusOK, false},
		{"missing", "", http.StatusBadRequest, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.CheckAdmin(w, testutil.MakeRequest("POST", "/auth/check-admin",
				models.CheckAdminRequest{WalletAddress: tc.wallet}, nil))
			testutil.AssertStatus(t, w, tc.wantStatus)

			if tc.wantStatus != http.StatusOK {
				return
			}
			var resp models.CheckAdminResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.IsAdmin != tc.wantIsAdmin {
				t.Errorf("Expected isAdmin %v, got %v", tc.wantIsAdmin, resp.IsAdmin)
			}
		})
	}
}
