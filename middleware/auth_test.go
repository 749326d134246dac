// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/models"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def", "abc.def"},
		{"bearer abc.def", "abc.def"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := BearerToken(req); got != tc.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		expose     bool
		wantStatus int
		wantMsg    string
		wantDetail string
	}{
		{"validation", apperr.Validation("Please provide a poll title"), false, http.StatusBadRequest, "Please provide a poll title", ""},
		{"not found", apperr.NotFound("Poll not found with id of %s", "p1"), false, http.StatusNotFound, "Poll not found with id of p1", ""},
		{"duplicate", apperr.Wrap(apperr.DuplicateVote("You have already voted in this poll"), errors.New("unique")), false, http.StatusBadRequest, "You have already voted in this poll", ""},
		{"forbidden", apperr.Authorization("Admin privileges required to access this route"), true, http.StatusForbidden, "Admin privileges required to access this route", ""},
		{"unexpected hidden", errors.New("disk on fire"), false, http.StatusInternalServerError, ServerErrorMessage, ""},
		{"unexpected exposed", errors.New("disk on fire"), true, http.StatusInternalServerError, ServerErrorMessage, "disk on fire"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, httptest.NewRequest("GET", "/", nil), tc.err, tc.expose)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			resp := decodeError(t, w)
			if resp.Success {
				t.Error("Expected success false")
			}
			if resp.Message != tc.wantMsg {
				t.Errorf("Expected message %q, got %q", tc.wantMsg, resp.Message)
			}
			if resp.Error != tc.wantDetail {
				t.Errorf("Expected error detail %q, got %q", tc.wantDetail, resp.Error)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Message != ServerErrorMessage || resp.Error != "" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestGuard(t *testing.T) {
	const (
		admin = "AdminWallet111"
		user  = "UserWallet222"
	)
	tokens := auth.NewTokenIssuer("guard-secret", time.Hour)
	admins := []string{admin}
	guard := Guard{Policy: auth.NewPolicy(tokens, func() []string { return admins })}

	issue := func(wallet string) string {
		tok, err := tokens.Issue(wallet)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return tok
	}

	var seen string
	echo := func(w http.ResponseWriter, r *http.Request) {
		seen, _ = WalletFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	serve := func(h http.HandlerFunc, token string) *httptest.ResponseRecorder {
		seen = ""
		req := httptest.NewRequest("GET", "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	t.Run("RequireAuth", func(t *testing.T) {
		h := guard.RequireAuth(echo)

		w := serve(h, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 without token, got %d", w.Code)
		}
		if resp := decodeError(t, w); resp.Message != "Not authorized to access this route" {
			t.Errorf("Unexpected message %q", resp.Message)
		}

		if w := serve(h, "garbage"); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for bad token, got %d", w.Code)
		}

		if w := serve(h, issue(user)); w.Code != http.StatusOK || seen != user {
			t.Errorf("Expected 200 with wallet %q, got %d and %q", user, w.Code, seen)
		}
	})

	t.Run("OptionalAuth", func(t *testing.T) {
		h := guard.OptionalAuth(echo)

		if w := serve(h, ""); w.Code != http.StatusOK || seen != "" {
			t.Errorf("Expected anonymous 200, got %d and %q", w.Code, seen)
		}
		if w := serve(h, "garbage"); w.Code != http.StatusOK || seen != "" {
			t.Errorf("Expected invalid token to be ignored, got %d and %q", w.Code, seen)
		}
		if w := serve(h, issue(user)); w.Code != http.StatusOK || seen != user {
			t.Errorf("Expected wallet %q, got %d and %q", user, w.Code, seen)
		}
	})

	t.Run("RequireAdmin", func(t *testing.T) {
		h := guard.RequireAdmin(echo)

		if w := serve(h, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 without token, got %d", w.Code)
		}

		w := serve(h, issue(user))
		if w.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for non-admin, got %d", w.Code)
		}
		if resp := decodeError(t, w); resp.Message != "Admin privileges required to access this route" {
			t.Errorf("Unexpected message %q", resp.Message)
		}

		adminToken := issue(admin)
		if w := serve(h, adminToken); w.Code != http.StatusOK || seen != admin {
			t.Errorf("Expected admin 200, got %d and %q", w.Code, seen)
		}

		// Removing the wallet from the admin set takes effect for tokens
		// that were already issued.
		admins = nil
		if w := serve(h, adminToken); w.Code != http.StatusForbidden {
			t.Errorf("Expected 403 after revocation, got %d", w.Code)
		}
	})
}
