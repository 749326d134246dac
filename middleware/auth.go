// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielhkuo/votechain/auth"
)

type ctxKey int

const walletKey ctxKey = iota

// WithWallet returns a context carrying the authenticated wallet address.
func WithWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, walletKey, wallet)
}

// WalletFromContext returns the wallet set by RequireAuth or OptionalAuth.
func WalletFromContext(ctx context.Context) (string, bool) {
	w, ok := ctx.Value(walletKey).(string)
	return w, ok && w != ""
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Guard applies the access policy to handlers.
type Guard struct {
	Policy       *auth.Policy
	ExposeDetail bool
}

// RequireAuth rejects requests without a valid bearer token.
func (g Guard) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := g.Policy.Authenticate(BearerToken(r))
		if err != nil {
			WriteError(w, r, err, g.ExposeDetail)
			return
		}
		next(w, r.WithContext(WithWallet(r.Context(), wallet)))
	}
}

// OptionalAuth attaches the wallet when a valid token is present and
// otherwise lets the request through anonymously.
func (g Guard) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := BearerToken(r); token != "" {
			if wallet, err := g.Policy.Authenticate(token); err == nil {
				r = r.WithContext(WithWallet(r.Context(), wallet))
			}
		}
		next(w, r)
	}
}

// RequireAdmin authenticates and then checks the current admin set.
func (g Guard) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return g.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		wallet, _ := WalletFromContext(r.Context())
		if err := g.Policy.RequireAdmin(wallet); err != nil {
			WriteError(w, r, err, g.ExposeDetail)
			return
		}
		next(w, r)
	})
}
