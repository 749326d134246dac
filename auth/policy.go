// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"slices"
	"strings"

	"github.com/danielhkuo/votechain/apperr"
)

// AdminSource returns the current admin wallet set. It is called on every
// check so revocations take effect without re-login.
type AdminSource func() []string

// StaticAdmins returns an AdminSource over a fixed list.
func StaticAdmins(wallets ...string) AdminSource {
	return func() []string { return wallets }
}

// Policy resolves identity from tokens and gates admin-only operations.
type Policy struct {
	tokens *TokenIssuer
	admins AdminSource
}

func NewPolicy(tokens *TokenIssuer, admins AdminSource) *Policy {
	if admins == nil {
		admins = StaticAdmins()
	}
	return &Policy{tokens: tokens, admins: admins}
}

// Authenticate returns the wallet address a bearer token was issued to.
func (p *Policy) Authenticate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.Authentication("Not authorized to access this route")
	}
	wallet, err := p.tokens.Parse(token)
	if errors.Is(err, ErrNoWallet) {
		return "", apperr.Wrap(apperr.Authentication("Invalid token payload"), err)
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Authentication("Not authorized to access this route"), err)
	}
	return wallet, nil
}

// IsAdmin reports whether wallet is in the admin set right now.
func (p *Policy) IsAdmin(wallet string) bool {
	if wallet == "" {
		return false
	}
	return slices.Contains(p.admins(), wallet)
}

// RequireAdmin fails with an AuthorizationError unless wallet is an admin.
func (p *Policy) RequireAdmin(wallet string) error {
	if !p.IsAdmin(wallet) {
		return apperr.Authorization("Admin privileges required to access this route")
	}
	return nil
}
