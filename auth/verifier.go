// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"log/slog"

	"github.com/danielhkuo/votechain/apperr"
)

// Session is the result of a successful wallet verification.
type Session struct {
	Token         string
	WalletAddress string
	IsAdmin       bool
}

// Verifier runs the nonce challenge: issue a nonce, then accept a wallet
// signature over the challenge message in exchange for a session token.
type Verifier struct {
	nonces *NonceStore
	tokens *TokenIssuer
	policy *Policy
}

func NewVerifier(nonces *NonceStore, tokens *TokenIssuer, policy *Policy) *Verifier {
	return &Verifier{nonces: nonces, tokens: tokens, policy: policy}
}

// IssueNonce returns a fresh single-use nonce.
func (v *Verifier) IssueNonce() (string, error) {
	return v.nonces.Issue()
}

// Verify checks the signature and consumes the nonce carried by message.
// The nonce is only consumed once the signature is known to be good.
func (v *Verifier) Verify(walletAddress string, signature []byte, message string) (Session, error) {
	if walletAddress == "" || len(signature) == 0 || message == "" {
		return Session{}, apperr.Authentication("Please provide wallet address, signature, and message")
	}

	if err := VerifySignature(walletAddress, []byte(message), signature); err != nil {
		slog.Warn("signature rejected", "wallet", walletAddress, "error", err)
		return Session{}, apperr.Wrap(apperr.Authentication("Invalid signature"), err)
	}

	nonce, err := ExtractNonce(message)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Authentication("Invalid authentication message"), err)
	}
	if err := v.nonces.Consume(nonce); err != nil {
		return Session{}, apperr.Wrap(apperr.Authentication("Nonce is invalid or has expired"), err)
	}

	token, err := v.tokens.Issue(walletAddress)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:         token,
		WalletAddress: walletAddress,
		IsAdmin:       v.policy.IsAdmin(walletAddress),
	}, nil
}
