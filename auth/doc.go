// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth implements wallet sign-in and the access policy.

# Challenge Flow

	nonce, _ := verifier.IssueNonce()
	msg := auth.ChallengeMessage(nonce)
	// wallet signs msg with its ed25519 key
	sess, err := verifier.Verify(wallet, sig, msg)

Wallet addresses are base58-encoded 32-byte ed25519 public keys. The
signature must verify over the exact message bytes. Nonces live in an
in-memory expiring cache and are consumed once; a replayed or expired
nonce is an AuthenticationError.

# Session Tokens

TokenIssuer signs HS256 JWTs carrying walletAddress, iat and exp. Admin
status is never part of the token.

# Access Policy

Policy.Authenticate resolves a bearer token to a wallet. Policy.IsAdmin
and RequireAdmin consult an AdminSource on every call, so removing a
wallet from the admin list takes effect on its next request.

# ID Generation

	id := auth.NewID()            // UUID for poll and vote rows
	tx, err := auth.NewTxHash()   // 64 lowercase hex chars
	hex, err := auth.GenerateID(16)
*/
package auth
