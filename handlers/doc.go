// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the VoteChain API.

# Handler Types

  - AuthHandler: nonce issue, signature verification, admin lookup
  - PollHandler: poll listing, detail with tallies, and owner management
  - VotingHandler: casting votes, per-poll vote lists, voting history

Poll and voting handlers take *sql.DB and Config and build their stores:

	pollHandler := handlers.NewPollHandler(db, cfg)

AuthHandler takes the shared Verifier and Policy instead, since the nonce
store lives in memory and must be the same for every request.

# Sign-in Flow

	GET  /auth/nonce  → Nonce ({nonce})
	POST /auth/verify → Verify ({token, walletAddress, isAdmin})

The client signs "Sign this message to authenticate with VoteChain: <nonce>"
with its wallet key and posts the signature. Each nonce works once.

# Errors

Handlers never pick status codes for domain failures themselves. Store
errors carry an apperr kind and go through middleware.WriteError, which
maps them to 400/401/403/404. Everything else becomes a 500 with the
message "Server Error".

# Responses

Every body has "success". Single objects go in "data"; lists add "count":

	{"success": true, "count": 2, "data": [...]}
*/
package handlers
