// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the VoteChain API.

# Route Registration

NewRouter wires handlers, auth and metrics into one http.Handler:

	handler := router.NewRouter(db, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Sign-in (rate limited per client IP):

	GET  /auth/nonce       - Issue a single-use nonce
	POST /auth/verify      - Exchange a signed challenge for a token
	POST /auth/check-admin - Look up admin status of a wallet

Polls:

	GET    /polls                - List (optional auth)
	GET    /polls/{id}           - Detail with tally and userVote (optional auth)
	POST   /polls                - Create (admin)
	GET    /polls/admin/mypolls  - Caller's polls (admin)
	PUT    /polls/{id}           - Update (owner)
	PUT    /polls/{id}/close     - Close (owner)
	DELETE /polls/{id}           - Delete with votes (owner)

Votes (bearer token):

	POST /votes                - Cast
	GET  /votes/poll/{pollId}  - Votes of a poll (owner)
	GET  /votes/history        - Caller's votes

# Middleware Order

From the outside in: CORS, Gzip, Recover, Instrument, then the mux. Each
route adds request logging and its auth gate.
*/
package router
