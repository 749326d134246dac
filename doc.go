// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the VoteChain API server.

VoteChain is a polling service where identity is a wallet. Users sign a
one-time nonce with their ed25519 key to get a bearer token; admins create
polls, and every wallet may vote once per poll. Each vote carries a
transaction hash as its receipt.

# Starting the Server

	JWT_SECRET=... DATABASE_URL=votechain.db go run .

Or with flags:

	go run . -p 5000 -t postgres -d "postgres://..." -admins Wallet1,Wallet2

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - JWT_SECRET (--jwt-secret): Token signing secret

Optional settings:

  - PORT (-p): Server port (default: 5000)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - ADMIN_WALLET_ADDRESSES (--admins): comma-separated admin wallets
  - FRONTEND_URL, APP_ENV, JWT_EXPIRES_IN, NONCE_TTL, AUTH_RATE_LIMIT, SENTRY_DSN

A .env file in the working directory is loaded when present. See package
cliparse for the full table.

# Logging

Logs go to stderr through log/slog: text on a terminal, JSON otherwise.
Debug output is enabled outside production.

# Architecture

  - handlers: HTTP request handlers (auth, polls, voting, results)
  - router: Route table and middleware chain
  - middleware: Access guard, errors, CORS, rate limit, gzip, metrics
  - store: Poll store, vote ledger and tally engine
  - auth: Nonces, signature verification, tokens and admin policy
  - db: Connection and goose migrations
  - metrics: Prometheus collectors
  - client: Go SDK with a persisted wallet session
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
