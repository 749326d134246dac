// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A dotenv file (default .env, override with -env-file) is loaded first.
It never overrides variables that are already set, and a missing file is
not an error.

# Flags and Environment Variables

	-p               PORT                    default 5000
	-d               DATABASE_URL            required
	-t               DATABASE_TYPE           sqlite | postgres (default sqlite)
	-jwt-secret      JWT_SECRET              required
	-jwt-expires-in  JWT_EXPIRES_IN          default 24h, accepts "30d"
	-admins          ADMIN_WALLET_ADDRESSES  comma-separated
	-frontend-url    FRONTEND_URL            default http://localhost:3000
	-env             APP_ENV                 default development
	-nonce-ttl       NONCE_TTL               default 5m
	-auth-rate       AUTH_RATE_LIMIT         req/s per IP on /auth, 0 disables
	-sentry-dsn      SENTRY_DSN              empty disables reporting

CLI flags take precedence over environment variables.

# Admin Wallets

Config.AdminSource yields the admin set for the access policy. When the
list came from -admins it is fixed for the process lifetime; otherwise
ADMIN_WALLET_ADDRESSES is read again on every call.
*/
package cliparse
