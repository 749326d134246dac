// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Access Control

Guard applies an auth.Policy to handlers:

	guard := middleware.Guard{Policy: policy}
	mux.HandleFunc("POST /votes", guard.RequireAuth(h.Cast))
	mux.HandleFunc("POST /polls", guard.RequireAdmin(h.Create))
	mux.HandleFunc("GET /polls/{id}", guard.OptionalAuth(h.Get))

The authenticated wallet is read back with WalletFromContext. Admin status
is looked up on every request, never taken from the token.

# Errors

WriteError renders apperr errors with their status and message. Anything
else is logged, sent to Sentry and returned as a 500 "Server Error".
Recover does the same for panics.

# CORS, Rate Limiting and Compression

	handler := middleware.CORS(cfg.FrontendURL)(middleware.Gzip(mux))
	mux.Handle("POST /auth/verify", middleware.RateLimit(5)(verify))

CORS only answers for the configured frontend origin. RateLimit is keyed on
client IP and returns 429 with a JSON body.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		...
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP.
*/
package middleware
