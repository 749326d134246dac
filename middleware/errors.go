// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/danielhkuo/votechain/apperr"
	"github.com/danielhkuo/votechain/models"
)

// ServerErrorMessage is the only message clients see for unexpected errors.
const ServerErrorMessage = "Server Error"

// WriteError maps err onto the error taxonomy. Domain errors keep their
// message and status; anything else becomes a 500 that is logged, reported
// to Sentry, and carries the underlying detail only when exposeDetail is set.
func WriteError(w http.ResponseWriter, r *http.Request, err error, exposeDetail bool) {
	if e, ok := apperr.As(err); ok {
		slog.Debug("request rejected", "kind", e.Kind.String(), "message", e.Message, "path", r.URL.Path)
		ErrorResponse(w, e.Kind.Status(), e.Message)
		return
	}

	slog.Error("unhandled error", "error", err, "method", r.Method, "path", r.URL.Path)
	captureException(r, err)

	resp := models.ErrorResponse{Success: false, Message: ServerErrorMessage}
	if exposeDetail {
		resp.Error = err.Error()
	}
	JSONResponse(w, http.StatusInternalServerError, resp)
}

func captureException(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Recover turns a panic in next into a 500 response.
func Recover(exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					WriteError(w, r, fmt.Errorf("panic: %v", p), exposeDetail)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
