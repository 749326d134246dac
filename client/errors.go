// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoSigner     = errors.New("no wallet signer")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func messageOf(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	return strings.ToLower(apiErr.Message), true
}

// IsAlreadyVoted reports whether err is the duplicate vote rejection.
func IsAlreadyVoted(err error) bool {
	msg, ok := messageOf(err)
	return ok && strings.Contains(msg, "already voted")
}

// IsPollExpired reports whether err says the poll's deadline has passed.
func IsPollExpired(err error) bool {
	msg, ok := messageOf(err)
	return ok && strings.Contains(msg, "expired")
}

// IsPollClosed reports whether err says the poll was closed by its owner.
func IsPollClosed(err error) bool {
	msg, ok := messageOf(err)
	return ok && strings.Contains(msg, "no longer active")
}
