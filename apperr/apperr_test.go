// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"authentication", Authentication("no token"), http.StatusUnauthorized},
		{"authorization", Authorization("not owner"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("votes exist"), http.StatusBadRequest},
		{"voting closed", VotingClosed("closed"), http.StatusBadRequest},
		{"duplicate vote", DuplicateVote("again"), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("cast: %w", DuplicateVote("again")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("store: %w", DuplicateVote("You have already voted in this poll"))

	assert.True(t, errors.Is(err, ErrDuplicateVote))
	assert.False(t, errors.Is(err, ErrVotingClosed))
	assert.False(t, errors.Is(errors.New("x"), ErrDuplicateVote))
}

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("outer: %w", NotFound("Poll not found with id of %s", "abc")))
	require.True(t, ok)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Equal(t, "Poll not found with id of abc", e.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := Wrap(Authentication("Invalid signature"), cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.Contains(t, err.Error(), "signature mismatch")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "DuplicateVoteError", KindDuplicateVote.String())
	assert.Equal(t, "UnknownError", Kind(0).String())
}
