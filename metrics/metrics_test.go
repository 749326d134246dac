// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "GET /polls", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "GET /polls", 200, 7*time.Millisecond)
	m.VoteOutcome("success")
	m.VoteOutcome("duplicate")
	m.VoteOutcome("duplicate")
	m.AuthOutcome("failure")

	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /polls", "200")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.votes.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.votes.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.signIns.WithLabelValues("failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.VoteOutcome("success")
		m.AuthOutcome("success")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.VoteOutcome("success")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `votechain_votes_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.VoteOutcome("success")
	assert.Equal(t, 0.0, promtestutil.ToFloat64(b.votes.WithLabelValues("success")))
}
