// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/db"
)

// TestDBURL is an in-memory SQLite database private to one *sql.DB.
const TestDBURL = ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration with the given
// admin wallets pinned and auth rate limiting disabled.
func GetTestConfig(admins ...string) cliparse.Config {
	cfg := cliparse.Config{
		Port:          5000,
		DatabaseURL:   TestDBURL,
		DatabaseType:  db.TypeSQLite,
		JWTSecret:     "test-jwt-secret",
		JWTExpiresIn:  time.Hour,
		FrontendURL:   "http://localhost:3000",
		Environment:   "development",
		NonceTTL:      time.Minute,
		AuthRateLimit: 0,
	}
	return cfg.WithAdmins(admins...)
}

// Wallet is a test keypair with its base58 address.
type Wallet struct {
	Address string
	Key     ed25519.PrivateKey
}

// NewWallet generates a fresh ed25519 wallet.
func NewWallet(t *testing.T) Wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("Failed to generate wallet: %v", err)
	}
	return Wallet{Address: auth.EncodeWallet(pub), Key: priv}
}

// Sign returns a detached signature over message.
func (w Wallet) Sign(message string) []byte {
	return ed25519.Sign(w.Key, []byte(message))
}

// Token mints a session token for wallet using cfg's secret.
func Token(t *testing.T, cfg cliparse.Config, wallet string) string {
	t.Helper()
	tok, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn).Issue(wallet)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok
}

// BearerHeader returns an Authorization header map for MakeRequest.
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// CreateTestPoll inserts an active poll with the given options and returns its ID
func CreateTestPoll(t *testing.T, conn *sql.DB, creator string, deadline time.Time, options ...string) string {
	t.Helper()
	return insertPoll(t, conn, creator, "Test Poll", deadline, true, time.Now(), options...)
}

// CreateTestPollAt is CreateTestPoll with explicit title, active flag and creation time.
func CreateTestPollAt(t *testing.T, conn *sql.DB, creator, title string, deadline time.Time, active bool, createdAt time.Time, options ...string) string {
	t.Helper()
	return insertPoll(t, conn, creator, title, deadline, active, createdAt, options...)
}

func insertPoll(t *testing.T, conn *sql.DB, creator, title string, deadline time.Time, active bool, createdAt time.Time, options ...string) string {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}

	pollID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO poll (id, title, description, created_by, deadline, is_active, created_at)
		VALUES ($1, $2, 'A test poll', $3, $4, $5, $6)
	`, pollID, title, creator, deadline.UTC(), active, createdAt.UTC())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, text := range options {
		_, err := conn.Exec(`
			INSERT INTO poll_option (poll_id, option_index, text) VALUES ($1, $2, $3)
		`, pollID, i, text)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return pollID
}

// CreateTestVote records a vote directly and returns its ID
func CreateTestVote(t *testing.T, conn *sql.DB, pollID, wallet string, optionIndex int, at time.Time) string {
	t.Helper()

	voteID := auth.NewID()
	txHash, _ := auth.NewTxHash()
	_, err := conn.Exec(`
		INSERT INTO vote (id, poll_id, option_index, voter_wallet, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, voteID, pollID, optionIndex, wallet, txHash, at.UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return voteID
}

// PollIsActive reads the stored is_active flag
func PollIsActive(t *testing.T, conn *sql.DB, pollID string) bool {
	t.Helper()
	var active bool
	if err := conn.QueryRow(`SELECT is_active FROM poll WHERE id = $1`, pollID).Scan(&active); err != nil {
		t.Fatalf("Failed to read poll: %v", err)
	}
	return active
}

// CountVotes returns the number of stored votes for a poll
func CountVotes(t *testing.T, conn *sql.DB, pollID string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
