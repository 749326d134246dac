// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/votechain/metrics"
	"github.com/danielhkuo/votechain/models"
	"github.com/danielhkuo/votechain/testutil"
)

// TestConcurrentDuplicateVotes fires many casts for the same wallet and
// poll at once. Exactly one may succeed; every other attempt must report
// the duplicate, not a generic failure.
func TestConcurrentDuplicateVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	votingHandler := NewVotingHandler(db, testutil.GetTestConfig(), metrics.New())
	pollID := testutil.CreateTestPoll(t, db, adminWallet, time.Now().Add(time.Hour))

	const attempts = 50
	var created, duplicates, other atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w := castAs(votingHandler, voterWallet, pollID, intPtr(idx%2))
			switch {
			case w.Code == http.StatusCreated:
				created.Add(1)
			case w.Code == http.StatusBadRequest && strings.Contains(w.Body.String(), "already voted"):
				duplicates.Add(1)
			default:
				other.Add(1)
				t.Errorf("Unexpected response %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 successful cast, got %d", created.Load())
	}
	if duplicates.Load() != attempts-1 {
		t.Errorf("Expected %d duplicate rejections, got %d (other: %d)", attempts-1, duplicates.Load(), other.Load())
	}
	if n := testutil.CountVotes(t, db, pollID); n != 1 {
		t.Errorf("Expected 1 stored vote, got %d", n)
	}
}

// TestConcurrentDistinctVoters verifies that simultaneous votes from
// different wallets are all recorded and the tally adds up.
func TestConcurrentDistinctVoters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	votingHandler := NewVotingHandler(db, cfg, metrics.New())
	pollHandler := NewPollHandler(db, cfg)
	pollID := testutil.CreateTestPoll(t, db, adminWallet, time.Now().Add(time.Hour), "A", "B", "C")

	const voters = 20
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w := castAs(votingHandler, fmt.Sprintf("Wallet%02d", idx), pollID, intPtr(idx%3))
			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != voters {
		t.Errorf("Expected %d successful casts, got %d", voters, successCount.Load())
	}

	w := httptest.NewRecorder()
	pollHandler.GetPoll(w, withID(testutil.MakeRequest("GET", "/polls/"+pollID, nil, nil), "id", pollID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.DataResponse[models.PollDetail]
	testutil.AssertJSON(t, w, &resp)

	sum := 0
	for _, o := range resp.Data.VotesPerOption {
		sum += o.Votes
	}
	if sum != resp.Data.TotalVotes || sum != testutil.CountVotes(t, db, pollID) || sum != voters {
		t.Errorf("Tally mismatch: sum=%d total=%d stored=%d", sum, resp.Data.TotalVotes, testutil.CountVotes(t, db, pollID))
	}
	// 20 voters over 3 options: 7, 7, 6
	if resp.Data.VotesPerOption[0].Votes != 7 || resp.Data.VotesPerOption[2].Votes != 6 {
		t.Errorf("Unexpected distribution: %+v", resp.Data.VotesPerOption)
	}
}

// TestConcurrentCloseAndVote closes a poll while votes are arriving. Every
// vote reported as created must be stored and nothing else may be.
func TestConcurrentCloseAndVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(adminWallet)
	votingHandler := NewVotingHandler(db, cfg, metrics.New())
	pollHandler := NewPollHandler(db, cfg)
	pollID := testutil.CreateTestPoll(t, db, adminWallet, time.Now().Add(time.Hour))

	const voters = 15
	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w := castAs(votingHandler, fmt.Sprintf("Voter%02d", idx), pollID, intPtr(0))
			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusBadRequest:
			default:
				t.Errorf("Unexpected response %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		w := httptest.NewRecorder()
		req := withID(testutil.MakeRequest("PUT", "/polls/"+pollID+"/close", nil, nil), "id", pollID)
		pollHandler.ClosePoll(w, asWallet(req, adminWallet))
		if w.Code != http.StatusOK {
			t.Errorf("Close failed: %d", w.Code)
		}
	}()

	wg.Wait()

	if testutil.PollIsActive(t, db, pollID) {
		t.Error("Expected poll to be closed")
	}
	if n := testutil.CountVotes(t, db, pollID); n != int(created.Load()) {
		t.Errorf("Expected %d stored votes, got %d", created.Load(), n)
	}

	w := castAs(votingHandler, "LateVoter", pollID, intPtr(0))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	if msg := errorMessage(t, w); msg != "This poll is no longer active" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestParallelPolls(t *testing.T) {
	t.Parallel()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(adminWallet)
	pollHandler := NewPollHandler(db, cfg)
	votingHandler := NewVotingHandler(db, cfg, metrics.New())

	numPolls := 5
	var wg sync.WaitGroup

	for i := 0; i < numPolls; i++ {
		wg.Add(1)
		go func(pollIdx int) {
			defer wg.Done()

			createReq := validPollRequest()
			createReq.Title = "Parallel Poll " + string(rune('A'+pollIdx))
			w := httptest.NewRecorder()
			pollHandler.CreatePoll(w, asWallet(testutil.MakeRequest("POST", "/polls", createReq, nil), adminWallet))
			if w.Code != http.StatusCreated {
				t.Errorf("Poll %d creation failed: %d", pollIdx, w.Code)
				return
			}

			var resp models.DataResponse[models.Poll]
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Errorf("Poll %d: %v", pollIdx, err)
				return
			}

			w = castAs(votingHandler, voterWallet, resp.Data.ID, intPtr(pollIdx%2))
			if w.Code != http.StatusCreated {
				t.Errorf("Poll %d vote failed: %d", pollIdx, w.Code)
			}
		}(i)
	}

	wg.Wait()

	var pollCount, voteCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM poll").Scan(&pollCount); err != nil {
		t.Fatalf("Failed to count polls: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM vote WHERE voter_wallet = $1", voterWallet).Scan(&voteCount); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}

	if pollCount != numPolls {
		t.Errorf("Expected %d polls, got %d", numPolls, pollCount)
	}
	if voteCount != numPolls {
		t.Errorf("Expected one vote per poll (%d), got %d", numPolls, voteCount)
	}
}
