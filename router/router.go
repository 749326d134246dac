// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/cliparse"
	"github.com/danielhkuo/votechain/handlers"
	"github.com/danielhkuo/votechain/metrics"
	"github.com/danielhkuo/votechain/middleware"
)

// Banner is the body served on GET /.
const Banner = "VoteChain API v1"

func NewRouter(db *sql.DB, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()
	m := metrics.New()

	// Shared auth state
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	policy := auth.NewPolicy(tokens, cfg.AdminSource())
	verifier := auth.NewVerifier(auth.NewNonceStore(cfg.NonceTTL), tokens, policy)
	guard := middleware.Guard{Policy: policy, ExposeDetail: !cfg.IsProduction()}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(verifier, policy, m, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Wallet sign-in (rate limited per client IP)
	limit := middleware.RateLimit(cfg.AuthRateLimit)
	mux.Handle("GET /auth/nonce", limit(middleware.WithLogging(authHandler.Nonce)))
	mux.Handle("POST /auth/verify", limit(middleware.WithLogging(authHandler.Verify)))
	mux.Handle("POST /auth/check-admin", limit(middleware.WithLogging(authHandler.CheckAdmin)))

	// Polls (public reads)
	mux.HandleFunc("GET /polls", middleware.WithLogging(guard.OptionalAuth(pollHandler.ListPolls)))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(guard.OptionalAuth(pollHandler.GetPoll)))

	// Polls (admin)
	mux.HandleFunc("POST /polls", middleware.WithLogging(guard.RequireAdmin(pollHandler.CreatePoll)))
	mux.HandleFunc("GET /polls/admin/mypolls", middleware.WithLogging(guard.RequireAdmin(pollHandler.MyPolls)))

	// Polls (owner; ownership is checked by the store)
	mux.HandleFunc("PUT /polls/{id}", middleware.WithLogging(guard.RequireAuth(pollHandler.UpdatePoll)))
	mux.HandleFunc("PUT /polls/{id}/close", middleware.WithLogging(guard.RequireAuth(pollHandler.ClosePoll)))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(guard.RequireAuth(pollHandler.DeletePoll)))

	// Votes
	mux.HandleFunc("POST /votes", middleware.WithLogging(guard.RequireAuth(votingHandler.CastVote)))
	mux.HandleFunc("GET /votes/poll/{pollId}", middleware.WithLogging(guard.RequireAuth(votingHandler.PollVotes)))
	mux.HandleFunc("GET /votes/history", middleware.WithLogging(guard.RequireAuth(votingHandler.History)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Banner))
	})

	var handler http.Handler = mux
	handler = middleware.Instrument(m)(handler)
	handler = middleware.Recover(!cfg.IsProduction())(handler)
	handler = middleware.Gzip(handler)
	handler = middleware.CORS(cfg.FrontendURL)(handler)
	return handler
}
