package models

import (
	"time"
)

// MaxTitleLength bounds poll titles.
const MaxTitleLength = 200

// Request types

type VerifyRequest struct {
	WalletAddress string    `json:"walletAddress"`
	Signature     Signature `json:"signature"`
	Message       string    `json:"message"`
}

type CheckAdminRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type OptionInput struct {
	Text string `json:"text"`
}

type CreatePollRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Options     []OptionInput `json:"options"`
	Deadline    string        `json:"deadline"`
}

// UpdatePollRequest is a partial update; nil fields are left untouched.
type UpdatePollRequest struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Options     []OptionInput `json:"options,omitempty"`
	Deadline    *string       `json:"deadline,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

type CastVoteRequest struct {
	PollID      string `json:"pollId"`
	OptionIndex *int   `json:"optionIndex"`
}

// ListPollsQuery is the GET /polls query string.
type ListPollsQuery struct {
	IsActive string `schema:"isActive,omitempty"`
	Search   string `schema:"search,omitempty"`
	Page     int    `schema:"page,omitempty"`
	Limit    int    `schema:"limit,omitempty"`
}

// Domain types

type Option struct {
	Text string `json:"text"`
}

type Poll struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     []Option  `json:"options"`
	CreatedBy   string    `json:"createdBy"`
	Deadline    time.Time `json:"deadline"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expired reports whether the deadline has passed at now.
func (p *Poll) Expired(now time.Time) bool {
	return now.After(p.Deadline)
}

type OptionVotes struct {
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

type PollWithTally struct {
	Poll
	TotalVotes     int           `json:"totalVotes"`
	VotesPerOption []OptionVotes `json:"votesPerOption"`
	TimeLeft       string        `json:"timeLeft"`
}

// PollDetail is a single poll as seen by the (optionally authenticated) caller.
type PollDetail struct {
	PollWithTally
	UserVote *int `json:"userVote"`
}

type Vote struct {
	ID          string    `json:"_id"`
	PollID      string    `json:"pollId"`
	OptionIndex int       `json:"optionIndex"`
	VoterWallet string    `json:"voterWallet"`
	TxHash      string    `json:"txHash"`
	Timestamp   time.Time `json:"timestamp"`
}

// PollSnapshot is the poll state attached to a history entry, read at query time.
type PollSnapshot struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	IsActive       bool      `json:"isActive"`
	Deadline       time.Time `json:"deadline"`
	SelectedOption string    `json:"selectedOption"`
}

type VoteWithPoll struct {
	Vote
	Poll PollSnapshot `json:"poll"`
}

// Response types

type NonceResponse struct {
	Success bool   `json:"success"`
	Nonce   string `json:"nonce"`
}

type VerifyResponse struct {
	Success       bool   `json:"success"`
	Token         string `json:"token"`
	WalletAddress string `json:"walletAddress"`
	IsAdmin       bool   `json:"isAdmin"`
}

type CheckAdminResponse struct {
	Success bool `json:"success"`
	IsAdmin bool `json:"isAdmin"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type PollListResponse struct {
	Success    bool            `json:"success"`
	Count      int             `json:"count"`
	Total      int             `json:"total"`
	Pagination Pagination      `json:"pagination"`
	Data       []PollWithTally `json:"data"`
}

// DataResponse wraps a single payload.
type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// ListResponse wraps a list payload with its length.
type ListResponse[T any] struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    []T  `json:"data"`
}

// Empty serializes as {}.
type Empty struct{}

// Error response

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
