// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/danielhkuo/votechain/auth"
	"github.com/danielhkuo/votechain/models"
)

// Signer produces detached signatures for one wallet.
type Signer interface {
	Address() string
	SignMessage(message []byte) ([]byte, error)
}

// KeySigner signs with an ed25519 private key held in memory.
type KeySigner struct {
	key ed25519.PrivateKey
}

func NewKeySigner(key ed25519.PrivateKey) *KeySigner {
	return &KeySigner{key: key}
}

func (k *KeySigner) Address() string {
	return auth.EncodeWallet(k.key.Public().(ed25519.PublicKey))
}

func (k *KeySigner) SignMessage(message []byte) ([]byte, error) {
	return ed25519.Sign(k.key, message), nil
}

var queryEncoder = schema.NewEncoder()

// Client talks to the VoteChain API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New returns a client for the API at baseURL. A nil session is kept in
// memory only.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = &Session{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) Session() *Session { return c.session }

// Connect signs in with signer. If the session belongs to a different
// wallet it is cleared first; if it already belongs to this wallet it is
// reused.
func (c *Client) Connect(ctx context.Context, signer Signer) error {
	if signer == nil {
		return ErrNoSigner
	}
	address := signer.Address()

	if c.session.Active() {
		if c.session.WalletAddress() == address {
			return nil
		}
		slog.Debug("wallet changed, clearing session", "old", c.session.WalletAddress(), "new", address)
		if err := c.session.Clear(); err != nil {
			return err
		}
	}

	var nonce models.NonceResponse
	if err := c.do(ctx, http.MethodGet, "/auth/nonce", nil, false, &nonce); err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	message := auth.ChallengeMessage(nonce.Nonce)
	sig, err := signer.SignMessage([]byte(message))
	if err != nil {
		return fmt.Errorf("failed to sign challenge: %w", err)
	}

	var verified models.VerifyResponse
	err = c.do(ctx, http.MethodPost, "/auth/verify", models.VerifyRequest{
		WalletAddress: address,
		Signature:     sig,
		Message:       message,
	}, false, &verified)
	if err != nil {
		return fmt.Errorf("failed to verify wallet: %w", err)
	}

	c.session.set(verified.WalletAddress, verified.Token, verified.IsAdmin)
	return c.session.Save()
}

// Disconnect ends the session.
func (c *Client) Disconnect() error {
	return c.session.Clear()
}

// Polls lists polls. Sends the token when connected so the server can
// personalize the response.
func (c *Client) Polls(ctx context.Context, q models.ListPollsQuery) (models.PollListResponse, error) {
	values := url.Values{}
	if err := queryEncoder.Encode(q, values); err != nil {
		return models.PollListResponse{}, err
	}
	path := "/polls"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var resp models.PollListResponse
	err := c.do(ctx, http.MethodGet, path, nil, false, &resp)
	return resp, err
}

// Poll fetches one poll. UserVote is set when connected and voted.
func (c *Client) Poll(ctx context.Context, id string) (models.PollDetail, error) {
	var resp models.DataResponse[models.PollDetail]
	err := c.do(ctx, http.MethodGet, "/polls/"+url.PathEscape(id), nil, false, &resp)
	return resp.Data, err
}

// Cast votes for option optionIndex of poll pollID.
func (c *Client) Cast(ctx context.Context, pollID string, optionIndex int) (models.Vote, error) {
	var resp models.DataResponse[models.Vote]
	err := c.do(ctx, http.MethodPost, "/votes", models.CastVoteRequest{
		PollID:      pollID,
		OptionIndex: &optionIndex,
	}, true, &resp)
	return resp.Data, err
}

// History lists the connected wallet's votes, newest first.
func (c *Client) History(ctx context.Context) ([]models.VoteWithPoll, error) {
	var resp models.ListResponse[models.VoteWithPoll]
	err := c.do(ctx, http.MethodGet, "/votes/history", nil, true, &resp)
	return resp.Data, err
}

// do sends one request and decodes a 2xx body into out. When needAuth is
// set the call fails fast without a session, and a 401 clears the session.
func (c *Client) do(ctx context.Context, method, path string, body any, needAuth bool, out any) error {
	token := c.session.Token()
	if needAuth && token == "" {
		return ErrNotConnected
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var e models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			slog.Debug("token rejected, clearing session", "path", path)
			if err := c.session.Clear(); err != nil {
				return errors.Join(apiErr, err)
			}
			return fmt.Errorf("%w: %w", ErrNotConnected, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
