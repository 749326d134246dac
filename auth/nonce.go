// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrUnknownNonce = errors.New("nonce is unknown, expired or already used")

var nonceMax = big.NewInt(1_000_000_000_000)

// NonceStore holds issued nonces until they are consumed or expire.
type NonceStore struct {
	cache *cache.Cache
}

// NewNonceStore creates a store whose entries expire after ttl.
func NewNonceStore(ttl time.Duration) *NonceStore {
	return &NonceStore{cache: cache.New(ttl, 2*ttl)}
}

// Issue returns a fresh numeric nonce.
func (s *NonceStore) Issue() (string, error) {
	for range 5 {
		n, err := rand.Int(rand.Reader, nonceMax)
		if err != nil {
			return "", fmt.Errorf("failed to generate nonce: %w", err)
		}
		nonce := n.String()
		if err := s.cache.Add(nonce, 1, cache.DefaultExpiration); err == nil {
			return nonce, nil
		}
	}
	return "", errors.New("failed to allocate unique nonce")
}

// Consume marks nonce as used. Only the first caller for an issued,
// unexpired nonce succeeds.
func (s *NonceStore) Consume(nonce string) error {
	left, err := s.cache.DecrementInt(nonce, 1)
	if err != nil || left != 0 {
		return ErrUnknownNonce
	}
	s.cache.Delete(nonce)
	return nil
}
