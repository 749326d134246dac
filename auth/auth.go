// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// ChallengePrefix precedes the nonce in the message a wallet signs.
const ChallengePrefix = "Sign this message to authenticate with VoteChain: "

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidChallenge = errors.New("message is not an authentication challenge")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewTxHash returns a 64-character lowercase hex placeholder transaction hash.
func NewTxHash() (string, error) {
	return GenerateID(32)
}

// NewID returns a random UUID string for database records.
func NewID() string {
	return uuid.NewString()
}

// ChallengeMessage builds the message a wallet must sign for nonce.
func ChallengeMessage(nonce string) string {
	return ChallengePrefix + nonce
}

// ExtractNonce returns the nonce embedded in a challenge message.
func ExtractNonce(message string) (string, error) {
	nonce, ok := strings.CutPrefix(message, ChallengePrefix)
	if !ok || nonce == "" {
		return "", ErrInvalidChallenge
	}
	return nonce, nil
}

// DecodeWallet decodes a base58 wallet address into an ed25519 public key.
func DecodeWallet(address string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidWallet
	}
	return ed25519.PublicKey(raw), nil
}

// EncodeWallet renders an ed25519 public key as a base58 wallet address.
func EncodeWallet(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

// VerifySignature checks a detached ed25519 signature over the exact
// message bytes against the wallet's public key.
func VerifySignature(address string, message []byte, sig []byte) error {
	pub, err := DecodeWallet(address)
	if err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize || !ed25519.Verify(pub, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}
