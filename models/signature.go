// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/mr-tron/base58"
)

// Signature is a detached wallet signature. Browser wallets post it as an
// array of byte values; base58 and base64 strings are accepted as well.
type Signature []byte

// ErrBadSignatureEncoding is returned when a signature cannot be decoded.
var ErrBadSignatureEncoding = errors.New("signature must be a byte array, base58 or base64 string")

func (s *Signature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return ErrBadSignatureEncoding
		}
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return ErrBadSignatureEncoding
			}
			out[i] = byte(v)
		}
		*s = out
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return ErrBadSignatureEncoding
	}
	if str == "" {
		*s = nil
		return nil
	}
	// ed25519 signatures are 64 bytes; try base58 first since that is what
	// Solana tooling prints.
	if b, err := base58.Decode(str); err == nil && len(b) == 64 {
		*s = b
		return nil
	}
	if b, err := base64.StdEncoding.DecodeString(str); err == nil {
		*s = b
		return nil
	}
	return ErrBadSignatureEncoding
}

// MarshalJSON emits the byte-array form the browser client sends.
func (s Signature) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(s))
	for i, b := range s {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
