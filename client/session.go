// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the signed-in wallet as persisted between runs. It is loaded
// once on start, saved after Connect and cleared on disconnect or when a
// different wallet connects.
type Session struct {
	mu    sync.RWMutex
	path  string
	state sessionState
}

type sessionState struct {
	WalletAddress string `json:"walletAddress"`
	Token         string `json:"token"`
	IsAdmin       bool   `json:"isAdmin"`
}

// LoadSession reads the session stored at path. A missing file yields an
// empty session bound to path. An empty path keeps the session in memory.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	// A half-written session is as good as none.
	if s.state.Token == "" || s.state.WalletAddress == "" {
		s.state = sessionState{}
	}
	return s, nil
}

// Active reports whether the session holds a token.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token != "" && s.state.WalletAddress != ""
}

func (s *Session) WalletAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.WalletAddress
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAdmin
}

func (s *Session) set(wallet, token string, isAdmin bool) {
	s.mu.Lock()
	s.state = sessionState{WalletAddress: wallet, Token: token, IsAdmin: isAdmin}
	s.mu.Unlock()
}

// Save writes the session to its file with owner-only permissions.
func (s *Session) Save() error {
	s.mu.RLock()
	path, state := s.path, s.state
	s.mu.RUnlock()
	if path == "" {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return os.Rename(tmp, path)
}

// Clear forgets the wallet and token and removes the session file.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.state = sessionState{}
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
