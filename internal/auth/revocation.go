// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationSet records consumed single-use tokens.
// Implementations must make Add atomic: for concurrent calls with the same
// token exactly one returns true.
type RevocationSet interface {
	// Contains reports whether the token has been consumed.
	Contains(ctx context.Context, token string) (bool, error)

	// Add inserts the token if absent and reports whether this call inserted it.
	// A zero expiresAt means the entry is kept until removed externally.
	Add(ctx context.Context, token string, expiresAt time.Time) (bool, error)
}

// MemoryRevocationSet is a process-local RevocationSet.
// Entries whose token has expired are dropped by Prune.
type MemoryRevocationSet struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryRevocationSet creates an empty MemoryRevocationSet.
func NewMemoryRevocationSet() *MemoryRevocationSet {
	return &MemoryRevocationSet{entries: make(map[string]time.Time)}
}

// Contains implements RevocationSet.
func (s *MemoryRevocationSet) Contains(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[token]
	return ok, nil
}

// Add implements RevocationSet.
func (s *MemoryRevocationSet) Add(_ context.Context, token string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[token]; ok {
		return false, nil
	}
	s.entries[token] = expiresAt
	return true, nil
}

// Len returns the number of tracked tokens.
func (s *MemoryRevocationSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Prune removes entries for tokens that expired before now and returns how
// many were removed. Entries without an expiry are kept.
func (s *MemoryRevocationSet) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, exp := range s.entries {
		if !exp.IsZero() && now.After(exp) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Run prunes the set every interval until ctx is cancelled.
func (s *MemoryRevocationSet) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Prune(now)
		}
	}
}

var _ RevocationSet = (*MemoryRevocationSet)(nil)
