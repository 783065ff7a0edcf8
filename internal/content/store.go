// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package content is the opaque ciphertext payload store (C5): entries
// addressed by a plaintext content id, evicted after CONTENT_TTL of
// inactivity.
package content

import (
	"sync"
	"time"

	"github.com/luxfi/fhedoc/internal/fhe"
)

type entry struct {
	payload    []fhe.Digit
	lastAccess time.Time
}

// Store is a TTL-refreshing map of content id to digit-ciphertext
// payload. Both Put and the refresh-on-read in Get take the write lock,
// since a read mutates lastAccess (§5, "Shared-resource policy").
type Store struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[string]*entry
}

// New returns an empty Store whose entries expire after ttl of
// inactivity.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		items: make(map[string]*entry),
	}
}

// Put stores payload under id, resetting its last-access deadline.
// Overwrites any prior value.
func (s *Store) Put(id string, payload []fhe.Digit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &entry{payload: payload, lastAccess: time.Now()}
}

// Get returns the payload stored under id, refreshing its last-access
// deadline on a hit.
func (s *Store) Get(id string) ([]fhe.Digit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	return e.payload, true
}

// Len returns the current number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes every entry idle longer than the store's ttl as of now,
// returning the number evicted.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.items {
		if now.Sub(e.lastAccess) > s.ttl {
			delete(s.items, id)
			n++
		}
	}
	return n
}
