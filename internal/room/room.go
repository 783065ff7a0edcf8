// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package room is the per-document broadcast fan-out (C6): one channel
// set per document id, generalized from utils/set.Set's
// map-of-comparable-keys-under-RWMutex style to a map of subscriber
// sets.
package room

import (
	"sync"

	"github.com/luxfi/fhedoc/internal/fhe"
)

// Capacity is the buffered channel size each subscriber receives. A
// subscriber that falls Capacity messages behind is dropped rather than
// allowed to stall the publisher or other subscribers.
const Capacity = 128

// Message is the broadcast payload: the document id and its newly
// selected identifier.
type Message struct {
	DocID      string
	SelectedID []fhe.Digit
}

type room struct {
	mu   sync.Mutex
	subs map[chan Message]struct{}
}

// Rooms holds every document's broadcast room, created lazily on first
// subscribe or first publish and kept for the life of the process.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// New returns an empty Rooms.
func New() *Rooms {
	return &Rooms{rooms: make(map[string]*room)}
}

func (r *Rooms) ensure(docID string) *room {
	r.mu.RLock()
	rm, ok := r.rooms[docID]
	r.mu.RUnlock()
	if ok {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok := r.rooms[docID]; ok {
		return rm
	}
	rm = &room{subs: make(map[chan Message]struct{})}
	r.rooms[docID] = rm
	return rm
}

// Subscribe attaches a new subscriber to docID's room, returning a
// receive channel and an idempotent unsubscribe function. The channel
// is closed by unsubscribe (or by Publish, on overflow); callers must
// range over it rather than perform a single receive.
func (r *Rooms) Subscribe(docID string) (<-chan Message, func()) {
	rm := r.ensure(docID)
	ch := make(chan Message, Capacity)

	rm.mu.Lock()
	rm.subs[ch] = struct{}{}
	rm.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			rm.mu.Lock()
			defer rm.mu.Unlock()
			if _, ok := rm.subs[ch]; ok {
				delete(rm.subs, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers msg to every subscriber currently attached to
// docID's room. Delivery is best-effort and non-blocking: a subscriber
// whose buffer is full is dropped (its channel closed and removed)
// rather than stalling this call or any other subscriber (SubscriberLag,
// §7).
func (r *Rooms) Publish(docID string, msg Message) {
	rm := r.ensure(docID)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for ch := range rm.subs {
		select {
		case ch <- msg:
		default:
			delete(rm.subs, ch)
			close(ch)
		}
	}
}

// Count returns the number of subscribers currently attached across
// every document's room.
func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rm := range r.rooms {
		rm.mu.Lock()
		n += len(rm.subs)
		rm.mu.Unlock()
	}
	return n
}
