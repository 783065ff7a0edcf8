// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package selector is the per-document "latest-writer-wins" state
// machine (C4): it ingests a client update, runs the blind
// compare-and-mux against whatever is currently stored, and publishes
// the new selection. Control flow never depends on which side of a
// comparison won (I4); the only branches in applyLocked are on whether
// a document record exists yet, never on a decrypted value.
//
// The comparator is strict: on a tie, the previously-stored side wins.
// Re-submitting the current winning timestamp with different
// accompanying fields therefore does not refresh those fields — this is
// spec.md §9's Open Question (a), fixed as intentional.
package selector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/fhedoc/api/metrics"
	"github.com/luxfi/fhedoc/internal/content"
	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/internal/room"
	"github.com/luxfi/fhedoc/log"
)

// EKSource snapshots the currently installed evaluation key. Declared
// here rather than depending on internal/registry directly, so the
// selector stays agnostic of how (or whether) the key is persisted.
type EKSource interface {
	Current() (fhe.EvalKey, bool)
}

// Record is a document's stored selection, plus read-only observability
// fields that never influence selection (§4, "C4 Document selector
// additionally tracks").
type Record struct {
	SelectedID    []fhe.Digit
	SelectedTS    []fhe.Digit
	UpdateCount   uint64
	LastAppliedAt time.Time
}

func (r Record) clone() Record {
	c := r
	c.SelectedID = append([]fhe.Digit(nil), r.SelectedID...)
	c.SelectedTS = append([]fhe.Digit(nil), r.SelectedTS...)
	return c
}

// docState owns one document's record. mu serializes the entire
// compare-mux-commit critical section for this document (O2): two
// concurrent submissions for the same document are linearized by
// acquiring it exclusively.
type docState struct {
	mu  sync.Mutex
	rec Record
}

// Selector is the document selector (C4).
type Selector struct {
	ek      EKSource
	content *content.Store
	rooms   *room.Rooms
	metrics metrics.Metrics
	log     log.Logger

	tsDigits       int
	contentNibbles int

	mu   sync.RWMutex
	docs map[string]*docState
}

// New builds a Selector. tsDigits and contentNibbles are the
// TS_DIGITS/CONTENT_NIBBLES constants of §3, threaded through from
// config rather than hardcoded so tests can exercise short sequences
// cheaply.
func New(ek EKSource, contentStore *content.Store, rooms *room.Rooms, m metrics.Metrics, logger log.Logger, tsDigits, contentNibbles int) *Selector {
	return &Selector{
		ek:             ek,
		content:        contentStore,
		rooms:          rooms,
		metrics:        m,
		log:            logger,
		tsDigits:       tsDigits,
		contentNibbles: contentNibbles,
		docs:           make(map[string]*docState),
	}
}

func (s *Selector) getOrCreate(docID string) *docState {
	s.mu.RLock()
	d, ok := s.docs[docID]
	s.mu.RUnlock()
	if ok {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[docID]; ok {
		return d
	}
	d = &docState{}
	s.docs[docID] = d
	return d
}

// Snapshot returns the current stored selection for docID, for
// delivering an initial ServerSelected frame to a newly-attached
// subscriber (§6, O4's "late subscribers receive an initial snapshot").
func (s *Selector) Snapshot(docID string) (Record, bool) {
	s.mu.RLock()
	d, ok := s.docs[docID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rec.SelectedID == nil {
		return Record{}, false
	}
	return d.rec.clone(), true
}

// DocCount returns the number of documents with a stored selection.
func (s *Selector) DocCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Apply runs §4.4's algorithm for a single client update. ok is false
// with a nil error when the update is silently dropped because no
// evaluation key is installed (KeyAbsent, §7); a non-nil error means the
// supplied digits were structurally unusable under the installed key
// (e.g. a length that FixLen cannot reconcile, which does not happen in
// practice since FixLen accepts any length, but is threaded through in
// case a future EvalKey rejects an arity).
func (s *Selector) Apply(ctx context.Context, docID string, newTS, newID []fhe.Digit, contentID string, payload []fhe.Digit) (Record, bool, error) {
	ek, ok := s.ek.Current()
	if !ok {
		if s.metrics != nil {
			s.metrics.UpdatesDropped().Inc()
		}
		return Record{}, false, nil
	}

	newTS, err := fhe.FixLen(ek, fhe.ArityNibble, newTS, s.tsDigits)
	if err != nil {
		return Record{}, false, fmt.Errorf("selector: normalize ts: %w", err)
	}
	newID, err = fhe.FixLen(ek, fhe.ArityNibble, newID, s.tsDigits)
	if err != nil {
		return Record{}, false, fmt.Errorf("selector: normalize id: %w", err)
	}

	d := s.getOrCreate(docID)
	d.mu.Lock()
	rec, err := applyLocked(ek, d, newTS, newID)
	d.mu.Unlock()
	if err != nil {
		return Record{}, false, fmt.Errorf("selector: apply: %w", err)
	}

	normalizedContent, err := fhe.FixLen(ek, fhe.ArityNibble, payload, s.contentNibbles)
	if err != nil {
		return Record{}, false, fmt.Errorf("selector: normalize content: %w", err)
	}
	if contentID != "" {
		s.content.Put(contentID, normalizedContent)
	}

	s.rooms.Publish(docID, room.Message{DocID: docID, SelectedID: rec.SelectedID})
	if s.metrics != nil {
		s.metrics.UpdatesApplied().Inc()
	}
	_ = ctx // no suspension point inside the critical section; ctx is accepted for symmetry with the rest of the boundary and future cancellation.
	return rec, true, nil
}

// applyLocked performs §4.4 steps 2-3 under d.mu. It is the "hard core":
// gt_digits picks a selector bit and mux obliviously chooses, digit by
// digit, which side advances. Nothing here branches on a decrypted
// value — only on whether a record exists yet.
func applyLocked(ek fhe.EvalKey, d *docState, newTS, newID []fhe.Digit) (Record, error) {
	if d.rec.SelectedID == nil {
		d.rec = Record{
			SelectedID:    newID,
			SelectedTS:    newTS,
			UpdateCount:   1,
			LastAppliedAt: time.Now(),
		}
		return d.rec.clone(), nil
	}

	sel, err := fhe.GtDigits(ek, newTS, d.rec.SelectedTS)
	if err != nil {
		return Record{}, err
	}
	selectedTS, err := fhe.MuxSeq(ek, sel, newTS, d.rec.SelectedTS)
	if err != nil {
		return Record{}, err
	}
	selectedID, err := fhe.MuxSeq(ek, sel, newID, d.rec.SelectedID)
	if err != nil {
		return Record{}, err
	}

	d.rec = Record{
		SelectedID:    selectedID,
		SelectedTS:    selectedTS,
		UpdateCount:   d.rec.UpdateCount + 1,
		LastAppliedAt: time.Now(),
	}
	return d.rec.clone(), nil
}
