// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry holds the single process-wide evaluation key (C3):
// install, snapshot, and restore-from-persistence. It never validates the
// cryptographic soundness of an installed key; trust in the key is
// assumed, per spec.md §4.3.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/log"
)

// Kind names the on-wire shape a persisted evaluation-key blob was
// decoded from.
type Kind string

const (
	// KindPlain is an uncompressed evaluation key.
	KindPlain Kind = "server_key"
	// KindCompressed is a gzip-compressed evaluation key.
	KindCompressed Kind = "compressed_server_key"
)

// ErrUnrecognizedKey is returned by Install when a blob decodes as
// neither a plain nor a compressed evaluation key.
var ErrUnrecognizedKey = errors.New("registry: unrecognized evaluation key")

// Store persists the single most-recently-installed blob. Older blobs
// are overwritten; Store never keeps history.
type Store interface {
	Save(kind Kind, blob []byte) error
	Load() (kind Kind, blob []byte, ok bool, err error)
}

// Decoder attempts to decode a wire blob into an fhe.EvalKey.
type Decoder func(blob []byte) (fhe.EvalKey, error)

// Registry is the evaluation-key registry: at most one installed key,
// guarded by a readers-writer lock so a concurrent Current() snapshot
// can never observe a half-replaced key (§5, "Shared-resource policy").
type Registry struct {
	store            Store
	decodePlain      Decoder
	decodeCompressed Decoder
	log              log.Logger

	mu          sync.RWMutex
	ek          fhe.EvalKey
	kind        Kind
	installedAt time.Time
}

// New builds a Registry backed by store, using decodePlain/decodeCompressed
// to recognize the two blob shapes §4.3 describes.
func New(store Store, decodePlain, decodeCompressed Decoder, logger log.Logger) *Registry {
	return &Registry{
		store:            store,
		decodePlain:      decodePlain,
		decodeCompressed: decodeCompressed,
		log:              logger,
	}
}

// Install tries blob as a plain key, then as a compressed key. On
// success it atomically replaces the current key and persists blob
// under the matching Kind tag. On failure it leaves state unchanged and
// returns ErrUnrecognizedKey.
func (r *Registry) Install(blob []byte) (Kind, error) {
	if ek, err := r.decodePlain(blob); err == nil {
		r.install(KindPlain, ek, blob)
		return KindPlain, nil
	}
	if ek, err := r.decodeCompressed(blob); err == nil {
		r.install(KindCompressed, ek, blob)
		return KindCompressed, nil
	}
	return "", ErrUnrecognizedKey
}

func (r *Registry) install(kind Kind, ek fhe.EvalKey, blob []byte) {
	r.set(kind, ek)
	if err := r.store.Save(kind, blob); err != nil {
		// PersistenceFailure: log and continue. In-memory state is
		// authoritative for the life of this process.
		r.log.Warn("failed to persist evaluation key", zap.Error(err))
	}
}

func (r *Registry) set(kind Kind, ek fhe.EvalKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ek = ek
	r.kind = kind
	r.installedAt = time.Now()
}

// Current returns a snapshot of the installed key. Callers must clone
// this snapshot out before homomorphic work rather than holding the
// registry's lock across it (§9, "Global EK").
func (r *Registry) Current() (fhe.EvalKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ek, r.ek != nil
}

// Restore reads the single persisted blob, if any, and installs it
// without re-persisting it (it is already the thing on disk). Called
// once at startup.
func (r *Registry) Restore() error {
	kind, blob, ok, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("registry: restore: %w", err)
	}
	if !ok {
		return nil
	}

	decode := r.decodePlain
	if kind == KindCompressed {
		decode = r.decodeCompressed
	}
	ek, err := decode(blob)
	if err != nil {
		return fmt.Errorf("registry: restore: %w", err)
	}
	r.set(kind, ek)
	return nil
}

// Status is a read-only snapshot of registry state for the §6
// /status addition.
type Status struct {
	Present     bool
	Kind        Kind
	InstalledAt time.Time
}

// StatusSnapshot returns the current Status.
func (r *Registry) StatusSnapshot() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Present:     r.ek != nil,
		Kind:        r.kind,
		InstalledAt: r.installedAt,
	}
}
