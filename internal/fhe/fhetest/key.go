// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhetest provides a plaintext-tracking fake of fhe.EvalKey, the
// way the teacher's enginetest/validatorsmock packages provide fakes of
// their respective interfaces for fast, deterministic unit tests. It must
// never be imported outside of _test.go files: it keeps the plaintext
// alongside the "ciphertext", so it is not a valid EvalKey for production
// use.
package fhetest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/fhedoc/internal/fhe"
)

// ErrOverflow is returned by Trivial when v does not fit in arity.
var ErrOverflow = errors.New("fhetest: value out of range for arity")

// Handle is the fake ciphertext: the plaintext value in the open.
type Handle struct {
	V int
}

// NewHandle constructs an empty Handle for the codec to decode into.
func NewHandle() fhe.Handle { return &Handle{} }

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *Handle) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(h.V)))
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Handle) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("fhetest: bad handle length %d", len(b))
	}
	h.V = int(int64(binary.BigEndian.Uint64(b)))
	return nil
}

// Key is a fake fhe.EvalKey that performs every operation on the open
// plaintext. It exists purely for unit-testing gt_digits/mux/fix_len
// control flow without the cost (and non-determinism of timing side
// channels) of a real lattice backend.
type Key struct{}

var _ fhe.EvalKey = Key{}

func value(d fhe.Digit) int {
	return d.Handle.(*Handle).V
}

func digit(arity fhe.Arity, v int) fhe.Digit {
	return fhe.Digit{Arity: arity, Handle: &Handle{V: v}}
}

// Trivial implements fhe.EvalKey.
func (Key) Trivial(arity fhe.Arity, v int) (fhe.Digit, error) {
	if v < 0 || v >= int(arity) {
		return fhe.Digit{}, ErrOverflow
	}
	return digit(arity, v), nil
}

// Equal implements fhe.EvalKey.
func (Key) Equal(a, b fhe.Digit) (fhe.Digit, error) {
	if value(a) == value(b) {
		return digit(fhe.ArityBit, 1), nil
	}
	return digit(fhe.ArityBit, 0), nil
}

// Greater implements fhe.EvalKey.
func (Key) Greater(a, b fhe.Digit) (fhe.Digit, error) {
	if value(a) > value(b) {
		return digit(fhe.ArityBit, 1), nil
	}
	return digit(fhe.ArityBit, 0), nil
}

// And implements fhe.EvalKey.
func (Key) And(a, b fhe.Digit) (fhe.Digit, error) {
	return digit(fhe.ArityBit, value(a)&value(b)), nil
}

// Or implements fhe.EvalKey.
func (Key) Or(a, b fhe.Digit) (fhe.Digit, error) {
	return digit(fhe.ArityBit, value(a)|value(b)), nil
}

// Xor implements fhe.EvalKey.
func (Key) Xor(a, b fhe.Digit) (fhe.Digit, error) {
	return digit(fhe.ArityBit, value(a)^value(b)), nil
}

// Lookup implements fhe.EvalKey.
func (Key) Lookup(s, v fhe.Digit, table [][]int) (fhe.Digit, error) {
	sv, vv := value(s), value(v)
	if sv < 0 || sv >= len(table) || vv < 0 || vv >= len(table[sv]) {
		return fhe.Digit{}, fmt.Errorf("fhetest: lookup index (%d,%d) out of range", sv, vv)
	}
	return digit(v.Arity, table[sv][vv]), nil
}

// HandleFactory implements fhe.EvalKey.
func (Key) HandleFactory() fhe.HandleFactory { return NewHandle }

// Decrypt recovers the plaintext value of a fake Digit, for test
// assertions only.
func Decrypt(d fhe.Digit) int { return value(d) }

// EncryptSeq encrypts a sequence of plaintext digit values, MSB-first.
func EncryptSeq(arity fhe.Arity, vs ...int) []fhe.Digit {
	out := make([]fhe.Digit, len(vs))
	for i, v := range vs {
		out[i] = digit(arity, v)
	}
	return out
}

// DecryptSeq recovers the plaintext values of a Digit sequence.
func DecryptSeq(seq []fhe.Digit) []int {
	out := make([]int, len(seq))
	for i, d := range seq {
		out[i] = value(d)
	}
	return out
}
