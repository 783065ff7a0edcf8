// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe holds the digit ciphertext (DC) type and the homomorphic
// evaluation-key operation surface the blind selection pipeline is built
// from. Every routine in this package is a pure function of its inputs and
// an EvalKey; none of them hold key material or introduce randomness that
// affects the semantic (decrypted) result.
package fhe

import "encoding"

// Arity names the plaintext domain a Digit encrypts over.
type Arity uint8

const (
	// ArityBit is the {0,1} domain used by intermediate selector/compare
	// bits.
	ArityBit Arity = 2
	// ArityNibble is the small hex-digit domain used by timestamp,
	// identifier and content digits.
	ArityNibble Arity = 16
)

// TSDigits is the fixed digit-sequence length of a timestamp or identifier.
const TSDigits = 16

// ContentNibbles is the fixed digit-sequence length of a content payload.
const ContentNibbles = 128

// Handle is the opaque, scheme-specific ciphertext payload a Digit wraps.
// Concrete evaluation-key implementations provide their own Handle type
// (see internal/fhe/lattice and internal/fhe/fhetest); the codec only needs
// it to be serializable.
type Handle interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// HandleFactory constructs an empty Handle ready to be unmarshaled into.
// The codec holds no key material of its own, so it is given a factory
// rather than an EvalKey.
type HandleFactory func() Handle

// Digit is an opaque encrypted value whose plaintext domain is named by
// Arity. All Digit operations are performed through an EvalKey; Digit
// itself carries no behavior.
type Digit struct {
	Arity  Arity
	Handle Handle
}

// EvalKey is the homomorphic operation surface the evaluation key exposes.
// All methods are deterministic functions of their arguments and the key;
// none of them branch on a ciphertext's plaintext value, and none of them
// ever return the plaintext.
type EvalKey interface {
	// Trivial returns a Digit encrypting the known constant v without
	// requiring any client-submitted ciphertext.
	Trivial(arity Arity, v int) (Digit, error)

	// Equal returns a Digit of ArityBit encrypting 1 iff a and b encrypt
	// the same plaintext.
	Equal(a, b Digit) (Digit, error)
	// Greater returns a Digit of ArityBit encrypting 1 iff a's plaintext
	// is strictly greater than b's.
	Greater(a, b Digit) (Digit, error)

	// And, Or, Xor are bitwise boolean operations over ArityBit Digits.
	And(a, b Digit) (Digit, error)
	Or(a, b Digit) (Digit, error)
	Xor(a, b Digit) (Digit, error)

	// Lookup evaluates the bivariate lookup table T(s,v): table is
	// indexed [s][v] and both s and v range over their own Digit's
	// arity. The returned Digit has arity equal to len(table[0]).
	Lookup(s, v Digit, table [][]int) (Digit, error)

	// HandleFactory returns a constructor for this key's concrete Handle
	// type, used by the codec to decode wire ciphertexts.
	HandleFactory() HandleFactory
}
