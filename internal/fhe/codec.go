// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
)

// ErrMalformedCiphertext is returned by Decode when the wire value is not
// valid base64, or decodes to a structurally invalid ciphertext.
var ErrMalformedCiphertext = errors.New("fhe: malformed ciphertext")

// Encode returns the wire form of d: the base64 encoding of a canonical
// binary serialization (a one-byte arity tag, a uint32 length, and the
// Handle's own binary encoding).
func Encode(d Digit) (string, error) {
	raw, err := d.Handle.MarshalBinary()
	if err != nil {
		return "", err
	}
	buf := make([]byte, 1+4+len(raw))
	buf[0] = byte(d.Arity)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(raw)))
	copy(buf[5:], raw)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode parses the wire form produced by Encode, constructing the Handle
// via newHandle. Decode is pure: it holds no key material, and newHandle
// must not either.
func Decode(s string, newHandle HandleFactory) (Digit, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Digit{}, ErrMalformedCiphertext
	}
	if len(buf) < 5 {
		return Digit{}, ErrMalformedCiphertext
	}
	arity := Arity(buf[0])
	n := binary.BigEndian.Uint32(buf[1:5])
	if uint32(len(buf)-5) != n {
		return Digit{}, ErrMalformedCiphertext
	}
	h := newHandle()
	if err := h.UnmarshalBinary(buf[5:]); err != nil {
		return Digit{}, ErrMalformedCiphertext
	}
	return Digit{Arity: arity, Handle: h}, nil
}

// EncodeSeq encodes a sequence of Digits, MSB/first-first.
func EncodeSeq(seq []Digit) ([]string, error) {
	out := make([]string, len(seq))
	for i, d := range seq {
		s, err := Encode(d)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// DecodeSeq decodes a sequence of wire ciphertexts.
func DecodeSeq(seq []string, newHandle HandleFactory) ([]Digit, error) {
	out := make([]Digit, len(seq))
	for i, s := range seq {
		d, err := Decode(s, newHandle)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
