// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

// FixLen returns a length-L sequence derived from seq: if it is shorter, it
// is left-padded with trivial encryptions of 0; if longer, only the last L
// (least-significant) elements are kept. MSB-first ordering is preserved.
func FixLen(ek EvalKey, arity Arity, seq []Digit, l int) ([]Digit, error) {
	if len(seq) == l {
		return seq, nil
	}
	if len(seq) > l {
		return append([]Digit(nil), seq[len(seq)-l:]...), nil
	}
	out := make([]Digit, 0, l)
	for i := 0; i < l-len(seq); i++ {
		zero, err := ek.Trivial(arity, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, zero)
	}
	return append(out, seq...), nil
}

// GtDigits computes a single ArityBit Digit encrypting the bit A > B under
// lexicographic (MSB-first) comparison of two equal-length digit
// sequences. On a tie (all digits equal) it returns an encryption of 0:
// strictly-newer wins, ties keep the old side.
func GtDigits(ek EvalKey, a, b []Digit) (Digit, error) {
	eqPrefix, err := ek.Trivial(ArityBit, 1)
	if err != nil {
		return Digit{}, err
	}
	result, err := ek.Trivial(ArityBit, 0)
	if err != nil {
		return Digit{}, err
	}
	for i := range a {
		gtI, err := ek.Greater(a[i], b[i])
		if err != nil {
			return Digit{}, err
		}
		eqI, err := ek.Equal(a[i], b[i])
		if err != nil {
			return Digit{}, err
		}

		prefixAndGt, err := ek.And(eqPrefix, gtI)
		if err != nil {
			return Digit{}, err
		}
		result, err = ek.Or(result, prefixAndGt)
		if err != nil {
			return Digit{}, err
		}
		eqPrefix, err = ek.And(eqPrefix, eqI)
		if err != nil {
			return Digit{}, err
		}
	}
	return result, nil
}

// muxTable is T(s,v) = v if s=1 else 0, over an arity-sized v domain.
func muxTable(arity Arity) [][]int {
	t := make([][]int, 2)
	t[0] = make([]int, arity)
	t[1] = make([]int, arity)
	for v := 0; v < int(arity); v++ {
		t[0][v] = 0
		t[1][v] = v
	}
	return t
}

// Mux returns x when sel encrypts 1, y when sel encrypts 0. It is realized
// as an algebraic circuit: not_sel = 1 XOR sel; a = T(sel, x); b =
// T(not_sel, y); return a OR b — control flow never depends on a
// ciphertext's plaintext value.
func Mux(ek EvalKey, sel, x, y Digit) (Digit, error) {
	one, err := ek.Trivial(ArityBit, 1)
	if err != nil {
		return Digit{}, err
	}
	notSel, err := ek.Xor(one, sel)
	if err != nil {
		return Digit{}, err
	}
	a, err := ek.Lookup(sel, x, muxTable(x.Arity))
	if err != nil {
		return Digit{}, err
	}
	b, err := ek.Lookup(notSel, y, muxTable(y.Arity))
	if err != nil {
		return Digit{}, err
	}
	return ek.Or(a, b)
}

// MuxSeq applies Mux element-wise across two equal-length digit sequences
// under a shared selector bit.
func MuxSeq(ek EvalKey, sel Digit, x, y []Digit) ([]Digit, error) {
	out := make([]Digit, len(x))
	for i := range x {
		d, err := Mux(ek, sel, x[i], y[i])
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
