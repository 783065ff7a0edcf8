// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lattice is the production fhe.EvalKey, built on the BGV scheme
// from github.com/tuneinsight/lattigo/v6. The server never holds a secret
// key: an installed Key bundles only the scheme parameters, a public key
// (for Trivial) and a relinearization key (for the multiplications Lookup
// needs) — exactly the "evaluation key" spec.md describes.
//
// Equal, Greater and Lookup are all realized as the same primitive:
// homomorphic evaluation of a public polynomial over the ciphertext's
// plaintext slot, built on each evaluation by Lagrange interpolation over
// the (small) digit alphabet. This is the standard
// technique for evaluating an arbitrary table lookup without a
// programmable-bootstrapping step, and is why the server never needs to
// branch on a ciphertext's value: the polynomial's coefficients are public,
// but its inputs and output stay encrypted throughout.
package lattice

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"

	"github.com/luxfi/fhedoc/internal/fhe"
)

// PlaintextModulus is a prime larger than the widest digit alphabet
// (ArityNibble = 16), so every table value and every Fermat-exponentiation
// intermediate stays inside a single residue class.
const PlaintextModulus = 17

// Params returns the BGV parameter set the coordinator uses. LogN=12 keeps
// key generation and per-update evaluation fast; the plaintext slots are
// not batched across documents, each ciphertext carries one digit.
func Params() (bgv.Parameters, error) {
	return bgv.NewParametersFromLiteral(bgv.ParametersLiteral{
		LogN:             12,
		LogQ:             []int{45, 45},
		LogP:             []int{45},
		PlaintextModulus: PlaintextModulus,
	})
}

// Handle wraps a single-slot BGV ciphertext.
type Handle struct {
	ct *rlwe.Ciphertext
}

// NewHandle constructs an empty Handle for the codec to decode into.
func NewHandle() fhe.Handle { return &Handle{ct: &rlwe.Ciphertext{}} }

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *Handle) MarshalBinary() ([]byte, error) {
	return h.ct.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *Handle) UnmarshalBinary(b []byte) error {
	if h.ct == nil {
		h.ct = &rlwe.Ciphertext{}
	}
	return h.ct.UnmarshalBinary(b)
}

// Key is the installed evaluation key: BGV parameters, a public key and a
// relinearization key. It holds no secret key material.
type Key struct {
	params    bgv.Parameters
	pk        *rlwe.PublicKey
	encoder   *bgv.Encoder
	encryptor *rlwe.Encryptor
	evaluator *bgv.Evaluator
}

var _ fhe.EvalKey = (*Key)(nil)

// New builds a Key from BGV parameters, an installed public key and
// relinearization key — the "blob" of §4.3 once decoded.
func New(params bgv.Parameters, pk *rlwe.PublicKey, rlk *rlwe.RelinearizationKey) (*Key, error) {
	evk := rlwe.NewMemEvaluationKeySet(rlk)
	return &Key{
		params:    params,
		pk:        pk,
		encoder:   bgv.NewEncoder(params),
		encryptor: rlwe.NewEncryptor(params, pk),
		evaluator: bgv.NewEvaluator(params, evk),
	}, nil
}

func (k *Key) encryptConst(arity fhe.Arity, v int) (*rlwe.Ciphertext, error) {
	pt := bgv.NewPlaintext(k.params, k.params.MaxLevel())
	slots := make([]uint64, k.params.MaxSlots())
	for i := range slots {
		slots[i] = uint64(v)
	}
	if err := k.encoder.Encode(slots, pt); err != nil {
		return nil, err
	}
	ct := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.encryptor.Encrypt(pt, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// Trivial implements fhe.EvalKey.
func (k *Key) Trivial(arity fhe.Arity, v int) (fhe.Digit, error) {
	ct, err := k.encryptConst(arity, v)
	if err != nil {
		return fhe.Digit{}, err
	}
	return fhe.Digit{Arity: arity, Handle: &Handle{ct: ct}}, nil
}

func ctOf(d fhe.Digit) *rlwe.Ciphertext { return d.Handle.(*Handle).ct }

// multiply returns a*b, relinearized back down to degree 1.
func (k *Key) multiply(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	out := bgv.NewCiphertext(k.params, 2, k.params.MaxLevel())
	if err := k.evaluator.Mul(a, b, out); err != nil {
		return nil, fmt.Errorf("lattice: mul: %w", err)
	}
	rel := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.evaluator.Relinearize(out, rel); err != nil {
		return nil, fmt.Errorf("lattice: relinearize: %w", err)
	}
	return rel, nil
}

// power returns a^n via n-1 successive multiplications by a, n >= 1.
func (k *Key) power(a *rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	result := a
	for i := 1; i < n; i++ {
		var err error
		result, err = k.multiply(result, a)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// fermatZeroTest returns 1-ct^(p-1): 1 where the encrypted value is 0 mod
// PlaintextModulus, 0 everywhere else (by Fermat's little theorem, since
// PlaintextModulus is prime).
func (k *Key) fermatZeroTest(diff *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	pw, err := k.power(diff, PlaintextModulus-1)
	if err != nil {
		return nil, err
	}
	one, err := k.encryptConst(fhe.ArityBit, 1)
	if err != nil {
		return nil, err
	}
	out := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.evaluator.Sub(one, pw, out); err != nil {
		return nil, fmt.Errorf("lattice: sub: %w", err)
	}
	return out, nil
}

func (k *Key) sub(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	out := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.evaluator.Sub(a, b, out); err != nil {
		return nil, fmt.Errorf("lattice: sub: %w", err)
	}
	return out, nil
}

// Equal implements fhe.EvalKey via the Fermat zero-test on a-b.
func (k *Key) Equal(a, b fhe.Digit) (fhe.Digit, error) {
	diff, err := k.sub(ctOf(a), ctOf(b))
	if err != nil {
		return fhe.Digit{}, err
	}
	res, err := k.fermatZeroTest(diff)
	if err != nil {
		return fhe.Digit{}, err
	}
	return fhe.Digit{Arity: fhe.ArityBit, Handle: &Handle{ct: res}}, nil
}

// Greater evaluates the precomputed digit-domain greater-than indicator as
// a bivariate polynomial over (a,b) via Lookup. The table's columns span
// a's own arity (table[s][v] is 1 iff s>v), so Lookup's result carries
// that arity; relabel it ArityBit per this method's own contract.
func (k *Key) Greater(a, b fhe.Digit) (fhe.Digit, error) {
	d, err := k.Lookup(a, b, k.greaterTableFor(a.Arity))
	if err != nil {
		return fhe.Digit{}, err
	}
	d.Arity = fhe.ArityBit
	return d, nil
}

func (k *Key) greaterTableFor(arity fhe.Arity) [][]int {
	t := make([][]int, arity)
	for i := range t {
		t[i] = make([]int, arity)
		for j := range t[i] {
			if int(i) > j {
				t[i][j] = 1
			}
		}
	}
	return t
}

// boolOp implements a degree-2 boolean formula homomorphically: AND=ab,
// OR=a+b-ab, XOR=a+b-2ab. These are exact over {0,1} without any
// Fermat/lookup machinery.
func (k *Key) boolOp(a, b fhe.Digit, f func(ab, apb *rlwe.Ciphertext) (*rlwe.Ciphertext, error)) (fhe.Digit, error) {
	ab, err := k.multiply(ctOf(a), ctOf(b))
	if err != nil {
		return fhe.Digit{}, err
	}
	apb := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.evaluator.Add(ctOf(a), ctOf(b), apb); err != nil {
		return fhe.Digit{}, fmt.Errorf("lattice: add: %w", err)
	}
	out, err := f(ab, apb)
	if err != nil {
		return fhe.Digit{}, err
	}
	return fhe.Digit{Arity: fhe.ArityBit, Handle: &Handle{ct: out}}, nil
}

// And implements fhe.EvalKey.
func (k *Key) And(a, b fhe.Digit) (fhe.Digit, error) {
	return k.boolOp(a, b, func(ab, _ *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
		return ab, nil
	})
}

// Or implements fhe.EvalKey.
func (k *Key) Or(a, b fhe.Digit) (fhe.Digit, error) {
	return k.boolOp(a, b, func(ab, apb *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
		return k.sub(apb, ab)
	})
}

// Xor implements fhe.EvalKey.
func (k *Key) Xor(a, b fhe.Digit) (fhe.Digit, error) {
	return k.boolOp(a, b, func(ab, apb *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
		doubled := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
		if err := k.evaluator.Add(ab, ab, doubled); err != nil {
			return nil, err
		}
		return k.sub(apb, doubled)
	})
}

// Lookup implements fhe.EvalKey: it evaluates the bivariate polynomial
// that agrees with table on the (s,v) domain, via 2D Lagrange
// interpolation computed once per call over the table's own small index
// space (public coefficients, encrypted inputs).
func (k *Key) Lookup(s, v fhe.Digit, table [][]int) (fhe.Digit, error) {
	coeffs := lagrange2D(table, PlaintextModulus)

	sPow, err := k.powers(ctOf(s), len(table))
	if err != nil {
		return fhe.Digit{}, err
	}
	vPow, err := k.powers(ctOf(v), len(table[0]))
	if err != nil {
		return fhe.Digit{}, err
	}

	var acc *rlwe.Ciphertext
	for i, row := range coeffs {
		for j, c := range row {
			if c == 0 {
				continue
			}
			term, err := k.multiply(sPow[i], vPow[j])
			if err != nil {
				return fhe.Digit{}, err
			}
			term, err = k.scale(term, c)
			if err != nil {
				return fhe.Digit{}, err
			}
			if acc == nil {
				acc = term
				continue
			}
			sum := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
			if err := k.evaluator.Add(acc, term, sum); err != nil {
				return fhe.Digit{}, fmt.Errorf("lattice: add: %w", err)
			}
			acc = sum
		}
	}
	if acc == nil {
		acc, err = k.encryptConst(fhe.Arity(len(table[0])), 0)
		if err != nil {
			return fhe.Digit{}, err
		}
	}
	return fhe.Digit{Arity: fhe.Arity(len(table[0])), Handle: &Handle{ct: acc}}, nil
}

// powers returns [ct^0 .. ct^(n-1)], ct^0 realized as a trivial encryption
// of 1.
func (k *Key) powers(ct *rlwe.Ciphertext, n int) ([]*rlwe.Ciphertext, error) {
	out := make([]*rlwe.Ciphertext, n)
	one, err := k.encryptConst(fhe.ArityBit, 1)
	if err != nil {
		return nil, err
	}
	out[0] = one
	for i := 1; i < n; i++ {
		p, err := k.multiply(out[i-1], ct)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// scale multiplies a ciphertext by a public constant.
func (k *Key) scale(ct *rlwe.Ciphertext, c uint64) (*rlwe.Ciphertext, error) {
	pt := bgv.NewPlaintext(k.params, k.params.MaxLevel())
	slots := make([]uint64, k.params.MaxSlots())
	for i := range slots {
		slots[i] = c
	}
	if err := k.encoder.Encode(slots, pt); err != nil {
		return nil, err
	}
	out := bgv.NewCiphertext(k.params, 1, k.params.MaxLevel())
	if err := k.evaluator.MulScaleInvariant(ct, pt, out); err != nil {
		return nil, fmt.Errorf("lattice: scale: %w", err)
	}
	return out, nil
}

// HandleFactory implements fhe.EvalKey.
func (k *Key) HandleFactory() fhe.HandleFactory { return NewHandle }
