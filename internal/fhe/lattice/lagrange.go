// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lattice

// lagrange2D computes the coefficients of the unique bivariate
// polynomial of degree < len(table) in s and < len(table[0]) in v that
// agrees with table at every integer grid point (a,b), reduced modulo
// the prime p. coeffs[i][j] is the public coefficient of s^i * v^j; Key
// Lookup evaluates it homomorphically by substituting encrypted powers
// of s and v for the monomials.
func lagrange2D(table [][]int, p int) [][]uint64 {
	n := len(table)
	m := len(table[0])

	rowBasis := lagrangeBasis(n, p)
	colBasis := lagrangeBasis(m, p)

	mp := int64(p)
	coeffs := make([][]uint64, n)
	for i := range coeffs {
		coeffs[i] = make([]uint64, m)
	}

	for a := 0; a < n; a++ {
		for b := 0; b < m; b++ {
			val := int64(((table[a][b] % p) + p) % p)
			if val == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				li := int64(rowBasis[a][i])
				if li == 0 {
					continue
				}
				for j := 0; j < m; j++ {
					lj := int64(colBasis[b][j])
					if lj == 0 {
						continue
					}
					term := (val * li % mp) * lj % mp
					coeffs[i][j] = uint64((int64(coeffs[i][j]) + term) % mp)
				}
			}
		}
	}
	return coeffs
}

// lagrangeBasis returns, for the nodes 0..n-1 mod p, the coefficient
// list of each node's Lagrange basis polynomial: basis[a][i] is the
// coefficient of s^i in L_a(s), the degree n-1 polynomial that
// evaluates to 1 at s=a and 0 at every other node in 0..n-1.
func lagrangeBasis(n, p int) [][]uint64 {
	mp := int64(p)
	basis := make([][]uint64, n)
	for a := 0; a < n; a++ {
		poly := []int64{1}
		denom := int64(1)
		for k := 0; k < n; k++ {
			if k == a {
				continue
			}
			poly = polyMulLinear(poly, -int64(k), mp)
			denom = (denom * (int64(a) - int64(k))) % mp
		}
		inv := modInverse(denom, mp)

		out := make([]uint64, n)
		for i, c := range poly {
			c = ((c % mp) + mp) % mp
			out[i] = uint64((c * inv) % mp)
		}
		basis[a] = out
	}
	return basis
}

// polyMulLinear multiplies poly (coefficients ordered low-degree first)
// by the monomial (s + c) mod p.
func polyMulLinear(poly []int64, c, p int64) []int64 {
	out := make([]int64, len(poly)+1)
	for i, coeff := range poly {
		out[i] = (out[i] + coeff*c) % p
		out[i+1] = (out[i+1] + coeff) % p
	}
	return out
}

// modInverse returns a's multiplicative inverse mod the prime p via
// Fermat's little theorem.
func modInverse(a, p int64) int64 {
	return modPow(((a%p)+p)%p, p-2, p)
}

// modPow computes base^exp mod mod by repeated squaring.
func modPow(base, exp, mod int64) int64 {
	result := int64(1)
	base = ((base % mod) + mod) % mod
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) % mod
		}
		exp >>= 1
		base = (base * base) % mod
	}
	return result
}
