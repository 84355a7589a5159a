// Package correction implements the forward error correction codes of the
// P25 common air interface. Every codec is a pure function pair: encoders
// take a value and return a codeword, decoders take a received codeword and
// return the corrected value with the number of bit (or symbol) errors fixed.
package correction

import "errors"

var (
	// ErrUncorrectable is returned when a received codeword has more errors
	// than the code can correct and the decoder detected it.
	ErrUncorrectable = errors.New("correction: uncorrectable codeword")

	// ErrAmbiguous is returned by the trellis decoder when the surviving path
	// is not unique.
	ErrAmbiguous = errors.New("correction: ambiguous trellis path")

	// ErrInvalidInput is returned for wrongly sized or out of range inputs.
	ErrInvalidInput = errors.New("correction: invalid input")
)

// GF(2^6) with primitive polynomial x^6 + x + 1, shared by the BCH and
// Reed-Solomon codes.
const (
	GF64_PRIMITIVE = 0x43
	gf64Order      = 63
)

// Built by a variable initializer so package-level codes see full tables.
var gf64Exp, gf64Log = buildGF64()

func buildGF64() (exp [2 * gf64Order]uint8, log [64]int) {
	x := 1
	for i := 0; i < gf64Order; i++ {
		exp[i] = uint8(x)
		log[x] = i
		x <<= 1
		if x&0x40 != 0 {
			x ^= GF64_PRIMITIVE
		}
	}
	for i := gf64Order; i < len(exp); i++ {
		exp[i] = exp[i-gf64Order]
	}
	return exp, log
}

// gfPow returns alpha^i for any integer i.
func gfPow(i int) uint8 {
	i %= gf64Order
	if i < 0 {
		i += gf64Order
	}
	return gf64Exp[i]
}

func gfMul(a, b uint8) uint8 {
	if a == 0 || b == 0 {
		return 0
	}
	return gf64Exp[gf64Log[a]+gf64Log[b]]
}

func gfDiv(a, b uint8) uint8 {
	if a == 0 {
		return 0
	}
	if b == 0 {
		panic("correction: division by zero in GF(64)")
	}
	return gfPow(gf64Log[a] - gf64Log[b])
}

// berlekampMassey builds the error locator polynomial (lowest degree
// first) from the syndromes S1..S2t and returns it with its degree.
func berlekampMassey(syndromes []uint8) ([]uint8, int) {
	n := len(syndromes)
	c := make([]uint8, n+1)
	b := make([]uint8, n+1)
	c[0], b[0] = 1, 1

	l, m := 0, 1
	var last uint8 = 1
	for r := 0; r < n; r++ {
		// discrepancy
		d := syndromes[r]
		for i := 1; i <= l; i++ {
			d ^= gfMul(c[i], syndromes[r-i])
		}
		if d == 0 {
			m++
			continue
		}

		t := make([]uint8, len(c))
		copy(t, c)
		coef := gfDiv(d, last)
		for i := m; i <= n; i++ {
			c[i] ^= gfMul(coef, b[i-m])
		}
		if 2*l <= r {
			l = r + 1 - l
			b = t
			last = d
			m = 1
		} else {
			m++
		}
	}
	return c, l
}

// chienSearch returns the powers p in [0,n) with locator(alpha^-p) == 0.
func chienSearch(locator []uint8, degree, n int) []int {
	var roots []int
	for p := 0; p < n; p++ {
		xinv := gfPow(-p)
		var v uint8
		for i := degree; i >= 0; i-- {
			v = gfMul(v, xinv) ^ locator[i]
		}
		if v == 0 {
			roots = append(roots, p)
		}
	}
	return roots
}

// polyMod returns the remainder of dividend by a binary generator polynomial
// of the given degree.
func polyMod(dividend uint64, generator uint64, degree int) uint64 {
	for i := 63; i >= degree; i-- {
		if dividend&(uint64(1)<<uint(i)) != 0 {
			dividend ^= generator << uint(i-degree)
		}
	}
	return dividend
}
