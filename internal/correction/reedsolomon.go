package correction

import "fmt"

// ReedSolomon is a systematic Reed-Solomon code over GF(64) operating on
// hexbits. The codes used by P25 are shortened from the (63,63-2t) code
// whose generator has roots alpha^1 .. alpha^2t.
//
// Codewords are ordered highest power first: the first k symbols are the
// data hexbits and the last n-k are parity.
type ReedSolomon struct {
	n, k      int
	generator []uint8 // highest degree first, monic
}

var (
	// RS24_12 protects link control words (corrects 6 hexbits).
	RS24_12 = NewReedSolomon(24, 12)
	// RS24_16 protects the encryption sync word (corrects 4 hexbits).
	RS24_16 = NewReedSolomon(24, 16)
	// RS36_20 protects the header data unit (corrects 8 hexbits).
	RS36_20 = NewReedSolomon(36, 20)
)

// NewReedSolomon builds an (n,k) code. It panics on parameters outside
// GF(64); the codes are fixed by the air interface.
func NewReedSolomon(n, k int) *ReedSolomon {
	if n > gf64Order || k <= 0 || k >= n {
		panic(fmt.Sprintf("correction: invalid Reed-Solomon (%d,%d)", n, k))
	}

	g := []uint8{1}
	for i := 1; i <= n-k; i++ {
		// multiply by (x - alpha^i)
		next := make([]uint8, len(g)+1)
		for j, c := range g {
			next[j] ^= c
			next[j+1] ^= gfMul(c, gfPow(i))
		}
		g = next
	}

	return &ReedSolomon{n: n, k: k, generator: g}
}

// N returns the codeword length in hexbits.
func (rs *ReedSolomon) N() int { return rs.n }

// K returns the data length in hexbits.
func (rs *ReedSolomon) K() int { return rs.k }

// Radius returns the number of hexbit errors the code corrects.
func (rs *ReedSolomon) Radius() int { return (rs.n - rs.k) / 2 }

func checkHexbits(symbols []uint8) error {
	for i, s := range symbols {
		if s > 0x3F {
			return fmt.Errorf("%w: hexbit %d has value 0x%X", ErrInvalidInput, i, s)
		}
	}
	return nil
}

// Encode appends n-k parity hexbits to k data hexbits.
func (rs *ReedSolomon) Encode(data []uint8) ([]uint8, error) {
	if len(data) != rs.k {
		return nil, fmt.Errorf("%w: RS (%d,%d) needs %d data hexbits, got %d", ErrInvalidInput, rs.n, rs.k, rs.k, len(data))
	}
	if err := checkHexbits(data); err != nil {
		return nil, err
	}

	nsym := rs.n - rs.k
	remainder := make([]uint8, nsym)
	for _, d := range data {
		feedback := d ^ remainder[0]
		copy(remainder, remainder[1:])
		remainder[nsym-1] = 0
		if feedback != 0 {
			for j := 0; j < nsym; j++ {
				remainder[j] ^= gfMul(rs.generator[j+1], feedback)
			}
		}
	}

	codeword := make([]uint8, 0, rs.n)
	codeword = append(codeword, data...)
	return append(codeword, remainder...), nil
}

func (rs *ReedSolomon) syndromes(codeword []uint8) ([]uint8, bool) {
	nsym := rs.n - rs.k
	s := make([]uint8, nsym)
	clean := true
	for i := 1; i <= nsym; i++ {
		var v uint8
		for _, c := range codeword {
			v = gfMul(v, gfPow(i)) ^ c
		}
		s[i-1] = v
		if v != 0 {
			clean = false
		}
	}
	return s, clean
}

// Decode corrects up to Radius hexbit errors and returns the data hexbits
// with the number of symbols corrected. Error values come from Forney's
// algorithm; the corrected word is verified against a fresh syndrome.
func (rs *ReedSolomon) Decode(received []uint8) ([]uint8, int, error) {
	if len(received) != rs.n {
		return nil, 0, fmt.Errorf("%w: RS (%d,%d) needs %d hexbits, got %d", ErrInvalidInput, rs.n, rs.k, rs.n, len(received))
	}
	if err := checkHexbits(received); err != nil {
		return nil, 0, err
	}

	codeword := make([]uint8, rs.n)
	copy(codeword, received)

	syn, clean := rs.syndromes(codeword)
	if clean {
		return codeword[:rs.k], 0, nil
	}

	nsym := rs.n - rs.k
	locator, degree := berlekampMassey(syn)
	if 2*degree > nsym {
		return nil, 0, fmt.Errorf("%w: RS (%d,%d) locator degree %d", ErrUncorrectable, rs.n, rs.k, degree)
	}

	// Roots beyond the shortened length mean the error pattern is not
	// correctable within this code.
	roots := chienSearch(locator, degree, rs.n)
	if len(roots) != degree {
		return nil, 0, fmt.Errorf("%w: RS (%d,%d) found %d roots for degree %d", ErrUncorrectable, rs.n, rs.k, len(roots), degree)
	}

	// Error evaluator: Omega(x) = S(x) * Lambda(x) mod x^nsym
	omega := make([]uint8, nsym)
	for i := 0; i < nsym; i++ {
		for j := 0; j <= i && j <= degree; j++ {
			omega[i] ^= gfMul(locator[j], syn[i-j])
		}
	}

	for _, p := range roots {
		xinv := gfPow(-p)

		var num uint8
		for i := nsym - 1; i >= 0; i-- {
			num = gfMul(num, xinv) ^ omega[i]
		}

		// formal derivative of Lambda at X^-1 keeps the odd terms
		var den uint8
		for i := 1; i <= degree; i += 2 {
			den ^= gfMul(locator[i], gfPow(-p*(i-1)))
		}
		if den == 0 {
			return nil, 0, fmt.Errorf("%w: RS (%d,%d) zero derivative", ErrUncorrectable, rs.n, rs.k)
		}

		codeword[rs.n-1-p] ^= gfDiv(num, den)
	}

	if _, clean := rs.syndromes(codeword); !clean {
		return nil, 0, fmt.Errorf("%w: RS (%d,%d) residual syndrome", ErrUncorrectable, rs.n, rs.k)
	}

	return codeword[:rs.k], degree, nil
}
