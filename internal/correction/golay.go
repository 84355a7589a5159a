package correction

import (
	"fmt"
	"math/bits"
)

// Golay (23,12,7) generator polynomial: x^11 + x^10 + x^6 + x^5 + x^4 + x^2 + 1
const GOLAY_23_12_GENERATOR = 0xC75

// golaySyndromes maps every 11-bit syndrome to its error pattern. The code is
// perfect, so each syndrome has exactly one pattern of weight three or less.
var golaySyndromes [1 << 11]uint32

func init() {
	// Weight 1..3 patterns over 23 bits fill all 2047 non-zero syndromes
	for i := 0; i < 23; i++ {
		e1 := uint32(1) << uint(i)
		golaySyndromes[golaySyndrome(e1)] = e1
		for j := i + 1; j < 23; j++ {
			e2 := e1 | uint32(1)<<uint(j)
			golaySyndromes[golaySyndrome(e2)] = e2
			for k := j + 1; k < 23; k++ {
				e3 := e2 | uint32(1)<<uint(k)
				golaySyndromes[golaySyndrome(e3)] = e3
			}
		}
	}
}

func golaySyndrome(codeword uint32) uint32 {
	return uint32(polyMod(uint64(codeword&0x7FFFFF), GOLAY_23_12_GENERATOR, 11))
}

// Golay23Encode encodes 12 data bits into a 23-bit codeword.
// Layout: data bits [22:11], parity bits [10:0].
func Golay23Encode(data uint16) uint32 {
	shifted := uint32(data&0xFFF) << 11
	return shifted | golaySyndrome(shifted)
}

// Golay23Decode corrects up to three bit errors in a 23-bit codeword and
// returns the data bits with the number of errors corrected.
func Golay23Decode(codeword uint32) (uint16, int, error) {
	if codeword > 0x7FFFFF {
		return 0, 0, fmt.Errorf("%w: Golay (23,12) codeword 0x%X exceeds 23 bits", ErrInvalidInput, codeword)
	}

	syndrome := golaySyndrome(codeword)
	if syndrome == 0 {
		return uint16(codeword >> 11), 0, nil
	}

	// Apply correction
	errorPattern := golaySyndromes[syndrome]
	corrected := codeword ^ errorPattern
	return uint16(corrected >> 11), bits.OnesCount64(uint64(errorPattern)), nil
}

// Golay24Encode encodes 12 data bits into the extended 24-bit codeword:
// the 23-bit codeword followed by an even parity bit.
func Golay24Encode(data uint16) uint32 {
	cw := Golay23Encode(data)
	return cw<<1 | uint32(bits.OnesCount64(uint64(cw))&1)
}

// Golay24Decode corrects up to three errors and detects four.
func Golay24Decode(codeword uint32) (uint16, int, error) {
	if codeword > 0xFFFFFF {
		return 0, 0, fmt.Errorf("%w: Golay (24,12) codeword 0x%X exceeds 24 bits", ErrInvalidInput, codeword)
	}

	inner := codeword >> 1
	errorPattern := golaySyndromes[golaySyndrome(inner)]
	corrected := inner ^ errorPattern
	errors := bits.OnesCount64(uint64(errorPattern))

	// Overall parity must be even after correction
	if (bits.OnesCount64(uint64(corrected))+int(codeword&1))&1 != 0 {
		if errors == 3 {
			return 0, 0, fmt.Errorf("%w: Golay (24,12) parity mismatch after 3 corrections", ErrUncorrectable)
		}
		errors++ // the parity bit itself was hit
	}

	return uint16(corrected >> 11), errors, nil
}

// Golay18Encode encodes 6 data bits with the (18,6,8) code, a Golay (24,12)
// code shortened by six leading zero data bits.
func Golay18Encode(data uint8) uint32 {
	return Golay24Encode(uint16(data&0x3F)) & 0x3FFFF
}

// Golay18Decode decodes an 18-bit shortened Golay codeword. A correction
// that lands on one of the six implied zero bits is reported as
// uncorrectable.
func Golay18Decode(codeword uint32) (uint8, int, error) {
	if codeword > 0x3FFFF {
		return 0, 0, fmt.Errorf("%w: Golay (18,6) codeword 0x%X exceeds 18 bits", ErrInvalidInput, codeword)
	}

	data, errors, err := Golay24Decode(codeword)
	if err != nil {
		return 0, 0, err
	}
	if data > 0x3F {
		return 0, 0, fmt.Errorf("%w: Golay (18,6) correction outside shortened word", ErrUncorrectable)
	}
	return uint8(data), errors, nil
}
