package correction

import "fmt"

// Hamming (15,11,3) generator polynomial: x^4 + x + 1. The (10,6,3) code is
// the same cyclic code shortened by five leading data bits.
const HAMMING_15_11_GENERATOR = 0x13

// hammingPositions maps a 4-bit syndrome to the bit position in error
// (bit 0 is the last parity bit). Entry 0 is unused.
var hammingPositions [16]int

func init() {
	for p := 0; p < 15; p++ {
		hammingPositions[hammingSyndrome(uint16(1)<<uint(p))] = p
	}
}

func hammingSyndrome(codeword uint16) uint16 {
	return uint16(polyMod(uint64(codeword), HAMMING_15_11_GENERATOR, 4))
}

// Hamming15Encode encodes 11 data bits into a 15-bit codeword.
// Layout: data bits [14:4], parity bits [3:0].
func Hamming15Encode(data uint16) uint16 {
	shifted := (data & 0x7FF) << 4
	return shifted | hammingSyndrome(shifted)
}

// Hamming15Decode corrects a single bit error.
func Hamming15Decode(codeword uint16) (uint16, int, error) {
	if codeword > 0x7FFF {
		return 0, 0, fmt.Errorf("%w: Hamming (15,11) codeword 0x%X exceeds 15 bits", ErrInvalidInput, codeword)
	}

	syndrome := hammingSyndrome(codeword)
	if syndrome == 0 {
		return codeword >> 4, 0, nil
	}

	codeword ^= 1 << uint(hammingPositions[syndrome])
	return codeword >> 4, 1, nil
}

// Hamming10Encode encodes 6 data bits into a 10-bit codeword.
func Hamming10Encode(data uint8) uint16 {
	return Hamming15Encode(uint16(data & 0x3F))
}

// Hamming10Decode corrects a single bit error. Syndromes that point into
// the shortened part of the code are reported as uncorrectable.
func Hamming10Decode(codeword uint16) (uint8, int, error) {
	if codeword > 0x3FF {
		return 0, 0, fmt.Errorf("%w: Hamming (10,6) codeword 0x%X exceeds 10 bits", ErrInvalidInput, codeword)
	}

	syndrome := hammingSyndrome(codeword)
	if syndrome == 0 {
		return uint8(codeword >> 4), 0, nil
	}

	position := hammingPositions[syndrome]
	if position >= 10 {
		return 0, 0, fmt.Errorf("%w: Hamming (10,6) syndrome 0x%X", ErrUncorrectable, syndrome)
	}

	codeword ^= 1 << uint(position)
	return uint8(codeword >> 4), 1, nil
}
