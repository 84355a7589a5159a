package correction

import "fmt"

// BCH (63,16,23) generator polynomial, degree 47 (octal 6331141367235453).
// Its roots are alpha^1 .. alpha^22 in GF(64).
const BCH_63_16_GENERATOR uint64 = 0o6331141367235453

const (
	bchParityBits = 47
	bchRadius     = 11
)

// bch64Matrix is the NID encoding matrix: row i is the 64-bit codeword of
// data bit 15-i. The top 63 bits of every row are the BCH (63,16) codeword;
// the last bit is the row's trailing parity bit.
var bch64Matrix = [16]uint64{
	0x8000cd930bdd3b2a,
	0x4000ab5a8e33a6be,
	0x2000983e4cc4e874,
	0x10004c1f2662743a,
	0x0800eb9c98ec0136,
	0x0400b85d47ab3bb0,
	0x02005c2ea3d59dd8,
	0x01002e1751eaceec,
	0x0080170ba8f56776,
	0x0040c616dfa78890,
	0x0020630b6fd3c448,
	0x00103185b7e9e224,
	0x000818c2dbf4f112,
	0x0004c1f2662743a2,
	0x0002ad6a38ce9afb,
	0x00019b2617ba7657,
}

// BCH63Encode returns the systematic 63-bit codeword of 16 data bits.
// Layout: data bits [62:47], parity bits [46:0].
func BCH63Encode(data uint16) uint64 {
	shifted := uint64(data) << bchParityBits
	return shifted | polyMod(shifted, BCH_63_16_GENERATOR, bchParityBits)
}

// BCH63Decode corrects up to 11 bit errors. It computes the syndromes
// S1..S22, builds the error locator with Berlekamp-Massey and finds its
// roots by Chien search. When the number of roots differs from the locator
// degree the codeword is uncorrectable.
func BCH63Decode(codeword uint64) (uint16, int, error) {
	if codeword>>63 != 0 {
		return 0, 0, fmt.Errorf("%w: BCH (63,16) codeword exceeds 63 bits", ErrInvalidInput)
	}

	syndromes := make([]uint8, 2*bchRadius)
	nonZero := false
	for i := range syndromes {
		var s uint8
		for p := 0; p < 63; p++ {
			if codeword&(uint64(1)<<uint(p)) != 0 {
				s ^= gfPow((i + 1) * p)
			}
		}
		syndromes[i] = s
		if s != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return uint16(codeword >> bchParityBits), 0, nil
	}

	locator, degree := berlekampMassey(syndromes)
	if degree > bchRadius {
		return 0, 0, fmt.Errorf("%w: BCH (63,16) locator degree %d", ErrUncorrectable, degree)
	}

	roots := chienSearch(locator, degree, 63)
	if len(roots) != degree {
		return 0, 0, fmt.Errorf("%w: BCH (63,16) found %d roots for degree %d", ErrUncorrectable, len(roots), degree)
	}

	// Apply correction
	for _, p := range roots {
		codeword ^= uint64(1) << uint(p)
	}
	if polyMod(codeword, BCH_63_16_GENERATOR, bchParityBits) != 0 {
		return 0, 0, fmt.Errorf("%w: BCH (63,16) residual syndrome", ErrUncorrectable)
	}

	return uint16(codeword >> bchParityBits), degree, nil
}

// BCH64Encode returns the 64-bit NID codeword of 16 data bits.
func BCH64Encode(data uint16) uint64 {
	var cw uint64
	for i := 0; i < 16; i++ {
		if data&(0x8000>>uint(i)) != 0 {
			cw ^= bch64Matrix[i]
		}
	}
	return cw
}

// BCH64Decode decodes a 64-bit NID codeword. Correction is done on the
// top 63 bits; the trailing bit carries no protection of its own and is
// not used to reject the word.
func BCH64Decode(codeword uint64) (uint16, int, error) {
	return BCH63Decode(codeword >> 1)
}
