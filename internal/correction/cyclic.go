package correction

import (
	"fmt"
	"math/bits"
)

// Cyclic (16,8,5) generator polynomial: x^8 + x^5 + x^4 + x^3 + 1.
// It is the (17,9,5) quadratic residue code shortened by one bit.
const CYCLIC_16_8_GENERATOR = 0x139

type cyclicEntry struct {
	pattern uint16
	valid   bool
}

// cyclicSyndromes holds the error patterns of weight two or less.
var cyclicSyndromes [256]cyclicEntry

func init() {
	cyclicSyndromes[0] = cyclicEntry{valid: true}
	for i := 0; i < 16; i++ {
		e1 := uint16(1) << uint(i)
		cyclicSyndromes[cyclicSyndrome(e1)] = cyclicEntry{pattern: e1, valid: true}
		for j := i + 1; j < 16; j++ {
			e2 := e1 | uint16(1)<<uint(j)
			cyclicSyndromes[cyclicSyndrome(e2)] = cyclicEntry{pattern: e2, valid: true}
		}
	}
}

func cyclicSyndrome(codeword uint16) uint8 {
	return uint8(polyMod(uint64(codeword), CYCLIC_16_8_GENERATOR, 8))
}

// Cyclic16Encode encodes one low speed data octet.
// Layout: data bits [15:8], parity bits [7:0].
func Cyclic16Encode(data uint8) uint16 {
	shifted := uint16(data) << 8
	return shifted | uint16(cyclicSyndrome(shifted))
}

// Cyclic16Decode corrects up to two bit errors; heavier patterns whose
// syndrome matches no correctable pattern are reported as uncorrectable.
func Cyclic16Decode(codeword uint16) (uint8, int, error) {
	entry := cyclicSyndromes[cyclicSyndrome(codeword)]
	if !entry.valid {
		return 0, 0, fmt.Errorf("%w: cyclic (16,8) codeword 0x%04X", ErrUncorrectable, codeword)
	}

	corrected := codeword ^ entry.pattern
	return uint8(corrected >> 8), bits.OnesCount64(uint64(entry.pattern)), nil
}
