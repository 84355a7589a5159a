package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/correction"
)

// IMBE codeword geometry: vectors c0..c3 are Golay (23,12), c4..c6 are
// Hamming (15,11) and c7 is sent unprotected.
var (
	imbeVectorBits  = [8]int{23, 23, 23, 23, 15, 15, 15, 7}
	imbeVectorStart = [8]int{0, 23, 46, 69, 92, 107, 122, 137}
)

const (
	imbeBits      = 144
	imbeScrambled = 114 // c1..c6 are scrambled
	imbeRepeatE0  = 2
	imbeRepeatET  = 10
)

// imbeInterleave maps transmitted bit j of a voice codeword to bit
// imbeInterleave[j] of the c0..c7 vector sequence. The most significant
// bits of every vector ride the high bit of a dibit.
var imbeInterleave = [imbeBits]int{
	0, 55, 23, 78, 46, 101, 69, 116, 92, 131, 107, 10, 122, 33, 137, 56,
	1, 79, 24, 102, 47, 117, 70, 132, 93, 11, 108, 34, 123, 57, 138, 80,
	2, 103, 25, 118, 48, 133, 71, 12, 94, 35, 109, 58, 124, 81, 139, 104,
	3, 119, 26, 134, 49, 13, 72, 36, 95, 59, 110, 82, 125, 105, 140, 120,
	4, 135, 27, 14, 50, 37, 73, 60, 96, 83, 111, 106, 126, 121, 141, 136,
	5, 15, 28, 38, 51, 61, 74, 84, 97, 16, 112, 39, 127, 62, 142, 85,
	6, 17, 29, 40, 52, 63, 75, 86, 98, 18, 113, 41, 128, 64, 143, 87,
	7, 19, 30, 42, 53, 65, 76, 88, 99, 20, 114, 43, 129, 66, 8, 89,
	31, 21, 54, 44, 77, 67, 100, 90, 115, 22, 130, 45, 9, 68, 32, 91,
}

// voiceOffsets are the payload bit offsets of the nine codewords in an LDU.
var voiceOffsets = [9]int{112, 256, 440, 624, 808, 992, 1176, 1360, 1536}

// VoiceCodeword is one 20 ms IMBE frame taken from an LDU.
type VoiceCodeword struct {
	Index    int      // 0..8 in transmission order
	Raw      [18]byte // the 144 transmitted bits, MSB first
	U        [8]uint16
	E0       int // errors corrected in c0
	ET       int // errors corrected in all vectors
	Degraded bool
}

// pnSequence returns the scrambling bits for c1..c6, seeded from u0.
func pnSequence(u0 uint16) [imbeScrambled]uint8 {
	var out [imbeScrambled]uint8
	p := uint32(u0) * 16
	for i := range out {
		p = (173*p + 13849) % 65536
		out[i] = uint8(p >> 15)
	}
	return out
}

// DecodeIMBE deinterleaves a transmitted codeword and recovers the eight
// parameter vectors u0..u7 (88 bits). c0 is decoded first because its
// value seeds the scrambler of c1..c6.
func DecodeIMBE(raw bits.Bits) (u [8]uint16, e0, et int) {
	vec := bits.New(imbeBits)
	if err := raw.Unswab(vec, imbeInterleave[:]); err != nil {
		panic(err)
	}

	u0, errors, _ := correction.Golay23Decode(uint32(vec.MustExtract(0, 23)))
	u[0], e0, et = u0, errors, errors

	pn := pnSequence(u0)
	for i := range pn {
		vec[23+i] ^= pn[i]
	}

	for v := 1; v < 4; v++ {
		begin := imbeVectorStart[v]
		d, errors, _ := correction.Golay23Decode(uint32(vec.MustExtract(begin, begin+23)))
		u[v] = d
		et += errors
	}
	for v := 4; v < 7; v++ {
		begin := imbeVectorStart[v]
		d, errors, _ := correction.Hamming15Decode(uint16(vec.MustExtract(begin, begin+15)))
		u[v] = d
		et += errors
	}
	u[7] = uint16(vec.MustExtract(137, 144))
	return u, e0, et
}

// EncodeIMBE builds the transmitted 144 bits of a codeword from its
// parameter vectors.
func EncodeIMBE(u [8]uint16) bits.Bits {
	vec := bits.New(imbeBits)
	for v := 0; v < 4; v++ {
		vec.MustInsert(imbeVectorStart[v], imbeVectorStart[v]+23, uint64(correction.Golay23Encode(u[v])))
	}
	for v := 4; v < 7; v++ {
		vec.MustInsert(imbeVectorStart[v], imbeVectorStart[v]+15, uint64(correction.Hamming15Encode(u[v])))
	}
	vec.MustInsert(137, 144, uint64(u[7]&0x7F))

	pn := pnSequence(u[0] & 0xFFF)
	for i := range pn {
		vec[23+i] ^= pn[i]
	}

	raw, err := vec.Swab(imbeInterleave[:])
	if err != nil {
		panic(err)
	}
	return raw
}

// extractVoice pulls codeword i out of an LDU payload. A codeword whose
// c0 needed two or more corrections while the whole frame needed ten or
// more is flagged degraded and its parameters zeroed; the vocoder renders
// silence for it. Clean codewords are written back re-encoded.
func extractVoice(body bits.Bits, i int) VoiceCodeword {
	begin := voiceOffsets[i]
	raw, err := body.Slice(begin, begin+imbeBits)
	if err != nil {
		panic(err)
	}

	vc := VoiceCodeword{Index: i}
	copy(vc.Raw[:], raw.Bytes())
	vc.U, vc.E0, vc.ET = DecodeIMBE(raw)

	if vc.E0 >= imbeRepeatE0 && vc.ET >= imbeRepeatET {
		vc.Degraded = true
		vc.U = [8]uint16{}
		return vc
	}

	if vc.ET > 0 {
		copy(body[begin:begin+imbeBits], EncodeIMBE(vc.U))
	}
	return vc
}
