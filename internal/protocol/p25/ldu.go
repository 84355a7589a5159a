package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/correction"
)

// LDU layout in payload bits. The link control (LDU1) or encryption sync
// (LDU2) word is spread over six 40-bit chunks between voice codewords,
// each chunk holding four Hamming (10,6) protected hexbits.
var lduChunkOffsets = [6]int{400, 584, 768, 952, 1136, 1320}

const (
	lduChunkBits   = 40
	lduHammingBits = 10
	lduLSDOffset   = 1504
)

// lduHexbitOffset returns the payload offset of each of the 24
// Hamming words.
func lduHexbitOffset(i int) int {
	return lduChunkOffsets[i/4] + (i%4)*lduHammingBits
}

// decodeLDUWord runs Hamming (10,6) over the 24 words, then the given
// Reed-Solomon code, and returns the recovered data bits. Corrections are
// written back into body.
func decodeLDUWord(body bits.Bits, rs *correction.ReedSolomon) (bits.Bits, FieldStatus) {
	hexbits := make([]uint8, rs.N())
	status := FieldStatus{OK: true}
	for i := range hexbits {
		begin := lduHexbitOffset(i)
		cw := uint16(body.MustExtract(begin, begin+lduHammingBits))
		data, errors, err := correction.Hamming10Decode(cw)
		if err != nil {
			hexbits[i] = uint8(cw >> 4)
			continue
		}
		hexbits[i] = data
		status.Errors += errors
	}

	data, symbolErrors, err := rs.Decode(hexbits)
	if err != nil {
		status.OK = false
		return hexbitsToBits(hexbits[:rs.K()]), status
	}
	status.Errors += symbolErrors

	cw, _ := rs.Encode(data)
	for i, hb := range cw {
		begin := lduHexbitOffset(i)
		body.MustInsert(begin, begin+lduHammingBits, uint64(correction.Hamming10Encode(hb)))
	}
	return hexbitsToBits(data), status
}

// decodeLSD corrects the two cyclic (16,8) words of low speed data.
func decodeLSD(body bits.Bits) LowSpeedData {
	lsd := LowSpeedData{OK: true}
	for i := range lsd.Data {
		begin := lduLSDOffset + i*16
		cw := uint16(body.MustExtract(begin, begin+16))
		data, errors, err := correction.Cyclic16Decode(cw)
		if err != nil {
			lsd.OK = false
			lsd.Data[i] = uint8(cw >> 8)
			continue
		}
		lsd.Data[i] = data
		lsd.Errors += errors
		if errors > 0 {
			body.MustInsert(begin, begin+16, uint64(correction.Cyclic16Encode(data)))
		}
	}
	return lsd
}

func decodeLDU1(info FrameInfo) *LDU1 {
	l := &LDU1{FrameInfo: info}
	for i := range l.Voice {
		l.Voice[i] = extractVoice(l.Body, i)
	}
	word, status := decodeLDUWord(l.Body, correction.RS24_12)
	l.LC = parseLinkControl(word)
	l.LCStatus = status
	l.LSD = decodeLSD(l.Body)
	return l
}

func decodeLDU2(info FrameInfo) *LDU2 {
	l := &LDU2{FrameInfo: info}
	for i := range l.Voice {
		l.Voice[i] = extractVoice(l.Body, i)
	}
	word, status := decodeLDUWord(l.Body, correction.RS24_16)
	l.ES = parseEncryptionSync(word)
	l.ESStatus = status
	l.LSD = decodeLSD(l.Body)
	return l
}
