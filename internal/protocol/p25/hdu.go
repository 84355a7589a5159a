package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/correction"
)

// Header data unit layout in payload bits (status symbols removed).
const (
	hduGolayOffset = 112
	hduGolayWords  = 36
	hduGolayBits   = 18
)

// decodeHDU corrects the 36 Golay (18,6) hexbits and then the RS (36,20)
// word that carries MI, MFID, ALGID, KID and TGID.
func decodeHDU(info FrameInfo) *HDU {
	h := &HDU{FrameInfo: info}
	body := h.Body

	hexbits := make([]uint8, hduGolayWords)
	status := FieldStatus{OK: true}
	for i := range hexbits {
		begin := hduGolayOffset + i*hduGolayBits
		cw := uint32(body.MustExtract(begin, begin+hduGolayBits))
		data, errors, err := correction.Golay18Decode(cw)
		if err != nil {
			// leave the received data bits for Reed-Solomon to repair
			hexbits[i] = uint8(cw >> 12)
			continue
		}
		hexbits[i] = data
		status.Errors += errors
		body.MustInsert(begin, begin+hduGolayBits, uint64(correction.Golay18Encode(data)))
	}

	data, symbolErrors, err := correction.RS36_20.Decode(hexbits)
	if err != nil {
		status.OK = false
		data = hexbits[:correction.RS36_20.K()]
	} else {
		status.Errors += symbolErrors
		// write repaired hexbits back as fresh Golay words
		cw, _ := correction.RS36_20.Encode(data)
		for i, hb := range cw {
			begin := hduGolayOffset + i*hduGolayBits
			body.MustInsert(begin, begin+hduGolayBits, uint64(correction.Golay18Encode(hb)))
		}
	}
	h.Header = status

	fields := hexbitsToBits(data)
	copy(h.MI[:], fields[0:72].Bytes())
	h.MFID = uint8(fields.MustExtract(72, 80))
	h.ALGID = uint8(fields.MustExtract(80, 88))
	h.KID = uint16(fields.MustExtract(88, 104))
	h.TGID = uint16(fields.MustExtract(104, 120))
	return h
}

// hexbitsToBits expands 6-bit symbols MSB first.
func hexbitsToBits(hexbits []uint8) bits.Bits {
	out := bits.New(len(hexbits) * 6)
	for i, h := range hexbits {
		out.MustInsert(i*6, i*6+6, uint64(h))
	}
	return out
}

// bitsToHexbits folds a bit container into 6-bit symbols.
func bitsToHexbits(b bits.Bits) []uint8 {
	out := make([]uint8, len(b)/6)
	for i := range out {
		out[i] = uint8(b.MustExtract(i*6, i*6+6))
	}
	return out
}
