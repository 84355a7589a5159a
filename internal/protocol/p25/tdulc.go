package p25

import (
	"github.com/dbehnke/p25cai/internal/correction"
)

// TDULC layout: twelve extended Golay words, each carrying two hexbits of
// the RS (24,12) protected link control word.
const (
	tdulcGolayOffset = 112
	tdulcGolayWords  = 12
	tdulcGolayBits   = 24
)

func decodeTDULC(info FrameInfo) *TDULC {
	t := &TDULC{FrameInfo: info}
	body := t.Body

	hexbits := make([]uint8, 0, 2*tdulcGolayWords)
	status := FieldStatus{OK: true}
	for i := 0; i < tdulcGolayWords; i++ {
		begin := tdulcGolayOffset + i*tdulcGolayBits
		cw := uint32(body.MustExtract(begin, begin+tdulcGolayBits))
		data, errors, err := correction.Golay24Decode(cw)
		if err != nil {
			data = uint16(cw >> 12)
		} else {
			status.Errors += errors
		}
		hexbits = append(hexbits, uint8(data>>6), uint8(data&0x3F))
	}

	data, symbolErrors, err := correction.RS24_12.Decode(hexbits)
	if err != nil {
		status.OK = false
		data = hexbits[:correction.RS24_12.K()]
	} else {
		status.Errors += symbolErrors
		cw, _ := correction.RS24_12.Encode(data)
		for i := 0; i < tdulcGolayWords; i++ {
			begin := tdulcGolayOffset + i*tdulcGolayBits
			word := uint16(cw[2*i])<<6 | uint16(cw[2*i+1])
			body.MustInsert(begin, begin+tdulcGolayBits, uint64(correction.Golay24Encode(word)))
		}
	}

	t.LC = parseLinkControl(hexbitsToBits(data))
	t.LCStatus = status
	return t
}
