package p25

import (
	"fmt"

	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/correction"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// Encoder builds on-air Data Units as raw dibits, frame sync and status
// symbols included. It is used by the test suites and by tools that
// generate reference captures.
type Encoder struct {
	NAC    uint16
	Status uint8 // value written to every status symbol slot
}

func (e Encoder) header(duid DUID, payloadBits int) bits.Bits {
	body := bits.New(payloadBits)
	body.MustInsert(0, protocol.P25_FRAME_SYNC_BITS, protocol.P25_FRAME_SYNC)
	body.MustInsert(protocol.P25_FRAME_SYNC_BITS, protocol.P25_FRAME_SYNC_BITS+protocol.P25_NID_BITS, EncodeNID(e.NAC, duid))
	return body
}

// finish folds the payload bits into dibits and interleaves status
// symbols until raw dibits are produced.
func (e Encoder) finish(body bits.Bits, raw int) []uint8 {
	payload, err := body.Dibits()
	if err != nil {
		panic(err)
	}
	status := make([]uint8, raw-len(payload))
	for i := range status {
		status[i] = e.Status & 3
	}
	out, err := bits.RestoreStatus(payload, status)
	if err != nil {
		panic(fmt.Sprintf("p25: encoder layout: %v", err))
	}
	return out
}

func payloadBits(rawBits int) int {
	raw := rawBits / 2
	return 2 * (raw - raw/bits.StatusPeriod)
}

// HDU builds a header data unit.
func (e Encoder) HDU(mi [9]byte, mfid, algid uint8, kid, tgid uint16) []uint8 {
	body := e.header(DUIDHDU, payloadBits(protocol.P25_HDU_BITS))

	fields := bits.New(120)
	copy(fields, bits.FromBytes(mi[:]))
	fields.MustInsert(72, 80, uint64(mfid))
	fields.MustInsert(80, 88, uint64(algid))
	fields.MustInsert(88, 104, uint64(kid))
	fields.MustInsert(104, 120, uint64(tgid))

	cw, err := correction.RS36_20.Encode(bitsToHexbits(fields))
	if err != nil {
		panic(err)
	}
	for i, hb := range cw {
		begin := hduGolayOffset + i*hduGolayBits
		body.MustInsert(begin, begin+hduGolayBits, uint64(correction.Golay18Encode(hb)))
	}
	return e.finish(body, protocol.P25_HDU_BITS/2)
}

func (e Encoder) ldu(duid DUID, voice [9][8]uint16, word bits.Bits, rs *correction.ReedSolomon, lsd [2]byte) []uint8 {
	body := e.header(duid, payloadBits(protocol.P25_LDU_BITS))
	for i, u := range voice {
		copy(body[voiceOffsets[i]:], EncodeIMBE(u))
	}

	cw, err := rs.Encode(bitsToHexbits(word))
	if err != nil {
		panic(err)
	}
	for i, hb := range cw {
		begin := lduHexbitOffset(i)
		body.MustInsert(begin, begin+lduHammingBits, uint64(correction.Hamming10Encode(hb)))
	}

	for i, d := range lsd {
		begin := lduLSDOffset + i*16
		body.MustInsert(begin, begin+16, uint64(correction.Cyclic16Encode(d)))
	}
	return e.finish(body, protocol.P25_LDU_BITS/2)
}

// LDU1 builds a voice unit carrying link control.
func (e Encoder) LDU1(voice [9][8]uint16, lc [9]byte, lsd [2]byte) []uint8 {
	return e.ldu(DUIDLDU1, voice, bits.FromBytes(lc[:]), correction.RS24_12, lsd)
}

// LDU2 builds a voice unit carrying encryption sync.
func (e Encoder) LDU2(voice [9][8]uint16, es EncryptionSync, lsd [2]byte) []uint8 {
	return e.ldu(DUIDLDU2, voice, es.toBits(), correction.RS24_16, lsd)
}

// TDU builds a terminator without link control.
func (e Encoder) TDU() []uint8 {
	return e.finish(e.header(DUIDTDU, payloadBits(protocol.P25_TDU_BITS)), protocol.P25_TDU_BITS/2)
}

// TDULC builds a terminator carrying link control.
func (e Encoder) TDULC(lc [9]byte) []uint8 {
	body := e.header(DUIDTDULC, payloadBits(protocol.P25_TDULC_BITS))
	cw, err := correction.RS24_12.Encode(bitsToHexbits(bits.FromBytes(lc[:])))
	if err != nil {
		panic(err)
	}
	for i := 0; i < tdulcGolayWords; i++ {
		begin := tdulcGolayOffset + i*tdulcGolayBits
		word := uint16(cw[2*i])<<6 | uint16(cw[2*i+1])
		body.MustInsert(begin, begin+tdulcGolayBits, uint64(correction.Golay24Encode(word)))
	}
	return e.finish(body, protocol.P25_TDULC_BITS/2)
}

func (e Encoder) blocks(duid DUID, blocks [][]uint8) []uint8 {
	payload := headerPayloadDibits + len(blocks)*blockDibits
	body := e.header(duid, 2*payload)
	for i, b := range blocks {
		encoded, err := bits.FromDibits(b)
		if err != nil {
			panic(err)
		}
		copy(body[2*(headerPayloadDibits+i*blockDibits):], encoded)
	}
	return e.finish(body, rawDibitsFor(payload))
}

// TSDU builds a trunking unit from one to three blocks. The caller sets
// the last block flag.
func (e Encoder) TSDU(tsbks ...TSBK) ([]uint8, error) {
	if len(tsbks) == 0 || len(tsbks) > protocol.P25_MAX_TSBK_BLOCKS {
		return nil, fmt.Errorf("p25: TSDU needs 1 to %d blocks, got %d", protocol.P25_MAX_TSBK_BLOCKS, len(tsbks))
	}
	blocks := make([][]uint8, len(tsbks))
	for i, t := range tsbks {
		b, err := correction.Trellis12.EncodeBytes(t.Raw[:])
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}
	return e.blocks(DUIDTSDU, blocks), nil
}

// PDU builds a packet data unit. The header's block count and pad octets
// are derived from data; confirmed blocks are numbered from zero.
func (e Encoder) PDU(h PDUHeader, data []byte) ([]uint8, error) {
	payloads, pad := BuildPacketData(h.Format, data)
	if len(payloads) > protocol.P25_MAX_PDU_BLOCKS {
		return nil, fmt.Errorf("p25: %d octets need %d blocks", len(data), len(payloads))
	}
	h.BlocksToFollow = uint8(len(payloads))
	if h.Format != protocol.PDU_FMT_RESPONSE && h.Format != protocol.PDU_FMT_AMBT {
		h.PadOctets = pad
	}

	raw := h.Bytes()
	header, err := correction.Trellis12.EncodeBytes(raw[:])
	if err != nil {
		return nil, err
	}
	blocks := [][]uint8{header}

	t := h.trellis()
	for i, p := range payloads {
		octets := p
		if h.Format == protocol.PDU_FMT_CONFIRMED {
			octets = ConfirmedBlock(uint8(i), [confirmedDataOctets]byte(p))
		}
		b, err := t.EncodeBytes(octets)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return e.blocks(DUIDPDU, blocks), nil
}
