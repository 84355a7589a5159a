package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/correction"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// TSBK is one trunking signaling block: 12 octets behind a rate 1/2
// trellis code, the last two holding a CRC-CCITT.
type TSBK struct {
	LastBlock bool
	Protected bool
	Opcode    uint8
	MFID      uint8
	Data      [8]byte // opcode specific arguments
	CRC       uint16
	CRCOK     bool
	Errors    int  // trellis path metric
	OK        bool // trellis decoded and CRC matched
	Raw       [12]byte
}

// Standard reports whether the block uses the standard message set.
func (t *TSBK) Standard() bool { return protocol.IsStandardMFID(t.MFID) }

// Name returns the opcode name for standard blocks.
func (t *TSBK) Name() string {
	if !t.Standard() {
		return protocol.MFIDName(t.MFID) + " proprietary"
	}
	return protocol.OpcodeName(t.Opcode)
}

// decodeTSBK decodes one 98-dibit block.
func decodeTSBK(block []uint8) TSBK {
	var t TSBK
	octets, errors, err := correction.Trellis12.DecodeBytes(block)
	if err != nil {
		return t
	}
	t.Errors = errors
	copy(t.Raw[:], octets)
	parseTSBK(&t)
	return t
}

func parseTSBK(t *TSBK) {
	t.LastBlock = t.Raw[0]&0x80 != 0
	t.Protected = t.Raw[0]&0x40 != 0
	t.Opcode = t.Raw[0] & 0x3F
	t.MFID = t.Raw[1]
	copy(t.Data[:], t.Raw[2:10])
	t.CRC = uint16(t.Raw[10])<<8 | uint16(t.Raw[11])
	t.CRCOK = correction.CheckCRC16CCITT(t.Raw[:])
	t.OK = t.CRCOK
}

// NewTSBK builds a block with a valid CRC.
func NewTSBK(last bool, opcode, mfid uint8, data [8]byte) TSBK {
	t := TSBK{}
	t.Raw[0] = opcode & 0x3F
	if last {
		t.Raw[0] |= 0x80
	}
	t.Raw[1] = mfid
	copy(t.Raw[2:10], data[:])
	crc := correction.CRC16CCITT(t.Raw[:10])
	t.Raw[10], t.Raw[11] = byte(crc>>8), byte(crc)
	parseTSBK(&t)
	return t
}

// decodeTSDU decodes the blocks that follow the header. Blocks are read
// until one carries the last block flag or fails to decode.
func decodeTSDU(info FrameInfo, payload []uint8) *TSDU {
	t := &TSDU{FrameInfo: info}
	for i := 0; i < protocol.P25_MAX_TSBK_BLOCKS; i++ {
		begin := headerPayloadDibits + i*blockDibits
		if begin+blockDibits > len(payload) {
			break
		}
		tsbk := decodeTSBK(payload[begin : begin+blockDibits])
		t.Blocks = append(t.Blocks, tsbk)
		if tsbk.OK {
			writeBlock(t.Body, i, correction.Trellis12, tsbk.Raw[:])
		}
		if !tsbk.OK || tsbk.LastBlock {
			break
		}
	}
	return t
}

// writeBlock replaces block i of a packet body with a freshly encoded copy.
func writeBlock(body bits.Bits, i int, t *correction.Trellis, octets []byte) {
	dibits, err := t.EncodeBytes(octets)
	if err != nil {
		return
	}
	encoded, _ := bits.FromDibits(dibits)
	begin := 2 * (headerPayloadDibits + i*blockDibits)
	copy(body[begin:begin+len(encoded)], encoded)
}
