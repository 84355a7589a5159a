package p25

import (
	"github.com/dbehnke/p25cai/internal/correction"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// Octets per data block after trellis decoding.
const (
	unconfirmedBlockOctets = 12
	confirmedBlockOctets   = 18
	confirmedDataOctets    = 16
	packetCRCOctets        = 4
)

// PDUHeader is the header block of a packet data unit.
type PDUHeader struct {
	Confirmed      bool  // A/N: the sender wants a response
	Outbound       bool  // I/O
	Format         uint8 // one of the PDU_FMT_ values
	SAP            uint8 // service access point
	MFID           uint8
	LLID           uint32 // logical link id, 24 bits
	FMF            bool   // full message flag
	BlocksToFollow uint8
	PadOctets      uint8
	Syn            bool
	NS             uint8 // sequence number N(S)
	FSNF           uint8 // fragment sequence number field
	Offset         uint8 // data header offset

	// Response packets
	ResponseClass  uint8
	ResponseType   uint8
	ResponseStatus uint8
	SourceLLID     uint32

	// Alternate multiple block trunking
	Opcode uint8
	Args   [2]byte

	CRC uint16
	Raw [12]byte
}

// FormatName returns the sub-format name.
func (h *PDUHeader) FormatName() string { return protocol.PDUFormatName(h.Format) }

// trellis returns the code used by the data blocks that follow.
func (h *PDUHeader) trellis() *correction.Trellis {
	if h.Format == protocol.PDU_FMT_CONFIRMED {
		return correction.Trellis34
	}
	return correction.Trellis12
}

func parsePDUHeader(raw [12]byte) PDUHeader {
	h := PDUHeader{Raw: raw}
	h.Confirmed = raw[0]&0x40 != 0
	h.Outbound = raw[0]&0x20 != 0
	h.Format = raw[0] & 0x1F
	h.MFID = raw[2]
	h.LLID = uint32(raw[3])<<16 | uint32(raw[4])<<8 | uint32(raw[5])
	h.BlocksToFollow = raw[6] & 0x7F
	h.CRC = uint16(raw[10])<<8 | uint16(raw[11])

	switch h.Format {
	case protocol.PDU_FMT_RESPONSE:
		h.ResponseClass = raw[1] >> 6
		h.ResponseType = (raw[1] >> 3) & 0x7
		h.ResponseStatus = raw[1] & 0x7
		h.SourceLLID = uint32(raw[7])<<16 | uint32(raw[8])<<8 | uint32(raw[9])
	case protocol.PDU_FMT_AMBT:
		h.SAP = raw[1] & 0x3F
		h.Opcode = raw[7] & 0x3F
		h.Args = [2]byte{raw[8], raw[9]}
	default:
		h.SAP = raw[1] & 0x3F
		h.FMF = raw[6]&0x80 != 0
		h.PadOctets = raw[7] & 0x1F
		h.Syn = raw[8]&0x80 != 0
		h.NS = (raw[8] >> 4) & 0x7
		h.FSNF = raw[8] & 0xF
		h.Offset = raw[9] & 0x3F
	}
	return h
}

// Bytes packs the header and appends its CRC.
func (h *PDUHeader) Bytes() [12]byte {
	var raw [12]byte
	raw[0] = h.Format & 0x1F
	if h.Confirmed {
		raw[0] |= 0x40
	}
	if h.Outbound {
		raw[0] |= 0x20
	}
	raw[2] = h.MFID
	raw[3], raw[4], raw[5] = byte(h.LLID>>16), byte(h.LLID>>8), byte(h.LLID)
	raw[6] = h.BlocksToFollow & 0x7F

	switch h.Format {
	case protocol.PDU_FMT_RESPONSE:
		raw[1] = h.ResponseClass<<6 | (h.ResponseType&0x7)<<3 | h.ResponseStatus&0x7
		raw[7], raw[8], raw[9] = byte(h.SourceLLID>>16), byte(h.SourceLLID>>8), byte(h.SourceLLID)
	case protocol.PDU_FMT_AMBT:
		raw[1] = 0xC0 | h.SAP&0x3F
		raw[6] |= 0x80
		raw[7] = h.Opcode & 0x3F
		raw[8], raw[9] = h.Args[0], h.Args[1]
	default:
		raw[1] = 0xC0 | h.SAP&0x3F
		if h.FMF {
			raw[6] |= 0x80
		}
		raw[7] = h.PadOctets & 0x1F
		raw[8] = (h.NS&0x7)<<4 | h.FSNF&0xF
		if h.Syn {
			raw[8] |= 0x80
		}
		raw[9] = h.Offset & 0x3F
	}

	crc := correction.CRC16CCITT(raw[:10])
	raw[10], raw[11] = byte(crc>>8), byte(crc)
	return raw
}

// decodePDUHeader decodes the header block. The header is usable only when
// the trellis decode succeeded and the CRC matched.
func decodePDUHeader(block []uint8) (PDUHeader, FieldStatus) {
	octets, errors, err := correction.Trellis12.DecodeBytes(block)
	if err != nil {
		return PDUHeader{}, FieldStatus{}
	}
	var raw [12]byte
	copy(raw[:], octets)
	return parsePDUHeader(raw), FieldStatus{Errors: errors, OK: correction.CheckCRC16CCITT(raw[:])}
}

// DataBlock is one data block of a packet data unit.
type DataBlock struct {
	Serial uint8 // confirmed blocks only
	CRC9   uint16
	CRC9OK bool
	Data   []byte
	Errors int
	OK     bool

	raw []byte // decoded octets as carried on air
}

func decodeDataBlock(block []uint8, h *PDUHeader) DataBlock {
	t := h.trellis()
	octets, errors, err := t.DecodeBytes(block)
	if err != nil {
		return DataBlock{}
	}
	b := DataBlock{Errors: errors, OK: true, raw: octets}
	if h.Format != protocol.PDU_FMT_CONFIRMED {
		b.Data = octets
		return b
	}

	b.Serial = octets[0] >> 1
	b.CRC9 = uint16(octets[0]&1)<<8 | uint16(octets[1])
	b.Data = octets[2:]
	b.CRC9OK = correction.CRC9(b.Serial, b.Data) == b.CRC9
	b.OK = b.CRC9OK
	return b
}

// ConfirmedBlock packs a confirmed data block with its serial and CRC-9.
func ConfirmedBlock(serial uint8, data [confirmedDataOctets]byte) []byte {
	crc := correction.CRC9(serial&0x7F, data[:])
	out := make([]byte, 0, confirmedBlockOctets)
	out = append(out, (serial&0x7F)<<1|byte(crc>>8), byte(crc))
	return append(out, data[:]...)
}

// decodePDU decodes the header and the data blocks it declares, then
// checks the packet CRC carried in the last four octets of user data.
func decodePDU(info FrameInfo, payload []uint8) *PDU {
	p := &PDU{FrameInfo: info}
	if len(payload) < headerPayloadDibits+blockDibits {
		return p
	}

	p.Header, p.HeaderStatus = decodePDUHeader(payload[headerPayloadDibits : headerPayloadDibits+blockDibits])
	if !p.HeaderStatus.OK {
		return p
	}
	writeBlock(p.Body, 0, correction.Trellis12, p.Header.Raw[:])

	var data []byte
	for i := 1; i <= int(p.Header.BlocksToFollow); i++ {
		begin := headerPayloadDibits + i*blockDibits
		if begin+blockDibits > len(payload) {
			break
		}
		block := decodeDataBlock(payload[begin:begin+blockDibits], &p.Header)
		p.Blocks = append(p.Blocks, block)
		data = append(data, block.Data...)
		if block.OK {
			writeBlock(p.Body, i, p.Header.trellis(), block.raw)
		}
	}

	if len(p.Blocks) != int(p.Header.BlocksToFollow) || len(data) < packetCRCOctets {
		return p
	}
	n := len(data) - packetCRCOctets
	p.PacketCRC = uint32(data[n])<<24 | uint32(data[n+1])<<16 | uint32(data[n+2])<<8 | uint32(data[n+3])
	p.PacketCRCOK = correction.CRC32(data[:n]) == p.PacketCRC

	pad := int(p.Header.PadOctets)
	if pad > n {
		pad = n
	}
	p.Data = data[:n-pad]
	return p
}

// BuildPacketData splits user data into block payloads: pad octets are
// added so the data and the packet CRC fill whole blocks. It returns the
// block payloads and the pad count for the header.
func BuildPacketData(format uint8, data []byte) ([][]byte, uint8) {
	size := unconfirmedBlockOctets
	if format == protocol.PDU_FMT_CONFIRMED {
		size = confirmedDataOctets
	}

	total := len(data) + packetCRCOctets
	blocks := (total + size - 1) / size
	pad := blocks*size - total

	buf := make([]byte, 0, blocks*size)
	buf = append(buf, data...)
	buf = append(buf, make([]byte, pad)...)
	crc := correction.CRC32(buf)
	buf = append(buf, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))

	out := make([][]byte, blocks)
	for i := range out {
		out[i] = buf[i*size : (i+1)*size]
	}
	return out, uint8(pad)
}
