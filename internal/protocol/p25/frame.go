package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
)

// Frame is a decoded Data Unit. The set of implementations is closed:
// *HDU, *LDU1, *LDU2, *TDU, *TDULC, *TSDU and *PDU. Consumers dispatch
// with a type switch.
type Frame interface {
	Info() *FrameInfo
	isFrame()
}

// FrameInfo carries the fields common to every decoded frame.
type FrameInfo struct {
	NAC       uint16
	DUID      DUID
	NIDErrors int
	Status    []uint8   // status symbols in order of arrival
	Body      bits.Bits // payload bits after correction, status symbols removed
}

// Info returns the common frame fields.
func (f *FrameInfo) Info() *FrameInfo { return f }

// Bytes packs the corrected payload MSB first.
func (f *FrameInfo) Bytes() []byte { return f.Body.Bytes() }

// Inbound guesses the transmission direction from the status symbols.
// Repeaters report the inbound channel as busy (1) or idle (3); subscriber
// units send 0 or 2. A majority of even symbols therefore suggests an
// inbound transmission. It is a heuristic only.
func (f *FrameInfo) Inbound() bool {
	even := 0
	for _, s := range f.Status {
		if s&1 == 0 {
			even++
		}
	}
	return len(f.Status) > 0 && 2*even > len(f.Status)
}

// FieldStatus reports the FEC outcome of one protected field.
type FieldStatus struct {
	Errors int  // bits or symbols corrected
	OK     bool // false when any codeword was uncorrectable
}

// HDU is a decoded Header Data Unit.
type HDU struct {
	FrameInfo
	MI     [9]byte // message indicator
	MFID   uint8
	ALGID  uint8
	KID    uint16
	TGID   uint16
	Header FieldStatus
}

// Encrypted reports whether the header announces an encrypted call.
func (h *HDU) Encrypted() bool { return h.ALGID != 0x80 }

// LDU1 is a decoded Logical Link Data Unit 1.
type LDU1 struct {
	FrameInfo
	Voice    [9]VoiceCodeword
	LC       LinkControl
	LCStatus FieldStatus
	LSD      LowSpeedData
}

// LDU2 is a decoded Logical Link Data Unit 2.
type LDU2 struct {
	FrameInfo
	Voice    [9]VoiceCodeword
	ES       EncryptionSync
	ESStatus FieldStatus
	LSD      LowSpeedData
}

// TDU is a terminator without link control.
type TDU struct {
	FrameInfo
}

// TDULC is a terminator carrying link control.
type TDULC struct {
	FrameInfo
	LC       LinkControl
	LCStatus FieldStatus
}

// TSDU is a trunking signaling data unit of one to three blocks.
type TSDU struct {
	FrameInfo
	Blocks []TSBK
}

// PDU is a packet data unit: a header block and the data blocks it declares.
type PDU struct {
	FrameInfo
	Header       PDUHeader
	HeaderStatus FieldStatus
	Blocks       []DataBlock
	Data         []byte // concatenated user data without the packet CRC
	PacketCRC    uint32
	PacketCRCOK  bool
}

func (*HDU) isFrame()   {}
func (*LDU1) isFrame()  {}
func (*LDU2) isFrame()  {}
func (*TDU) isFrame()   {}
func (*TDULC) isFrame() {}
func (*TSDU) isFrame()  {}
func (*PDU) isFrame()   {}

// VoiceFrames returns the voice codewords of LDU1 and LDU2 frames, in
// transmission order, and nil for other frames.
func VoiceFrames(f Frame) []VoiceCodeword {
	switch v := f.(type) {
	case *LDU1:
		return v.Voice[:]
	case *LDU2:
		return v.Voice[:]
	}
	return nil
}
