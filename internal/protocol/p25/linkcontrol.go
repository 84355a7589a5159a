package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// LinkControl is the 72-bit link control word carried by LDU1 and TDULC.
type LinkControl struct {
	Protected bool  // P bit: the payload is encrypted
	Format    uint8 // LCF octet
	LCO       uint8 // link control opcode (LCF bits 5..0)
	MFID      uint8
	Raw       [9]byte

	// Decoded for the standard message set
	ServiceOptions uint8
	TGID           uint16
	Source         uint32
	Target         uint32
}

// Standard reports whether the word uses the standard message set.
func (lc *LinkControl) Standard() bool {
	return protocol.IsStandardMFID(lc.MFID)
}

// Name returns the opcode name for standard words.
func (lc *LinkControl) Name() string {
	if !lc.Standard() {
		return protocol.MFIDName(lc.MFID) + " proprietary"
	}
	return protocol.LCOName(lc.LCO)
}

// parseLinkControl decodes a 72-bit link control word.
func parseLinkControl(word bits.Bits) LinkControl {
	var lc LinkControl
	copy(lc.Raw[:], word.Bytes())

	lc.Format = lc.Raw[0]
	lc.Protected = lc.Format&0x80 != 0
	lc.LCO = lc.Format & 0x3F
	lc.MFID = lc.Raw[1]
	if lc.Protected || !lc.Standard() {
		return lc
	}

	switch lc.LCO {
	case protocol.LCO_GROUP_VOICE:
		lc.ServiceOptions = lc.Raw[2]
		lc.TGID = uint16(word.MustExtract(32, 48))
		lc.Source = uint32(word.MustExtract(48, 72))
	case protocol.LCO_UNIT_TO_UNIT:
		lc.ServiceOptions = lc.Raw[2]
		lc.Target = uint32(word.MustExtract(24, 48))
		lc.Source = uint32(word.MustExtract(48, 72))
	case protocol.LCO_CALL_TERMINATION:
		lc.Target = uint32(word.MustExtract(48, 72))
	}
	return lc
}

// GroupVoiceLC builds a standard group voice channel user word.
func GroupVoiceLC(serviceOptions uint8, tgid uint16, source uint32) [9]byte {
	return [9]byte{
		protocol.LCO_GROUP_VOICE, protocol.MFID_STANDARD_PRE2001, serviceOptions, 0,
		byte(tgid >> 8), byte(tgid),
		byte(source >> 16), byte(source >> 8), byte(source),
	}
}

// EncryptionSync is the 96-bit word carried by LDU2.
type EncryptionSync struct {
	MI    [9]byte
	ALGID uint8
	KID   uint16
}

// Encrypted reports whether the sync word announces encryption.
func (es *EncryptionSync) Encrypted() bool { return es.ALGID != protocol.ALGID_UNENCRYPTED }

func parseEncryptionSync(word bits.Bits) EncryptionSync {
	var es EncryptionSync
	copy(es.MI[:], word[0:72].Bytes())
	es.ALGID = uint8(word.MustExtract(72, 80))
	es.KID = uint16(word.MustExtract(80, 96))
	return es
}

func (es EncryptionSync) toBits() bits.Bits {
	b := bits.New(96)
	copy(b, bits.FromBytes(es.MI[:]))
	b.MustInsert(72, 80, uint64(es.ALGID))
	b.MustInsert(80, 96, uint64(es.KID))
	return b
}

// LowSpeedData holds the two octets of low speed data in an LDU.
type LowSpeedData struct {
	Data   [2]byte
	Errors int
	OK     bool
}
