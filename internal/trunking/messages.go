// Package trunking decodes control channel messages carried by trunking
// signaling blocks and alternate multiple block trunking packets, and
// tracks the system they describe.
package trunking

import (
	"fmt"

	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// Message is a decoded control channel message.
type Message interface {
	Opcode() uint8
	Describe(t *ChannelTable) string
}

// GroupVoiceGrant assigns a traffic channel to a talkgroup.
type GroupVoiceGrant struct {
	ServiceOptions uint8
	Channel        uint16
	Channel2       uint16 // AMBT only
	Group          uint16
	Source         uint32
}

// GroupVoiceGrantUpdate reminds subscribers of up to two active grants.
type GroupVoiceGrantUpdate struct {
	Channel1 uint16
	Group1   uint16
	Channel2 uint16
	Group2   uint16
}

// SNDCPDataChannel announces the packet data channel.
type SNDCPDataChannel struct {
	Channel1 uint16
	Channel2 uint16
}

// IdentifierUpdate carries a channel identifier table entry.
type IdentifierUpdate struct {
	Identifier
}

// RFSSStatus describes the site the control channel belongs to.
type RFSSStatus struct {
	SYID     uint16
	RFID     uint8
	STID     uint8
	Channel  uint16
	Channel2 uint16 // AMBT only
}

// SecondaryControlChannel lists alternate control channels of the site.
type SecondaryControlChannel struct {
	RFID     uint8
	STID     uint8
	Channel1 uint16
	Channel2 uint16
}

// NetworkStatus identifies the wide area network.
type NetworkStatus struct {
	WACN     uint32
	SYID     uint16
	Channel  uint16
	Channel2 uint16 // AMBT only
}

// AdjacentStatus describes a neighbouring site.
type AdjacentStatus struct {
	RFID     uint8
	STID     uint8
	Channel  uint16
	Channel2 uint16 // AMBT only
}

// Unknown is any block or packet without a decoder.
type Unknown struct {
	Op   uint8
	MFID uint8
}

func (GroupVoiceGrant) Opcode() uint8         { return protocol.TSBK_GROUP_VOICE_GRANT }
func (GroupVoiceGrantUpdate) Opcode() uint8   { return protocol.TSBK_GROUP_VOICE_UPDATE }
func (SNDCPDataChannel) Opcode() uint8        { return protocol.TSBK_SNDCP_DATA_CHANNEL }
func (SecondaryControlChannel) Opcode() uint8 { return protocol.TSBK_SECONDARY_CC }
func (RFSSStatus) Opcode() uint8              { return protocol.TSBK_RFSS_STATUS }
func (NetworkStatus) Opcode() uint8           { return protocol.TSBK_NETWORK_STATUS }
func (AdjacentStatus) Opcode() uint8          { return protocol.TSBK_ADJACENT_STATUS }
func (u Unknown) Opcode() uint8               { return u.Op }

func (m IdentifierUpdate) Opcode() uint8 {
	if m.VHFUHF {
		return protocol.TSBK_IDEN_UP_VU
	}
	return protocol.TSBK_IDEN_UP
}

func (m GroupVoiceGrant) Describe(t *ChannelTable) string {
	return fmt.Sprintf("voice grant: chan %s group %d source %d", t.ChannelString(m.Channel), m.Group, m.Source)
}

func (m GroupVoiceGrantUpdate) Describe(t *ChannelTable) string {
	return fmt.Sprintf("grant update: chan %s %d %s %d", t.ChannelString(m.Channel1), m.Group1, t.ChannelString(m.Channel2), m.Group2)
}

func (m SNDCPDataChannel) Describe(*ChannelTable) string {
	return fmt.Sprintf("sndcp data ch: chan %x %x", m.Channel1, m.Channel2)
}

func (m IdentifierUpdate) Describe(*ChannelTable) string {
	return fmt.Sprintf("iden id %d offset %.6f spac %.6f freq %s", m.ID, float64(m.Offset)/1e6, float64(m.Spacing)/1e6, FormatMHz(m.Base))
}

func (m RFSSStatus) Describe(t *ChannelTable) string {
	return fmt.Sprintf("rfss status: syid %x rfid %x stid %d ch1 %x(%s)", m.SYID, m.RFID, m.STID, m.Channel, t.ChannelString(m.Channel))
}

func (m SecondaryControlChannel) Describe(t *ChannelTable) string {
	return fmt.Sprintf("secondary cc: rfid %x stid %d ch1 %x(%s) ch2 %x(%s)", m.RFID, m.STID, m.Channel1, t.ChannelString(m.Channel1), m.Channel2, t.ChannelString(m.Channel2))
}

func (m NetworkStatus) Describe(t *ChannelTable) string {
	return fmt.Sprintf("net stat: wacn %x syid %x ch1 %x(%s)", m.WACN, m.SYID, m.Channel, t.ChannelString(m.Channel))
}

func (m AdjacentStatus) Describe(t *ChannelTable) string {
	return fmt.Sprintf("adjacent: rfid %x stid %d ch1 %x(%s)", m.RFID, m.STID, m.Channel, t.ChannelString(m.Channel))
}

func (m Unknown) Describe(*ChannelTable) string {
	return fmt.Sprintf("%s opcode %02x", protocol.MFIDName(m.MFID), m.Op)
}

// word gives access to a field by its shift from the least significant
// bit, the way the control channel messages are documented.
type word struct {
	b bits.Bits
}

func newWord(data []byte) word { return word{b: bits.FromBytes(data)} }

func (w word) field(shift, width int) uint64 {
	n := len(w.b)
	return w.b.MustExtract(n-shift-width, n-shift)
}

// DecodeTSBK decodes one trunking signaling block. Blocks that failed
// their CRC are not decoded.
func DecodeTSBK(t p25.TSBK) (Message, error) {
	if !t.OK {
		return nil, fmt.Errorf("trunking: TSBK opcode %02x failed CRC", t.Opcode)
	}
	if !t.Standard() || t.Protected {
		return Unknown{Op: t.Opcode, MFID: t.MFID}, nil
	}

	w := newWord(t.Raw[:])
	switch t.Opcode {
	case protocol.TSBK_GROUP_VOICE_GRANT:
		return GroupVoiceGrant{
			ServiceOptions: uint8(w.field(72, 8)),
			Channel:        uint16(w.field(56, 16)),
			Group:          uint16(w.field(40, 16)),
			Source:         uint32(w.field(16, 24)),
		}, nil
	case protocol.TSBK_GROUP_VOICE_UPDATE:
		return GroupVoiceGrantUpdate{
			Channel1: uint16(w.field(64, 16)),
			Group1:   uint16(w.field(48, 16)),
			Channel2: uint16(w.field(32, 16)),
			Group2:   uint16(w.field(16, 16)),
		}, nil
	case protocol.TSBK_SNDCP_DATA_CHANNEL:
		return SNDCPDataChannel{
			Channel1: uint16(w.field(48, 16)),
			Channel2: uint16(w.field(32, 16)),
		}, nil
	case protocol.TSBK_IDEN_UP_VU:
		return decodeIdenUpVU(w), nil
	case protocol.TSBK_IDEN_UP:
		return decodeIdenUp(w), nil
	case protocol.TSBK_RFSS_STATUS:
		return RFSSStatus{
			SYID:    uint16(w.field(56, 12)),
			RFID:    uint8(w.field(48, 8)),
			STID:    uint8(w.field(40, 8)),
			Channel: uint16(w.field(24, 16)),
		}, nil
	case protocol.TSBK_SECONDARY_CC:
		return SecondaryControlChannel{
			RFID:     uint8(w.field(72, 8)),
			STID:     uint8(w.field(64, 8)),
			Channel1: uint16(w.field(48, 16)),
			Channel2: uint16(w.field(24, 16)),
		}, nil
	case protocol.TSBK_NETWORK_STATUS:
		return NetworkStatus{
			WACN:    uint32(w.field(52, 20)),
			SYID:    uint16(w.field(40, 12)),
			Channel: uint16(w.field(24, 16)),
		}, nil
	case protocol.TSBK_ADJACENT_STATUS:
		return AdjacentStatus{
			RFID:    uint8(w.field(48, 8)),
			STID:    uint8(w.field(40, 8)),
			Channel: uint16(w.field(24, 16)),
		}, nil
	}
	return Unknown{Op: t.Opcode, MFID: t.MFID}, nil
}

// decodeIdenUpVU handles the VHF/UHF variant: a signed 14-bit offset in
// units of the channel spacing.
func decodeIdenUpVU(w word) IdentifierUpdate {
	toff := w.field(58, 14)
	spacing := w.field(48, 10) * 125
	offset := int64(toff&0x1FFF) * int64(spacing)
	if toff&0x2000 == 0 {
		offset = -offset
	}
	return IdentifierUpdate{Identifier{
		ID:        uint8(w.field(76, 4)),
		Bandwidth: uint16(w.field(72, 4)),
		Offset:    offset,
		Spacing:   spacing,
		Base:      w.field(16, 32) * 5,
		VHFUHF:    true,
	}}
}

// decodeIdenUp handles the generic variant: a signed 9-bit offset in
// units of 250 kHz.
func decodeIdenUp(w word) IdentifierUpdate {
	toff := w.field(58, 9)
	offset := int64(toff&0xFF) * 250000
	if toff&0x100 == 0 {
		offset = -offset
	}
	return IdentifierUpdate{Identifier{
		ID:        uint8(w.field(76, 4)),
		Bandwidth: uint16(w.field(67, 9)),
		Offset:    offset,
		Spacing:   w.field(48, 10) * 125,
		Base:      w.field(16, 32) * 5,
	}}
}

// DecodeAMBT decodes an alternate multiple block trunking packet. The
// message fields come from the header arguments and the first eight
// octets of user data.
func DecodeAMBT(p *p25.PDU) (Message, error) {
	if p.Header.Format != protocol.PDU_FMT_AMBT {
		return nil, fmt.Errorf("trunking: PDU format %02x is not AMBT", p.Header.Format)
	}
	if !p.HeaderStatus.OK || !p.PacketCRCOK {
		return nil, fmt.Errorf("trunking: AMBT opcode %02x failed CRC", p.Header.Opcode)
	}
	if len(p.Data) < 8 {
		return nil, fmt.Errorf("trunking: AMBT opcode %02x carries %d octets", p.Header.Opcode, len(p.Data))
	}
	if !protocol.IsStandardMFID(p.Header.MFID) {
		return Unknown{Op: p.Header.Opcode, MFID: p.Header.MFID}, nil
	}

	w := newWord(p.Data[:8])
	switch p.Header.Opcode {
	case protocol.TSBK_GROUP_VOICE_GRANT:
		return GroupVoiceGrant{
			Source:   p.Header.LLID,
			Channel:  uint16(w.field(32, 16)),
			Channel2: uint16(w.field(16, 16)),
			Group:    uint16(w.field(0, 16)),
		}, nil
	case protocol.TSBK_ADJACENT_STATUS:
		return AdjacentStatus{
			RFID:     p.Header.Args[0],
			STID:     p.Header.Args[1],
			Channel:  uint16(w.field(48, 16)),
			Channel2: uint16(w.field(32, 16)),
		}, nil
	case protocol.TSBK_NETWORK_STATUS:
		return NetworkStatus{
			WACN:     uint32(w.field(44, 20)),
			Channel:  uint16(w.field(24, 16)),
			Channel2: uint16(w.field(8, 16)),
		}, nil
	case protocol.TSBK_RFSS_STATUS:
		return RFSSStatus{
			RFID:     uint8(w.field(56, 8)),
			STID:     uint8(w.field(48, 8)),
			Channel:  uint16(w.field(32, 16)),
			Channel2: uint16(w.field(16, 16)),
		}, nil
	}
	return Unknown{Op: p.Header.Opcode, MFID: p.Header.MFID}, nil
}
