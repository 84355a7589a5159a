package trunking

import (
	"encoding/hex"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// block builds a standard TSBK from fields given as (shift, width, value)
// against the 96-bit block.
func block(t *testing.T, opcode uint8, fields ...[3]uint64) p25.TSBK {
	t.Helper()
	b := bits.New(96)
	for _, f := range fields {
		shift, width := int(f[0]), int(f[1])
		b.MustInsert(96-shift-width, 96-shift, f[2])
	}
	var data [8]byte
	copy(data[:], b.Bytes()[2:10])
	tsbk := p25.NewTSBK(false, opcode, 0, data)
	require.True(t, tsbk.OK)
	return tsbk
}

func idenUp() p25.TSBK {
	var data [8]byte
	b := bits.New(96)
	b.MustInsert(96-80, 96-76, 1)           // iden
	b.MustInsert(96-76, 96-67, 0x64)        // bw
	b.MustInsert(96-67, 96-58, 0x100|20)    // +20 * 250 kHz
	b.MustInsert(96-58, 96-48, 100)         // 12.5 kHz
	b.MustInsert(96-48, 96-16, 851006250/5) // base
	copy(data[:], b.Bytes()[2:10])
	return p25.NewTSBK(false, protocol.TSBK_IDEN_UP, 0, data)
}

func TestRFSSStatusVector(t *testing.T) {
	raw, err := hex.DecodeString("3a000012ae0101334870")
	require.NoError(t, err)
	var data [8]byte
	copy(data[:], raw[2:])
	tsbk := p25.NewTSBK(false, raw[0], raw[1], data)
	require.Equal(t, uint16(0x4A54), tsbk.CRC)

	m, err := DecodeTSBK(tsbk)
	require.NoError(t, err)
	assert.Equal(t, RFSSStatus{SYID: 0x2AE, RFID: 1, STID: 1, Channel: 0x3348}, m)
	assert.Equal(t, uint8(protocol.TSBK_RFSS_STATUS), m.Opcode())
	assert.Equal(t, "rfss status: syid 2ae rfid 1 stid 1 ch1 3348(3-840)", m.Describe(NewChannelTable()))
}

func TestIdentifierUpdate(t *testing.T) {
	m, err := DecodeTSBK(idenUp())
	require.NoError(t, err)
	iden, ok := m.(IdentifierUpdate)
	require.True(t, ok)
	assert.Equal(t, Identifier{ID: 1, Base: 851006250, Spacing: 12500, Offset: 5000000, Bandwidth: 0x64}, iden.Identifier)

	table := NewChannelTable()
	table.Update(iden.Identifier)
	f, ok := table.Frequency(0x1000 | 10)
	require.True(t, ok)
	assert.Equal(t, uint64(851131250), f)
	up, ok := table.Uplink(0x1000 | 10)
	require.True(t, ok)
	assert.Equal(t, uint64(856131250), up)
	assert.Equal(t, "851.131250", table.ChannelString(0x100A))
	assert.Equal(t, "2-10", table.ChannelString(0x200A))
	assert.Equal(t, "tbl-id: 1 frequency: 851.006250 step 0.012500 offset 5.000000", table.String())
}

func TestIdentifierUpdateVHFUHF(t *testing.T) {
	tsbk := block(t, protocol.TSBK_IDEN_UP_VU,
		[3]uint64{76, 4, 2},
		[3]uint64{72, 4, 5},
		[3]uint64{58, 14, 480}, // sign clear: receive above transmit
		[3]uint64{48, 10, 100},
		[3]uint64{16, 32, 451000000 / 5},
	)
	m, err := DecodeTSBK(tsbk)
	require.NoError(t, err)
	iden := m.(IdentifierUpdate)
	assert.True(t, iden.VHFUHF)
	assert.Equal(t, int64(-6000000), iden.Offset)
	assert.Equal(t, uint64(12500), iden.Spacing)
	assert.Equal(t, uint64(451000000), iden.Base)
	assert.Equal(t, uint16(5), iden.Bandwidth)
	assert.Equal(t, uint8(protocol.TSBK_IDEN_UP_VU), m.Opcode())
}

func TestDecodeTSBKMessages(t *testing.T) {
	tests := []struct {
		name string
		tsbk p25.TSBK
		want Message
	}{
		{
			"grant",
			block(t, protocol.TSBK_GROUP_VOICE_GRANT, [3]uint64{72, 8, 0x40}, [3]uint64{56, 16, 0x100A}, [3]uint64{40, 16, 2001}, [3]uint64{16, 24, 1234567}),
			GroupVoiceGrant{ServiceOptions: 0x40, Channel: 0x100A, Group: 2001, Source: 1234567},
		},
		{
			"grant update",
			block(t, protocol.TSBK_GROUP_VOICE_UPDATE, [3]uint64{64, 16, 0x1001}, [3]uint64{48, 16, 10}, [3]uint64{32, 16, 0x1002}, [3]uint64{16, 16, 20}),
			GroupVoiceGrantUpdate{Channel1: 0x1001, Group1: 10, Channel2: 0x1002, Group2: 20},
		},
		{
			"sndcp",
			block(t, protocol.TSBK_SNDCP_DATA_CHANNEL, [3]uint64{48, 16, 0x1003}, [3]uint64{32, 16, 0x1004}),
			SNDCPDataChannel{Channel1: 0x1003, Channel2: 0x1004},
		},
		{
			"secondary",
			block(t, protocol.TSBK_SECONDARY_CC, [3]uint64{72, 8, 3}, [3]uint64{64, 8, 4}, [3]uint64{48, 16, 0x1005}, [3]uint64{24, 16, 0x1006}),
			SecondaryControlChannel{RFID: 3, STID: 4, Channel1: 0x1005, Channel2: 0x1006},
		},
		{
			"network",
			block(t, protocol.TSBK_NETWORK_STATUS, [3]uint64{52, 20, 0xBEE00}, [3]uint64{40, 12, 0x123}, [3]uint64{24, 16, 0x1007}),
			NetworkStatus{WACN: 0xBEE00, SYID: 0x123, Channel: 0x1007},
		},
		{
			"adjacent",
			block(t, protocol.TSBK_ADJACENT_STATUS, [3]uint64{48, 8, 5}, [3]uint64{40, 8, 6}, [3]uint64{24, 16, 0x1008}),
			AdjacentStatus{RFID: 5, STID: 6, Channel: 0x1008},
		},
		{
			"unit to unit",
			block(t, protocol.TSBK_UNIT_TO_UNIT_GRANT),
			Unknown{Op: protocol.TSBK_UNIT_TO_UNIT_GRANT},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeTSBK(tt.tsbk)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
			assert.Equal(t, tt.tsbk.Opcode, m.Opcode())
		})
	}
}

func TestDecodeTSBKProprietary(t *testing.T) {
	tsbk := p25.NewTSBK(false, 0x00, protocol.MFID_MOTOROLA, [8]byte{})
	m, err := DecodeTSBK(tsbk)
	require.NoError(t, err)
	assert.Equal(t, Unknown{Op: 0, MFID: protocol.MFID_MOTOROLA}, m)
	assert.Equal(t, "Motorola opcode 00", m.Describe(nil))
}

func TestDecodeTSBKBadCRC(t *testing.T) {
	tsbk := idenUp()
	tsbk.OK = false
	_, err := DecodeTSBK(tsbk)
	assert.Error(t, err)
}

func ambt(opcode uint8, args [2]byte, data []byte) *p25.PDU {
	return &p25.PDU{
		Header:       p25.PDUHeader{Format: protocol.PDU_FMT_AMBT, Opcode: opcode, Args: args, LLID: 77},
		HeaderStatus: p25.FieldStatus{OK: true},
		Data:         data,
		PacketCRCOK:  true,
	}
}

func TestDecodeAMBT(t *testing.T) {
	tests := []struct {
		name string
		pdu  *p25.PDU
		want Message
	}{
		{
			"grant",
			ambt(0x00, [2]byte{}, []byte{0, 0, 0x10, 0x01, 0x10, 0x02, 0x07, 0xD1}),
			GroupVoiceGrant{Source: 77, Channel: 0x1001, Channel2: 0x1002, Group: 2001},
		},
		{
			"adjacent",
			ambt(0x3C, [2]byte{0x0A, 0x0B}, []byte{0x10, 0x03, 0x10, 0x04, 0, 0, 0, 0}),
			AdjacentStatus{RFID: 0x0A, STID: 0x0B, Channel: 0x1003, Channel2: 0x1004},
		},
		{
			"network",
			ambt(0x3B, [2]byte{}, []byte{0xBE, 0xE0, 0x00, 0x10, 0x05, 0x10, 0x06, 0x00}),
			NetworkStatus{WACN: 0xBEE00, Channel: 0x1005, Channel2: 0x1006},
		},
		{
			"rfss",
			ambt(0x3A, [2]byte{}, []byte{0x01, 0x02, 0x10, 0x07, 0x10, 0x08, 0, 0}),
			RFSSStatus{RFID: 1, STID: 2, Channel: 0x1007, Channel2: 0x1008},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeAMBT(tt.pdu)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestDecodeAMBTRejects(t *testing.T) {
	short := ambt(0x3A, [2]byte{}, []byte{1, 2})
	_, err := DecodeAMBT(short)
	assert.Error(t, err)

	bad := ambt(0x3A, [2]byte{}, make([]byte, 8))
	bad.PacketCRCOK = false
	_, err = DecodeAMBT(bad)
	assert.Error(t, err)

	notAMBT := ambt(0x3A, [2]byte{}, make([]byte, 8))
	notAMBT.Header.Format = protocol.PDU_FMT_UNCONFIRMED
	_, err = DecodeAMBT(notAMBT)
	assert.Error(t, err)
}

func TestSystemTracksControlChannel(t *testing.T) {
	var grants []uint64
	sys := NewSystem(log.New(io.Discard), func(f uint64, group uint16) {
		assert.Equal(t, uint16(10), group)
		grants = append(grants, f)
	})

	// the grant arrives before its identifier and cannot be resolved
	early := block(t, protocol.TSBK_GROUP_VOICE_UPDATE, [3]uint64{64, 16, 0x1001}, [3]uint64{48, 16, 10})
	bad := idenUp()
	bad.OK = false

	msgs := sys.Handle(&p25.TSDU{Blocks: []p25.TSBK{early, bad, idenUp()}})
	require.Len(t, msgs, 2)
	assert.Empty(t, grants)

	msgs = sys.Handle(&p25.TSDU{Blocks: []p25.TSBK{
		early,
		block(t, protocol.TSBK_RFSS_STATUS, [3]uint64{56, 12, 0x2AE}, [3]uint64{48, 8, 1}, [3]uint64{40, 8, 2}, [3]uint64{24, 16, 0x1000}),
		block(t, protocol.TSBK_NETWORK_STATUS, [3]uint64{52, 20, 0xBEE00}, [3]uint64{40, 12, 0x2AE}, [3]uint64{24, 16, 0x1000}),
	}})
	require.Len(t, msgs, 3)
	assert.Equal(t, []uint64{851018750}, grants)

	assert.Equal(t, Site{SYID: 0x2AE, RFID: 1, STID: 2, Downlink: 851006250, Uplink: 856006250}, sys.Site())
	assert.Equal(t, Network{WACN: 0xBEE00, SYID: 0x2AE, Downlink: 851006250}, sys.Network())

	sys.Handle(&p25.TSDU{Blocks: []p25.TSBK{
		block(t, protocol.TSBK_SECONDARY_CC, [3]uint64{48, 16, 0x1002}, [3]uint64{24, 16, 0x1001}),
		block(t, protocol.TSBK_ADJACENT_STATUS, [3]uint64{48, 8, 5}, [3]uint64{40, 8, 6}, [3]uint64{24, 16, 0x1003}),
	}})
	assert.Equal(t, []uint64{851018750, 851031250}, sys.Secondary())
	assert.Equal(t, map[uint64]string{851043750: "rfid: 5 stid:6"}, sys.Adjacent())

	st := sys.Stats()
	assert.Equal(t, uint64(8), st.TSBKs)
	assert.Equal(t, uint64(1), st.CRCErrors)

	summary := sys.String()
	assert.Contains(t, summary, "tbl-id: 1 frequency: 851.006250")
	assert.Contains(t, summary, "secondary control channel(s): 851.018750,851.031250")
	assert.Contains(t, summary, "adjacent 851.043750: rfid: 5 stid:6")
	assert.Contains(t, summary, "rf: sysid 2ae rfid 1 stid 2 frequency 851.006250 uplink 856.006250")
	assert.Contains(t, summary, "net: sysid 2ae wacn bee00 frequency 851.006250")
}

func TestSystemIgnoresOtherFrames(t *testing.T) {
	sys := NewSystem(log.New(io.Discard), nil)
	assert.Nil(t, sys.Handle(&p25.TDU{}))
	assert.Nil(t, sys.Handle(&p25.PDU{Header: p25.PDUHeader{Format: protocol.PDU_FMT_UNCONFIRMED}}))

	msgs := sys.Handle(ambt(0x3A, [2]byte{}, []byte{0x01, 0x02, 0x10, 0x07, 0x10, 0x08, 0, 0}))
	require.Len(t, msgs, 1)
	assert.Equal(t, uint64(1), sys.Stats().AMBTs)
}
