package p25

import (
	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/stretchr/testify/require"
)

const testNAC = 0x293

var testEncoder = Encoder{NAC: testNAC, Status: 1}

func bitsFromArray(b [9]byte) bits.Bits { return bits.FromBytes(b[:]) }

// assemble runs raw dibits through NID decode, the factory and Extend the
// way the framer does, and returns the unit once it is complete.
func assemble(t require.TestingT, raw []uint8) *DataUnit {
	require.GreaterOrEqual(t, len(raw), protocol.P25_HEADER_DIBITS)

	header := raw[:protocol.P25_HEADER_DIBITS]
	payload, _ := bits.StripStatus(header)
	b, err := bits.FromDibits(payload)
	require.NoError(t, err)

	nid, err := DecodeNID(b.MustExtract(48, 112))
	require.NoError(t, err)

	u, ok := NewDataUnit(nid, header)
	require.True(t, ok, "factory rejected %s", nid.DUID)

	i := protocol.P25_HEADER_DIBITS
	for u.Required() > 0 {
		require.Less(t, i, len(raw), "unit wants more dibits than the frame holds")
		require.NoError(t, u.Extend(raw[i]))
		i++
	}
	require.Equal(t, len(raw), i, "unit completed early")
	require.True(t, u.IsComplete())
	return u
}

// decodeRaw assembles and decodes a frame.
func decodeRaw(t require.TestingT, raw []uint8) Frame {
	f, err := assemble(t, raw).Decode()
	require.NoError(t, err)
	return f
}

// flipPayloadBits inverts payload bits (status symbols removed, counted
// from the first frame sync bit) of a raw frame.
func flipPayloadBits(t require.TestingT, raw []uint8, positions ...int) []uint8 {
	payload, status := bits.StripStatus(raw)
	b, err := bits.FromDibits(payload)
	require.NoError(t, err)
	for _, p := range positions {
		b[p] ^= 1
	}
	dibits, err := b.Dibits()
	require.NoError(t, err)
	out, err := bits.RestoreStatus(dibits, status)
	require.NoError(t, err)
	return out
}

// testVoice returns distinct voice parameters for codeword i.
func testVoice(i int) [8]uint16 {
	return [8]uint16{
		uint16(0x100*i+0x23) & 0xFFF,
		uint16(0x321+i) & 0xFFF,
		0x456, 0x789, 0x1A2, 0x2B3, 0x3C4, 0x55,
	}
}

func testVoiceFrames() [9][8]uint16 {
	var v [9][8]uint16
	for i := range v {
		v[i] = testVoice(i)
	}
	return v
}
