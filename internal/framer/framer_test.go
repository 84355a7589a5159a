package framer

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	pbits "github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

const testNAC = 0x293

var encoder = p25.Encoder{NAC: testNAC, Status: 1}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func feed(t *testing.T, f *Framer, dibits []uint8) []p25.Frame {
	t.Helper()
	var frames []p25.Frame
	require.NoError(t, f.Process(dibits, func(fr p25.Frame) { frames = append(frames, fr) }))
	return frames
}

// header builds the 57 raw dibits of frame sync and NID.
func header(t *testing.T, nac uint16, duid p25.DUID) []uint8 {
	t.Helper()
	b := pbits.New(112)
	b.MustInsert(0, 48, protocol.P25_FRAME_SYNC)
	b.MustInsert(48, 112, p25.EncodeNID(nac, duid))
	payload, err := b.Dibits()
	require.NoError(t, err)
	raw, err := pbits.RestoreStatus(payload, []uint8{1})
	require.NoError(t, err)
	return raw
}

func TestCorrelates(t *testing.T) {
	fs := uint64(protocol.P25_FRAME_SYNC)
	assert.True(t, Correlates(fs))
	assert.True(t, Correlates(fs^0b111))
	assert.False(t, Correlates(fs^0b1111))
	assert.False(t, Correlates(0))
}

func TestCorrelationBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "flips")
		flips := rapid.SliceOfNDistinct(rapid.IntRange(0, 47), n, n, func(x int) int { return x }).Draw(t, "positions")

		w := uint64(protocol.P25_FRAME_SYNC)
		for _, p := range flips {
			w ^= 1 << uint(p)
		}
		assert.Equal(t, n < protocol.P25_SYNC_THRESHOLD, Correlates(w))
	})
}

func TestTDUEndToEnd(t *testing.T) {
	f := New(quietLogger(), 0)

	stream := append([]uint8{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, encoder.TDU()...)
	frames := feed(t, f, stream)
	require.Len(t, frames, 1)

	tdu, ok := frames[0].(*p25.TDU)
	require.True(t, ok)
	assert.Equal(t, uint16(testNAC), tdu.NAC)
	assert.Equal(t, p25.DUIDTDU, tdu.DUID)
	assert.Equal(t, SearchingSync, f.State())

	// trailing payload after the unit is not part of any frame
	more := make([]uint8, 40)
	for i := range more {
		more[i] = uint8(i % 4)
	}
	assert.Empty(t, feed(t, f, more))
	assert.Equal(t, SearchingSync, f.State())

	s := f.Stats()
	assert.Equal(t, uint64(1), s.Syncs)
	assert.Equal(t, uint64(1), s.Frames[p25.DUIDTDU])
	assert.Equal(t, uint64(1), s.TotalFrames())
}

func TestFrameEmittedOnLastDibit(t *testing.T) {
	f := New(quietLogger(), 0)
	raw := encoder.TDU()

	for i, d := range raw {
		frame, err := f.Receive(d)
		require.NoError(t, err)
		if i < len(raw)-1 {
			require.Nil(t, frame, "dibit %d", i)
			continue
		}
		require.NotNil(t, frame)
	}
}

func TestStateTransitions(t *testing.T) {
	f := New(quietLogger(), 0)
	raw := encoder.TDU()

	feed(t, f, raw[:protocol.P25_FRAME_SYNC_DIBITS])
	assert.Equal(t, Identifying, f.State())

	feed(t, f, raw[protocol.P25_FRAME_SYNC_DIBITS:protocol.P25_HEADER_DIBITS])
	assert.Equal(t, Reading, f.State())

	feed(t, f, raw[protocol.P25_HEADER_DIBITS:])
	assert.Equal(t, SearchingSync, f.State())
}

func TestHDUEndToEnd(t *testing.T) {
	f := New(quietLogger(), 0)
	raw := encoder.HDU([9]byte{}, protocol.MFID_MOTOROLA, protocol.ALGID_UNENCRYPTED, 0, 100)

	frames := feed(t, f, raw)
	require.Len(t, frames, 1)
	hdu, ok := frames[0].(*p25.HDU)
	require.True(t, ok)
	assert.Equal(t, "Motorola", protocol.MFIDName(hdu.MFID))
	assert.Equal(t, "Unencrypted message", protocol.ALGIDName(hdu.ALGID))
	assert.Equal(t, uint16(100), hdu.TGID)
}

func TestDegradedVoiceStillEmitted(t *testing.T) {
	var voice [9][8]uint16
	for i := range voice {
		voice[i] = [8]uint16{uint16(0x100*i+0x23) & 0xFFF, uint16(0x321 + i), 0x456, 0x789, 0x1A2, 0x2B3, 0x3C4, 0x55}
	}
	raw := encoder.LDU1(voice, p25.GroupVoiceLC(0, 1, 2), [2]byte{})

	// corrupt c0 of codeword 4 beyond the Golay radius
	payload, status := pbits.StripStatus(raw)
	b, err := pbits.FromDibits(payload)
	require.NoError(t, err)
	for _, p := range []int{808, 824, 840, 856} {
		b[p] ^= 1
	}
	dibits, err := b.Dibits()
	require.NoError(t, err)
	raw, err = pbits.RestoreStatus(dibits, status)
	require.NoError(t, err)

	f := New(quietLogger(), 0)
	frames := feed(t, f, raw)
	require.Len(t, frames, 1)

	voiceFrames := p25.VoiceFrames(frames[0])
	require.Len(t, voiceFrames, 9)
	degraded := 0
	for _, v := range voiceFrames {
		if v.Degraded {
			degraded++
			continue
		}
		assert.Equal(t, voice[v.Index], v.U)
	}
	assert.Equal(t, 1, degraded)
	assert.True(t, voiceFrames[4].Degraded)

	s := f.Stats()
	assert.Equal(t, uint64(1), s.FECFailures)
}

func TestNIDFailureReturnsToSearch(t *testing.T) {
	f := New(quietLogger(), 0)
	raw := encoder.TDU()

	// twelve errors in the BCH word are beyond its radius
	payload, status := pbits.StripStatus(raw)
	b, err := pbits.FromDibits(payload)
	require.NoError(t, err)
	for p := 48; p < 60; p++ {
		b[p] ^= 1
	}
	dibits, err := b.Dibits()
	require.NoError(t, err)
	raw, err = pbits.RestoreStatus(dibits, status)
	require.NoError(t, err)

	assert.Empty(t, feed(t, f, raw))
	assert.Equal(t, SearchingSync, f.State())
	s := f.Stats()
	assert.Equal(t, uint64(1), s.Syncs)
	assert.Equal(t, uint64(1), s.NIDFailures)
	assert.Zero(t, s.TotalFrames())

	// the next clean frame is still found
	assert.Len(t, feed(t, f, encoder.TDU()), 1)
}

func TestUnrecognizedDUID(t *testing.T) {
	f := New(quietLogger(), 0)
	stream := append(header(t, testNAC, 0x1), encoder.TDU()...)

	frames := feed(t, f, stream)
	require.Len(t, frames, 1)
	assert.Equal(t, p25.DUIDTDU, frames[0].Info().DUID)
	assert.Equal(t, uint64(1), f.Stats().Unrecognized)
}

func TestNACFilter(t *testing.T) {
	f := New(quietLogger(), 0x123)
	other := p25.Encoder{NAC: 0x123, Status: 3}

	stream := append(encoder.TDU(), other.TDU()...)
	frames := feed(t, f, stream)
	require.Len(t, frames, 1)
	assert.Equal(t, uint16(0x123), frames[0].Info().NAC)
	assert.Equal(t, uint64(1), f.Stats().NACFiltered)
}

func TestInvalidDibit(t *testing.T) {
	f := New(quietLogger(), 0)
	raw := encoder.TDU()
	feed(t, f, raw[:30])
	require.Equal(t, Identifying, f.State())

	_, err := f.Receive(7)
	assert.ErrorIs(t, err, ErrInvalidDibit)
	assert.Equal(t, SearchingSync, f.State())
}

func TestBackToBackFrames(t *testing.T) {
	f := New(quietLogger(), 0)

	var stream []uint8
	stream = append(stream, encoder.HDU([9]byte{}, 0, protocol.ALGID_UNENCRYPTED, 0, 1)...)
	stream = append(stream, encoder.TDULC(p25.GroupVoiceLC(0, 1, 2))...)
	stream = append(stream, encoder.TDU()...)

	frames := feed(t, f, stream)
	require.Len(t, frames, 3)
	assert.IsType(t, &p25.HDU{}, frames[0])
	assert.IsType(t, &p25.TDULC{}, frames[1])
	assert.IsType(t, &p25.TDU{}, frames[2])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "searching", SearchingSync.String())
	assert.Equal(t, "identifying", Identifying.String())
	assert.Equal(t, "reading", Reading.String())
}
