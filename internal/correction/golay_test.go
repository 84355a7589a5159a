package correction

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGolay23Encode(t *testing.T) {
	tests := []struct {
		name string
		data uint16
		want uint32
	}{
		{"all zeros", 0x000, 0x000000},
		{"lowest data bit", 0x001, 0x000C75},
		{"all ones", 0xFFF, 0x7FFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Golay23Encode(tt.data)
			if got != tt.want {
				t.Errorf("Golay23Encode() = 0x%06X, want 0x%06X", got, tt.want)
			}
		})
	}
}

func TestGolay23RoundTrip(t *testing.T) {
	for data := uint16(0); data < 1<<12; data++ {
		got, errors, err := Golay23Decode(Golay23Encode(data))
		require.NoError(t, err)
		if got != data || errors != 0 {
			t.Fatalf("Golay23Decode(Golay23Encode(0x%03X)) = 0x%03X, %d errors", data, got, errors)
		}
	}
}

func TestGolay23CorrectsThreeErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.Uint16Range(0, 0xFFF).Draw(t, "data")
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, 22), 0, 3, func(p int) int { return p }).Draw(t, "positions")

		cw := Golay23Encode(data)
		for _, p := range positions {
			cw ^= 1 << uint(p)
		}

		got, errors, err := Golay23Decode(cw)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		assert.Equal(t, len(positions), errors)

		// re-decoding the corrected word reports nothing further
		again, errors, err := Golay23Decode(Golay23Encode(got))
		require.NoError(t, err)
		assert.Equal(t, got, again)
		assert.Zero(t, errors)
	})
}

func TestGolay23FourErrorsMiscorrect(t *testing.T) {
	// A perfect code always decodes; four errors land on a neighbouring
	// codeword three bits away.
	cw := Golay23Encode(0x5A5) ^ 0x00000F
	got, errors, err := Golay23Decode(cw)
	require.NoError(t, err)
	assert.NotEqual(t, uint16(0x5A5), got)
	assert.Equal(t, 3, errors)
}

func TestGolay23InvalidInput(t *testing.T) {
	_, _, err := Golay23Decode(1 << 23)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGolay24(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.Uint16Range(0, 0xFFF).Draw(t, "data")
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, 23), 0, 3, func(p int) int { return p }).Draw(t, "positions")

		cw := Golay24Encode(data)
		assert.Zero(t, bits.OnesCount64(uint64(cw))&1, "extended codeword has even weight")
		for _, p := range positions {
			cw ^= 1 << uint(p)
		}

		got, errors, err := Golay24Decode(cw)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		assert.Equal(t, len(positions), errors)
	})
}

func TestGolay24DetectsFourErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.Uint16Range(0, 0xFFF).Draw(t, "data")
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, 23), 4, 4, func(p int) int { return p }).Draw(t, "positions")

		cw := Golay24Encode(data)
		for _, p := range positions {
			cw ^= 1 << uint(p)
		}

		_, _, err := Golay24Decode(cw)
		assert.ErrorIs(t, err, ErrUncorrectable)
	})
}

func TestGolay18(t *testing.T) {
	for data := uint8(0); data < 64; data++ {
		cw := Golay18Encode(data)
		require.LessOrEqual(t, cw, uint32(0x3FFFF))

		for p := -1; p < 18; p++ {
			rx := cw
			want := 0
			if p >= 0 {
				rx ^= 1 << uint(p)
				want = 1
			}
			got, errors, err := Golay18Decode(rx)
			require.NoError(t, err)
			if got != data || errors != want {
				t.Fatalf("Golay18Decode(0x%05X) = 0x%02X, %d errors; want 0x%02X, %d", rx, got, errors, data, want)
			}
		}
	}
}

func TestGolay18RejectsCorrectionIntoShortenedBits(t *testing.T) {
	// The tail of the codeword for data 0x040 is one error away from it,
	// but that error sits in a shortened data bit.
	rx := Golay24Encode(0x040) & 0x3FFFF
	require.Equal(t, uint32(0x00D99), rx)

	_, _, err := Golay18Decode(rx)
	assert.ErrorIs(t, err, ErrUncorrectable)
}
