package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtract(t *testing.T) {
	b := FromUint(0x5575F5FF77FF, 48)

	tests := []struct {
		name       string
		begin, end int
		want       uint64
	}{
		{"whole", 0, 48, 0x5575F5FF77FF},
		{"first octet", 0, 8, 0x55},
		{"nibble", 12, 16, 0x5},
		{"empty", 10, 10, 0},
		{"last bit", 47, 48, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Extract(tt.begin, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractOutOfRange(t *testing.T) {
	b := New(16)

	_, err := b.Extract(8, 17)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = b.Extract(-1, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = b.Extract(5, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = b.ExtractPositions([]int{0, 16})
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.ErrorIs(t, b.Insert(0, 17, 0), ErrOutOfRange)
	assert.ErrorIs(t, b.InsertPositions([]int{3, 99}, 1), ErrOutOfRange)

	_, err = New(100).Extract(0, 65)
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.Panics(t, func() { b.MustExtract(0, 20) })
}

func TestExtractPositions(t *testing.T) {
	b := FromUint(0xA5, 8) // 1010 0101
	got, err := b.ExtractPositions([]int{7, 0, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1110), got)
}

func TestInsertIsInverseOfExtract(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "n")
		begin := rapid.IntRange(0, n-1).Draw(t, "begin")
		width := rapid.IntRange(0, min(64, n-begin)).Draw(t, "width")
		v := rapid.Uint64().Draw(t, "v")
		if width < 64 {
			v &= (1 << width) - 1
		}

		b := New(n)
		require.NoError(t, b.Insert(begin, begin+width, v))
		got, err := b.Extract(begin, begin+width)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})
}

func TestPositionsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 128).Draw(t, "n")
		pos := rapid.SliceOfNDistinct(rapid.IntRange(0, n-1), 0, min(n, 64), func(x int) int { return x }).Draw(t, "pos")
		v := rapid.Uint64().Draw(t, "v")
		if len(pos) < 64 {
			v &= (1 << len(pos)) - 1
		}

		b := New(n)
		require.NoError(t, b.InsertPositions(pos, v))
		got, err := b.ExtractPositions(pos)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})
}

func TestSwab(t *testing.T) {
	b := FromUint(0b1100, 4)
	table := []int{3, 2, 1, 0}

	out, err := b.Swab(table)
	require.NoError(t, err)
	assert.Equal(t, Bits{0, 0, 1, 1}, out)

	back := New(4)
	require.NoError(t, out.Unswab(back, table))
	assert.Equal(t, b, back)

	_, err = b.Swab([]int{4})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBytes(t *testing.T) {
	data := []byte{0x55, 0x75, 0xF5, 0xFF, 0x77, 0xFF}
	assert.Equal(t, data, FromBytes(data).Bytes())

	// partial trailing octet is zero padded
	assert.Equal(t, []byte{0xE0}, Bits{1, 1, 1}.Bytes())
}

func TestDibits(t *testing.T) {
	b, err := FromDibits([]uint8{1, 1, 1, 1, 3, 1})
	require.NoError(t, err)
	v, err := b.Extract(0, 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x55D), v)

	d, err := b.Dibits()
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 1, 1, 1, 3, 1}, d)

	_, err = FromDibits([]uint8{4})
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Bits{1}.Dibits()
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestStripStatus(t *testing.T) {
	raw := make([]uint8, 72)
	for i := range raw {
		raw[i] = uint8(i % 3)
	}
	raw[35] = 3
	raw[71] = 2

	payload, status := StripStatus(raw)
	assert.Len(t, payload, 70)
	assert.Equal(t, []uint8{3, 2}, status)
	assert.Equal(t, raw[36], payload[35])

	back, err := RestoreStatus(payload, status)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = RestoreStatus(payload, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIsStatusIndex(t *testing.T) {
	assert.False(t, IsStatusIndex(0))
	assert.False(t, IsStatusIndex(34))
	assert.True(t, IsStatusIndex(35))
	assert.False(t, IsStatusIndex(36))
	assert.True(t, IsStatusIndex(71))
}
