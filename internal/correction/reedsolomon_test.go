package correction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestReedSolomonEncode(t *testing.T) {
	data := []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	cw, err := RS24_12.Encode(data)
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11,
		2, 11, 23, 34, 51, 29, 20, 16, 42, 54, 52, 6,
	}, cw)
}

func TestGF64Tables(t *testing.T) {
	assert.Equal(t, uint8(1), gf64Exp[0])
	assert.Equal(t, uint8(2), gf64Exp[1])
	assert.Equal(t, uint8(0x03), gf64Exp[6]) // x^6 = x + 1
	for x := 1; x < 64; x++ {
		assert.Equal(t, uint8(x), gf64Exp[gf64Log[x]], "exp(log(%d))", x)
	}
}

func TestReedSolomonPackageCodes(t *testing.T) {
	assert.Equal(t, []uint8{1, 57, 5, 45, 3, 57, 28, 48, 9, 60, 2, 33, 40}, RS24_12.generator)

	for _, rs := range []*ReedSolomon{RS24_12, RS24_16, RS36_20} {
		fresh := NewReedSolomon(rs.N(), rs.K())
		assert.Equal(t, fresh.generator, rs.generator, "RS (%d,%d)", rs.N(), rs.K())

		data := make([]uint8, rs.K())
		for i := range data {
			data[i] = uint8(i)
		}
		cw, err := rs.Encode(data)
		require.NoError(t, err)
		got, n, err := rs.Decode(cw)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, data, got)
	}
}

func TestReedSolomonParameters(t *testing.T) {
	tests := []struct {
		name   string
		rs     *ReedSolomon
		n, k   int
		radius int
	}{
		{"RS(24,12)", RS24_12, 24, 12, 6},
		{"RS(24,16)", RS24_16, 24, 16, 4},
		{"RS(36,20)", RS36_20, 36, 20, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.n, tt.rs.N())
			assert.Equal(t, tt.k, tt.rs.K())
			assert.Equal(t, tt.radius, tt.rs.Radius())
		})
	}
}

func TestReedSolomonCorrection(t *testing.T) {
	for _, rs := range []*ReedSolomon{RS24_12, RS24_16, RS36_20} {
		rs := rs
		t.Run(fmt.Sprintf("RS(%d,%d)", rs.N(), rs.K()), func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				data := rapid.SliceOfN(rapid.Uint8Range(0, 63), rs.K(), rs.K()).Draw(t, "data")
				positions := rapid.SliceOfNDistinct(rapid.IntRange(0, rs.N()-1), 0, rs.Radius(), func(p int) int { return p }).Draw(t, "positions")

				cw, err := rs.Encode(data)
				require.NoError(t, err)
				for _, p := range positions {
					cw[p] ^= rapid.Uint8Range(1, 63).Draw(t, "error")
				}

				got, errors, err := rs.Decode(cw)
				require.NoError(t, err)
				assert.Equal(t, data, got)
				assert.Equal(t, len(positions), errors)
			})
		})
	}
}

func TestReedSolomonBeyondRadius(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Uint8Range(0, 63), 20, 20).Draw(t, "data")
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, 35), 9, 9, func(p int) int { return p }).Draw(t, "positions")

		cw, err := RS36_20.Encode(data)
		require.NoError(t, err)
		for _, p := range positions {
			cw[p] ^= rapid.Uint8Range(1, 63).Draw(t, "error")
		}

		got, _, err := RS36_20.Decode(cw)
		if err != nil {
			assert.ErrorIs(t, err, ErrUncorrectable)
			return
		}
		assert.NotEqual(t, data, got)
	})
}

func TestReedSolomonInvalidInput(t *testing.T) {
	_, err := RS24_12.Encode(make([]uint8, 11))
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := make([]uint8, 12)
	bad[3] = 64
	_, err = RS24_12.Encode(bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = RS24_16.Decode(make([]uint8, 23))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Panics(t, func() { NewReedSolomon(64, 20) })
}
