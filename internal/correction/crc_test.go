package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16CCITT(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected uint16
	}{
		{
			name:     "check string",
			input:    []byte("123456789"),
			expected: 0xCE3C,
		},
		{
			name:     "RFSS status TSBK",
			input:    []byte{0x3a, 0x00, 0x00, 0x12, 0xae, 0x01, 0x01, 0x33, 0x48, 0x70},
			expected: 0x4A54,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CRC16CCITT(tt.input)
			if result != tt.expected {
				t.Errorf("CRC16CCITT() = 0x%04X, want 0x%04X", result, tt.expected)
			}
		})
	}
}

func TestCheckCRC16CCITT(t *testing.T) {
	block := []byte{0x3a, 0x00, 0x00, 0x12, 0xae, 0x01, 0x01, 0x33, 0x48, 0x70, 0x4a, 0x54}
	assert.True(t, CheckCRC16CCITT(block))

	block[4] ^= 0x01
	assert.False(t, CheckCRC16CCITT(block))

	assert.False(t, CheckCRC16CCITT([]byte{0x00}))
}

func TestCRC9(t *testing.T) {
	tests := []struct {
		name     string
		serial   uint8
		data     []byte
		expected uint16
	}{
		{"zero block", 0, make([]byte, 16), 0x1FF},
		{"counting block", 5, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, 0x11C},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CRC9(tt.serial, tt.data)
			if result != tt.expected {
				t.Errorf("CRC9() = 0x%03X, want 0x%03X", result, tt.expected)
			}
		})
	}
}

func TestCRC32(t *testing.T) {
	if got := CRC32([]byte("123456789")); got != 0x765E7680 {
		t.Errorf("CRC32() = 0x%08X, want 0x765E7680", got)
	}
}
