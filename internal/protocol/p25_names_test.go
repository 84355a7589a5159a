package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"duid", DUIDName(DUID_LDU1), "Logical Link Data Unit 1"},
		{"duid short", DUIDShortName(DUID_TDULC), "TDULC"},
		{"duid unknown", DUIDName(0x1), "Unknown (1)"},
		{"mfid", MFIDName(MFID_MOTOROLA), "Motorola"},
		{"mfid unknown", MFIDName(0x91), "Unknown (91)"},
		{"algid", ALGIDName(ALGID_UNENCRYPTED), "Unencrypted message"},
		{"algid aes", ALGIDName(0x84), "AES-256"},
		{"nac", NACName(P25_NAC_DEFAULT), "Default NAC"},
		{"nac unknown", NACName(0x123), "Unknown (123)"},
		{"lco", LCOName(LCO_CALL_TERMINATION), "Call Termination / Cancellation"},
		{"opcode", OpcodeName(TSBK_IDEN_UP), "Identifier Update"},
		{"pdu format", PDUFormatName(PDU_FMT_AMBT), "Alternate Multiple Block Trunking"},
		{"pdu format unknown", PDUFormatName(0x1F), "Unknown (1f)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestIsStandardMFID(t *testing.T) {
	assert.True(t, IsStandardMFID(0x00))
	assert.True(t, IsStandardMFID(0x01))
	assert.False(t, IsStandardMFID(MFID_MOTOROLA))
}
