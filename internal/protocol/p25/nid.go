// Package p25 models the P25 Data Units: incremental assembly of a unit's
// dibits after frame sync, the per-variant FEC pipelines, and the decoded
// frames handed to sinks and vocoders.
package p25

import (
	"fmt"

	"github.com/dbehnke/p25cai/internal/correction"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// DUID is the 4-bit Data Unit ID carried in the NID.
type DUID uint8

const (
	DUIDHDU   DUID = protocol.DUID_HDU
	DUIDTDU   DUID = protocol.DUID_TDU
	DUIDLDU1  DUID = protocol.DUID_LDU1
	DUIDTSDU  DUID = protocol.DUID_TSDU
	DUIDVPDU  DUID = protocol.DUID_VPDU
	DUIDLDU2  DUID = protocol.DUID_LDU2
	DUIDPDU   DUID = protocol.DUID_PDU
	DUIDTDULC DUID = protocol.DUID_TDULC
)

// String returns the short name of the DUID.
func (d DUID) String() string {
	return protocol.DUIDShortName(uint8(d))
}

// Name returns the long name of the DUID.
func (d DUID) Name() string {
	return protocol.DUIDName(uint8(d))
}

// Known reports whether the DUID selects a Data Unit variant.
func (d DUID) Known() bool {
	switch d {
	case DUIDHDU, DUIDTDU, DUIDLDU1, DUIDTSDU, DUIDVPDU, DUIDLDU2, DUIDPDU, DUIDTDULC:
		return true
	}
	return false
}

// NID is a decoded Network ID.
type NID struct {
	NAC    uint16
	DUID   DUID
	Errors int    // bits corrected by the BCH decoder
	Raw    uint64 // received codeword
}

// EncodeNID builds the 64-bit NID codeword for a NAC and DUID.
func EncodeNID(nac uint16, duid DUID) uint64 {
	return correction.BCH64Encode((nac&0xFFF)<<4 | uint16(duid&0xF))
}

// DecodeNID corrects a received NID codeword. An uncorrectable NID aborts
// the candidate frame.
func DecodeNID(raw uint64) (NID, error) {
	data, errors, err := correction.BCH64Decode(raw)
	if err != nil {
		return NID{Raw: raw}, fmt.Errorf("nid: %w", err)
	}
	return NID{
		NAC:    data >> 4,
		DUID:   DUID(data & 0xF),
		Errors: errors,
		Raw:    raw,
	}, nil
}
