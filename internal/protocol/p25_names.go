package protocol

import "fmt"

// Value tables used to render decoded fields. Lookups never affect
// decoding; unknown values render as "Unknown (<hex>)".

var duidNames = map[uint8]string{
	DUID_HDU:   "Header Data Unit",
	DUID_TDU:   "Terminator without Link Control",
	DUID_LDU1:  "Logical Link Data Unit 1",
	DUID_TSDU:  "Single Block Format Trunking Control Channel Packet",
	DUID_VPDU:  "Packet Data Unit (voice framing)",
	DUID_LDU2:  "Logical Link Data Unit 2",
	DUID_PDU:   "Packet Data Unit",
	DUID_TDULC: "Terminator with Link Control",
}

var duidShort = map[uint8]string{
	DUID_HDU:   "HDU",
	DUID_TDU:   "TDU",
	DUID_LDU1:  "LDU1",
	DUID_TSDU:  "TSDU",
	DUID_VPDU:  "VPDU",
	DUID_LDU2:  "LDU2",
	DUID_PDU:   "PDU",
	DUID_TDULC: "TDULC",
}

var algidNames = map[uint8]string{
	0x00: "ACCORDION 1.3",
	0x01: "BATON (Auto Even)",
	0x02: "FIREFLY Type 1",
	0x03: "MAYFLY Type 1",
	0x04: "SAVILLE",
	0x41: "BATON (Auto Odd)",
	0x80: "Unencrypted message",
	0x81: "DES-OFB",
	0x82: "2 key Triple DES",
	0x83: "3 key Triple DES",
	0x84: "AES-256",
	0x9F: "DES-XL",
	0xA0: "DVI-XL",
	0xA1: "DVP-XL",
}

var mfidNames = map[uint8]string{
	0x00: "Standard MFID (pre-2001)",
	0x01: "Standard MFID (post-2001)",
	0x09: "Aselsan Inc.",
	0x10: "Relm / BK Radio",
	0x18: "EADS Public Safety Inc.",
	0x20: "Cycomm",
	0x28: "Efratom Time and Frequency Products, Inc",
	0x30: "Com-Net Ericsson",
	0x34: "Etherstack",
	0x38: "Datron",
	0x40: "Icom",
	0x48: "Garmin",
	0x50: "GTE",
	0x55: "IFR Systems",
	0x5A: "INIT Innovations in Transportation, Inc",
	0x60: "GEC-Marconi",
	0x64: "Harris Corp.",
	0x68: "Kenwood Communications",
	0x70: "Glenayre Electronics",
	0x74: "Japan Radio Co.",
	0x78: "Kokusai",
	0x7C: "Maxon",
	0x80: "Midland",
	0x86: "Daniels Electronics Ltd.",
	0x90: "Motorola",
	0xA0: "Thales",
	0xA4: "M/A-COM",
	0xB0: "Raytheon",
	0xC0: "SEA",
	0xC8: "Securicor",
	0xD0: "ADI",
	0xD8: "Tait Electronics",
	0xE0: "Teletec",
	0xF0: "Transcrypt International",
	0xF8: "Vertex Standard",
	0xFC: "Zetron, Inc.",
}

var nacNames = map[uint16]string{
	P25_NAC_DEFAULT:     "Default NAC",
	P25_NAC_ANY_RECEIVE: "Receiver to open on any NAC",
	P25_NAC_ANY_REPEAT:  "Repeater to receive and retransmit any NAC",
}

var lcoNames = map[uint8]string{
	LCO_GROUP_VOICE:            "Group Voice Channel User",
	LCO_GROUP_VOICE_UPDATE:     "Group Voice Channel Update",
	LCO_UNIT_TO_UNIT:           "Unit to Unit Voice Channel User",
	LCO_TELEPHONE_INTERCONNECT: "Telephone Interconnect Voice Channel User",
	LCO_CALL_TERMINATION:       "Call Termination / Cancellation",
	LCO_ADJACENT_SITE:          "Adjacent Site Status Broadcast",
	LCO_RFSS_STATUS:            "RFSS Status Broadcast",
	LCO_NETWORK_STATUS:         "Network Status Broadcast",
	LCO_SECONDARY_CC:           "Secondary Control Channel Broadcast",
}

var opcodeNames = map[uint8]string{
	TSBK_GROUP_VOICE_GRANT:  "Group Voice Channel Grant",
	TSBK_GROUP_VOICE_UPDATE: "Group Voice Channel Grant Update",
	TSBK_UNIT_TO_UNIT_GRANT: "Unit to Unit Voice Channel Grant",
	TSBK_SNDCP_DATA_CHANNEL: "SNDCP Data Channel Grant",
	TSBK_IDEN_UP_VU:         "Identifier Update VHF/UHF",
	TSBK_SECONDARY_CC:       "Secondary Control Channel Broadcast",
	TSBK_RFSS_STATUS:        "RFSS Status Broadcast",
	TSBK_NETWORK_STATUS:     "Network Status Broadcast",
	TSBK_ADJACENT_STATUS:    "Adjacent Status Broadcast",
	TSBK_IDEN_UP:            "Identifier Update",
}

var pduFormatNames = map[uint8]string{
	PDU_FMT_RESPONSE:    "Response",
	PDU_FMT_UNCONFIRMED: "Unconfirmed Data",
	PDU_FMT_CONFIRMED:   "Confirmed Data",
	PDU_FMT_AMBT:        "Alternate Multiple Block Trunking",
}

func unknown(v uint64) string {
	return fmt.Sprintf("Unknown (%x)", v)
}

// DUIDName returns the long name of a Data Unit ID.
func DUIDName(duid uint8) string {
	if s, ok := duidNames[duid]; ok {
		return s
	}
	return unknown(uint64(duid))
}

// DUIDShortName returns the abbreviation of a Data Unit ID.
func DUIDShortName(duid uint8) string {
	if s, ok := duidShort[duid]; ok {
		return s
	}
	return unknown(uint64(duid))
}

// ALGIDName returns the name of an encryption algorithm ID.
func ALGIDName(algid uint8) string {
	if s, ok := algidNames[algid]; ok {
		return s
	}
	return unknown(uint64(algid))
}

// MFIDName returns the manufacturer name of an MFID.
func MFIDName(mfid uint8) string {
	if s, ok := mfidNames[mfid]; ok {
		return s
	}
	return unknown(uint64(mfid))
}

// NACName returns the name of a reserved NAC.
func NACName(nac uint16) string {
	if s, ok := nacNames[nac]; ok {
		return s
	}
	return unknown(uint64(nac))
}

// LCOName returns the name of a standard link control opcode.
func LCOName(lco uint8) string {
	if s, ok := lcoNames[lco]; ok {
		return s
	}
	return unknown(uint64(lco))
}

// OpcodeName returns the name of a standard TSBK opcode.
func OpcodeName(opcode uint8) string {
	if s, ok := opcodeNames[opcode]; ok {
		return s
	}
	return unknown(uint64(opcode))
}

// PDUFormatName returns the name of a packet data unit format.
func PDUFormatName(format uint8) string {
	if s, ok := pduFormatNames[format]; ok {
		return s
	}
	return unknown(uint64(format))
}

// IsStandardMFID reports whether an MFID selects the standard message set.
func IsStandardMFID(mfid uint8) bool {
	return mfid == MFID_STANDARD_PRE2001 || mfid == MFID_STANDARD
}
