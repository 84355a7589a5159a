package protocol

// P25 common air interface constants

const (
	// Frame sync
	P25_FRAME_SYNC        = 0x5575F5FF77FF // 48-bit frame sync word
	P25_FRAME_SYNC_BITS   = 48
	P25_FRAME_SYNC_DIBITS = 24
	P25_SYNC_THRESHOLD    = 4 // a window correlates below this many bit errors

	// Network ID
	P25_NID_BITS   = 64
	P25_NID_DIBITS = 32

	// FS + NID including the status symbol that falls inside the NID
	P25_HEADER_DIBITS = 57

	// Symbol rate
	P25_SYMBOL_RATE = 4800 // symbols per second

	// Raw frame sizes in bits, status symbols included
	P25_HDU_BITS   = 792
	P25_LDU_BITS   = 1728
	P25_TDU_BITS   = 144
	P25_TDULC_BITS = 432

	// Voice
	P25_VOICE_FRAMES_PER_LDU = 9
	P25_IMBE_CODEWORD_BITS   = 144
	P25_IMBE_FRAME_MS        = 20
	P25_IMBE_SAMPLES         = 160 // 8 kHz PCM per IMBE frame

	// Trunking / packet blocks
	P25_MAX_TSBK_BLOCKS  = 3
	P25_MAX_PDU_BLOCKS   = 127
	P25_BLOCK_DIBITS     = 98
	P25_TSBK_OCTETS      = 12
	P25_CONFIRMED_OCTETS = 18
	P25_NAC_ANY_RECEIVE  = 0xF7E // receiver opens on any NAC
	P25_NAC_ANY_REPEAT   = 0xF7F // repeater retransmits any NAC
	P25_NAC_DEFAULT      = 0x293
)

// Data Unit IDs
const (
	DUID_HDU   = 0x0 // Header Data Unit
	DUID_TDU   = 0x3 // Terminator without Link Control
	DUID_LDU1  = 0x5 // Logical Link Data Unit 1
	DUID_TSDU  = 0x7 // Trunking Signaling Data Unit
	DUID_VPDU  = 0x9 // packet data framing (voice PDU)
	DUID_LDU2  = 0xA // Logical Link Data Unit 2
	DUID_PDU   = 0xC // Packet Data Unit
	DUID_TDULC = 0xF // Terminator with Link Control
)

// Link control opcodes (standard MFID)
const (
	LCO_GROUP_VOICE            = 0x00
	LCO_UNIT_TO_UNIT           = 0x03
	LCO_GROUP_VOICE_UPDATE     = 0x02
	LCO_TELEPHONE_INTERCONNECT = 0x06
	LCO_CALL_TERMINATION       = 0x0F
	LCO_ADJACENT_SITE          = 0x22
	LCO_RFSS_STATUS            = 0x23
	LCO_NETWORK_STATUS         = 0x24
	LCO_SECONDARY_CC           = 0x26
)

// Trunking signaling block opcodes (outbound, standard MFID)
const (
	TSBK_GROUP_VOICE_GRANT  = 0x00
	TSBK_GROUP_VOICE_UPDATE = 0x02
	TSBK_UNIT_TO_UNIT_GRANT = 0x04
	TSBK_SNDCP_DATA_CHANNEL = 0x16
	TSBK_IDEN_UP_VU         = 0x34
	TSBK_SECONDARY_CC       = 0x39
	TSBK_RFSS_STATUS        = 0x3A
	TSBK_NETWORK_STATUS     = 0x3B
	TSBK_ADJACENT_STATUS    = 0x3C
	TSBK_IDEN_UP            = 0x3D
)

// Packet data unit formats
const (
	PDU_FMT_RESPONSE    = 0x03
	PDU_FMT_UNCONFIRMED = 0x15
	PDU_FMT_CONFIRMED   = 0x16
	PDU_FMT_AMBT        = 0x17
)

// Manufacturer IDs with protocol meaning
const (
	MFID_STANDARD_PRE2001 = 0x00
	MFID_STANDARD         = 0x01
	MFID_MOTOROLA         = 0x90
)

// Algorithm IDs with protocol meaning
const (
	ALGID_UNENCRYPTED = 0x80
)
