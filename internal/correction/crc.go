package correction

import "github.com/sigurn/crc16"

// CRC-CCITT as used by trunking blocks and packet headers: poly 0x1021,
// zero init, complemented result.
var ccittTable = crc16.MakeTable(crc16.Params{
	Poly:   0x1021,
	Init:   0x0000,
	RefIn:  false,
	RefOut: false,
	XorOut: 0xFFFF,
	Check:  0xCE3C,
	Name:   "CRC-16/GSM",
})

// CRC16CCITT returns the 16-bit CRC of data.
func CRC16CCITT(data []byte) uint16 {
	return crc16.Checksum(data, ccittTable)
}

// CheckCRC16CCITT verifies a block whose last two octets hold the CRC of
// the octets before them.
func CheckCRC16CCITT(block []byte) bool {
	if len(block) < 2 {
		return false
	}
	n := len(block) - 2
	return CRC16CCITT(block[:n]) == uint16(block[n])<<8|uint16(block[n+1])
}

// CRC9 polynomial: x^9 + x^6 + x^4 + x^3 + 1
const CRC9_POLY = 0x259

// CRC9 returns the 9-bit CRC of a confirmed data block, computed over the
// 7-bit serial number followed by the data octets.
func CRC9(serial uint8, data []byte) uint16 {
	var crc uint16
	feed := func(bit uint16) {
		msb := (crc >> 8) & 1
		crc = (crc << 1) & 0x1FF
		if msb^bit != 0 {
			crc ^= CRC9_POLY & 0x1FF
		}
	}

	for i := 6; i >= 0; i-- {
		feed(uint16(serial>>uint(i)) & 1)
	}
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			feed(uint16(b>>uint(i)) & 1)
		}
	}
	return crc ^ 0x1FF
}

// CRC32 polynomial (MSB first, not reflected).
const CRC32_POLY = 0x04C11DB7

// CRC32 returns the packet CRC over the user data of a packet data unit.
func CRC32(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ CRC32_POLY
			} else {
				crc <<= 1
			}
		}
	}
	return crc ^ 0xFFFFFFFF
}
