package p25

import (
	"errors"
	"fmt"

	"github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
)

// Logic errors. They signal a framer bug, never channel noise.
var (
	ErrUnitComplete   = errors.New("p25: extend called on a complete data unit")
	ErrUnitIncomplete = errors.New("p25: decode called on an incomplete data unit")
	ErrUnitDecoded    = errors.New("p25: data unit already decoded")
	ErrInvalidDibit   = errors.New("p25: dibit out of range")
)

// State is the assembly state of a DataUnit.
type State int

const (
	Accumulating State = iota
	Complete
	Decoded
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Complete:
		return "complete"
	case Decoded:
		return "decoded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Payload offsets shared by every variant, in dibits after status removal.
const (
	headerPayloadDibits = 56 // FS + NID
	blockDibits         = protocol.P25_BLOCK_DIBITS
)

// DataUnit is a Data Unit being assembled from the dibit stream. It is
// created right after a valid NID, extended one dibit at a time until
// complete, decoded once and then discarded.
type DataUnit struct {
	nid     NID
	raw     []uint8 // dibits from the first FS dibit, status symbols included
	payload []uint8 // raw without status symbols
	need    int     // raw dibits required; grows for packet variants
	state   State
	blocks  int // packet variants: blocks expected including the header block
}

// NewDataUnit is the Data Unit factory. header holds the 57 raw dibits of
// frame sync and NID (including the status symbol inside the NID). It
// returns false for DUIDs that select no variant. A header of the wrong
// length is a programming error and panics.
func NewDataUnit(nid NID, header []uint8) (*DataUnit, bool) {
	if len(header) != protocol.P25_HEADER_DIBITS {
		panic(fmt.Sprintf("p25: data unit header has %d dibits, want %d", len(header), protocol.P25_HEADER_DIBITS))
	}

	u := &DataUnit{nid: nid}
	switch nid.DUID {
	case DUIDHDU:
		u.need = protocol.P25_HDU_BITS / 2
	case DUIDLDU1, DUIDLDU2:
		u.need = protocol.P25_LDU_BITS / 2
	case DUIDTDU:
		u.need = protocol.P25_TDU_BITS / 2
	case DUIDTDULC:
		u.need = protocol.P25_TDULC_BITS / 2
	case DUIDTSDU, DUIDPDU, DUIDVPDU:
		u.blocks = 1
		u.need = rawDibitsFor(headerPayloadDibits + blockDibits)
	default:
		return nil, false
	}

	u.raw = make([]uint8, 0, u.need)
	u.payload = make([]uint8, 0, u.need)
	for _, d := range header {
		u.push(d)
	}
	return u, true
}

// rawDibitsFor returns the raw dibit count, status symbols included, that
// carries the given number of payload dibits.
func rawDibitsFor(payload int) int {
	if payload <= 0 {
		return 0
	}
	return payload + (payload-1)/(bits.StatusPeriod-1)
}

func (u *DataUnit) push(d uint8) {
	if !bits.IsStatusIndex(len(u.raw)) {
		u.payload = append(u.payload, d)
	}
	u.raw = append(u.raw, d)
}

// DUID returns the unit's Data Unit ID.
func (u *DataUnit) DUID() DUID { return u.nid.DUID }

// NID returns the NID the unit was created from.
func (u *DataUnit) NID() NID { return u.nid }

// State returns the assembly state.
func (u *DataUnit) State() State { return u.state }

// IsComplete reports whether the unit holds all of its dibits.
func (u *DataUnit) IsComplete() bool { return u.state != Accumulating }

// Required returns the number of Extend calls still needed. For packet
// variants the value may grow after each block is examined.
func (u *DataUnit) Required() int {
	if u.state != Accumulating {
		return 0
	}
	return u.need - len(u.raw)
}

// Extend appends one dibit.
func (u *DataUnit) Extend(d uint8) error {
	if u.state != Accumulating {
		return ErrUnitComplete
	}
	if d > 3 {
		return fmt.Errorf("%w: %d", ErrInvalidDibit, d)
	}

	before := len(u.payload)
	u.push(d)

	if u.blocks > 0 && len(u.payload) != before {
		u.checkBlockBoundary()
	}
	if len(u.raw) >= u.need {
		u.state = Complete
	}
	return nil
}

// checkBlockBoundary runs when a packet variant finishes a 98-dibit block.
// The trunking variant continues until a block carries the last block flag;
// the packet variant learns its length from the header block.
func (u *DataUnit) checkBlockBoundary() {
	n := len(u.payload) - headerPayloadDibits
	if n <= 0 || n%blockDibits != 0 {
		return
	}
	done := n / blockDibits
	if done != u.blocks {
		return
	}
	block := u.payload[len(u.payload)-blockDibits:]

	switch u.nid.DUID {
	case DUIDTSDU:
		tsbk := decodeTSBK(block)
		if tsbk.OK && !tsbk.LastBlock && done < protocol.P25_MAX_TSBK_BLOCKS {
			u.blocks++
		}
	case DUIDPDU, DUIDVPDU:
		if done == 1 {
			header, status := decodePDUHeader(block)
			if status.OK {
				u.blocks += int(header.BlocksToFollow)
			}
		}
	}
	u.need = rawDibitsFor(headerPayloadDibits + u.blocks*blockDibits)
}

// Decode runs the unit's FEC pipeline and returns the decoded frame.
// Uncorrectable fields are reported in the frame, not as an error.
func (u *DataUnit) Decode() (Frame, error) {
	switch u.state {
	case Accumulating:
		return nil, ErrUnitIncomplete
	case Decoded:
		return nil, ErrUnitDecoded
	}
	u.state = Decoded

	payload, status := bits.StripStatus(u.raw)
	body, err := bits.FromDibits(payload)
	if err != nil {
		return nil, err
	}

	info := FrameInfo{
		NAC:       u.nid.NAC,
		DUID:      u.nid.DUID,
		NIDErrors: u.nid.Errors,
		Status:    status,
		Body:      body,
	}

	switch u.nid.DUID {
	case DUIDHDU:
		return decodeHDU(info), nil
	case DUIDLDU1:
		return decodeLDU1(info), nil
	case DUIDLDU2:
		return decodeLDU2(info), nil
	case DUIDTDU:
		return &TDU{FrameInfo: info}, nil
	case DUIDTDULC:
		return decodeTDULC(info), nil
	case DUIDTSDU:
		return decodeTSDU(info, payload), nil
	default:
		return decodePDU(info, payload), nil
	}
}
