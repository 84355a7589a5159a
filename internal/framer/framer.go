// Package framer turns a stream of dibits into decoded P25 frames. It
// searches for frame sync, decodes the NID, picks the Data Unit variant,
// feeds it until complete and hands the decoded frame to the caller.
package framer

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/charmbracelet/log"

	pbits "github.com/dbehnke/p25cai/internal/bits"
	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// ErrInvalidDibit is returned by Receive for values outside 0..3.
var ErrInvalidDibit = errors.New("framer: dibit out of range")

// State is the synchronizer state.
type State int

const (
	SearchingSync State = iota
	Identifying
	Reading
)

func (s State) String() string {
	switch s {
	case SearchingSync:
		return "searching"
	case Identifying:
		return "identifying"
	case Reading:
		return "reading"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	syncMask   = 1<<protocol.P25_FRAME_SYNC_BITS - 1
	nidBegin   = protocol.P25_FRAME_SYNC_BITS
	nidEnd     = protocol.P25_FRAME_SYNC_BITS + protocol.P25_NID_BITS
	anyNAC     = 0
	syncDibits = protocol.P25_FRAME_SYNC_DIBITS
)

// Correlates reports whether a 48-bit window is close enough to frame sync.
func Correlates(window uint64) bool {
	return bits.OnesCount64((window^protocol.P25_FRAME_SYNC)&syncMask) < protocol.P25_SYNC_THRESHOLD
}

// Framer is the frame synchronizer. It is not safe for concurrent use by
// multiple feeders; Stats may be read from any goroutine.
type Framer struct {
	logger *log.Logger
	nac    uint16

	state  State
	window uint64
	filled int
	header []uint8
	unit   *p25.DataUnit

	stats *stats
}

// New creates a framer. nac selects the only NAC to emit; 0 emits all.
func New(logger *log.Logger, nac uint16) *Framer {
	if logger == nil {
		logger = log.Default()
	}
	return &Framer{
		logger: logger.WithPrefix("framer"),
		nac:    nac & 0xFFF,
		header: make([]uint8, 0, protocol.P25_HEADER_DIBITS),
		stats:  newStats(),
	}
}

// State returns the current synchronizer state.
func (f *Framer) State() State { return f.state }

// Stats returns a snapshot of the counters.
func (f *Framer) Stats() Stats { return f.stats.snapshot() }

// Reset drops any partial frame and returns to sync search.
func (f *Framer) Reset() {
	f.state = SearchingSync
	f.window = 0
	f.filled = 0
	f.header = f.header[:0]
	f.unit = nil
}

// Receive processes one dibit and returns the frame completed on it, if
// any. Errors are returned for invalid input and for assembly logic
// errors; in both cases the framer is left searching for sync.
func (f *Framer) Receive(d uint8) (p25.Frame, error) {
	if d > 3 {
		f.Reset()
		return nil, fmt.Errorf("%w: %d", ErrInvalidDibit, d)
	}

	switch f.state {
	case SearchingSync:
		f.search(d)
	case Identifying:
		f.identify(d)
	case Reading:
		return f.read(d)
	}
	return nil, nil
}

// Process feeds a slice of dibits and calls emit for every frame. It stops
// at the first error.
func (f *Framer) Process(dibits []uint8, emit func(p25.Frame)) error {
	for _, d := range dibits {
		frame, err := f.Receive(d)
		if err != nil {
			return err
		}
		if frame != nil {
			emit(frame)
		}
	}
	return nil
}

func (f *Framer) search(d uint8) {
	f.window = (f.window<<2 | uint64(d)) & syncMask
	if f.filled < syncDibits {
		f.filled++
		if f.filled < syncDibits {
			return
		}
	}
	if !Correlates(f.window) {
		return
	}

	f.stats.sync()
	f.header = f.header[:0]
	for i := syncDibits - 1; i >= 0; i-- {
		f.header = append(f.header, uint8(f.window>>(2*uint(i)))&3)
	}
	f.state = Identifying
}

func (f *Framer) identify(d uint8) {
	f.header = append(f.header, d)
	if len(f.header) < protocol.P25_HEADER_DIBITS {
		return
	}

	payload, _ := pbits.StripStatus(f.header)
	b, err := pbits.FromDibits(payload)
	if err != nil {
		// dibits were range checked on entry
		panic(err)
	}
	nid, err := p25.DecodeNID(b.MustExtract(nidBegin, nidEnd))
	if err != nil {
		f.stats.nidFailure()
		f.logger.Debug("NID rejected", "err", err)
		f.Reset()
		return
	}

	unit, ok := p25.NewDataUnit(nid, f.header)
	if !ok {
		f.stats.unrecognized()
		f.logger.Debug("unrecognized DUID", "nac", fmt.Sprintf("%03X", nid.NAC), "duid", fmt.Sprintf("%X", uint8(nid.DUID)))
		f.Reset()
		return
	}

	f.logger.Debug("sync", "nac", fmt.Sprintf("%03X", nid.NAC), "duid", nid.DUID, "nid_errors", nid.Errors)
	f.unit = unit
	f.state = Reading
}

func (f *Framer) read(d uint8) (p25.Frame, error) {
	if err := f.unit.Extend(d); err != nil {
		return nil, f.logicError(err)
	}
	if !f.unit.IsComplete() {
		return nil, nil
	}

	unit := f.unit
	f.Reset()

	frame, err := unit.Decode()
	if err != nil {
		return nil, f.logicError(err)
	}

	info := frame.Info()
	if f.nac != anyNAC && info.NAC != f.nac {
		f.stats.nacFiltered()
		return nil, nil
	}
	f.stats.frame(frame)
	return frame, nil
}

// logicError reports an assembly bug and resynchronizes.
func (f *Framer) logicError(err error) error {
	f.logger.Error("data unit logic error", "err", err)
	f.stats.logicError()
	f.Reset()
	return fmt.Errorf("framer: %w", err)
}
