package framer

import (
	"sync"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// Stats is a snapshot of the framer counters.
type Stats struct {
	Syncs        uint64
	NIDFailures  uint64
	Unrecognized uint64
	NACFiltered  uint64
	LogicErrors  uint64
	Frames       map[p25.DUID]uint64

	// Frames carrying at least one uncorrectable field or degraded
	// voice codeword, and the bits or symbols corrected overall.
	FECFailures  uint64
	FECCorrected uint64
}

// TotalFrames returns the number of frames emitted.
func (s Stats) TotalFrames() uint64 {
	var n uint64
	for _, v := range s.Frames {
		n += v
	}
	return n
}

type stats struct {
	mu sync.Mutex
	s  Stats
}

func newStats() *stats {
	return &stats{s: Stats{Frames: make(map[p25.DUID]uint64)}}
}

func (st *stats) sync()         { st.add(func(s *Stats) { s.Syncs++ }) }
func (st *stats) nidFailure()   { st.add(func(s *Stats) { s.NIDFailures++ }) }
func (st *stats) unrecognized() { st.add(func(s *Stats) { s.Unrecognized++ }) }
func (st *stats) nacFiltered()  { st.add(func(s *Stats) { s.NACFiltered++ }) }
func (st *stats) logicError()   { st.add(func(s *Stats) { s.LogicErrors++ }) }

func (st *stats) frame(f p25.Frame) {
	corrected, failed := Health(f)
	st.add(func(s *Stats) {
		s.Frames[f.Info().DUID]++
		s.FECCorrected += uint64(corrected)
		if failed {
			s.FECFailures++
		}
	})
}

func (st *stats) add(fn func(*Stats)) {
	st.mu.Lock()
	fn(&st.s)
	st.mu.Unlock()
}

func (st *stats) snapshot() Stats {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.s
	out.Frames = make(map[p25.DUID]uint64, len(st.s.Frames))
	for k, v := range st.s.Frames {
		out.Frames[k] = v
	}
	return out
}

// Health sums the corrections made in a frame and reports whether any
// protected field could not be recovered.
func Health(f p25.Frame) (corrected int, failed bool) {
	corrected = f.Info().NIDErrors
	field := func(fs p25.FieldStatus) {
		corrected += fs.Errors
		failed = failed || !fs.OK
	}
	voice := func(v []p25.VoiceCodeword) {
		for _, c := range v {
			corrected += c.ET
			failed = failed || c.Degraded
		}
	}

	switch v := f.(type) {
	case *p25.HDU:
		field(v.Header)
	case *p25.LDU1:
		voice(v.Voice[:])
		field(v.LCStatus)
		field(p25.FieldStatus{Errors: v.LSD.Errors, OK: v.LSD.OK})
	case *p25.LDU2:
		voice(v.Voice[:])
		field(v.ESStatus)
		field(p25.FieldStatus{Errors: v.LSD.Errors, OK: v.LSD.OK})
	case *p25.TDULC:
		field(v.LCStatus)
	case *p25.TSDU:
		for _, b := range v.Blocks {
			field(p25.FieldStatus{Errors: b.Errors, OK: b.OK})
		}
	case *p25.PDU:
		field(v.HeaderStatus)
		for _, b := range v.Blocks {
			field(p25.FieldStatus{Errors: b.Errors, OK: b.OK})
		}
		failed = failed || (len(v.Blocks) > 0 && !v.PacketCRCOK)
	}
	return corrected, failed
}
