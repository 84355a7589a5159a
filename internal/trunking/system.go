package trunking

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/protocol"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// Site is the RFSS the control channel reports for itself.
type Site struct {
	SYID     uint16
	RFID     uint8
	STID     uint8
	Downlink uint64
	Uplink   uint64
}

// Network is the wide area network the system belongs to.
type Network struct {
	WACN     uint32
	SYID     uint16
	Downlink uint64
}

// SystemStats counts the control channel traffic seen.
type SystemStats struct {
	TSBKs     uint64
	CRCErrors uint64
	AMBTs     uint64
}

// GrantFunc is called with the downlink frequency of a voice grant whose
// channel identifier is known.
type GrantFunc func(frequency uint64, group uint16)

// System accumulates what the control channel tells about a trunked
// system. It is safe for concurrent use.
type System struct {
	logger  *log.Logger
	onGrant GrantFunc

	Channels *ChannelTable

	mu        sync.Mutex
	site      Site
	network   Network
	secondary map[uint64]struct{}
	adjacent  map[uint64]string
	stats     SystemStats
}

// NewSystem creates an empty tracker. onGrant may be nil.
func NewSystem(logger *log.Logger, onGrant GrantFunc) *System {
	if logger == nil {
		logger = log.Default()
	}
	return &System{
		logger:    logger.WithPrefix("trunking"),
		onGrant:   onGrant,
		Channels:  NewChannelTable(),
		secondary: make(map[uint64]struct{}),
		adjacent:  make(map[uint64]string),
	}
}

// Handle decodes the control channel messages of a frame and updates the
// system state. Frames other than TSDU and AMBT PDUs return nil.
func (s *System) Handle(f p25.Frame) []Message {
	switch v := f.(type) {
	case *p25.TSDU:
		var out []Message
		for _, b := range v.Blocks {
			s.count(func(st *SystemStats) { st.TSBKs++ })
			m, err := DecodeTSBK(b)
			if err != nil {
				s.count(func(st *SystemStats) { st.CRCErrors++ })
				s.logger.Debug("block dropped", "err", err)
				continue
			}
			s.apply(m)
			out = append(out, m)
		}
		return out
	case *p25.PDU:
		if v.Header.Format != protocol.PDU_FMT_AMBT {
			return nil
		}
		s.count(func(st *SystemStats) { st.AMBTs++ })
		m, err := DecodeAMBT(v)
		if err != nil {
			s.count(func(st *SystemStats) { st.CRCErrors++ })
			s.logger.Debug("packet dropped", "err", err)
			return nil
		}
		s.apply(m)
		return []Message{m}
	}
	return nil
}

func (s *System) apply(m Message) {
	switch v := m.(type) {
	case IdentifierUpdate:
		s.Channels.Update(v.Identifier)
	case GroupVoiceGrant:
		s.grant(v.Channel, v.Group)
	case GroupVoiceGrantUpdate:
		s.grant(v.Channel1, v.Group1)
	case RFSSStatus:
		down, ok := s.Channels.Frequency(v.Channel)
		if ok {
			up, _ := s.Channels.Uplink(v.Channel)
			s.mu.Lock()
			s.site = Site{SYID: v.SYID, RFID: v.RFID, STID: v.STID, Downlink: down, Uplink: up}
			s.mu.Unlock()
		}
	case SecondaryControlChannel:
		f1, ok1 := s.Channels.Frequency(v.Channel1)
		f2, ok2 := s.Channels.Frequency(v.Channel2)
		if ok1 && ok2 {
			s.mu.Lock()
			s.secondary[f1] = struct{}{}
			s.secondary[f2] = struct{}{}
			s.mu.Unlock()
		}
	case NetworkStatus:
		if f, ok := s.Channels.Frequency(v.Channel); ok {
			s.mu.Lock()
			s.network = Network{WACN: v.WACN, SYID: v.SYID, Downlink: f}
			s.mu.Unlock()
		}
	case AdjacentStatus:
		if f, ok := s.Channels.Frequency(v.Channel); ok {
			s.mu.Lock()
			s.adjacent[f] = fmt.Sprintf("rfid: %x stid:%x", v.RFID, v.STID)
			s.mu.Unlock()
		}
	}
	s.logger.Debug(m.Describe(s.Channels), "opcode", fmt.Sprintf("%02x", m.Opcode()))
}

func (s *System) grant(channel, group uint16) {
	if s.onGrant == nil {
		return
	}
	if f, ok := s.Channels.Frequency(channel); ok {
		s.onGrant(f, group)
	}
}

func (s *System) count(fn func(*SystemStats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}

// Site returns the last RFSS status whose channel could be resolved.
func (s *System) Site() Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.site
}

// Network returns the last network status whose channel could be resolved.
func (s *System) Network() Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.network
}

// Secondary returns the secondary control channel frequencies, ascending.
func (s *System) Secondary() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.secondary))
	for f := range s.secondary {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Adjacent returns the neighbouring sites keyed by frequency.
func (s *System) Adjacent() map[uint64]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]string, len(s.adjacent))
	for k, v := range s.adjacent {
		out[k] = v
	}
	return out
}

// Stats returns the traffic counters.
func (s *System) Stats() SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// String summarizes the system.
func (s *System) String() string {
	var lines []string
	if t := s.Channels.String(); t != "" {
		lines = append(lines, t)
	}

	st := s.Stats()
	lines = append(lines, fmt.Sprintf("stats: tsbks %d crc %d", st.TSBKs, st.CRCErrors))

	var sec []string
	for _, f := range s.Secondary() {
		sec = append(sec, FormatMHz(f))
	}
	lines = append(lines, "secondary control channel(s): "+strings.Join(sec, ","))

	adj := s.Adjacent()
	freqs := make([]uint64, 0, len(adj))
	for f := range adj {
		freqs = append(freqs, f)
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i] < freqs[j] })
	for _, f := range freqs {
		lines = append(lines, fmt.Sprintf("adjacent %s: %s", FormatMHz(f), adj[f]))
	}

	site, net := s.Site(), s.Network()
	lines = append(lines,
		fmt.Sprintf("rf: sysid %x rfid %x stid %x frequency %s uplink %s", site.SYID, site.RFID, site.STID, FormatMHz(site.Downlink), FormatMHz(site.Uplink)),
		fmt.Sprintf("net: sysid %x wacn %x frequency %s", net.SYID, net.WACN, FormatMHz(net.Downlink)))
	return strings.Join(lines, "\n")
}
