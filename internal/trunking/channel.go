package trunking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Identifier is one entry of the channel identifier table, announced by
// IDEN_UP and IDEN_UP_VU. Frequencies are in Hz.
type Identifier struct {
	ID        uint8
	Base      uint64
	Spacing   uint64
	Offset    int64 // transmit offset of the subscriber
	Bandwidth uint16
	VHFUHF    bool
}

// ChannelTable maps 16-bit channel numbers (4-bit identifier, 12-bit
// channel) to frequencies.
type ChannelTable struct {
	mu      sync.RWMutex
	entries map[uint8]Identifier
}

// NewChannelTable returns an empty table.
func NewChannelTable() *ChannelTable {
	return &ChannelTable{entries: make(map[uint8]Identifier)}
}

// Update stores an identifier.
func (t *ChannelTable) Update(id Identifier) {
	t.mu.Lock()
	t.entries[id.ID&0xF] = id
	t.mu.Unlock()
}

// Lookup returns the identifier for an id.
func (t *ChannelTable) Lookup(id uint8) (Identifier, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id&0xF]
	return e, ok
}

// Frequency returns the downlink frequency of a channel.
func (t *ChannelTable) Frequency(channel uint16) (uint64, bool) {
	e, ok := t.Lookup(uint8(channel >> 12))
	if !ok {
		return 0, false
	}
	return e.Base + e.Spacing*uint64(channel&0xFFF), true
}

// Uplink returns the subscriber transmit frequency of a channel.
func (t *ChannelTable) Uplink(channel uint16) (uint64, bool) {
	f, ok := t.Frequency(channel)
	if !ok {
		return 0, false
	}
	e, _ := t.Lookup(uint8(channel >> 12))
	return uint64(int64(f) + e.Offset), true
}

// ChannelString renders a channel as MHz when its identifier is known and
// as "<id>-<channel>" otherwise.
func (t *ChannelTable) ChannelString(channel uint16) string {
	if f, ok := t.Frequency(channel); ok {
		return FormatMHz(f)
	}
	return fmt.Sprintf("%x-%d", channel>>12, channel&0xFFF)
}

// String lists the known identifiers.
func (t *ChannelTable) String() string {
	t.mu.RLock()
	ids := make([]int, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var lines []string
	for _, id := range ids {
		e := t.entries[uint8(id)]
		lines = append(lines, fmt.Sprintf("tbl-id: %x frequency: %s step %s offset %.6f",
			id, FormatMHz(e.Base), FormatMHz(e.Spacing), float64(e.Offset)/1e6))
	}
	t.mu.RUnlock()
	return strings.Join(lines, "\n")
}

// FormatMHz renders Hz as MHz with six decimals.
func FormatMHz(hz uint64) string {
	return fmt.Sprintf("%.6f", float64(hz)/1e6)
}
