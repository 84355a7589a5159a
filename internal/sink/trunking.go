package sink

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
	"github.com/dbehnke/p25cai/internal/trunking"
)

// TrunkingSink feeds control channel frames to a system tracker.
type TrunkingSink struct {
	System *trunking.System
	logger *log.Logger
}

// NewTrunkingSink wraps sys.
func NewTrunkingSink(sys *trunking.System, logger *log.Logger) *TrunkingSink {
	if logger == nil {
		logger = log.Default()
	}
	return &TrunkingSink{System: sys, logger: logger.WithPrefix("cc")}
}

func (s *TrunkingSink) Name() string { return "trunking" }

func (s *TrunkingSink) Send(_ context.Context, f p25.Frame) error {
	for _, m := range s.System.Handle(f) {
		if _, ok := m.(trunking.Unknown); ok {
			continue
		}
		s.logger.Info(m.Describe(s.System.Channels), "opcode", fmt.Sprintf("%02x", m.Opcode()))
	}
	return nil
}

// Close logs the final state of the system.
func (s *TrunkingSink) Close() error {
	s.logger.Debug("system\n" + s.System.String())
	return nil
}
