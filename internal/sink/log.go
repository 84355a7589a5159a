package sink

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// LogSink writes one line per frame.
type LogSink struct {
	logger *log.Logger
	desc   Describer
}

// NewLogSink creates a log sink.
func NewLogSink(logger *log.Logger, desc Describer) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger.WithPrefix("frame"), desc: desc}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, f p25.Frame) error {
	r := s.desc.Describe(f)
	kv := []interface{}{"nac", r.NAC, "nid_errors", r.NIDErrors, "corrected", r.Corrected}
	if r.Group != "" {
		kv = append(kv, "group", r.Group)
	}
	if r.Unit != "" {
		kv = append(kv, "unit", r.Unit)
	}
	msg := r.Type + " " + r.Summary
	if r.Failed {
		s.logger.Warn(msg, kv...)
		return nil
	}
	s.logger.Info(msg, kv...)
	return nil
}

func (s *LogSink) Close() error { return nil }
