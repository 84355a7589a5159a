package sink

import (
	"context"
	"fmt"

	"github.com/dbehnke/p25cai/internal/database"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// DatabaseSink logs every frame to the frames table.
type DatabaseSink struct {
	repo *database.FrameRepository
	desc Describer
	// Payload stores the packed frame with each row.
	Payload bool
}

// NewDatabaseSink writes through repo.
func NewDatabaseSink(repo *database.FrameRepository, desc Describer) *DatabaseSink {
	return &DatabaseSink{repo: repo, desc: desc}
}

func (s *DatabaseSink) Name() string { return "database" }

func (s *DatabaseSink) Send(_ context.Context, f p25.Frame) error {
	var payload []byte
	if s.Payload {
		payload = f.Info().Bytes()
	}
	rec := s.desc.Describe(f).DatabaseRecord(payload)
	if err := s.repo.Insert(&rec); err != nil {
		return fmt.Errorf("sink: insert %s: %w", rec.Type, err)
	}
	return nil
}

// Close leaves the database open; it is shared with the alias lookup.
func (s *DatabaseSink) Close() error { return nil }
