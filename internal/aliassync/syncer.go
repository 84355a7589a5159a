// Package aliassync imports talkgroup and unit lists in CSV form, such as
// the exports of radio directories, into the alias table.
package aliassync

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/database"
)

const (
	// DefaultSyncInterval is how often the source is imported again
	DefaultSyncInterval = 24 * time.Hour

	// RequestTimeout for HTTP requests
	RequestTimeout = 30 * time.Second

	// MaxRetries for failed downloads
	MaxRetries = 3
)

// RetryDelay between download attempts
var RetryDelay = 5 * time.Second

// ErrNoAliases is returned when a source holds no usable rows.
var ErrNoAliases = errors.New("aliassync: no valid aliases found")

// Syncer imports a CSV list into the alias repository, once or
// periodically.
type Syncer struct {
	repository   *database.AliasRepository
	logger       *log.Logger
	source       string
	kind         string
	syncInterval time.Duration
	httpClient   *http.Client
}

// Config holds configuration for the syncer
type Config struct {
	Source       string        // http(s) URL or file path
	Kind         string        // database.KindUnit or database.KindGroup
	SyncInterval time.Duration // default 24 hours
	HTTPTimeout  time.Duration // default 30 seconds
}

// NewSyncer creates a syncer.
func NewSyncer(repository *database.AliasRepository, logger *log.Logger, config Config) (*Syncer, error) {
	if config.Source == "" {
		return nil, errors.New("aliassync: source is empty")
	}
	if config.Kind != database.KindUnit && config.Kind != database.KindGroup {
		return nil, fmt.Errorf("aliassync: unknown kind %q", config.Kind)
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultSyncInterval
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = RequestTimeout
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Syncer{
		repository:   repository,
		logger:       logger.WithPrefix("aliassync"),
		source:       config.Source,
		kind:         config.Kind,
		syncInterval: config.SyncInterval,
		httpClient:   &http.Client{Timeout: config.HTTPTimeout},
	}, nil
}

// Start imports now and then on every interval until ctx is done.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("alias syncer starting", "source", s.source, "interval", s.syncInterval)

	if err := s.SyncNow(ctx); err != nil {
		s.logger.Warn("initial alias sync failed", "err", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alias syncer stopping")
			return
		case <-ticker.C:
			if err := s.SyncNow(ctx); err != nil {
				s.logger.Warn("alias sync failed", "err", err)
			}
		}
	}
}

// SyncNow performs an immediate import.
func (s *Syncer) SyncNow(ctx context.Context) error {
	startTime := time.Now()

	var data io.ReadCloser
	var err error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		data, err = s.open(ctx)
		if err == nil {
			break
		}
		s.logger.Debug("open failed", "attempt", attempt, "of", MaxRetries, "err", err)

		if attempt < MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(RetryDelay):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("aliassync: failed to open after %d attempts: %w", MaxRetries, err)
	}
	defer data.Close()

	aliases, err := s.Parse(data)
	if err != nil {
		return fmt.Errorf("aliassync: failed to parse CSV: %w", err)
	}
	if len(aliases) == 0 {
		return ErrNoAliases
	}

	if err := s.repository.UpsertBatch(aliases); err != nil {
		return fmt.Errorf("aliassync: failed to import: %w", err)
	}

	s.logger.Info("alias sync completed", "kind", s.kind, "imported", len(aliases), "took", time.Since(startTime))
	return nil
}

func (s *Syncer) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(s.source, "http://") && !strings.HasPrefix(s.source, "https://") {
		return os.Open(s.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "p25cai/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %s", resp.Status)
	}
	return resp.Body, nil
}

// columns maps header names to the fields they fill.
var columns = map[string]string{
	"decimal":     "id",
	"dec":         "id",
	"id":          "id",
	"radio id":    "id",
	"alpha tag":   "name",
	"alias":       "name",
	"name":        "name",
	"tag":         "tag",
	"description": "description",
}

// Parse reads a CSV list whose first row names the columns. An id column
// ("Decimal", "ID") and a name column ("Alpha Tag", "Name") are required;
// "Tag" and "Description" are optional. Rows that do not parse are
// skipped.
func (s *Syncer) Parse(r io.Reader) ([]database.Alias, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := map[string]int{}
	for i, h := range header {
		if field, ok := columns[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	if _, ok := index["id"]; !ok {
		return nil, fmt.Errorf("no id column in %q", header)
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("no name column in %q", header)
	}

	get := func(record []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var aliases []database.Alias
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseUint(get(record, "id"), 10, 32)
		if err != nil {
			s.logger.Debug("skipping row", "line", line, "err", err)
			continue
		}
		a := database.Alias{
			Kind:        s.kind,
			ID:          uint32(id),
			Name:        get(record, "name"),
			Tag:         get(record, "tag"),
			Description: get(record, "description"),
		}
		if !a.IsValid() {
			s.logger.Debug("skipping row", "line", line, "id", id)
			continue
		}
		aliases = append(aliases, a)
	}
	return aliases, nil
}

// GetLastSyncTime returns when an alias was last written.
func (s *Syncer) GetLastSyncTime() (time.Time, error) {
	aliases, err := s.repository.GetRecentlyUpdated(time.Unix(0, 0), 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(aliases) == 0 {
		return time.Time{}, nil
	}
	return aliases[0].UpdatedAt, nil
}
