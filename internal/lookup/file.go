package lookup

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/dbehnke/p25cai/internal/database"
)

// Entry is one alias in the YAML file.
type Entry struct {
	ID          uint32 `yaml:"id"`
	Name        string `yaml:"name"`
	Tag         string `yaml:"tag,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// File is the layout of an alias file:
//
//	units:
//	  - id: 1234567
//	    name: Engine 1
//	groups:
//	  - id: 2001
//	    name: Fire Dispatch
//	    tag: fire
type File struct {
	Units  []Entry `yaml:"units"`
	Groups []Entry `yaml:"groups"`
}

// Aliases flattens the file into database rows.
func (f File) Aliases() []database.Alias {
	out := make([]database.Alias, 0, len(f.Units)+len(f.Groups))
	add := func(kind string, entries []Entry) {
		for _, e := range entries {
			out = append(out, database.Alias{Kind: kind, ID: e.ID, Name: e.Name, Tag: e.Tag, Description: e.Description})
		}
	}
	add(database.KindUnit, f.Units)
	add(database.KindGroup, f.Groups)
	return out
}

// FileLookup serves aliases from a YAML file, optionally reloading it in
// the background.
type FileLookup struct {
	filename string
	reload   time.Duration // 0 disables background reload
	logger   *log.Logger

	mutex   sync.RWMutex
	aliases map[Kind]map[uint32]string

	stopChan chan struct{}
	done     chan struct{}
	running  bool

	totalEntries   uint32
	lastReloadTime time.Time
	reloadCount    uint32
	errorCount     uint32
}

// NewFileLookup creates a lookup over filename. Nothing is read until
// Start or Read.
func NewFileLookup(filename string, reload time.Duration, logger *log.Logger) *FileLookup {
	if logger == nil {
		logger = log.Default()
	}
	return &FileLookup{
		filename: filename,
		reload:   reload,
		logger:   logger.WithPrefix("lookup"),
		aliases:  map[Kind]map[uint32]string{Unit: {}, Group: {}},
	}
}

// Load parses an alias file.
func Load(filename string) (File, error) {
	var f File
	data, err := os.ReadFile(filename)
	if err != nil {
		return f, fmt.Errorf("lookup: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("lookup: parse %s: %w", filename, err)
	}
	return f, nil
}

// Read loads the file and atomically replaces the served aliases. Entries
// without a name or with id 0 are skipped.
func (l *FileLookup) Read() error {
	f, err := Load(l.filename)
	if err != nil {
		l.mutex.Lock()
		l.errorCount++
		l.mutex.Unlock()
		return err
	}

	fresh := map[Kind]map[uint32]string{Unit: {}, Group: {}}
	var loaded uint32
	for _, a := range f.Aliases() {
		a.SanitizeFields()
		if !a.IsValid() {
			l.logger.Debug("skipping alias", "kind", a.Kind, "id", a.ID)
			continue
		}
		fresh[Kind(a.Kind)][a.ID] = a.Name
		loaded++
	}

	l.mutex.Lock()
	l.aliases = fresh
	l.totalEntries = loaded
	l.lastReloadTime = time.Now()
	l.reloadCount++
	l.mutex.Unlock()

	l.logger.Debug("aliases loaded", "file", l.filename, "entries", loaded)
	return nil
}

// Find implements AliasLookup.
func (l *FileLookup) Find(kind Kind, id uint32) (string, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	alias, ok := l.aliases[kind][id]
	return alias, ok
}

// Name implements AliasLookup.
func (l *FileLookup) Name(kind Kind, id uint32) string { return name(l.Find, kind, id) }

// Start reads the file and, with a reload interval, starts the reload
// goroutine.
func (l *FileLookup) Start() error {
	if err := l.Read(); err != nil {
		return fmt.Errorf("initial alias load failed: %w", err)
	}
	if l.reload <= 0 {
		return nil
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.running {
		return nil
	}
	l.running = true
	l.stopChan = make(chan struct{})
	l.done = make(chan struct{})
	go l.reloadLoop(l.stopChan, l.done)
	l.logger.Debug("background reload started", "interval", l.reload)
	return nil
}

// Stop ends the reload goroutine and waits for it.
func (l *FileLookup) Stop() {
	l.mutex.Lock()
	if !l.running {
		l.mutex.Unlock()
		return
	}
	l.running = false
	stop, done := l.stopChan, l.done
	l.mutex.Unlock()

	close(stop)
	<-done
}

// IsRunning reports whether the reload goroutine runs.
func (l *FileLookup) IsRunning() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.running
}

func (l *FileLookup) reloadLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.reload)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := l.Read(); err != nil {
				l.logger.Warn("alias reload failed", "err", err)
			}
		}
	}
}

// ForceReload implements AliasLookup.
func (l *FileLookup) ForceReload() error { return l.Read() }

// GetEntryCount implements AliasLookup.
func (l *FileLookup) GetEntryCount() uint32 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.totalEntries
}

// GetStats implements AliasLookup.
func (l *FileLookup) GetStats() (totalEntries, reloadCount, errorCount uint32, lastReload time.Time) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.totalEntries, l.reloadCount, l.errorCount, l.lastReloadTime
}

// ValidateFile checks that the alias file exists and is not empty.
func (l *FileLookup) ValidateFile() error {
	if l.filename == "" {
		return errors.New("lookup: alias filename is empty")
	}
	info, err := os.Stat(l.filename)
	if err != nil {
		return fmt.Errorf("lookup: alias file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("lookup: alias path is a directory: %s", l.filename)
	}
	if info.Size() == 0 {
		return fmt.Errorf("lookup: alias file is empty: %s", l.filename)
	}
	return nil
}
