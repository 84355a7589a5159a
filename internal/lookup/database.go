package lookup

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/dbehnke/p25cai/internal/database"
)

// DatabaseConfig holds the cache settings of a DatabaseLookup.
type DatabaseConfig struct {
	EnableCache bool
	CacheSize   int           // default 1000
	CacheExpiry time.Duration // default 5 minutes
}

type cacheKey struct {
	kind Kind
	id   uint32
}

type cacheEntry struct {
	name  string
	found bool
}

// DatabaseLookup serves aliases from the alias table with a small cache
// in front of it. Misses are cached too, and count as misses when served
// from the cache.
type DatabaseLookup struct {
	repository *database.AliasRepository
	logger     *log.Logger
	config     DatabaseConfig

	mutex         sync.Mutex
	cache         map[cacheKey]cacheEntry
	lastClearTime time.Time

	lookupCount uint32
	hitCount    uint32
	missCount   uint32
	errorCount  uint32
	lastAccess  time.Time
}

// NewDatabaseLookup creates a lookup over an alias repository.
func NewDatabaseLookup(repository *database.AliasRepository, config DatabaseConfig, logger *log.Logger) *DatabaseLookup {
	if config.CacheSize <= 0 {
		config.CacheSize = 1000
	}
	if config.CacheExpiry <= 0 {
		config.CacheExpiry = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DatabaseLookup{
		repository:    repository,
		logger:        logger.WithPrefix("lookup"),
		config:        config,
		cache:         make(map[cacheKey]cacheEntry),
		lastClearTime: time.Now(),
	}
}

// Find implements AliasLookup.
func (d *DatabaseLookup) Find(kind Kind, id uint32) (string, bool) {
	key := cacheKey{kind, id}

	d.mutex.Lock()
	d.lookupCount++
	d.lastAccess = time.Now()
	if d.config.EnableCache {
		d.clearExpiredCache()
		if e, ok := d.cache[key]; ok {
			if e.found {
				d.hitCount++
			} else {
				d.missCount++
			}
			d.mutex.Unlock()
			return e.name, e.found
		}
	}
	d.mutex.Unlock()

	alias, err := d.repository.Get(string(kind), id)
	found := err == nil

	d.mutex.Lock()
	defer d.mutex.Unlock()
	switch {
	case found:
		d.hitCount++
	case errors.Is(err, gorm.ErrRecordNotFound):
		d.missCount++
	default:
		d.errorCount++
		d.logger.Debug("alias query failed", "kind", kind, "id", id, "err", err)
		return "", false
	}

	var e cacheEntry
	if found {
		e = cacheEntry{name: alias.Name, found: true}
	}
	if d.config.EnableCache {
		if len(d.cache) >= d.config.CacheSize {
			d.evictHalf()
		}
		d.cache[key] = e
	}
	return e.name, e.found
}

// Name implements AliasLookup.
func (d *DatabaseLookup) Name(kind Kind, id uint32) string { return name(d.Find, kind, id) }

// Start checks the database connection.
func (d *DatabaseLookup) Start() error {
	if err := d.repository.HealthCheck(); err != nil {
		return fmt.Errorf("database connection check failed: %w", err)
	}
	count, err := d.repository.Count("")
	if err != nil {
		return fmt.Errorf("failed to get initial alias count: %w", err)
	}
	d.logger.Debug("database lookup started", "entries", count)
	return nil
}

// Stop drops the cache.
func (d *DatabaseLookup) Stop() { d.clearCache() }

// ForceReload drops the cache so the next lookups hit the database.
func (d *DatabaseLookup) ForceReload() error {
	d.clearCache()
	return nil
}

// GetEntryCount implements AliasLookup.
func (d *DatabaseLookup) GetEntryCount() uint32 {
	count, err := d.repository.Count("")
	if err != nil {
		d.logger.Debug("alias count failed", "err", err)
		return 0
	}
	return uint32(count)
}

// GetStats implements AliasLookup. There are no reloads; lastReload is the
// last access.
func (d *DatabaseLookup) GetStats() (totalEntries, reloadCount, errorCount uint32, lastReload time.Time) {
	total := d.GetEntryCount()
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return total, 0, d.errorCount, d.lastAccess
}

// CacheStats returns lookups, hits and misses.
func (d *DatabaseLookup) CacheStats() (lookups, hits, misses uint32) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.lookupCount, d.hitCount, d.missCount
}

func (d *DatabaseLookup) clearCache() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.cache = make(map[cacheKey]cacheEntry)
	d.lastClearTime = time.Now()
}

func (d *DatabaseLookup) clearExpiredCache() {
	if time.Since(d.lastClearTime) > d.config.CacheExpiry {
		d.cache = make(map[cacheKey]cacheEntry)
		d.lastClearTime = time.Now()
	}
}

func (d *DatabaseLookup) evictHalf() {
	for k := range d.cache {
		delete(d.cache, k)
		if len(d.cache) <= d.config.CacheSize/2 {
			break
		}
	}
}
