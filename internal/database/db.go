package database

import (
	"database/sql"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path string // Path to SQLite database file, or ":memory:"
}

// DB wraps the GORM database instance
type DB struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewDB opens the database with the pure Go SQLite driver and migrates the
// frame log and alias tables.
func NewDB(config Config, log *log.Logger) (*DB, error) {
	var gormLog logger.Interface
	if log != nil {
		gormLog = logger.New(
			log.StandardLog(),
			logger.Config{
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// every connection to an in-memory database is a new database
	if strings.Contains(config.Path, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := configureSQLite(sqlDB); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&FrameRecord{}, &Alias{}); err != nil {
		return nil, err
	}

	if log == nil {
		log = discardLogger()
	}
	log.Info("database initialized", "path", config.Path)

	return &DB{db: db, logger: log}, nil
}

func discardLogger() *log.Logger { return log.New(io.Discard) }

func configureSQLite(sqlDB *sql.DB) error {
	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=memory",
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the underlying GORM database instance
func (db *DB) GetDB() *gorm.DB {
	return db.db
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Stats returns database connection statistics, or zero stats when the
// connection pool is unavailable.
func (db *DB) Stats() sql.DBStats {
	sqlDB, err := db.db.DB()
	if err != nil {
		db.logger.Error("database stats unavailable", "err", err)
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}
