package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
)

type DB struct {
	*gorm.DB
	path string
}

// Options controls how the SQLite store is opened
type Options struct {
	Path               string
	Verbose            bool
	MaxOpenConnections int
	MaxIdleConnections int
	BusyTimeout        time.Duration
}

// Initialize creates a new database connection with default pool settings
func Initialize(dbPath string, verbose bool) (*DB, error) {
	return Open(Options{Path: dbPath, Verbose: verbose})
}

// Open creates a new database connection with the provided configuration
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Ensure the database directory exists
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Configure GORM logger
	logLevel := logger.Error
	if opts.Verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open(dsn(opts)), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	maxOpen := opts.MaxOpenConnections
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := opts.MaxIdleConnections
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{DB: db, path: opts.Path}, nil
}

// dsn adds the connection parameters every pooled connection needs: WAL so
// readers proceed during a rebuild, a busy timeout for writer contention,
// immediate transactions so read-then-write transactions do not deadlock.
func dsn(opts Options) string {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	params := []string{
		fmt.Sprintf("_busy_timeout=%d", busy.Milliseconds()),
		"_foreign_keys=on",
		"_txlock=immediate",
	}
	if !strings.Contains(opts.Path, ":memory:") {
		params = append(params, "_journal_mode=WAL")
	}

	sep := "?"
	if strings.Contains(opts.Path, "?") {
		sep = "&"
	}
	return opts.Path + sep + strings.Join(params, "&")
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// AutoMigrate runs GORM auto migration for the provided models
func (db *DB) AutoMigrate(models ...any) error {
	if err := db.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	logging.Component("database").Debugf("migrated %d model(s)", len(models))
	return nil
}

// Migrate creates or updates every table the application uses
func (db *DB) Migrate() error {
	return db.AutoMigrate(models.AllModels()...)
}

// Size returns the on-disk size of the database including its WAL file
func (db *DB) Size() int64 {
	var total int64
	for _, p := range []string{db.path, db.path + "-wal"} {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
