// Package storage persists alerts and the camera directory with gorm.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/models"
)

const slowQueryThreshold = 200 * time.Millisecond

// Store is the gorm-backed alert repository and camera directory
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// Open connects to the database selected by DATABASE_DRIVER
func Open(cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DatabaseDSN)
	case "sqlite", "":
		path := cfg.SQLitePath
		if cfg.DatabaseDSN != "" {
			path = cfg.DatabaseDSN
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	level := gormlogger.Warn
	if cfg.DatabaseDebug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(logger, level)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseDriver, err)
	}

	if cfg.DatabaseDriver != "mysql" {
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info().Str("driver", cfg.DatabaseDriver).Msg("Database connected")
	return NewStore(db, logger), nil
}

// NewStore wraps an existing gorm connection
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate creates or updates the tables
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.CameraContext{}, &models.Alert{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter routes gorm's printf-style output into zerolog
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn().Msgf(format, args...)
}

func newGormLogger(logger zerolog.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
