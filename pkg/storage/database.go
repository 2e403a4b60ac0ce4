package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tally-app/tally/pkg/config"
	"github.com/tally-app/tally/pkg/model"

	slogGorm "github.com/orandin/slog-gorm"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase connects to the database configured in c and migrates the schema.
func NewDatabase(logger *slog.Logger, c config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", c.Host, c.Username, c.Password, c.DatabaseName, c.Port)
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(c.Path + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", c.Driver)
	}

	databaseConfig := gorm.Config{
		Logger: slogGorm.New(
			slogGorm.WithHandler(logger.Handler()),
			slogGorm.WithSlowThreshold(200*time.Millisecond),
		),
		TranslateError: true,
		// timestamps are compared as text by SQLite so they all need the same location
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, &databaseConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %v", c.Driver, err)
	}

	if c.Driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite only allows a single writer. A single connection serializes transactions instead of
		// failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("failed to setup tracing of the database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.Member{},
		&model.Rule{},
		&model.Event{},
		&model.Vote{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return db, nil
}
