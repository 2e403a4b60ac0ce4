package inttest

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tally-app/tally/pkg/config"
	"github.com/tally-app/tally/pkg/storage"

	_ "github.com/lib/pq" // postgres driver
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SkipUnlessIntegration skips the test unless RUN_INTEGRATION_TESTS is set to true.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("set RUN_INTEGRATION_TESTS=true to run integration tests")
	}
}

// SetupDB creates a PostgreSQL container. Gorm is connected to the DB and runs the migrations.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	SkipUnlessIntegration(t)

	container, err := gnomock.Start(
		postgres.Preset(
			postgres.WithUser("tally", "tally"),
			postgres.WithDatabase("test_tally"),
		),
	)
	require.NoError(t, err, "failed to start DB")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop DB") })

	db, err := storage.NewDatabase(slog.Default(), config.Database{
		Driver:       config.DriverPostgres,
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     "tally",
		Password:     "tally",
		DatabaseName: "test_tally",
	})
	require.NoError(t, err, "failed to setup DB")
	return db
}

// SetupSQLiteDB creates an SQLite database in a temporary directory. Gorm is connected to the DB and
// runs the migrations. It needs no container so it's available to every test.
func SetupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.NewDatabase(slog.Default(), config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tally.db"),
	})
	require.NoError(t, err, "failed to setup DB")
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close(), "failed to close DB")
	})
	return db
}
