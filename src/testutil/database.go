package testutil

import (
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pondermatic/strategy11-challenge/src/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var migrationPath = "file://" + filepath.Join(utils.FindProjectRoot(), "migrations")

// SetupTestDB connects to TEST_DB_URL and migrates it up. The test is skipped
// when no test database is configured.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := GetEnv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	migration, err := migrate.New(migrationPath, dsn)
	if err != nil {
		t.Fatalf("failed to create migrate: %v", err)
	}
	if err := migration.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migration up: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *gorm.DB) {
	if err := db.Exec("DELETE FROM transients").Error; err != nil {
		t.Logf("Warning: Failed to clean up test data: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
