// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/db"
)

// New returns a migrated, empty database private to the test.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}
	conn.Logger = logger.Discard
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}
