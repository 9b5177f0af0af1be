// Package dbtest provides a migrated in-memory SQLite database for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"albumportal/internal/config"
	"albumportal/internal/database"
	"albumportal/internal/logging"
	"albumportal/internal/models"

	"gorm.io/gorm"
)

// Open returns a fresh, migrated database private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.Database{
		Driver:          config.DriverSQLite,
		Name:            fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Timeout:         5 * time.Second,
		ConnectAttempts: 1,
	}
	db, err := database.Open(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get connection pool: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, models.AlbumTableDefault); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// InsertAlbums stores albums in the default album table.
func InsertAlbums(t *testing.T, db *gorm.DB, albums ...models.Album) {
	t.Helper()
	for i := range albums {
		if err := db.Table(string(models.AlbumTableDefault)).Create(&albums[i]).Error; err != nil {
			t.Fatalf("failed to insert album %q: %v", albums[i].AlbumName, err)
		}
	}
}
