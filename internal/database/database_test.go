package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	db, err := Connect(dsn, Options{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// Migrate is repeatable.
	require.NoError(t, Migrate(db))

	for _, table := range []string{"professionals", "services", "weekly_rules", "date_exceptions", "bookings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgres("postgresql://localhost/db"))
	assert.False(t, IsPostgres("file:dev.db"))
}
