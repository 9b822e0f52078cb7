package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comedor-backend/internal/models"
)

func TestOpenMigrateAndSeed(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "comedor.sqlite")

	db, err := Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, SeedShifts(db))
	// Second seed is a no-op.
	require.NoError(t, SeedShifts(db))

	var shifts []models.Shift
	require.NoError(t, db.Order("start_minute asc").Find(&shifts).Error)
	require.Len(t, shifts, 4)
	assert.Equal(t, models.ShiftBreakfast, shifts[0].Name)
	assert.Equal(t, models.ShiftColdRation, shifts[3].Name)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}
