package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE tile_probe (id INTEGER PRIMARY KEY, tile_id TEXT, status TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "tile_probe")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}
	assert.Equal(t, "integer", colMap["id"].Type)
	assert.Equal(t, "PRI", colMap["id"].Key)
	assert.Equal(t, "text", colMap["tile_id"].Type)
	assert.Equal(t, "text", colMap["status"].Type)

	// PRAGMA table_info returns an empty result for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestHasColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE tile_probe (id INTEGER PRIMARY KEY, tile_id TEXT)").Error)

	missing, err := HasColumns(db, "tile_probe", "id", "TILE_ID", "attempts")
	require.NoError(t, err)
	assert.Equal(t, []string{"attempts"}, missing)
}
