package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/similarity"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: logger.Discard()}
}

func TestOpenSimilarityTables_File(t *testing.T) {
	dir := t.TempDir()

	tables, closer, err := OpenSimilarityTables(config.SimilarityConfig{Backend: "file", Dir: dir}, testLogger())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &similarity.FileStore{}, tables)

	table := similarity.Table{}
	table.Set("a", "b", 0.5)
	require.NoError(t, tables.Save(context.Background(), "horror", 0, table))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestOpenSimilarityTables_SQLite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")

	tables, closer, err := OpenSimilarityTables(config.SimilarityConfig{Backend: "sqlite", Dir: dir}, testLogger())
	require.NoError(t, err)
	require.NotNil(t, closer)
	t.Cleanup(func() { _ = closer() })
	assert.IsType(t, &sqlite.Store{}, tables)

	table := similarity.Table{}
	table.Set("a", "b", 0.5)
	require.NoError(t, tables.Save(context.Background(), "horror", 0, table))

	row, err := tables.LoadAllForGenre(context.Background(), "horror", "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, row["b"], 1e-9)

	_, err = os.Stat(filepath.Join(dir, "similarity.db"))
	assert.NoError(t, err)
}
