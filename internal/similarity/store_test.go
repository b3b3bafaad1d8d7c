package similarity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tables")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestFileStore(t)

	table := Table{}
	table.Set("a", "b", 0.4)

	require.NoError(t, s.Save(ctx, "Science Fiction", 0, table))
	assert.FileExists(t, filepath.Join(dir, StorageKey("science fiction")+"-0.json"))

	got, err := s.Load(ctx, "science fiction", 0)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, StorageKey("science fiction"), StorageKey("  Science Fiction "))
	assert.Regexp(t, `^science_fiction\.[0-9a-f]{16}$`, StorageKey("science fiction"))

	assert.NotEqual(t, StorageKey("sci-fi"), StorageKey("sci fi"))
	assert.NotEqual(t, StorageKey("роман"), StorageKey("物語"))
	assert.NotEqual(t, StorageKey("роман"), StorageKey(""))
}

func TestFileStore_SlugCollisionsKeptApart(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFileStore(t)

	for _, g := range []string{"sci-fi", "sci fi", "роман", "物語"} {
		table := Table{}
		table.Set(g+"-a", g+"-b", 0.5)
		require.NoError(t, s.Save(ctx, g, 0, table))
	}

	for _, g := range []string{"sci-fi", "sci fi", "роман", "物語"} {
		chunks, err := s.Chunks(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, chunks, "genre %q", g)

		row, err := s.LoadAllForGenre(ctx, g, g+"-a")
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{g + "-b": 0.5}, row, "genre %q", g)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s, _ := newTestFileStore(t)

	got, err := s.Load(context.Background(), "horror", 3)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	s, _ := newTestFileStore(t)
	require.NoError(t, os.WriteFile(s.path("horror", 0), []byte("{"), 0o644))

	_, err := s.Load(context.Background(), "horror", 0)
	assert.Error(t, err)
}

func TestFileStore_LoadAllForGenre(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFileStore(t)

	first := Table{}
	first.Set("a", "b", 0.3)
	second := Table{}
	second.Set("a", "c", 0.6)
	second.Set("c", "d", 0.2)
	other := Table{}
	other.Set("a", "z", 0.9)

	require.NoError(t, s.Save(ctx, "fantasy", 0, first))
	require.NoError(t, s.Save(ctx, "fantasy", 1, second))
	require.NoError(t, s.Save(ctx, "horror", 0, other))

	row, err := s.LoadAllForGenre(ctx, "fantasy", "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"b": 0.3, "c": 0.6}, row)

	row, err = s.LoadAllForGenre(ctx, "poetry", "a")
	require.NoError(t, err)
	assert.Empty(t, row)
}

func TestFileStore_ChunksAndReset(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFileStore(t)

	for _, c := range []int{10, 2, 0} {
		require.NoError(t, s.Save(ctx, "fantasy", c, Table{}))
	}
	require.NoError(t, s.Save(ctx, "fantasy epic", 0, Table{}))

	chunks, err := s.Chunks(ctx, "fantasy")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 10}, chunks, "other genres sharing the prefix are skipped")

	require.NoError(t, s.Reset(ctx))
	chunks, err = s.Chunks(ctx, "fantasy")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFileStore_Cancelled(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Save(ctx, "fantasy", 0, Table{}), context.Canceled)
}
