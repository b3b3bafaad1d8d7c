package similarity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/normalize"
)

// TableStore persists similarity chunks keyed by (genre, chunk index).
type TableStore interface {
	// Save replaces the table of one chunk.
	Save(ctx context.Context, genre string, chunk int, t Table) error
	// Load returns the table of one chunk, or nil when it was never saved.
	Load(ctx context.Context, genre string, chunk int) (Table, error)
	// LoadAllForGenre merges the rows of bookID across every chunk of genre.
	LoadAllForGenre(ctx context.Context, genre, bookID string) (map[string]float64, error)
	// Chunks lists the saved chunk indexes of genre in ascending order.
	Chunks(ctx context.Context, genre string) ([]int, error)
	// Reset drops every saved table.
	Reset(ctx context.Context) error
}

// StorageKey is the name a genre's tables are stored under: the readable
// genre.Key slug followed by a hash of the normalized genre, so genres that
// fold to the same slug ("sci-fi" and "sci fi", or two non-latin subjects)
// never share a key. Case and surrounding whitespace are not significant.
func StorageKey(g string) string {
	return fmt.Sprintf("%s.%016x", genre.Key(g), xxhash.Sum64String(normalize.Subject(g)))
}

// FileStore keeps each chunk as a JSON file named {key}-{chunk}.json, where
// key is the genre's StorageKey.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create similarity dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(g string, chunk int) string {
	return filepath.Join(s.dir, StorageKey(g)+"-"+strconv.Itoa(chunk)+".json")
}

// Save writes the chunk through a temp file so readers never see a partial
// table.
func (s *FileStore) Save(ctx context.Context, g string, chunk int, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil {
		t = Table{}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}

	path := s.path(g, chunk)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename table: %w", err)
	}
	return nil
}

// Load reads one chunk.
func (s *FileStore) Load(ctx context.Context, g string, chunk int) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(g, chunk))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode table %s/%d: %w", g, chunk, err)
	}
	return t, nil
}

// LoadAllForGenre reads every chunk of g and merges bookID's rows.
func (s *FileStore) LoadAllForGenre(ctx context.Context, g, bookID string) (map[string]float64, error) {
	chunks, err := s.Chunks(ctx, g)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]float64)
	for _, c := range chunks {
		t, err := s.Load(ctx, g, c)
		if err != nil {
			return nil, err
		}
		for id, score := range t[bookID] {
			merged[id] = score
		}
	}
	return merged, nil
}

// Chunks lists the chunk files of g.
func (s *FileStore) Chunks(_ context.Context, g string) ([]int, error) {
	prefix := StorageKey(g) + "-"
	matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.json"))
	if err != nil {
		return nil, err
	}

	chunks := make([]int, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".json")
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		chunks = append(chunks, n)
	}
	slices.Sort(chunks)
	return chunks, nil
}

// Reset removes every table file in the directory.
func (s *FileStore) Reset(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", m, err)
		}
	}
	return nil
}
