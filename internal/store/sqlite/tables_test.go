package sqlite

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"testing"

	"github.com/folioapp/folio-server/internal/similarity"
)

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := similarity.Table{}
	table.Set("a", "b", 0.4)
	table.Set("a", "c", 0.1)

	if err := s.Save(ctx, "Science Fiction", 0, table); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx, "science fiction", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got["b"]["a"] != 0.4 || got["a"]["c"] != 0.1 {
		t.Errorf("unexpected table: %v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Load(context.Background(), "horror", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil table, got %v", got)
	}
}

func TestSaveEmptyChunk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "horror", 0, similarity.Table{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx, "horror", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil table, got %v", got)
	}
}

func TestSaveReplacesChunk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := similarity.Table{}
	first.Set("a", "b", 0.4)
	second := similarity.Table{}
	second.Set("c", "d", 0.7)

	for _, tbl := range []similarity.Table{first, second} {
		if err := s.Save(ctx, "fantasy", 0, tbl); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := s.Load(ctx, "fantasy", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got["a"]; ok {
		t.Errorf("rows of the replaced table survived: %v", got)
	}
	if got["c"]["d"] != 0.7 {
		t.Errorf("expected c/d = 0.7, got %v", got)
	}
}

func TestLoadAllForGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := similarity.Table{}
	first.Set("a", "b", 0.3)
	second := similarity.Table{}
	second.Set("a", "c", 0.6)
	other := similarity.Table{}
	other.Set("a", "z", 0.9)

	saves := []struct {
		genre string
		chunk int
		table similarity.Table
	}{
		{"fantasy", 0, first},
		{"fantasy", 1, second},
		{"horror", 0, other},
	}
	for _, sv := range saves {
		if err := s.Save(ctx, sv.genre, sv.chunk, sv.table); err != nil {
			t.Fatalf("save %s/%d: %v", sv.genre, sv.chunk, err)
		}
	}

	row, err := s.LoadAllForGenre(ctx, "fantasy", "a")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	want := map[string]float64{"b": 0.3, "c": 0.6}
	if !maps.Equal(row, want) {
		t.Errorf("expected %v, got %v", want, row)
	}

	chunks, err := s.Chunks(ctx, "fantasy")
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if !slices.Equal(chunks, []int{0, 1}) {
		t.Errorf("expected chunks [0 1], got %v", chunks)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := similarity.Table{}
	table.Set("a", "b", 0.3)
	if err := s.Save(ctx, "fantasy", 0, table); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	chunks, err := s.Chunks(ctx, "fantasy")
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}

	row, err := s.LoadAllForGenre(ctx, "fantasy", "a")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(row) != 0 {
		t.Errorf("expected empty row, got %v", row)
	}
}

func TestSaveBuiltTable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "tables.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	books := []similarity.ScoreBook{
		{ID: "1", Title: "Dune", Subjects: []string{"sci-fi"}},
		{ID: "2", Title: "Dune Messiah", Subjects: []string{"sci-fi"}},
	}
	table := similarity.Build(books, similarity.DefaultThreshold, false)
	if err := s.Save(context.Background(), "science fiction", 0, table); err != nil {
		t.Fatalf("save: %v", err)
	}

	row, err := s.LoadAllForGenre(context.Background(), "science fiction", "2")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if _, ok := row["1"]; !ok {
		t.Errorf("expected 2 to relate to 1, got %v", row)
	}
}

func TestSlugCollisionsKeptApart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	genres := []string{"sci-fi", "sci fi", "роман", "物語"}
	for _, g := range genres {
		table := similarity.Table{}
		table.Set(g+"-a", g+"-b", 0.5)
		if err := s.Save(ctx, g, 0, table); err != nil {
			t.Fatalf("save %q: %v", g, err)
		}
	}

	for _, g := range genres {
		row, err := s.LoadAllForGenre(ctx, g, g+"-a")
		if err != nil {
			t.Fatalf("load all %q: %v", g, err)
		}
		if len(row) != 1 || row[g+"-b"] != 0.5 {
			t.Errorf("genre %q: expected only %s-b, got %v", g, g, row)
		}

		table, err := s.Load(ctx, g, 0)
		if err != nil {
			t.Fatalf("load %q: %v", g, err)
		}
		if len(table) != 2 {
			t.Errorf("genre %q: expected 2 rows, got %d", g, len(table))
		}
	}
}
