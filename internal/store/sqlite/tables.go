package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/folioapp/folio-server/internal/similarity"
)

var _ similarity.TableStore = (*Store)(nil)

// Save replaces one chunk. Each row of the table is stored separately so
// that LoadAllForGenre can read a single book's rows through the index.
func (s *Store) Save(ctx context.Context, g string, chunk int, t similarity.Table) error {
	key := similarity.StorageKey(g)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM similarity_rows WHERE genre = ? AND chunk = ?`, key, chunk); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO similarity_chunks (genre, chunk, pairs, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (genre, chunk) DO UPDATE SET
			pairs = excluded.pairs,
			created_at = excluded.created_at`,
		key, chunk, t.Pairs(), formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("upsert chunk: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO similarity_rows (genre, chunk, book_id, related)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for bookID, row := range t {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", bookID, err)
		}
		if _, err := stmt.ExecContext(ctx, key, chunk, bookID, string(data)); err != nil {
			return fmt.Errorf("insert row %s: %w", bookID, err)
		}
	}

	return tx.Commit()
}

// Load returns one chunk, or nil when it was never saved.
func (s *Store) Load(ctx context.Context, g string, chunk int) (similarity.Table, error) {
	key := similarity.StorageKey(g)

	var pairs int
	err := s.db.QueryRowContext(ctx,
		`SELECT pairs FROM similarity_chunks WHERE genre = ? AND chunk = ?`, key, chunk).Scan(&pairs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chunk: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, related FROM similarity_rows WHERE genre = ? AND chunk = ?`, key, chunk)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	t := make(similarity.Table)
	for rows.Next() {
		bookID, related, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		t[bookID] = related
	}
	return t, rows.Err()
}

// LoadAllForGenre merges bookID's rows across every chunk of g. Later chunks
// win on conflicting ids.
func (s *Store) LoadAllForGenre(ctx context.Context, g, bookID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, related FROM similarity_rows
		WHERE genre = ? AND book_id = ?
		ORDER BY chunk`, similarity.StorageKey(g), bookID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	merged := make(map[string]float64)
	for rows.Next() {
		_, related, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		for id, score := range related {
			merged[id] = score
		}
	}
	return merged, rows.Err()
}

// Chunks lists the saved chunk indexes of g in ascending order.
func (s *Store) Chunks(ctx context.Context, g string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk FROM similarity_chunks WHERE genre = ? ORDER BY chunk`, similarity.StorageKey(g))
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Reset drops every saved table.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM similarity_rows`); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM similarity_chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	s.logger.Debug("similarity tables reset")
	return tx.Commit()
}

// scanRow scans a (book_id, related) row.
func scanRow(scanner interface{ Scan(dest ...any) error }) (string, map[string]float64, error) {
	var (
		bookID  string
		related string
	)
	if err := scanner.Scan(&bookID, &related); err != nil {
		return "", nil, err
	}

	var row map[string]float64
	if err := json.Unmarshal([]byte(related), &row); err != nil {
		return "", nil, fmt.Errorf("decode row %s: %w", bookID, err)
	}
	return bookID, row, nil
}
