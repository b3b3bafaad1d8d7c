package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/id"
)

// Interactions are keyed interaction:{userID}:{uuidv7}, so a prefix scan
// returns a user's history oldest first.
const interactionPrefix = "interaction:"

func interactionUserPrefix(userID string) []byte {
	return []byte(interactionPrefix + userID + ":")
}

// AddInteraction appends an interaction to the user's history.
// Returns ErrNotFound if the user does not exist.
func (s *Store) AddInteraction(ctx context.Context, userID string, in domain.Interaction) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	key, err := id.Ordered()
	if err != nil {
		return err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(interactionUserPrefix(userID), key...), data)
	})
}

// ListInteractions returns the user's stored history, oldest first.
func (s *Store) ListInteractions(ctx context.Context, userID string) ([]domain.Interaction, error) {
	prefix := interactionUserPrefix(userID)
	var out []domain.Interaction

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var in domain.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &in)
			}); err != nil {
				return fmt.Errorf("unmarshal interaction: %w", err)
			}
			out = append(out, in)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return out, nil
}
