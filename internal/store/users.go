package store

import (
	"context"
	"fmt"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
)

const userPrefix = "user:"

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Favorites == nil {
		user.Favorites = []string{}
	}

	if err := s.users.Create(ctx, user.ID, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

// AddFavorite adds bookID to the user's favorites. Adding a book twice is a
// no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, bookID string) (*domain.User, error) {
	return s.users.Mutate(ctx, userID, func(u *domain.User) error {
		if u.AddFavorite(bookID) {
			u.UpdatedAt = time.Now()
		}
		return nil
	})
}

// RemoveFavorite removes bookID from the user's favorites, if present.
func (s *Store) RemoveFavorite(ctx context.Context, userID, bookID string) (*domain.User, error) {
	return s.users.Mutate(ctx, userID, func(u *domain.User) error {
		if u.RemoveFavorite(bookID) {
			u.UpdatedAt = time.Now()
		}
		return nil
	})
}
