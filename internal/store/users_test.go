package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

func TestCreateUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "user-1", Name: "Ada"}))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Empty(t, got.Favorites)
	assert.Equal(t, []string{"en"}, got.Languages())

	err = s.CreateUser(ctx, &domain.User{ID: "user-1"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestFavorites_SetSemantics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "user-1"}))

	_, err := s.AddFavorite(ctx, "user-1", "book-a")
	require.NoError(t, err)
	_, err = s.AddFavorite(ctx, "user-1", "book-b")
	require.NoError(t, err)
	u, err := s.AddFavorite(ctx, "user-1", "book-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-a", "book-b"}, u.Favorites)

	u, err = s.RemoveFavorite(ctx, "user-1", "book-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-b"}, u.Favorites)

	u, err = s.RemoveFavorite(ctx, "user-1", "book-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-b"}, u.Favorites)

	_, err = s.AddFavorite(ctx, "user-missing", "book-a")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInteractions_ChronologicalPerUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "user-1"}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: "user-2"}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, bookID := range []string{"book-a", "book-b", "book-c"} {
		require.NoError(t, s.AddInteraction(ctx, "user-1", domain.Interaction{
			Type:      domain.InteractionRead,
			BookID:    bookID,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.AddInteraction(ctx, "user-2", domain.Interaction{
		Type: domain.InteractionLike, BookID: "book-z", Timestamp: base,
	}))

	got, err := s.ListInteractions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "book-a", got[0].BookID)
	assert.Equal(t, "book-c", got[2].BookID)
	assert.True(t, got[1].Timestamp.Equal(base.Add(time.Hour)))

	other, err := s.ListInteractions(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, domain.InteractionLike, other[0].Type)

	none, err := s.ListInteractions(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddInteraction_UnknownUser(t *testing.T) {
	s := setupTestStore(t)

	err := s.AddInteraction(context.Background(), "user-missing", domain.Interaction{Type: domain.InteractionLike})
	require.ErrorIs(t, err, store.ErrNotFound)
}
