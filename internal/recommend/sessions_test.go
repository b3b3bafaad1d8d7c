package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/store"
)

func newTestSessions(t *testing.T) (*Sessions, *fakeCatalog) {
	t.Helper()
	catalog, tables := recommendFixture(t)
	catalog.users["u1"] = &domain.User{ID: "u1", Favorites: []string{"hobbit"}}
	catalog.users["u2"] = &domain.User{ID: "u2", PreferredLanguages: []string{"fr"}}

	s, err := NewSessions(catalog, catalog, tables, genre.NewClassifier(genre.Default(), 0), SessionsConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, catalog
}

func TestSessions_ForUserCachesEngine(t *testing.T) {
	s, _ := newTestSessions(t)
	ctx := context.Background()

	first, err := s.ForUser(ctx, "u1")
	require.NoError(t, err)
	second, err := s.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	s.Invalidate("u1")
	third, err := s.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestSessions_ForUserAssemblesHistory(t *testing.T) {
	s, catalog := newTestSessions(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	catalog.interactions["u1"] = []domain.Interaction{
		{Type: domain.InteractionRead, BookID: "dracula", Timestamp: fixed.Add(-time.Hour)},
	}

	e, err := s.ForUser(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []domain.Interaction{
		{Type: domain.InteractionRead, BookID: "dracula", Timestamp: fixed.Add(-time.Hour)},
		{Type: domain.InteractionFavorite, BookID: "hobbit", Timestamp: fixed},
	}, e.interactions)
	assert.Equal(t, domain.DefaultLanguages, e.Languages())
}

func TestSessions_ForUserLanguages(t *testing.T) {
	s, _ := newTestSessions(t)

	e, err := s.ForUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"fr"}, e.Languages())
}

func TestSessions_ForUserUnknown(t *testing.T) {
	s, _ := newTestSessions(t)

	_, err := s.ForUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessions_ForLanguagesSharesEngine(t *testing.T) {
	s, _ := newTestSessions(t)

	a := s.ForLanguages([]string{"fr", "en"})
	b := s.ForLanguages([]string{"en", "fr", "en"})
	assert.Same(t, a, b)

	assert.Equal(t, domain.DefaultLanguages, s.ForLanguages(nil).Languages())
}
