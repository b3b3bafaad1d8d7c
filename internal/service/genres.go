package service

import (
	"context"
	"fmt"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/genre"
)

// GenreService exposes classification and catalog genre statistics.
type GenreService struct {
	store      CatalogStore
	classifier *genre.Classifier
}

// NewGenreService creates a genre service.
func NewGenreService(store CatalogStore, classifier *genre.Classifier) *GenreService {
	return &GenreService{store: store, classifier: classifier}
}

// Classify maps a subject list to its genre.
func (s *GenreService) Classify(subjects []string) (string, error) {
	g := s.classifier.Classify(subjects)
	if g == "" {
		return "", domainerrors.Validation("at least one non-blank subject is required")
	}
	return g, nil
}

// Distribution counts catalog books per display genre.
func (s *GenreService) Distribution(ctx context.Context) ([]genre.GenreCount, error) {
	books, err := s.store.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return genre.DivideByGenre(books), nil
}
