package service

import (
	"context"
	"fmt"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/recommend"
)

// RecommendationService serves popular listings and per-reader
// recommendations from cached engine sessions.
type RecommendationService struct {
	sessions *recommend.Sessions
}

// NewRecommendationService creates a recommendation service.
func NewRecommendationService(sessions *recommend.Sessions) *RecommendationService {
	return &RecommendationService{sessions: sessions}
}

// ForUser returns up to limit books related to the reader's history.
func (s *RecommendationService) ForUser(ctx context.Context, userID string, limit int) ([]*domain.CatalogBook, error) {
	engine, err := s.sessions.ForUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user", userID)
	}
	books, err := engine.FormRecommendations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("form recommendations: %w", err)
	}
	return books, nil
}

// Popular returns one page of the top rated books in langs, or in the
// default languages when langs is empty or unrecognized.
func (s *RecommendationService) Popular(ctx context.Context, langs []string, page, limit int) ([]*domain.CatalogBook, error) {
	books, err := s.sessions.ForLanguages(normalize.LanguageCodes(langs)).PopularBooks(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("popular books: %w", err)
	}
	return books, nil
}

// Refresh drops every cached session so new catalog books show up.
func (s *RecommendationService) Refresh() {
	s.sessions.InvalidateAll()
}
