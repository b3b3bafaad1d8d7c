package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/recommend"
	"github.com/folioapp/folio-server/internal/validation"
)

// UserStore is the reader persistence the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	AddFavorite(ctx context.Context, userID, bookID string) (*domain.User, error)
	RemoveFavorite(ctx context.Context, userID, bookID string) (*domain.User, error)
	AddInteraction(ctx context.Context, userID string, in domain.Interaction) error
	GetBook(ctx context.Context, id string) (*domain.CatalogBook, error)
}

// UserService manages readers, their favorites and interaction history.
// Changes drop the reader's cached recommendation session.
type UserService struct {
	store     UserStore
	sessions  *recommend.Sessions
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a user service.
func NewUserService(store UserStore, sessions *recommend.Sessions, validator *validation.Validator, log *slog.Logger) *UserService {
	if log == nil {
		log = logger.Discard()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &UserService{
		store:     store,
		sessions:  sessions,
		validator: validator,
		logger:    log,
		now:       time.Now,
	}
}

// CreateUserInput is the payload for registering a reader.
type CreateUserInput struct {
	Name               string   `json:"name" validate:"required,max=200"`
	PreferredLanguages []string `json:"preferredLanguages,omitempty" validate:"max=20,dive,language"`
}

// CreateUser registers a reader.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user := &domain.User{
		ID:                 userID,
		Name:               strings.TrimSpace(in.Name),
		PreferredLanguages: normalize.LanguageCodes(in.PreferredLanguages),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, "user", userID)
	}
	return user, nil
}

// GetUser returns a reader.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user", userID)
	}
	return user, nil
}

// AddFavorite adds a catalog book to the reader's favorites. Adding an
// existing favorite is a no-op.
func (s *UserService) AddFavorite(ctx context.Context, userID, bookID string) (*domain.User, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, storeError(err, "book", bookID)
	}
	user, err := s.store.AddFavorite(ctx, userID, bookID)
	if err != nil {
		return nil, storeError(err, "user", userID)
	}
	s.sessions.Invalidate(userID)
	return user, nil
}

// RemoveFavorite removes a book from the reader's favorites.
func (s *UserService) RemoveFavorite(ctx context.Context, userID, bookID string) (*domain.User, error) {
	user, err := s.store.RemoveFavorite(ctx, userID, bookID)
	if err != nil {
		return nil, storeError(err, "user", userID)
	}
	s.sessions.Invalidate(userID)
	return user, nil
}

// InteractionInput is the payload for recording an interaction.
type InteractionInput struct {
	Type   string `json:"type" validate:"required,interaction"`
	BookID string `json:"bookId" validate:"required"`
}

// RecordInteraction appends an interaction, stamped now, to the reader's
// history.
func (s *UserService) RecordInteraction(ctx context.Context, userID string, in InteractionInput) (*domain.Interaction, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBook(ctx, in.BookID); err != nil {
		return nil, storeError(err, "book", in.BookID)
	}

	// Validated above.
	t, _ := domain.ParseInteractionType(in.Type)
	interaction := domain.Interaction{Type: t, BookID: in.BookID, Timestamp: s.now()}
	if err := s.store.AddInteraction(ctx, userID, interaction); err != nil {
		return nil, storeError(err, "user", userID)
	}

	s.sessions.Invalidate(userID)
	s.logger.Debug("interaction recorded", "user_id", userID, "book_id", in.BookID, "type", t)
	return &interaction, nil
}
