package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Create user",
		Description:   "Registers a reader",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a reader with their favorites and preferred languages",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{id}/favorites/{bookId}",
		Summary:     "Add favorite",
		Description: "Adds a catalog book to the reader's favorites",
		Tags:        []string{"Users"},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}/favorites/{bookId}",
		Summary:     "Remove favorite",
		Description: "Removes a book from the reader's favorites",
		Tags:        []string{"Users"},
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID:   "recordInteraction",
		Method:        http.MethodPost,
		Path:          "/api/v1/users/{id}/interactions",
		Summary:       "Record interaction",
		Description:   "Appends a search-click, cover-click, like, read, buy or favorite signal to the reader's history",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRecordInteraction)

	huma.Register(s.api, huma.Operation{
		OperationID: "userRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/recommendations",
		Summary:     "Recommendations",
		Description: "Returns books related to the reader's recent interactions and favorites",
		Tags:        []string{"Users"},
	}, s.handleRecommendations)
}

// === DTOs ===

type CreateUserRequest struct {
	Name               string   `json:"name" minLength:"1" maxLength:"200" doc:"Display name"`
	PreferredLanguages []string `json:"preferredLanguages,omitempty" doc:"Preferred languages (codes or names)"`
}

type CreateUserInput struct {
	Body CreateUserRequest
}

type UserOutput struct {
	Body *domain.User
}

type UserInput struct {
	ID string `path:"id" doc:"User ID"`
}

type FavoriteInput struct {
	ID     string `path:"id" doc:"User ID"`
	BookID string `path:"bookId" doc:"Catalog book ID"`
}

type InteractionRequest struct {
	Type   string `json:"type" enum:"search-click,cover-click,like,read,buy,favorite" doc:"Interaction type"`
	BookID string `json:"bookId" minLength:"1" doc:"Catalog book ID"`
}

type RecordInteractionInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body InteractionRequest
}

type InteractionOutput struct {
	Body *domain.Interaction
}

type RecommendationsInput struct {
	ID    string `path:"id" doc:"User ID"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum number of books"`
}

type RecommendationsOutput struct {
	Body struct {
		Books []domain.ClientBook `json:"books" doc:"Recommended books"`
	}
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Users.CreateUser(ctx, service.CreateUserInput{
		Name:               input.Body.Name,
		PreferredLanguages: input.Body.PreferredLanguages,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UserInput) (*UserOutput, error) {
	user, err := s.services.Users.GetUser(ctx, input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *FavoriteInput) (*UserOutput, error) {
	user, err := s.services.Users.AddFavorite(ctx, input.ID, input.BookID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *FavoriteInput) (*UserOutput, error) {
	user, err := s.services.Users.RemoveFavorite(ctx, input.ID, input.BookID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleRecordInteraction(ctx context.Context, input *RecordInteractionInput) (*InteractionOutput, error) {
	in, err := s.services.Users.RecordInteraction(ctx, input.ID, service.InteractionInput{
		Type:   input.Body.Type,
		BookID: input.Body.BookID,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &InteractionOutput{Body: in}, nil
}

func (s *Server) handleRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	books, err := s.services.Recommendations.ForUser(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, toAPIError(err)
	}
	out := &RecommendationsOutput{}
	out.Body.Books = clientBooks(books)
	return out, nil
}
