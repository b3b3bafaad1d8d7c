package api

import (
	"github.com/folioapp/folio-server/internal/search"
	"github.com/folioapp/folio-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Books           *service.BookManager
	Genres          *service.GenreService
	Users           *service.UserService
	Recommendations *service.RecommendationService
	Index           *search.SearchIndex // health reporting only; may be nil
}
