package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/genre"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "genreDistribution",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/distribution",
		Summary:     "Genre distribution",
		Description: "Counts catalog books per display genre",
		Tags:        []string{"Genres"},
	}, s.handleGenreDistribution)

	huma.Register(s.api, huma.Operation{
		OperationID: "classifySubjects",
		Method:      http.MethodPost,
		Path:        "/api/v1/genres/classify",
		Summary:     "Classify subjects",
		Description: "Maps a list of subject headings to a single genre",
		Tags:        []string{"Genres"},
	}, s.handleClassifySubjects)
}

// === DTOs ===

type GenreDistributionOutput struct {
	Body struct {
		Genres []genre.GenreCount `json:"genres" doc:"Book count per genre"`
	}
}

type ClassifyRequest struct {
	Subjects []string `json:"subjects" minItems:"1" maxItems:"200" doc:"Subject headings"`
}

type ClassifyInput struct {
	Body ClassifyRequest
}

type ClassifyOutput struct {
	Body struct {
		Genre string `json:"genre" doc:"Assigned genre"`
	}
}

// === Handlers ===

func (s *Server) handleGenreDistribution(ctx context.Context, _ *struct{}) (*GenreDistributionOutput, error) {
	counts, err := s.services.Genres.Distribution(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	out := &GenreDistributionOutput{}
	out.Body.Genres = counts
	return out, nil
}

func (s *Server) handleClassifySubjects(_ context.Context, input *ClassifyInput) (*ClassifyOutput, error) {
	g, err := s.services.Genres.Classify(input.Body.Subjects)
	if err != nil {
		return nil, toAPIError(err)
	}
	out := &ClassifyOutput{}
	out.Body.Genre = g
	return out, nil
}
