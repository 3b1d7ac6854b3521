package dto

import (
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/usecase"
)

// SearchRequest carries new query input.
type SearchRequest struct {
	Query string `json:"query"`
}

// UserResponse is a search result row with its live favorite flag.
type UserResponse struct {
	model.User
	IsFavorite bool `json:"is_favorite"`
}

// SearchResponse mirrors the search coordinator state.
type SearchResponse struct {
	Query        string         `json:"query"`
	Results      []UserResponse `json:"results"`
	IsLoading    bool           `json:"is_loading"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Phase        string         `json:"phase"`
}

// NewSearchResponse renders state; isFavorite resolves the per-row flag.
func NewSearchResponse(state usecase.SearchState, isFavorite func(id int64) bool) SearchResponse {
	results := make([]UserResponse, 0, len(state.Results))
	for _, u := range state.Results {
		results = append(results, UserResponse{User: u, IsFavorite: isFavorite != nil && isFavorite(u.ID)})
	}
	return SearchResponse{
		Query:        state.Query,
		Results:      results,
		IsLoading:    state.IsLoading,
		ErrorMessage: state.ErrorMessage,
		Phase:        state.Phase.String(),
	}
}
