package dto

import (
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/usecase"
)

// DetailResponse is the settled state of a detail session.
type DetailResponse struct {
	User         model.User    `json:"detailed_user"`
	Detailed     bool          `json:"detailed"`
	IsLoading    bool          `json:"is_loading"`
	IsFavorite   bool          `json:"is_favorite"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Profile      model.Profile `json:"profile"`
}

// NewDetailResponse renders a detail result.
func NewDetailResponse(res usecase.DetailResult) DetailResponse {
	return DetailResponse{
		User:         res.State.User,
		Detailed:     res.State.Detailed,
		IsLoading:    res.State.IsLoading,
		IsFavorite:   res.State.IsFavorite,
		ErrorMessage: res.State.ErrorMessage,
		Profile:      res.Profile,
	}
}
