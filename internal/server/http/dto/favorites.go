package dto

import "github.com/polkiloo/usersearch/internal/domain/model"

// ToggleFavoriteRequest names the user whose membership flips.
type ToggleFavoriteRequest struct {
	User model.User `json:"user"`
}

// ToggleFavoriteResponse reports the membership after a toggle.
type ToggleFavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// FavoritesResponse lists favorites in insertion order.
type FavoritesResponse struct {
	Favorites []model.User `json:"favorites"`
	Message   string       `json:"message,omitempty"`
}
