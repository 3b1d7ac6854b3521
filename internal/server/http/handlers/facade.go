package handlers

import (
	"context"

	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/usecase"
)

// SearchFacade drives the search screen.
type SearchFacade interface {
	SearchState(ctx context.Context) (usecase.SearchState, error)
	SetQuery(query string)
	ClearSearch()
	SubscribeSearch(fn func(usecase.SearchState)) func()
	IsFavorite(id int64) bool
}

// FavoritesFacade manages the favorites list.
type FavoritesFacade interface {
	Favorites(ctx context.Context) ([]model.User, error)
	SubscribeFavorites(fn func(usecase.FavoritesState)) func()
	ToggleFavorite(ctx context.Context, u model.User) (bool, error)
	RemoveFavorite(ctx context.Context, id int64) error
}

// DetailFacade loads a single user profile.
type DetailFacade interface {
	UserDetail(ctx context.Context, login string) (usecase.DetailResult, error)
}

// AvatarFacade serves cached avatar images.
type AvatarFacade interface {
	Avatar(ctx context.Context, rawURL string) (*imagecache.Image, error)
}

// HealthFacade reports backend availability.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// UserSearchFacade aggregates the full set of operations used across handlers.
type UserSearchFacade interface {
	SearchFacade
	FavoritesFacade
	DetailFacade
	AvatarFacade
	HealthFacade
}

// EventsFacade streams state changes.
type EventsFacade interface {
	SubscribeSearch(fn func(usecase.SearchState)) func()
	SubscribeFavorites(fn func(usecase.FavoritesState)) func()
	IsFavorite(id int64) bool
}
