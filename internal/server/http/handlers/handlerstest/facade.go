// Package handlerstest provides a controllable facade for HTTP handler tests.
package handlerstest

import (
	"context"
	"sync"

	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/usecase"
)

// UserSearchFacadeStub provides controllable behaviour for HTTP handlers.
type UserSearchFacadeStub struct {
	SearchStateFn    func(context.Context) (usecase.SearchState, error)
	SetQueryFn       func(string)
	ClearSearchFn    func()
	SearchEvents     []usecase.SearchState
	IsFavoriteFn     func(int64) bool
	FavoritesFn      func(context.Context) ([]model.User, error)
	FavoritesEvents  []usecase.FavoritesState
	ToggleFavoriteFn func(context.Context, model.User) (bool, error)
	RemoveFavoriteFn func(context.Context, int64) error
	UserDetailFn     func(context.Context, string) (usecase.DetailResult, error)
	AvatarFn         func(context.Context, string) (*imagecache.Image, error)
	HealthFn         func(context.Context) error

	mu           sync.Mutex
	unsubscribed int
}

// SearchState returns the configured state or an idle one.
func (s *UserSearchFacadeStub) SearchState(ctx context.Context) (usecase.SearchState, error) {
	if s.SearchStateFn != nil {
		return s.SearchStateFn(ctx)
	}
	return usecase.SearchState{}, nil
}

// SetQuery records the query through SetQueryFn.
func (s *UserSearchFacadeStub) SetQuery(query string) {
	if s.SetQueryFn != nil {
		s.SetQueryFn(query)
	}
}

// ClearSearch invokes ClearSearchFn.
func (s *UserSearchFacadeStub) ClearSearch() {
	if s.ClearSearchFn != nil {
		s.ClearSearchFn()
	}
}

// SubscribeSearch replays SearchEvents synchronously.
func (s *UserSearchFacadeStub) SubscribeSearch(fn func(usecase.SearchState)) func() {
	for _, ev := range s.SearchEvents {
		fn(ev)
	}
	return s.unsubscribe
}

// IsFavorite delegates to IsFavoriteFn.
func (s *UserSearchFacadeStub) IsFavorite(id int64) bool {
	if s.IsFavoriteFn != nil {
		return s.IsFavoriteFn(id)
	}
	return false
}

// Favorites returns the configured list or an empty one.
func (s *UserSearchFacadeStub) Favorites(ctx context.Context) ([]model.User, error) {
	if s.FavoritesFn != nil {
		return s.FavoritesFn(ctx)
	}
	return nil, nil
}

// SubscribeFavorites replays FavoritesEvents synchronously.
func (s *UserSearchFacadeStub) SubscribeFavorites(fn func(usecase.FavoritesState)) func() {
	for _, ev := range s.FavoritesEvents {
		fn(ev)
	}
	return s.unsubscribe
}

// ToggleFavorite delegates to ToggleFavoriteFn or reports an added user.
func (s *UserSearchFacadeStub) ToggleFavorite(ctx context.Context, u model.User) (bool, error) {
	if s.ToggleFavoriteFn != nil {
		return s.ToggleFavoriteFn(ctx, u)
	}
	return true, nil
}

// RemoveFavorite delegates to RemoveFavoriteFn.
func (s *UserSearchFacadeStub) RemoveFavorite(ctx context.Context, id int64) error {
	if s.RemoveFavoriteFn != nil {
		return s.RemoveFavoriteFn(ctx, id)
	}
	return nil
}

// UserDetail delegates to UserDetailFn or returns a detailed record for login.
func (s *UserSearchFacadeStub) UserDetail(ctx context.Context, login string) (usecase.DetailResult, error) {
	if s.UserDetailFn != nil {
		return s.UserDetailFn(ctx, login)
	}
	user := model.User{ID: 1, Login: login}
	return usecase.DetailResult{
		State:   usecase.DetailState{User: user, Detailed: true},
		Profile: model.NewProfile(user, &user),
	}, nil
}

// Avatar delegates to AvatarFn.
func (s *UserSearchFacadeStub) Avatar(ctx context.Context, rawURL string) (*imagecache.Image, error) {
	if s.AvatarFn != nil {
		return s.AvatarFn(ctx, rawURL)
	}
	return nil, nil
}

// Health delegates to HealthFn.
func (s *UserSearchFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// Unsubscribed returns how many subscriptions were cancelled.
func (s *UserSearchFacadeStub) Unsubscribed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

func (s *UserSearchFacadeStub) unsubscribe() {
	s.mu.Lock()
	s.unsubscribed++
	s.mu.Unlock()
}
