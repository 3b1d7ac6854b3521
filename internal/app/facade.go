package app

import (
	"context"
	"fmt"
	"strings"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/imagecache"
	"github.com/polkiloo/usersearch/internal/usecase"
	"github.com/polkiloo/usersearch/internal/worker"
)

// HealthChecker reports storage availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UserSearchFacade exposes the coordinators to transport adapters.
type UserSearchFacade struct {
	search     *usecase.SearchCoordinator
	favorites  *usecase.FavoritesCoordinator
	details    *usecase.DetailFactory
	store      *favorites.Store
	images     *imagecache.Cache
	dispatcher *worker.Dispatcher
	health     HealthChecker
}

// NewUserSearchFacade constructs UserSearchFacade.
func NewUserSearchFacade(
	search *usecase.SearchCoordinator,
	favoritesList *usecase.FavoritesCoordinator,
	details *usecase.DetailFactory,
	store *favorites.Store,
	images *imagecache.Cache,
	dispatcher *worker.Dispatcher,
	health HealthChecker,
) *UserSearchFacade {
	return &UserSearchFacade{
		search:     search,
		favorites:  favoritesList,
		details:    details,
		store:      store,
		images:     images,
		dispatcher: dispatcher,
		health:     health,
	}
}

// SearchState returns the search state once pending notifications ran.
func (f *UserSearchFacade) SearchState(ctx context.Context) (usecase.SearchState, error) {
	if err := f.dispatcher.Sync(ctx, nil); err != nil {
		return usecase.SearchState{}, err
	}
	return f.search.State(), nil
}

// SetQuery feeds new input into the search coordinator.
func (f *UserSearchFacade) SetQuery(query string) {
	f.search.SetQuery(query)
}

// ClearSearch resets the search coordinator.
func (f *UserSearchFacade) ClearSearch() {
	f.search.ClearSearch()
}

// SubscribeSearch streams search state changes.
func (f *UserSearchFacade) SubscribeSearch(fn func(usecase.SearchState)) func() {
	return f.search.Subscribe(fn)
}

// IsFavorite reports the live favorite status of a user id.
func (f *UserSearchFacade) IsFavorite(id int64) bool {
	return f.store.IsFavorite(id)
}

// Favorites returns the favorite list once pending reloads ran.
func (f *UserSearchFacade) Favorites(ctx context.Context) ([]model.User, error) {
	if err := f.dispatcher.Sync(ctx, nil); err != nil {
		return nil, err
	}
	return f.favorites.State().Favorites, nil
}

// SubscribeFavorites streams favorite list changes.
func (f *UserSearchFacade) SubscribeFavorites(fn func(usecase.FavoritesState)) func() {
	return f.favorites.Subscribe(fn)
}

// ToggleFavorite flips u's membership and reports the new status.
func (f *UserSearchFacade) ToggleFavorite(ctx context.Context, u model.User) (bool, error) {
	return f.search.ToggleFavorite(ctx, u)
}

// RemoveFavorite drops the favorite with id.
func (f *UserSearchFacade) RemoveFavorite(ctx context.Context, id int64) error {
	if !f.store.IsFavorite(id) {
		return domainErrors.ErrNotFound
	}
	return f.favorites.Remove(ctx, model.User{ID: id})
}

// UserDetail runs a detail session for login until it settles. A record
// already known from search results or favorites seeds the session so the
// identity of the loaded record can be verified.
func (f *UserSearchFacade) UserDetail(ctx context.Context, login string) (usecase.DetailResult, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return usecase.DetailResult{}, domainErrors.ErrInvalidRequest
	}

	session := f.details.New(f.knownUser(login))
	defer session.Close()

	session.Activate()
	state, err := session.Await(ctx)
	if err != nil {
		return usecase.DetailResult{}, fmt.Errorf("await detail: %w", err)
	}
	return usecase.DetailResult{State: state, Profile: session.Profile()}, nil
}

// Avatar loads an image through the shared cache. A nil image means the
// URL is invalid or the image is unavailable.
func (f *UserSearchFacade) Avatar(ctx context.Context, rawURL string) (*imagecache.Image, error) {
	result := make(chan *imagecache.Image, 1)
	release := f.images.Request(rawURL, func(img *imagecache.Image) { result <- img })

	select {
	case img := <-result:
		return img, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}

// Health checks the storage backend.
func (f *UserSearchFacade) Health(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}

func (f *UserSearchFacade) knownUser(login string) model.User {
	for _, u := range f.search.State().Results {
		if strings.EqualFold(u.Login, login) {
			return u
		}
	}
	for _, u := range f.store.List() {
		if strings.EqualFold(u.Login, login) {
			return u
		}
	}
	return model.User{Login: login}
}
