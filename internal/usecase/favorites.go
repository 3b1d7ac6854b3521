package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/pkg/observe"
)

// EmptyFavoritesMessage is shown when the favorite list is empty.
const EmptyFavoritesMessage = "No favorites yet. Tap the star on a user to add one."

// FavoritesState is the observable output of the favorites list.
type FavoritesState struct {
	Favorites []model.User
	IsLoading bool
}

// FavoritesCoordinator mirrors the favorite store as a list and reloads it
// on every change.
type FavoritesCoordinator struct {
	store *favorites.Store
	state *observe.Value[FavoritesState]

	once        sync.Once
	unsubscribe func()
}

// NewFavoritesCoordinator constructs the coordinator and performs the first load.
func NewFavoritesCoordinator(store *favorites.Store, exec Executor) *FavoritesCoordinator {
	c := &FavoritesCoordinator{
		store: store,
		state: observe.NewValue(exec, FavoritesState{Favorites: store.List()}),
	}
	c.unsubscribe = store.Subscribe(func(favorites.Change) { c.Load() })
	return c
}

// Load refreshes the list from the store.
func (c *FavoritesCoordinator) Load() {
	c.state.Set(FavoritesState{Favorites: c.store.List()})
}

// State returns the latest state.
func (c *FavoritesCoordinator) State() FavoritesState {
	return c.state.Get()
}

// Subscribe delivers the current state and every later change to fn.
func (c *FavoritesCoordinator) Subscribe(fn func(FavoritesState)) func() {
	return c.state.Subscribe(fn)
}

// Remove drops u from the favorites.
func (c *FavoritesCoordinator) Remove(ctx context.Context, u model.User) error {
	return c.store.Remove(ctx, u)
}

// RemoveAt drops the favorite at index i of the current list.
func (c *FavoritesCoordinator) RemoveAt(ctx context.Context, i int) error {
	list := c.state.Get().Favorites
	if i < 0 || i >= len(list) {
		return fmt.Errorf("favorite index %d out of range [0,%d)", i, len(list))
	}
	return c.store.Remove(ctx, list[i])
}

// IsEmpty reports whether there are no favorites.
func (c *FavoritesCoordinator) IsEmpty() bool {
	return len(c.state.Get().Favorites) == 0
}

// EmptyMessage returns the placeholder text for an empty list.
func (c *FavoritesCoordinator) EmptyMessage() string {
	return EmptyFavoritesMessage
}

// Close stops following store changes.
func (c *FavoritesCoordinator) Close() {
	c.once.Do(func() { c.unsubscribe() })
}
