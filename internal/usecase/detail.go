package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/polkiloo/usersearch/internal/adapter/github"
	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/pkg/observe"
)

// CancelledMessage is shown when a fetch is aborted from outside the session.
const CancelledMessage = "Request cancelled."

// DetailState is the observable output of a detail session.
type DetailState struct {
	User         model.User
	Detailed     bool
	IsLoading    bool
	IsFavorite   bool
	ErrorMessage string
}

// Settled reports whether the session finished its latest fetch.
func (s DetailState) Settled() bool {
	return !s.IsLoading && (s.Detailed || s.ErrorMessage != "")
}

// DetailResult is the settled outcome of a detail session.
type DetailResult struct {
	State   DetailState
	Profile model.Profile
}

// DetailFactory creates detail sessions sharing one client and store.
type DetailFactory struct {
	client github.Client
	store  *favorites.Store
	exec   Executor
	logger *slog.Logger
}

// NewDetailFactory constructs DetailFactory.
func NewDetailFactory(client github.Client, store *favorites.Store, exec Executor, logger *slog.Logger) *DetailFactory {
	return &DetailFactory{client: client, store: store, exec: exec, logger: logger}
}

// New opens a session for an already known, possibly partial, user.
func (f *DetailFactory) New(user model.User) *DetailCoordinator {
	return NewDetailCoordinator(user, f.client, f.store, f.exec, f.logger)
}

// DetailCoordinator loads the full record for one user and keeps its
// favorite flag in sync with the store for as long as it is open.
type DetailCoordinator struct {
	client github.Client
	store  *favorites.Store
	logger *slog.Logger
	state  *observe.Value[DetailState]

	partial model.User

	mu          sync.Mutex
	generation  uint64
	cancel      context.CancelFunc
	detailed    *model.User
	closed      bool
	unsubscribe func()
}

// NewDetailCoordinator opens a session for user.
func NewDetailCoordinator(user model.User, client github.Client, store *favorites.Store, exec Executor, logger *slog.Logger) *DetailCoordinator {
	c := &DetailCoordinator{
		client:  client,
		store:   store,
		logger:  logger,
		partial: user,
		state: observe.NewValue(exec, DetailState{
			User:       user,
			IsFavorite: store.Contains(user),
		}),
	}
	c.unsubscribe = store.Subscribe(c.onFavoritesChanged)
	return c
}

// State returns the latest state.
func (c *DetailCoordinator) State() DetailState {
	return c.state.Get()
}

// Subscribe delivers the current state and every later change to fn.
func (c *DetailCoordinator) Subscribe(fn func(DetailState)) func() {
	return c.state.Subscribe(fn)
}

// Activate fetches the full record.
func (c *DetailCoordinator) Activate() {
	c.fetch()
}

// Retry re-issues the fetch after a failure.
func (c *DetailCoordinator) Retry() {
	c.fetch()
}

// ToggleFavorite flips the membership of the current record.
func (c *DetailCoordinator) ToggleFavorite(ctx context.Context) (bool, error) {
	return c.store.Toggle(ctx, c.state.Get().User)
}

// Profile returns the display fields for the current record.
func (c *DetailCoordinator) Profile() model.Profile {
	c.mu.Lock()
	detailed := c.detailed
	c.mu.Unlock()
	return model.NewProfile(c.partial, detailed)
}

// Await blocks until the latest fetch settles or ctx is done.
func (c *DetailCoordinator) Await(ctx context.Context) (DetailState, error) {
	settled := make(chan DetailState, 1)
	unsubscribe := c.state.Subscribe(func(s DetailState) {
		if s.Settled() {
			select {
			case settled <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	select {
	case s := <-settled:
		return s, nil
	case <-ctx.Done():
		return c.state.Get(), ctx.Err()
	}
}

// Close ends the session: the favorites subscription is removed and the
// running fetch is cancelled.
func (c *DetailCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.cancelLocked()
	c.mu.Unlock()

	c.unsubscribe()
}

func (c *DetailCoordinator) fetch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	generation := c.generation
	c.cancelLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.Update(func(s DetailState) DetailState {
		s.IsLoading = true
		s.ErrorMessage = ""
		return s
	})
	c.mu.Unlock()

	login := c.partial.Login
	c.client.UserDetailAsync(ctx, login, func(user *model.User, err error) {
		c.complete(generation, user, err)
	})
}

func (c *DetailCoordinator) complete(generation uint64, user *model.User, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || generation != c.generation {
		return
	}
	c.cancelLocked()

	if err == nil && user == nil {
		err = domainErrors.ErrNoData
	}
	if err == nil && c.partial.ID != 0 && user.ID != c.partial.ID {
		err = domainErrors.ErrIdentityMismatch
	}

	switch {
	case err == nil:
		c.detailed = user
		favorite := c.store.Contains(*user)
		c.state.Update(func(s DetailState) DetailState {
			s.User = *user
			s.Detailed = true
			s.IsLoading = false
			s.IsFavorite = favorite
			s.ErrorMessage = ""
			return s
		})
	case errors.Is(err, context.Canceled):
		c.logger.Debug("user detail cancelled", slog.String("login", c.partial.Login))
		c.state.Update(func(s DetailState) DetailState {
			s.IsLoading = false
			s.ErrorMessage = CancelledMessage
			return s
		})
	default:
		c.logger.Info("user detail failed",
			slog.String("login", c.partial.Login),
			slog.String("error", err.Error()))
		c.state.Update(func(s DetailState) DetailState {
			s.IsLoading = false
			s.ErrorMessage = domainErrors.UserMessage(err)
			return s
		})
	}
}

func (c *DetailCoordinator) onFavoritesChanged(change favorites.Change) {
	c.state.Update(func(s DetailState) DetailState {
		if change.User.ID == s.User.ID {
			s.IsFavorite = change.Kind == favorites.Added
		}
		return s
	})
}

func (c *DetailCoordinator) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
