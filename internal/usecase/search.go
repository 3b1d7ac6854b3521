package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/polkiloo/usersearch/internal/adapter/github"
	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/favorites"
	"github.com/polkiloo/usersearch/internal/pkg/debounce"
	"github.com/polkiloo/usersearch/internal/pkg/observe"
)

// DefaultSearchDebounce is the quiet period before a query is sent.
const DefaultSearchDebounce = 500 * time.Millisecond

// Executor is the consumer-facing context all state notifications run on.
type Executor interface {
	Post(fn func())
}

// SearchPhase is the position of the coordinator in its state machine.
type SearchPhase int

const (
	PhaseIdle SearchPhase = iota
	PhaseDebouncing
	PhaseFetching
	PhaseSucceeded
	PhaseFailed
)

func (p SearchPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseFetching:
		return "fetching"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SearchState is the observable output of the search coordinator.
type SearchState struct {
	Query        string
	Results      []model.User
	IsLoading    bool
	ErrorMessage string
	Phase        SearchPhase
}

// SearchCoordinator debounces query input and runs at most one search at a
// time. Newer input always supersedes older scheduled or running searches.
type SearchCoordinator struct {
	client    github.Client
	store     *favorites.Store
	logger    *slog.Logger
	debouncer *debounce.Debouncer
	state     *observe.Value[SearchState]

	mu          sync.Mutex
	generation  uint64
	cancel      context.CancelFunc
	closed      bool
	unsubscribe func()
}

// NewSearchCoordinator wires a coordinator. Favorite changes re-publish the
// current state so renderers can refresh badges.
func NewSearchCoordinator(client github.Client, store *favorites.Store, exec Executor, clock clockwork.Clock, delay time.Duration, logger *slog.Logger) *SearchCoordinator {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	c := &SearchCoordinator{
		client:    client,
		store:     store,
		logger:    logger,
		debouncer: debounce.New(clock, delay, exec),
		state:     observe.NewValue(exec, SearchState{}),
	}
	c.unsubscribe = store.Subscribe(func(favorites.Change) {
		c.state.Update(func(s SearchState) SearchState { return s })
	})
	return c
}

// State returns the latest state.
func (c *SearchCoordinator) State() SearchState {
	return c.state.Get()
}

// Subscribe delivers the current state and every later change to fn.
func (c *SearchCoordinator) Subscribe(fn func(SearchState)) func() {
	return c.state.Subscribe(fn)
}

// SetQuery records text and schedules a search for it. Blank input clears
// the results right away and never reaches the network.
func (c *SearchCoordinator) SetQuery(text string) {
	query := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.generation++
	generation := c.generation
	c.cancelLocked()

	if query == "" {
		c.debouncer.Cancel()
		c.state.Set(SearchState{Phase: PhaseIdle})
		return
	}

	c.state.Update(func(s SearchState) SearchState {
		s.Query = query
		s.IsLoading = false
		s.Phase = PhaseDebouncing
		return s
	})
	c.debouncer.Trigger(func() { c.run(generation, query) })
}

// ClearSearch resets the state and cancels scheduled and running searches.
func (c *SearchCoordinator) ClearSearch() {
	c.mu.Lock()
	c.generation++
	c.cancelLocked()
	c.debouncer.Cancel()
	c.state.Set(SearchState{Phase: PhaseIdle})
	c.mu.Unlock()

	c.client.CancelAll()
}

// ToggleFavorite flips u's membership in the favorite set.
func (c *SearchCoordinator) ToggleFavorite(ctx context.Context, u model.User) (bool, error) {
	return c.store.Toggle(ctx, u)
}

// IsFavorite reports the live favorite status of u.
func (c *SearchCoordinator) IsFavorite(u model.User) bool {
	return c.store.Contains(u)
}

// Close stops the coordinator. Pending work is dropped.
func (c *SearchCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.cancelLocked()
	c.debouncer.Cancel()
	c.mu.Unlock()

	c.unsubscribe()
}

func (c *SearchCoordinator) run(generation uint64, query string) {
	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.Update(func(s SearchState) SearchState {
		s.IsLoading = true
		s.ErrorMessage = ""
		s.Phase = PhaseFetching
		return s
	})
	c.mu.Unlock()

	c.logger.Debug("search started", slog.String("query", query))
	c.client.SearchUsersAsync(ctx, query, func(res *model.SearchResult, err error) {
		c.complete(generation, query, res, err)
	})
}

func (c *SearchCoordinator) complete(generation uint64, query string, res *model.SearchResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || generation != c.generation {
		return
	}
	c.cancelLocked()

	switch {
	case err == nil:
		var items []model.User
		if res != nil {
			items = res.Items
		}
		c.state.Update(func(s SearchState) SearchState {
			s.Results = items
			s.IsLoading = false
			s.ErrorMessage = ""
			s.Phase = PhaseSucceeded
			return s
		})
	case errors.Is(err, context.Canceled):
		c.state.Update(func(s SearchState) SearchState {
			s.IsLoading = false
			s.Phase = PhaseIdle
			return s
		})
	default:
		c.logger.Info("search failed", slog.String("query", query), slog.String("error", err.Error()))
		c.state.Update(func(s SearchState) SearchState {
			s.Results = nil
			s.IsLoading = false
			s.ErrorMessage = domainErrors.UserMessage(err)
			s.Phase = PhaseFailed
			return s
		})
	}
}

func (c *SearchCoordinator) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
