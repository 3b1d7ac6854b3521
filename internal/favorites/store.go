// Package favorites keeps the durable set of favorited users.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
	"github.com/polkiloo/usersearch/internal/domain/model"
	"github.com/polkiloo/usersearch/internal/domain/repository"
	"github.com/polkiloo/usersearch/internal/pkg/observe"
)

// StorageKey is the record holding the serialized favorite list.
const StorageKey = "com.githubusers.favorites"

// ChangeKind tells subscribers how the set changed.
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is broadcast after every successful mutation.
type Change struct {
	Kind ChangeKind
	User model.User
}

// Store is the process-wide favorite set. Mutations are serialized and
// persisted before they become visible to readers.
type Store struct {
	kv     repository.KeyValueStore
	logger *slog.Logger
	broker *observe.Broker[Change]

	mu    sync.RWMutex
	users []model.User
}

// NewStore loads the persisted set. Missing or corrupt state yields an empty set.
func NewStore(ctx context.Context, kv repository.KeyValueStore, exec observe.Executor, logger *slog.Logger) *Store {
	s := &Store{
		kv:     kv,
		logger: logger,
		broker: observe.NewBroker[Change](exec),
	}
	s.users = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []model.User {
	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			s.logger.Warn("read favorites failed", slog.String("error", err.Error()))
		}
		return nil
	}

	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		s.logger.Warn("discarding corrupt favorites", slog.String("error", err.Error()))
		return nil
	}

	unique := users[:0]
	seen := make(map[int64]struct{}, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		unique = append(unique, u)
	}
	return unique
}

// List returns the favorites in insertion order.
func (s *Store) List() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// IsFavorite reports whether a user with id is in the set.
func (s *Store) IsFavorite(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// Contains reports whether u is in the set.
func (s *Store) Contains(u model.User) bool {
	return s.IsFavorite(u.ID)
}

// Add appends u unless a user with the same id is present.
func (s *Store) Add(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.addLocked(ctx, u)
	return err
}

// Remove drops the user with u's id, if present.
func (s *Store) Remove(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.removeLocked(ctx, u)
	return err
}

// Toggle adds u if absent and removes it otherwise. It reports whether u is
// a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, u model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(u.ID) >= 0 {
		if _, err := s.removeLocked(ctx, u); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.addLocked(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// Subscribe registers fn for change notifications and returns the function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	return s.broker.Subscribe(fn)
}

func (s *Store) addLocked(ctx context.Context, u model.User) (bool, error) {
	if s.indexLocked(u.ID) >= 0 {
		return false, nil
	}
	next := make([]model.User, len(s.users), len(s.users)+1)
	copy(next, s.users)
	next = append(next, u)

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.users = next
	s.broker.Publish(Change{Kind: Added, User: u})
	return true, nil
}

func (s *Store) removeLocked(ctx context.Context, u model.User) (bool, error) {
	idx := s.indexLocked(u.ID)
	if idx < 0 {
		return false, nil
	}
	removed := s.users[idx]
	next := make([]model.User, 0, len(s.users)-1)
	next = append(next, s.users[:idx]...)
	next = append(next, s.users[idx+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.users = next
	s.broker.Publish(Change{Kind: Removed, User: removed})
	return true, nil
}

func (s *Store) persist(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, raw); err != nil {
		s.logger.Error("persist favorites failed", slog.String("error", err.Error()))
		return fmt.Errorf("persist favorites: %w", err)
	}
	return nil
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}
