package test

import (
	"context"
	"sync"

	"github.com/polkiloo/usersearch/internal/domain/model"
)

// PendingSearch is an asynchronous search the stub has not completed yet.
type PendingSearch struct {
	Ctx   context.Context
	Query string
	Done  func(*model.SearchResult, error)
}

// PendingDetail is an asynchronous detail fetch the stub has not completed yet.
type PendingDetail struct {
	Ctx   context.Context
	Login string
	Done  func(*model.User, error)
}

// GitHubClientStub records calls. When SearchFn or DetailFn is set the
// asynchronous variants complete immediately with its result; otherwise
// they are parked until the test completes them.
type GitHubClientStub struct {
	SearchFn func(ctx context.Context, query string) (*model.SearchResult, error)
	DetailFn func(ctx context.Context, login string) (*model.User, error)

	mu             sync.Mutex
	searches       []string
	details        []string
	cancelAllCalls int
	pendingSearch  []PendingSearch
	pendingDetail  []PendingDetail
}

// SearchUsers records query and calls SearchFn.
func (s *GitHubClientStub) SearchUsers(ctx context.Context, query string) (*model.SearchResult, error) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	fn := s.SearchFn
	s.mu.Unlock()
	if fn == nil {
		return &model.SearchResult{}, nil
	}
	return fn(ctx, query)
}

// UserDetail records login and calls DetailFn.
func (s *GitHubClientStub) UserDetail(ctx context.Context, login string) (*model.User, error) {
	s.mu.Lock()
	s.details = append(s.details, login)
	fn := s.DetailFn
	s.mu.Unlock()
	if fn == nil {
		return &model.User{Login: login}, nil
	}
	return fn(ctx, login)
}

// SearchUsersAsync completes through SearchFn or parks the call.
func (s *GitHubClientStub) SearchUsersAsync(ctx context.Context, query string, done func(*model.SearchResult, error)) {
	s.mu.Lock()
	s.searches = append(s.searches, query)
	fn := s.SearchFn
	if fn == nil {
		s.pendingSearch = append(s.pendingSearch, PendingSearch{Ctx: ctx, Query: query, Done: done})
	}
	s.mu.Unlock()
	if fn != nil {
		done(fn(ctx, query))
	}
}

// UserDetailAsync completes through DetailFn or parks the call.
func (s *GitHubClientStub) UserDetailAsync(ctx context.Context, login string, done func(*model.User, error)) {
	s.mu.Lock()
	s.details = append(s.details, login)
	fn := s.DetailFn
	if fn == nil {
		s.pendingDetail = append(s.pendingDetail, PendingDetail{Ctx: ctx, Login: login, Done: done})
	}
	s.mu.Unlock()
	if fn != nil {
		done(fn(ctx, login))
	}
}

// CancelAll counts invocations.
func (s *GitHubClientStub) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllCalls++
}

// Searches returns the queries issued so far.
func (s *GitHubClientStub) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Details returns the logins fetched so far.
func (s *GitHubClientStub) Details() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.details...)
}

// CancelAllCalls returns how often CancelAll ran.
func (s *GitHubClientStub) CancelAllCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAllCalls
}

// TakeSearch removes and returns the oldest parked search.
func (s *GitHubClientStub) TakeSearch() (PendingSearch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingSearch) == 0 {
		return PendingSearch{}, false
	}
	p := s.pendingSearch[0]
	s.pendingSearch = s.pendingSearch[1:]
	return p, true
}

// TakeDetail removes and returns the oldest parked detail fetch.
func (s *GitHubClientStub) TakeDetail() (PendingDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingDetail) == 0 {
		return PendingDetail{}, false
	}
	p := s.pendingDetail[0]
	s.pendingDetail = s.pendingDetail[1:]
	return p, true
}
