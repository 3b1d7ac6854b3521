package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/usersearch/internal/domain/errors"
)

// KeyValueStub keeps records in memory and lets tests inject failures.
type KeyValueStub struct {
	mu      sync.Mutex
	Data    map[string][]byte
	GetErr  error
	PutErr  error
	Puts    int
	Deletes int
}

// NewKeyValueStub constructs an empty stub.
func NewKeyValueStub() *KeyValueStub {
	return &KeyValueStub{Data: make(map[string][]byte)}
}

// Get returns the stored value or ErrNotFound.
func (s *KeyValueStub) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	v, ok := s.Data[key]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores value unless PutErr is set.
func (s *KeyValueStub) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	if s.Data == nil {
		s.Data = make(map[string][]byte)
	}
	s.Data[key] = append([]byte(nil), value...)
	s.Puts++
	return nil
}

// Delete removes key.
func (s *KeyValueStub) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Data, key)
	s.Deletes++
	return nil
}

// SetPutErr changes the injected write failure.
func (s *KeyValueStub) SetPutErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutErr = err
}

// PutCount returns the number of successful writes.
func (s *KeyValueStub) PutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Puts
}

// InlineExecutor runs posted functions immediately on the caller.
type InlineExecutor struct{}

// Post runs fn.
func (InlineExecutor) Post(fn func()) { fn() }
