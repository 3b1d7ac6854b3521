package imagecache

import "sync"

// Slot tracks the image shown by a single view. Assigning a new URL
// withdraws the slot from its previous load, and only the latest assignment
// is delivered.
type Slot struct {
	cache *Cache

	mu      sync.Mutex
	current string
	gen     uint64
	release func()
}

// NewSlot creates a view slot backed by the cache.
func (c *Cache) NewSlot() *Slot {
	return &Slot{cache: c}
}

// Set requests rawURL for the slot; deliver only sees the result if no Set
// or Reset happened since. Other slots loading the previous URL keep their
// fetch.
func (s *Slot) Set(rawURL string, deliver func(*Image)) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.current = rawURL
	s.mu.Unlock()

	release := s.cache.Request(rawURL, func(img *Image) {
		if s.isCurrent(gen) {
			deliver(img)
		}
	})

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		release()
		return
	}
	previous := s.release
	s.release = release
	s.mu.Unlock()

	if previous != nil {
		previous()
	}
}

// Reset withdraws the pending load and forgets the URL.
func (s *Slot) Reset() {
	s.mu.Lock()
	s.gen++
	s.current = ""
	previous := s.release
	s.release = nil
	s.mu.Unlock()

	if previous != nil {
		previous()
	}
}

// URL returns the most recently requested URL.
func (s *Slot) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}
