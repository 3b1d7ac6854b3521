package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxEntries bounds the number of decoded images kept in memory.
	DefaultMaxEntries = 100
	// DefaultMaxBytes bounds the total decoded size of cached images and the
	// size of a single downloaded payload.
	DefaultMaxBytes = 50 * 1024 * 1024
)

// Executor delivers results on the consumer-facing context.
type Executor interface {
	Post(fn func())
}

// Options configure cache bounds and the optional disk tier.
type Options struct {
	MaxEntries int
	MaxBytes   int64
	Dir        string
	HTTPClient *http.Client
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries  int
	Bytes    int64
	InFlight int
}

// Cache loads images by URL, keeping decoded results in a bounded LRU.
// Concurrent loads of the same URL share a single fetch.
type Cache struct {
	exec   Executor
	logger *slog.Logger
	client *http.Client
	disk   *diskStore

	maxBytes int64

	mu      sync.Mutex
	entries *lru.Cache
	bytes   int64
	flights map[string]*flight
	group   singleflight.Group
}

// flight is a shared fetch. waiters is guarded by Cache.mu.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New constructs a cache.
func New(exec Executor, logger *slog.Logger, opts Options) (*Cache, error) {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	client := opts.HTTPClient
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}

	c := &Cache{
		exec:     exec,
		logger:   logger,
		client:   client,
		maxBytes: maxBytes,
		flights:  make(map[string]*flight),
	}
	c.entries = lru.New(maxEntries)
	c.entries.OnEvicted = func(_ lru.Key, value interface{}) {
		c.bytes -= value.(*Image).Size()
	}

	if opts.Dir != "" {
		disk, err := newDiskStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		c.disk = disk
	}
	return c, nil
}

// Load resolves rawURL and calls deliver exactly once with the image, or nil
// when the URL is malformed, the fetch fails, the data is not an image, or
// the load is cancelled. Malformed URLs and memory hits are delivered before
// Load returns; everything else is delivered through the executor.
func (c *Cache) Load(rawURL string, deliver func(*Image)) {
	c.Request(rawURL, deliver)
}

// Request is Load returning a release function that withdraws this caller's
// interest. The shared fetch is cancelled once every caller waiting on it has
// released; deliver is still called exactly once. Release is idempotent.
func (c *Cache) Request(rawURL string, deliver func(*Image)) (release func()) {
	key, ok := Normalize(rawURL)
	if !ok {
		deliver(nil)
		return func() {}
	}

	c.mu.Lock()
	if v, hit := c.entries.Get(key); hit {
		c.mu.Unlock()
		deliver(v.(*Image))
		return func() {}
	}

	f, joined := c.flights[key]
	if !joined {
		ctx, cancel := context.WithCancel(context.Background())
		f = &flight{ctx: ctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	ch := c.group.DoChan(key, func() (interface{}, error) {
		defer c.finish(key, f)
		return c.fetch(f.ctx, key)
	})
	c.mu.Unlock()

	if joined {
		c.logger.Debug("joined in-flight image load", slog.String("url", key))
	}

	go func() {
		res := <-ch
		var img *Image
		if res.Err == nil {
			img, _ = res.Val.(*Image)
		}
		c.exec.Post(func() { deliver(img) })
	}()

	var once sync.Once
	return func() {
		once.Do(func() { c.release(key, f) })
	}
}

// Get returns the image for rawURL if it is cached in memory.
func (c *Cache) Get(rawURL string) (*Image, bool) {
	key, ok := Normalize(rawURL)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, hit := c.entries.Get(key)
	if !hit {
		return nil, false
	}
	return v.(*Image), true
}

// CancelLoad aborts the in-flight fetch for rawURL regardless of how many
// callers wait on it. Waiting callers receive nil. Cancelling an unknown or
// finished load is a no-op.
func (c *Cache) CancelLoad(rawURL string) {
	key, ok := Normalize(rawURL)
	if !ok {
		return
	}
	c.mu.Lock()
	f, exists := c.flights[key]
	if exists {
		delete(c.flights, key)
		c.group.Forget(key)
	}
	c.mu.Unlock()

	if exists {
		f.cancel()
	}
}

// Clear empties both tiers and cancels every in-flight fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries.Clear()
	c.bytes = 0
	flights := c.flights
	c.flights = make(map[string]*flight)
	for key := range flights {
		c.group.Forget(key)
	}
	c.mu.Unlock()

	for _, f := range flights {
		f.cancel()
	}
	if c.disk != nil {
		if err := c.disk.clear(); err != nil {
			c.logger.Warn("clear disk image cache failed", slog.String("error", err.Error()))
		}
	}
}

// Close cancels in-flight fetches and keeps cached data.
func (c *Cache) Close() {
	c.mu.Lock()
	flights := c.flights
	c.flights = make(map[string]*flight)
	for key := range flights {
		c.group.Forget(key)
	}
	c.mu.Unlock()

	for _, f := range flights {
		f.cancel()
	}
}

// Stats reports the current occupancy.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: c.entries.Len(), Bytes: c.bytes, InFlight: len(c.flights)}
}

func (c *Cache) release(key string, f *flight) {
	c.mu.Lock()
	f.waiters--
	abandoned := f.waiters <= 0 && c.flights[key] == f
	if abandoned {
		delete(c.flights, key)
		c.group.Forget(key)
	}
	c.mu.Unlock()

	if abandoned {
		c.logger.Debug("abandoned image load", slog.String("url", key))
		f.cancel()
	}
}

func (c *Cache) finish(key string, f *flight) {
	c.mu.Lock()
	if c.flights[key] == f {
		delete(c.flights, key)
		c.group.Forget(key)
	}
	c.mu.Unlock()
	f.cancel()
}

func (c *Cache) fetch(ctx context.Context, key string) (*Image, error) {
	if c.disk != nil {
		if data, ok := c.disk.read(key); ok {
			if img, err := decode(key, data); err == nil {
				c.store(ctx, key, img)
				return img, nil
			}
			c.disk.remove(key)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("image fetch failed", slog.String("url", key), slog.String("error", err.Error()))
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image fetch: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("image fetch: payload exceeds %d bytes", c.maxBytes)
	}

	img, err := decode(key, data)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, img)
	if c.disk != nil && ctx.Err() == nil {
		if err := c.disk.write(key, data); err != nil {
			c.logger.Warn("persist image failed", slog.String("url", key), slog.String("error", err.Error()))
		}
	}
	return img, nil
}

// store inserts img unless the load was cancelled meanwhile, then evicts
// least recently used entries until both bounds hold.
func (c *Cache) store(ctx context.Context, key string, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	c.entries.Remove(key)
	c.entries.Add(key, img)
	c.bytes += img.Size()
	for c.bytes > c.maxBytes && c.entries.Len() > 0 {
		c.entries.RemoveOldest()
	}
}

// Normalize validates rawURL and returns the cache key for it.
func Normalize(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
