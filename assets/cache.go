package assets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lvillar/medreport"
)

const readyKey = "\x00ready"

// Cache memoizes asset payloads by name. Each payload is written once; a
// failed fetch is not remembered, so a later attempt fetches again.
type Cache struct {
	fetcher Fetcher
	sources []Source
	logger  *zap.Logger

	group singleflight.Group

	mu    sync.RWMutex
	items map[Name][]byte
	ready *Bundle
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithSources replaces the default asset sources.
func WithSources(sources []Source) CacheOption {
	return func(c *Cache) {
		c.sources = append([]Source(nil), sources...)
	}
}

// WithLogger sets the logger for optional-asset failures and fetch events.
func WithLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache returns an empty cache that loads assets through fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		sources: DefaultSources(),
		logger:  zap.NewNop(),
		items:   make(map[Name][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var shared = sync.OnceValue(func() *Cache {
	return NewCache(NewRouter(NewHTTPFetcher(30*time.Second, nil)))
})

// Shared returns a process-wide cache over the default sources and a 30s
// HTTP timeout, for library callers that do not configure their own. It
// lives until the process exits. The medreport commands build one cache per
// process from configuration instead (see config.Build).
func Shared() *Cache {
	return shared()
}

// Sources returns the configured sources.
func (c *Cache) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Ready reports whether EnsureReady has completed successfully.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready != nil
}

func (c *Cache) source(name Name) (Source, bool) {
	for _, s := range c.sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

func (c *Cache) lookup(name Name) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.items[name]
	return data, ok
}

// Get returns the payload for name, fetching it on first use. Concurrent
// callers for the same name share one fetch.
func (c *Cache) Get(ctx context.Context, name Name) ([]byte, error) {
	if data, ok := c.lookup(name); ok {
		return data, nil
	}
	src, ok := c.source(name)
	if !ok {
		return nil, fmt.Errorf("assets: unknown asset %q", name)
	}
	if src.Location == "" {
		return nil, fmt.Errorf("assets: %s: %w", name, medreport.ErrMissingAsset)
	}

	v, err, dup := c.group.Do(string(name), func() (any, error) {
		if data, ok := c.lookup(name); ok {
			return data, nil
		}
		data, err := c.fetcher.Fetch(ctx, src.Location)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.items[name]; ok {
			return existing, nil
		}
		c.items[name] = data
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if dup {
		c.logger.Debug("asset fetch shared", zap.String("asset", string(name)))
	}
	return v.([]byte), nil
}

// EnsureReady loads every source concurrently and returns the resulting
// bundle. Required sources that fail abort with *medreport.AssetLoadError;
// optional ones are logged and left out. The first successful bundle is
// returned to every later caller without fetching again.
//
// Concurrent first calls share one load, which runs under the context of
// the call that started it.
func (c *Cache) EnsureReady(ctx context.Context) (*Bundle, error) {
	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()
	if ready != nil {
		return ready, nil
	}

	v, err, _ := c.group.Do(readyKey, func() (any, error) {
		c.mu.RLock()
		ready := c.ready
		c.mu.RUnlock()
		if ready != nil {
			return ready, nil
		}
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

func (c *Cache) load(ctx context.Context) (*Bundle, error) {
	start := time.Now()
	var mu sync.Mutex
	items := make(map[Name][]byte, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range c.sources {
		src := src
		if src.Location == "" && !src.Required {
			continue
		}
		g.Go(func() error {
			data, err := c.Get(gctx, src.Name)
			if err != nil {
				if src.Required {
					return &medreport.AssetLoadError{Asset: string(src.Name), Location: src.Location, Err: err}
				}
				c.logger.Warn("optional asset unavailable, omitting it",
					zap.String("asset", string(src.Name)),
					zap.String("location", src.Location),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			items[src.Name] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("assets not ready", zap.Error(err))
		return nil, err
	}

	b := &Bundle{items: items}
	c.mu.Lock()
	c.ready = b
	c.mu.Unlock()
	c.logger.Info("assets ready",
		zap.Int("assets", len(items)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return b, nil
}
