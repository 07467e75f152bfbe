package source

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"
)

// Fetcher is what the cache loads through; *Loader implements it.
type Fetcher interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

type entry struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Cache memoises decoded assets. Lookup never blocks: a miss starts a
// background decode and reports false until it finishes. Failures are cached
// too, so a broken source is logged once and then drawn as a placeholder.
type Cache struct {
	ctx    context.Context
	loader Fetcher
	log    *zap.Logger
	sem    chan struct{}

	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache decodes at most parallel assets at once. ctx bounds every
// background decode.
func NewCache(ctx context.Context, loader Fetcher, log *zap.Logger, parallel int) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Cache{
		ctx:     ctx,
		loader:  loader,
		log:     log,
		sem:     make(chan struct{}, parallel),
		entries: make(map[string]*entry),
	}
}

// Lookup implements compositor.AssetSource.
func (c *Cache) Lookup(src string) (image.Image, bool) {
	e := c.start(src)
	select {
	case <-e.done:
		return e.img, e.err == nil
	default:
		return nil, false
	}
}

// Preload starts every source and waits until each has loaded or failed.
// Only cancellation is reported as an error.
func (c *Cache) Preload(ctx context.Context, srcs []string) error {
	pending := make([]*entry, 0, len(srcs))
	for _, src := range srcs {
		pending = append(pending, c.start(src))
	}
	for _, e := range pending {
		select {
		case <-e.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Forget drops a source so the next Lookup reloads it.
func (c *Cache) Forget(src string) {
	c.mu.Lock()
	delete(c.entries, src)
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

func (c *Cache) start(src string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[src]; ok {
		return e
	}
	e := &entry{done: make(chan struct{})}
	c.entries[src] = e
	go c.load(src, e)
	return e
}

func (c *Cache) load(src string, e *entry) {
	defer close(e.done)
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-c.ctx.Done():
		e.err = c.ctx.Err()
		return
	}
	e.img, e.err = c.loader.Load(c.ctx, src)
	if e.err != nil {
		c.log.Warn("asset failed to load", zap.String("src", shorten(src)), zap.Error(e.err))
	}
}

// shorten keeps data: URIs out of the logs.
func shorten(src string) string {
	if len(src) > 96 {
		return src[:96] + "..."
	}
	return src
}
