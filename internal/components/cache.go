package components

import (
	"context"
	"strings"
	"sync"

	"github.com/BigLep01/CRMdev/internal/projector"
	"github.com/BigLep01/CRMdev/internal/ui"
)

// maxCachedProjectors bounds each projector cache. A full cache is dropped
// wholesale.
const maxCachedProjectors = 256

// projectorCache keeps one projector per key so concurrent requests with
// different filters never supersede each other.
type projectorCache struct {
	build func() *projector.Projector

	mu    sync.Mutex
	items map[string]*projector.Projector
}

// cacheKey joins parts so that a key's own prefix never matches a sibling:
// cacheKey("c1") is a prefix of cacheKey("c1", "bob") but not of
// cacheKey("c10").
func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x00") + "\x00"
}

func newProjectorCache(build func() *projector.Projector) *projectorCache {
	return &projectorCache{build: build, items: make(map[string]*projector.Projector)}
}

func (c *projectorCache) get(key string) *projector.Projector {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.items[key]; ok {
		return p
	}
	if len(c.items) >= maxCachedProjectors {
		c.items = make(map[string]*projector.Projector)
	}
	p := c.build()
	c.items[key] = p
	return p
}

func (c *projectorCache) matching(prefix string) []*projector.Projector {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ps []*projector.Projector
	for key, p := range c.items {
		if strings.HasPrefix(key, prefix) {
			ps = append(ps, p)
		}
	}
	return ps
}

// refresh refetches every projector whose key starts with prefix and claims
// them for the current request.
func (c *projectorCache) refresh(ctx context.Context, prefix string) {
	for _, p := range c.matching(prefix) {
		ui.Once(ctx, p)
		p.Refresh(ctx)
	}
}

// wait blocks until every cached projector's fetches have returned.
func (c *projectorCache) wait() {
	for _, p := range c.matching("") {
		p.Wait()
	}
}
