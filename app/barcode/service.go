package barcode

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Looker interface {
	Lookup(ctx context.Context, code string) (Product, error)
}

// CachedLookup fronts a Looker with a bounded LRU whose entries expire after ttl.
// Only successful lookups are cached.
type CachedLookup struct {
	next   Looker
	cache  *expirable.LRU[string, Product]
	logger *slog.Logger
}

func NewCachedLookup(next Looker, size int, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		next:   next,
		cache:  expirable.NewLRU[string, Product](size, nil, ttl),
		logger: logger,
	}
}

func (c *CachedLookup) Lookup(ctx context.Context, code string) (Product, error) {
	if p, ok := c.cache.Get(code); ok {
		c.logger.Debug("barcode cache hit", "barcode", code)
		return p, nil
	}

	p, err := c.next.Lookup(ctx, code)
	if err != nil {
		return Product{}, err
	}
	c.cache.Add(code, p)
	return p, nil
}

func (c *CachedLookup) Len() int {
	return c.cache.Len()
}
