package classify

import (
	"context"
	"sync/atomic"
	"time"

	"spendlens/internal/cache"
	"spendlens/internal/core"
)

// Cached memoises predictions per normalised description. The memo is
// dropped whenever the underlying classifier retrains.
type Cached struct {
	*Classifier
	memo *cache.LRUCache[Prediction]
	// gen counts retrains; a prediction that straddles one is not memoised.
	gen atomic.Uint64
}

// NewCached wraps c with an LRU of size entries kept for ttl.
func NewCached(c *Classifier, size int, ttl time.Duration) *Cached {
	cc := &Cached{Classifier: c, memo: cache.NewLRUCache[Prediction](size, ttl)}
	c.OnRetrain(cc.invalidate)
	return cc
}

func (c *Cached) invalidate() {
	c.gen.Add(1)
	c.memo.Purge()
}

func (c *Cached) Predict(ctx context.Context, description string) Prediction {
	key := Normalize(description)
	if p, ok := c.memo.Get(key); ok {
		return p
	}
	gen := c.gen.Load()
	p := c.Classifier.Predict(ctx, description)
	// Defaults may come from a transient load failure; do not pin them.
	if p.Source != SourceDefault && c.gen.Load() == gen {
		c.memo.Set(key, p)
	}
	return p
}

func (c *Cached) Classify(ctx context.Context, description string) core.Category {
	return c.Predict(ctx, description).Category
}

// Memo exposes the underlying cache for sweeping and metrics.
func (c *Cached) Memo() *cache.LRUCache[Prediction] {
	return c.memo
}
