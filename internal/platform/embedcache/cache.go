// Package embedcache memoizes embeddings of identical texts in a bounded LRU.
package embedcache

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yungbote/competency-advisor/internal/platform/llm"
)

type Cache struct {
	next  llm.Embedder
	model string
	lru   *lru.Cache[string, []float32]
}

var _ llm.Embedder = (*Cache)(nil)

// New wraps next. model namespaces keys so switching models never serves stale vectors.
func New(next llm.Embedder, model string, size int) (*Cache, error) {
	if next == nil {
		return nil, fmt.Errorf("embedcache: nil embedder")
	}
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("embedcache: %w", err)
	}
	return &Cache{next: next, model: model, lru: c}, nil
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.model + "\x00" + strings.TrimSpace(text)
	if vec, ok := c.lru.Get(key); ok {
		return clone(vec), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, clone(vec))
	return vec, nil
}

func (c *Cache) Len() int { return c.lru.Len() }

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
