package embedcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text))}, nil
}

func TestCacheHitsSkipUpstream(t *testing.T) {
	up := &countingEmbedder{}
	c, err := New(up, "nomic-embed-text", 8)
	require.NoError(t, err)

	first, err := c.Embed(context.Background(), "python")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "  python ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, up.calls)
}

func TestCacheReturnsCopies(t *testing.T) {
	c, err := New(&countingEmbedder{}, "m", 8)
	require.NoError(t, err)
	v, _ := c.Embed(context.Background(), "go")
	v[0] = 99
	again, _ := c.Embed(context.Background(), "go")
	assert.Equal(t, float32(2), again[0])
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	up := &countingEmbedder{err: errors.New("down")}
	c, err := New(up, "m", 8)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCacheEvicts(t *testing.T) {
	up := &countingEmbedder{}
	c, err := New(up, "m", 1)
	require.NoError(t, err)
	_, _ = c.Embed(context.Background(), "a")
	_, _ = c.Embed(context.Background(), "bb")
	_, _ = c.Embed(context.Background(), "a")
	assert.Equal(t, 3, up.calls)
}
