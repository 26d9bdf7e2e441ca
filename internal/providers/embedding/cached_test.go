package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/slife/internal/logger"
	"github.com/yoockh/slife/internal/testutil"
)

func TestCachedEmbedder_HitSkipsModel(t *testing.T) {
	ctx := context.Background()
	inner := &testutil.HashEmbedder{Dim: 16}
	c := testutil.NewMemoryCache()
	e := NewCachedEmbedder(inner, c, "text-embedding-004", 0, logger.Discard())

	v1, err := e.EmbedQuery(ctx, "studio em Campinas")
	require.NoError(t, err)
	v2, err := e.EmbedQuery(ctx, "studio em Campinas")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.Calls())
	assert.Equal(t, 1, c.Sets)
}

func TestCachedEmbedder_CacheOutageFallsThrough(t *testing.T) {
	inner := &testutil.HashEmbedder{Dim: 16}
	c := testutil.NewMemoryCache()
	c.Err = errors.New("redis down")
	e := NewCachedEmbedder(inner, c, "m", 0, logger.Discard())

	v, err := e.EmbedQuery(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestCachedEmbedder_DocumentsBypassCache(t *testing.T) {
	inner := &testutil.HashEmbedder{Dim: 16}
	c := testutil.NewMemoryCache()
	e := NewCachedEmbedder(inner, c, "m", 0, logger.Discard())

	_, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Zero(t, c.Gets)
}

func TestQueryCacheKey(t *testing.T) {
	a := QueryCacheKey("m1", "x")
	assert.Equal(t, a, QueryCacheKey("m1", "x"))
	assert.NotEqual(t, a, QueryCacheKey("m2", "x"))
	assert.NotEqual(t, a, QueryCacheKey("m1", "y"))
	assert.Contains(t, a, "qemb:m1:")
}
