package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/cache"
)

// CachedEmbedder memoizes query embeddings. Document embeddings are computed
// once per process at index build and go straight through.
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	model string
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedEmbedder(next Embedder, c cache.Cache, model string, ttl time.Duration, log *logrus.Logger) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, model: model, ttl: ttl, log: log}
}

func (e *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.EmbedDocuments(ctx, texts)
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := QueryCacheKey(e.model, text)

	var vec []float32
	hit, err := e.cache.GetJSON(ctx, key, &vec)
	if err != nil {
		// cache outage must not fail the request
		e.log.WithError(err).WithField("key", key).Warn("query embedding cache read failed")
	} else if hit && len(vec) > 0 {
		return vec, nil
	}

	vec, err = e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetJSON(ctx, key, vec, e.ttl); err != nil {
		e.log.WithError(err).WithField("key", key).Warn("query embedding cache write failed")
	}
	return vec, nil
}

func QueryCacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "qemb:" + model + ":" + hex.EncodeToString(sum[:])
}
