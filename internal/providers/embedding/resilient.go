package embedding

import (
	"context"
	"time"

	"github.com/yoockh/slife/internal/utils"
)

type resilient struct {
	next    Embedder
	policy  utils.RetryPolicy
	timeout time.Duration
}

// WithResilience bounds each attempt by timeout and retries transient failures.
func WithResilience(next Embedder, policy utils.RetryPolicy, timeout time.Duration) Embedder {
	return &resilient{next: next, policy: policy, timeout: timeout}
}

func (r *resilient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	const op = "Embedder.EmbedDocuments"

	var out [][]float32
	err := r.do(ctx, op, func(ctx context.Context) error {
		v, err := r.next.EmbedDocuments(ctx, texts)
		out = v
		return err
	})
	if err != nil {
		return nil, utils.Classify(op, "embedding failed", err)
	}
	return out, nil
}

func (r *resilient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	const op = "Embedder.EmbedQuery"

	var out []float32
	err := r.do(ctx, op, func(ctx context.Context) error {
		v, err := r.next.EmbedQuery(ctx, text)
		out = v
		return err
	})
	if err != nil {
		return nil, utils.Classify(op, "embedding failed", err)
	}
	return out, nil
}

func (r *resilient) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return utils.Retry(ctx, r.policy, op, func(ctx context.Context) error {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		return fn(ctx)
	})
}
