package llm

import (
	"context"
	"time"

	"github.com/yoockh/slife/internal/utils"
)

type resilient struct {
	next    Provider
	policy  utils.RetryPolicy
	timeout time.Duration
}

// WithResilience bounds every attempt by timeout and retries transient
// failures under policy. Final errors come back as *utils.AppError.
func WithResilience(next Provider, policy utils.RetryPolicy, timeout time.Duration) Provider {
	return &resilient{next: next, policy: policy, timeout: timeout}
}

func (r *resilient) Complete(ctx context.Context, p Prompt) (string, error) {
	const op = "LLM.Complete"

	var out string
	err := utils.Retry(ctx, r.policy, op, func(ctx context.Context) error {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		s, err := r.next.Complete(ctx, p)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return "", utils.Classify(op, "completion failed", err)
	}
	return out, nil
}
