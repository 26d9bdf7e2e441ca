package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/utils"
)

type slowThenOK struct {
	calls int
}

func (s *slowThenOK) Complete(ctx context.Context, p Prompt) (string, error) {
	s.calls++
	if s.calls == 1 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "ok:" + p.User, nil
}

func TestWithResilience_TimeoutIsRetried(t *testing.T) {
	inner := &slowThenOK{}
	p := WithResilience(inner, utils.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}, 20*time.Millisecond)

	out, err := p.Complete(context.Background(), Prompt{User: "oi"})
	require.NoError(t, err)
	assert.Equal(t, "ok:oi", out)
	assert.Equal(t, 2, inner.calls)
}

func TestWithResilience_TimeoutSurfacesAsTimeout(t *testing.T) {
	inner := &slowThenOK{}
	p := WithResilience(inner, utils.RetryPolicy{MaxAttempts: 1}, 10*time.Millisecond)

	_, err := p.Complete(context.Background(), Prompt{User: "oi"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))
	assert.Equal(t, 504, utils.HTTPStatus(err))
}

func TestToContents_MapsRoles(t *testing.T) {
	got := toContents([]models.Turn{
		{Role: models.RoleHuman, Text: "a"},
		{Role: models.RoleAssistant, Text: "b"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, "model", got[1].Role)
}
