package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/prompts"
	"github.com/yoockh/slife/internal/testutil"
	"github.com/yoockh/slife/internal/utils"
)

var priorTurns = []models.Turn{
	{Role: models.RoleHuman, Text: "Quero um studio em Campinas"},
	{Role: models.RoleAssistant, Text: "O Imóvel ID 1 em Campinas custa R$ 800,00."},
}

func TestRewrite_EmptyHistoryPassesThrough(t *testing.T) {
	fake := &testutil.FakeLLM{}
	r := NewQueryRewriter(fake, prompts.Default(), true)

	out, err := r.Rewrite(context.Background(), nil, "studio em Campinas")
	require.NoError(t, err)
	assert.Equal(t, "studio em Campinas", out)
	assert.Empty(t, fake.Prompts())
}

func TestRewrite_HistoryAwareOffPassesThrough(t *testing.T) {
	fake := &testutil.FakeLLM{}
	r := NewQueryRewriter(fake, prompts.Default(), false)

	out, err := r.Rewrite(context.Background(), priorTurns, "e o preço?")
	require.NoError(t, err)
	assert.Equal(t, "e o preço?", out)
	assert.Empty(t, fake.Prompts())
}

func TestRewrite_UsesModelOutputTrimmedOnly(t *testing.T) {
	fake := &testutil.FakeLLM{Replies: map[string]string{
		prompts.KindContextualize: "  Qual o preço do studio em Campinas?\n",
	}}
	r := NewQueryRewriter(fake, prompts.Default(), true)

	out, err := r.Rewrite(context.Background(), priorTurns, "e o preço?")
	require.NoError(t, err)
	assert.Equal(t, "Qual o preço do studio em Campinas?", out)

	sent := fake.PromptsOf(prompts.KindContextualize)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].System, "NÃO responda")
	assert.Equal(t, priorTurns, sent[0].History)
	assert.Equal(t, "e o preço?", sent[0].User)
}

func TestRewrite_EmptyModelOutputFallsBack(t *testing.T) {
	fake := &testutil.FakeLLM{Replies: map[string]string{prompts.KindContextualize: "   "}}
	out, err := NewQueryRewriter(fake, prompts.Default(), true).Rewrite(context.Background(), priorTurns, "e o preço?")
	require.NoError(t, err)
	assert.Equal(t, "e o preço?", out)
}

func TestRewrite_ModelError(t *testing.T) {
	fake := &testutil.FakeLLM{Err: utils.E(utils.CodeTimeout, "LLM.Complete", "completion failed", context.DeadlineExceeded)}
	_, err := NewQueryRewriter(fake, prompts.Default(), true).Rewrite(context.Background(), priorTurns, "e o preço?")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))

	fake = &testutil.FakeLLM{Err: errors.New("boom")}
	_, err = NewQueryRewriter(fake, prompts.Default(), true).Rewrite(context.Background(), priorTurns, "x")
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
