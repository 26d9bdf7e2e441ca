package services

import (
	"context"
	"strings"

	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/prompts"
	"github.com/yoockh/slife/internal/providers/llm"
	"github.com/yoockh/slife/internal/utils"
)

// QueryRewriter turns a follow-up utterance into a self-contained question.
type QueryRewriter interface {
	Rewrite(ctx context.Context, history []models.Turn, utterance string) (string, error)
}

type queryRewriter struct {
	llm          llm.Provider
	tpl          prompts.Template
	historyAware bool
}

func NewQueryRewriter(p llm.Provider, tpl *prompts.Templates, historyAware bool) QueryRewriter {
	return &queryRewriter{llm: p, tpl: tpl.Contextualize, historyAware: historyAware}
}

func (r *queryRewriter) Rewrite(ctx context.Context, history []models.Turn, utterance string) (string, error) {
	const op = "QueryRewriter.Rewrite"

	if !r.historyAware || len(history) == 0 {
		return utterance, nil
	}

	p := r.tpl.Render(prompts.KindContextualize, map[string]string{"input": utterance}, history)
	out, err := r.llm.Complete(ctx, p)
	if err != nil {
		return "", utils.Classify(op, "failed to rewrite question", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return utterance, nil
	}
	return out, nil
}
