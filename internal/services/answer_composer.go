package services

import (
	"context"
	"strings"

	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/prompts"
	"github.com/yoockh/slife/internal/providers/llm"
	"github.com/yoockh/slife/internal/utils"
)

const noListingsContext = "Nenhum imóvel encontrado."

// AnswerComposer produces the grounded answer from retrieved listings.
type AnswerComposer interface {
	Compose(ctx context.Context, docs []models.ScoredDocument, history []models.Turn, utterance string) (string, error)
}

type answerComposer struct {
	llm llm.Provider
	tpl prompts.Template
}

func NewAnswerComposer(p llm.Provider, tpl *prompts.Templates) AnswerComposer {
	return &answerComposer{llm: p, tpl: tpl.QA}
}

func (c *answerComposer) Compose(ctx context.Context, docs []models.ScoredDocument, history []models.Turn, utterance string) (string, error) {
	const op = "AnswerComposer.Compose"

	p := c.tpl.Render(prompts.KindQA, map[string]string{
		"context": FormatContext(docs),
		"input":   utterance,
	}, history)

	out, err := c.llm.Complete(ctx, p)
	if err != nil {
		return "", utils.Classify(op, "failed to compose answer", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", utils.E(utils.CodeUnavailable, op, "model returned an empty answer", nil)
	}
	return out, nil
}

// FormatContext lists the retrieved descriptions in rank order, one per line.
func FormatContext(docs []models.ScoredDocument) string {
	if len(docs) == 0 {
		return noListingsContext
	}
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(d.Document.Text)
	}
	return b.String()
}
