package llm

import (
	"context"

	"github.com/yoockh/slife/internal/models"
)

// Prompt is a role-separated completion request: one system instruction,
// prior turns, and the new user turn.
type Prompt struct {
	// Kind names the prompt template ("contextualize", "qa"); providers may ignore it.
	Kind    string
	System  string
	History []models.Turn
	User    string
}

type Provider interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}
