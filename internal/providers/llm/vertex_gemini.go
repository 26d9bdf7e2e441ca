package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/yoockh/slife/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type VertexGemini struct {
	client      *vertexgenai.Client
	modelName   string
	temperature float32
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, temperature float32, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &VertexGemini{client: c, modelName: modelName, temperature: temperature}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete runs one chat turn. A model handle is built per call because
// the system instruction differs between prompt kinds.
func (v *VertexGemini) Complete(ctx context.Context, p Prompt) (string, error) {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(v.temperature)
	if p.System != "" {
		m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(p.System)}}
	}

	cs := m.StartChat()
	cs.History = toContents(p.History)

	var sb strings.Builder
	it := cs.SendMessageStream(ctx, vertexgenai.Text(p.User))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}
	return sb.String(), nil
}

func toContents(turns []models.Turn) []*vertexgenai.Content {
	out := make([]*vertexgenai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, &vertexgenai.Content{Role: role, Parts: []vertexgenai.Part{vertexgenai.Text(t.Text)}})
	}
	return out
}
