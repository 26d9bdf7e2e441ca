package embedding

import "context"

// Embedder maps text to fixed-length vectors. Documents and queries are
// separate calls because hosted models embed them with different task types.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
