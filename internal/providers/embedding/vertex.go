package embedding

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// VertexEmbedder calls the publisher text-embedding models through the
// Vertex AI prediction endpoint.
type VertexEmbedder struct {
	client   *aiplatform.PredictionClient
	endpoint string
}

func NewVertexEmbedder(ctx context.Context, projectID, location, model string, opts ...option.ClientOption) (*VertexEmbedder, error) {
	if model == "" {
		model = "text-embedding-004"
	}
	opts = append([]option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)),
	}, opts...)

	c, err := aiplatform.NewPredictionClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &VertexEmbedder{
		client:   c,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, location, model),
	}, nil
}

func (v *VertexEmbedder) Close() error { return v.client.Close() }

func (v *VertexEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return v.predict(ctx, texts, taskDocument)
}

func (v *VertexEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := v.predict(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (v *VertexEmbedder) predict(ctx context.Context, texts []string, task string) ([][]float32, error) {
	instances := make([]*structpb.Value, 0, len(texts))
	for _, t := range texts {
		inst, err := structpb.NewValue(map[string]any{
			"content":   t,
			"task_type": task,
		})
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.endpoint,
		Instances: instances,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GetPredictions()) != len(texts) {
		return nil, fmt.Errorf("embedding: got %d predictions for %d inputs", len(resp.GetPredictions()), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, p := range resp.GetPredictions() {
		vec, err := parsePrediction(p)
		if err != nil {
			return nil, fmt.Errorf("embedding: prediction %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// parsePrediction reads {"embeddings": {"values": [...]}}.
func parsePrediction(p *structpb.Value) ([]float32, error) {
	emb := p.GetStructValue().GetFields()["embeddings"]
	values := emb.GetStructValue().GetFields()["values"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, fmt.Errorf("no values")
	}
	vec := make([]float32, len(values))
	for i, x := range values {
		vec[i] = float32(x.GetNumberValue())
	}
	return vec, nil
}
