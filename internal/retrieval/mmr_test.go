package retrieval

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/slife/internal/logger"
	"github.com/yoockh/slife/internal/models"
)

// fixedEmbedder returns preset vectors keyed by text.
type fixedEmbedder map[string][]float32

func (f fixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f[t]
	}
	return out, nil
}

func (f fixedEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f[text], nil
}

func doc(id int64, typ, city string) models.ListingDocument {
	return models.ListingDocument{
		Text:     typ + " " + city + " " + string(rune('a'+id)),
		Metadata: models.ListingMetadata{ID: id, Type: typ, City: city},
	}
}

// Three type+city groups of near-duplicate vectors, all similar to the query.
func diversityFixture() ([]models.ListingDocument, fixedEmbedder) {
	docs := []models.ListingDocument{
		doc(1, "studio", "Campinas"),
		doc(2, "studio", "Campinas"),
		doc(3, "studio", "Campinas"),
		doc(4, "republica", "Curitiba"),
		doc(5, "republica", "Curitiba"),
		doc(6, "apartamento", "Recife"),
	}
	emb := fixedEmbedder{
		docs[0].Text: {1, 0, 0, 0.50},
		docs[1].Text: {1, 0, 0, 0.49},
		docs[2].Text: {1, 0, 0, 0.48},
		docs[3].Text: {0, 1, 0, 0.40},
		docs[4].Text: {0, 1, 0, 0.39},
		docs[5].Text: {0, 0, 1, 0.30},
		"query":      {0.6, 0.3, 0.2, 1},
	}
	return docs, emb
}

func TestMMR_ZeroLambdaPicksDistinctGroups(t *testing.T) {
	docs, emb := diversityFixture()
	ix, err := Build(context.Background(), docs, emb, NewMemoryStore(), BuildOptions{}, discard())
	require.NoError(t, err)

	hits, err := ix.Search(context.Background(), "query", Params{Policy: PolicyMMR, K: 3, FetchK: 6, Lambda: 0})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	seen := map[string]bool{}
	for _, h := range hits {
		key := h.Document.Metadata.Type + "|" + h.Document.Metadata.City
		assert.False(t, seen[key], "duplicate type+city %s", key)
		seen[key] = true
	}
}

func TestMMR_PlainSimilarityReturnsNearDuplicates(t *testing.T) {
	docs, emb := diversityFixture()
	ix, err := Build(context.Background(), docs, emb, NewMemoryStore(), BuildOptions{}, discard())
	require.NoError(t, err)

	hits, err := ix.Search(context.Background(), "query", Params{Policy: PolicySimilarity, K: 3})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Equal(t, "Campinas", h.Document.Metadata.City)
	}
}

func TestMMR_LambdaOneMatchesSimilarity(t *testing.T) {
	cands := []Candidate{
		{Vector: []float32{1, 0}, Score: 0.9, Position: 0},
		{Vector: []float32{1, 0}, Score: 0.8, Position: 1},
		{Vector: []float32{0, 1}, Score: 0.7, Position: 2},
	}
	got := MMR(cands, 2, 1)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, 1, got[1].Position)
}

func TestMMR_Bounds(t *testing.T) {
	assert.Nil(t, MMR(nil, 3, 0.5))
	assert.Nil(t, MMR([]Candidate{{Score: 1}}, 0, 0.5))
	assert.Len(t, MMR([]Candidate{{Score: 1, Vector: []float32{1}}}, 4, 0.5), 1)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 1}))
}

func discard() *logrus.Logger { return logger.Discard() }
