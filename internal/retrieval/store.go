package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/yoockh/slife/internal/models"
)

// Candidate is a stored document with its vector and similarity to a query.
type Candidate struct {
	Document models.ListingDocument
	Vector   []float32
	Score    float64
	Position int
}

// Store is the nearest-neighbor backend. It is filled once at startup and
// only read afterwards.
type Store interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, docs []models.ListingDocument, vecs [][]float32) error
	// Nearest returns up to n candidates by descending cosine similarity,
	// ties broken by insertion order.
	Nearest(ctx context.Context, query []float32, n int) ([]Candidate, error)
	Len() int
}

type entry struct {
	doc models.ListingDocument
	vec []float32
}

// MemoryStore scans every vector per query.
type MemoryStore struct {
	entries []entry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Reset(context.Context) error {
	s.entries = nil
	return nil
}

func (s *MemoryStore) Add(_ context.Context, docs []models.ListingDocument, vecs [][]float32) error {
	for i := range docs {
		s.entries = append(s.entries, entry{doc: docs[i], vec: vecs[i]})
	}
	return nil
}

func (s *MemoryStore) Len() int { return len(s.entries) }

func (s *MemoryStore) Nearest(_ context.Context, query []float32, n int) ([]Candidate, error) {
	cands := make([]Candidate, len(s.entries))
	for i, e := range s.entries {
		cands[i] = Candidate{Document: e.doc, Vector: e.vec, Score: Cosine(query, e.vec), Position: i}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].Score > cands[b].Score })
	if n < len(cands) {
		cands = cands[:n]
	}
	return cands, nil
}

// Cosine returns 0 when either vector is all zeros or lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
