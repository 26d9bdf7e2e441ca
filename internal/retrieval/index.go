package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/providers/embedding"
	"github.com/yoockh/slife/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Policy string

const (
	PolicySimilarity Policy = "similarity"
	PolicyMMR        Policy = "mmr"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySimilarity:
		return PolicySimilarity, nil
	case PolicyMMR, "":
		return PolicyMMR, nil
	}
	return "", fmt.Errorf("unknown retrieval policy %q", s)
}

// Params select the retrieval policy per query. Lambda is the MMR diversity
// weight: 0 is maximum diversity, 1 is pure similarity.
type Params struct {
	Policy Policy
	K      int
	FetchK int
	Lambda float64
}

func (p Params) Validate() error {
	if p.Policy != PolicySimilarity && p.Policy != PolicyMMR {
		return fmt.Errorf("unknown retrieval policy %q", p.Policy)
	}
	if p.K < 1 {
		return fmt.Errorf("k must be >= 1, got %d", p.K)
	}
	if p.Policy == PolicyMMR {
		if p.FetchK < p.K {
			return fmt.Errorf("fetch_k (%d) must be >= k (%d)", p.FetchK, p.K)
		}
		if p.Lambda < 0 || p.Lambda > 1 {
			return fmt.Errorf("lambda must be within [0,1], got %v", p.Lambda)
		}
	}
	return nil
}

type BuildOptions struct {
	BatchSize   int
	Concurrency int
}

var ErrEmptyCorpus = errors.New("no documents to index")

// Index is the embedded corpus. Read-only after Build.
type Index struct {
	store    Store
	embedder embedding.Embedder
}

// Build embeds every document and fills store. Any failed batch fails the
// whole build; a partial index is never returned.
func Build(ctx context.Context, docs []models.ListingDocument, emb embedding.Embedder, store Store, opts BuildOptions, log *logrus.Logger) (*Index, error) {
	const op = "Index.Build"

	if len(docs) == 0 {
		return nil, utils.E(utils.CodeNotInitialized, op, "empty corpus", ErrEmptyCorpus)
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 32
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}

	vecs := make([][]float32, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(docs); start += batch {
		start, end := start, min(start+batch, len(docs))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Text)
			}
			out, err := emb.EmbedDocuments(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return fmt.Errorf("batch %d-%d: got %d vectors for %d texts", start, end, len(out), len(texts))
			}
			copy(vecs[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, utils.Classify(op, "embedding corpus failed", err)
	}

	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) == 0 || len(v) != dim {
			return nil, utils.E(utils.CodeInternal, op, fmt.Sprintf("inconsistent embedding dimension at document %d", i), nil)
		}
	}

	if err := store.Reset(ctx); err != nil {
		return nil, utils.Classify(op, "reset vector store", err)
	}
	if err := store.Add(ctx, docs, vecs); err != nil {
		return nil, utils.Classify(op, "fill vector store", err)
	}

	log.WithFields(logrus.Fields{
		"documents": len(docs),
		"dimension": dim,
		"batches":   (len(docs) + batch - 1) / batch,
	}).Info("vector index built")

	return &Index{store: store, embedder: emb}, nil
}

func (ix *Index) Len() int { return ix.store.Len() }

// Search embeds query and returns up to p.K documents under p.Policy.
// Scores are cosine similarity to the query.
func (ix *Index) Search(ctx context.Context, query string, p Params) ([]models.ScoredDocument, error) {
	const op = "Index.Search"

	if err := p.Validate(); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}
	qv, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, utils.Classify(op, "embedding query failed", err)
	}

	var hits []Candidate
	switch p.Policy {
	case PolicySimilarity:
		hits, err = ix.store.Nearest(ctx, qv, p.K)
	case PolicyMMR:
		hits, err = ix.store.Nearest(ctx, qv, p.FetchK)
		if err == nil {
			hits = MMR(hits, p.K, p.Lambda)
		}
	}
	if err != nil {
		return nil, utils.Classify(op, "nearest neighbor lookup failed", err)
	}

	out := make([]models.ScoredDocument, len(hits))
	for i, h := range hits {
		out[i] = models.ScoredDocument{Document: h.Document, Score: h.Score}
	}
	return out, nil
}
