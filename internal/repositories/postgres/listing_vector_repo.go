package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/retrieval"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingVectorRepo is a retrieval.Store on Postgres + pgvector. The table is
// truncated by Reset, so it only ever holds the current process's corpus.
type ListingVectorRepo struct {
	db    *gorm.DB
	count int
}

var _ retrieval.Store = (*ListingVectorRepo)(nil)

func NewListingVectorRepo(db *gorm.DB) *ListingVectorRepo {
	return &ListingVectorRepo{db: db}
}

func (r *ListingVectorRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).AutoMigrate(&models.ListingVector{})
}

func (r *ListingVectorRepo) Reset(ctx context.Context) error {
	r.count = 0
	return r.db.WithContext(ctx).Exec("TRUNCATE TABLE " + tableIdent()).Error
}

func (r *ListingVectorRepo) Add(ctx context.Context, docs []models.ListingDocument, vecs [][]float32) error {
	now := time.Now().UTC()
	rows := make([]models.ListingVector, 0, len(docs))
	for i, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return err
		}
		rows = append(rows, models.ListingVector{
			ListingID:   d.Metadata.ID,
			Position:    r.count + i,
			Type:        d.Metadata.Type,
			City:        d.Metadata.City,
			Description: d.Text,
			Metadata:    datatypes.JSON(meta),
			Embedding:   pgvector.NewVector(vecs[i]),
			IndexedAt:   now,
		})
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return err
	}
	r.count += len(rows)
	return nil
}

func (r *ListingVectorRepo) Len() int { return r.count }

type scoredRow struct {
	models.ListingVector
	Score float64 `gorm:"column:score"`
}

func (r *ListingVectorRepo) Nearest(ctx context.Context, query []float32, n int) ([]retrieval.Candidate, error) {
	q := pgvector.NewVector(query)

	var rows []scoredRow
	err := r.db.WithContext(ctx).Raw(nearestSQL(), q, q, n).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.Candidate, 0, len(rows))
	for _, row := range rows {
		var meta models.ListingMetadata
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return nil, err
		}
		out = append(out, retrieval.Candidate{
			Document: models.ListingDocument{Text: row.Description, Metadata: meta},
			Vector:   row.Embedding.Slice(),
			Score:    row.Score,
			Position: row.Position,
		})
	}
	return out, nil
}

// tableIdent is the listing table name quoted for raw SQL.
func tableIdent() string {
	return pq.QuoteIdentifier(models.ListingVector{}.TableName())
}

func nearestSQL() string {
	return `SELECT *, 1 - (embedding <=> ?) AS score
	   FROM ` + tableIdent() + `
	  ORDER BY embedding <=> ?, position
	  LIMIT ?`
}
