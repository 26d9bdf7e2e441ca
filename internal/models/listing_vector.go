package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ListingVector is the pgvector row backing the index when Postgres is configured.
// Position keeps corpus order for tie-breaking.
type ListingVector struct {
	ListingID   int64           `gorm:"column:listing_id;primaryKey" json:"listing_id"`
	Position    int             `gorm:"column:position;index" json:"position"`
	Type        string          `gorm:"column:type;type:text" json:"type"`
	City        string          `gorm:"column:city;type:text;index" json:"city"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Metadata    datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Embedding   pgvector.Vector `gorm:"column:embedding;type:vector" json:"-"`
	IndexedAt   time.Time       `gorm:"column:indexed_at;type:timestamptz" json:"indexed_at"`
}

func (ListingVector) TableName() string { return "listing_vectors" }
