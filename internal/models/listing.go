package models

// ListingRecord is one row of the listings dataset. Immutable once loaded.
type ListingRecord struct {
	ID            int64
	Type          string  // studio|apartamento|republica|...
	Location      string  // "Campinas" or "Campinas - SP"
	Rent          float64 // monthly, BRL
	Rooms         int
	ParkingSpaces int
	Furnished     bool
	Internet      bool
	Laundry       bool
	DistanceKM    float64 // distance to campus
	Rating        float64
}

type PetPolicy string

const (
	PetFriendly   PetPolicy = "pet_friendly"
	PetNotAllowed PetPolicy = "not_allowed"
)

// ListingMetadata travels with a document for display-time citation.
type ListingMetadata struct {
	ID                  int64     `json:"id"`
	Type                string    `json:"type"`
	City                string    `json:"city"`
	State               string    `json:"state,omitempty"`
	StateCode           string    `json:"state_code,omitempty"`
	Rent                float64   `json:"rent"`
	PetPolicy           PetPolicy `json:"pet_policy"`
	OriginalDescription string    `json:"original_description"`
}

// ListingDocument is the embeddable, citable unit derived from one ListingRecord.
type ListingDocument struct {
	Text     string          `json:"text"`
	Metadata ListingMetadata `json:"metadata"`
}

// ScoredDocument is a retrieval hit.
type ScoredDocument struct {
	Document ListingDocument `json:"document"`
	Score    float64         `json:"score"`
}
