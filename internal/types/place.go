package types

// PlaceCategory classifies a place record.
type PlaceCategory string

const (
	CategoryLodging    PlaceCategory = "lodging"
	CategoryFood       PlaceCategory = "food"
	CategoryAttraction PlaceCategory = "attraction"
	CategoryTransport  PlaceCategory = "transport"
	CategoryOther      PlaceCategory = "other"
)

// PlaceRecord is a single place in the dataset. Records are owned by the
// persistent store and are read-only to pipeline stages.
type PlaceRecord struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Category      PlaceCategory `json:"category"`
	City          string        `json:"city"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	Rating        float64       `json:"rating"`
	PriceEstimate float64       `json:"price_estimate"`
	Metadata      string        `json:"metadata,omitempty"`
}

// Candidate is a place annotated with the per-signal scores produced by the
// parallel analysis stages and the final combined score assigned by the
// aggregator.
type Candidate struct {
	Place PlaceRecord `json:"place"`

	RecommendationScore float64 `json:"recommendation_score"`
	SentimentScore      float64 `json:"sentiment_score"`
	SimilarityScore     float64 `json:"similarity_score"`
	PriceFitScore       float64 `json:"price_fit_score"`

	FinalScore float64 `json:"final_score"`
}
