package planning

import (
	"sort"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Combination weights for the per-signal scores. The weights are fixed and
// documented so two runs over the same inputs always rank identically.
const (
	WeightRecommendation = 0.40
	WeightSentiment      = 0.25
	WeightSimilarity     = 0.15
	WeightPriceFit       = 0.20
)

// NeutralScore substitutes for a missing or degraded signal. A place is
// neither promoted nor punished for a stage that produced nothing for it.
const NeutralScore = 0.5

// SignalSet holds one analysis stage's scores keyed by place ID.
// Values are expected in [0, 1]; out-of-range values are clamped.
type SignalSet map[string]float64

// Signals collects the outputs of the parallel analysis stages. Any set may
// be nil or sparse when the producing stage failed or skipped a place.
type Signals struct {
	Recommendation SignalSet
	Sentiment      SignalSet
	Similarity     SignalSet
	PriceFit       SignalSet
}

func (s SignalSet) scoreFor(placeID string) float64 {
	if s == nil {
		return NeutralScore
	}
	v, ok := s[placeID]
	if !ok {
		return NeutralScore
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Aggregate combines the per-signal scores into ranked candidates.
// Candidates are sorted by final score descending; ties break by place name
// ascending, then place ID, so the ranking never depends on input order or
// stage completion order.
func Aggregate(places []types.PlaceRecord, signals Signals) ([]types.Candidate, error) {
	if len(places) == 0 {
		return nil, types.NewError(types.AGGREGATION_FAILED, "no places to aggregate")
	}

	candidates := make([]types.Candidate, 0, len(places))
	for _, place := range places {
		c := types.Candidate{
			Place:               place,
			RecommendationScore: signals.Recommendation.scoreFor(place.ID),
			SentimentScore:      signals.Sentiment.scoreFor(place.ID),
			SimilarityScore:     signals.Similarity.scoreFor(place.ID),
			PriceFitScore:       signals.PriceFit.scoreFor(place.ID),
		}
		c.FinalScore = WeightRecommendation*c.RecommendationScore +
			WeightSentiment*c.SentimentScore +
			WeightSimilarity*c.SimilarityScore +
			WeightPriceFit*c.PriceFitScore
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		if candidates[i].Place.Name != candidates[j].Place.Name {
			return candidates[i].Place.Name < candidates[j].Place.Name
		}
		return candidates[i].Place.ID < candidates[j].Place.ID
	})

	return candidates, nil
}

// TopByCategory returns up to limit highest-ranked candidates of one
// category, preserving the aggregate ordering.
func TopByCategory(candidates []types.Candidate, category types.PlaceCategory, limit int) []types.Candidate {
	top := make([]types.Candidate, 0, limit)
	for _, c := range candidates {
		if c.Place.Category != category {
			continue
		}
		top = append(top, c)
		if len(top) == limit {
			break
		}
	}
	return top
}
