package planning

import (
	"fmt"
	"math"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Spending categories used in the budget breakdown.
const (
	CategoryLodging    = "lodging"
	CategoryFood       = "food"
	CategoryTransport  = "transport"
	CategoryActivities = "activities"
)

// Default allocation ratios across spending categories.
const (
	DefaultLodgingRatio    = 0.40
	DefaultFoodRatio       = 0.30
	DefaultTransportRatio  = 0.15
	DefaultActivitiesRatio = 0.15
)

// CostTier classifies how expensive a destination is. The tier shifts the
// lodging share by the configured tolerance, funded from activities.
type CostTier string

const (
	CostTierLow      CostTier = "low"
	CostTierStandard CostTier = "standard"
	CostTierHigh     CostTier = "high"
)

// BudgetRatios is the immutable allocation configuration for one run. Two
// concurrent runs with different configurations never interfere because the
// value is passed explicitly, not read from shared state.
type BudgetRatios struct {
	Lodging    float64 `mapstructure:"lodging" yaml:"lodging" validate:"gt=0,lt=1"`
	Food       float64 `mapstructure:"food" yaml:"food" validate:"gt=0,lt=1"`
	Transport  float64 `mapstructure:"transport" yaml:"transport" validate:"gt=0,lt=1"`
	Activities float64 `mapstructure:"activities" yaml:"activities" validate:"gt=0,lt=1"`

	// TierTolerance is the ratio shift applied for non-standard cost tiers.
	TierTolerance float64 `mapstructure:"tier_tolerance" yaml:"tier_tolerance" validate:"gte=0,lte=0.1"`
}

// DefaultBudgetRatios returns the standard allocation.
func DefaultBudgetRatios() BudgetRatios {
	return BudgetRatios{
		Lodging:       DefaultLodgingRatio,
		Food:          DefaultFoodRatio,
		Transport:     DefaultTransportRatio,
		Activities:    DefaultActivitiesRatio,
		TierTolerance: 0.05,
	}
}

// Validate checks the ratios describe a complete allocation.
func (r BudgetRatios) Validate() error {
	sum := r.Lodging + r.Food + r.Transport + r.Activities
	if math.Abs(sum-1.0) > 1e-9 {
		return types.NewError(types.AGGREGATION_FAILED,
			fmt.Sprintf("budget ratios sum to %.4f, want 1.0", sum))
	}
	return nil
}

// forTier shifts the lodging share for expensive or cheap destinations,
// funding the shift from the activities share so the ratios still sum to 1.
func (r BudgetRatios) forTier(tier CostTier) BudgetRatios {
	shifted := r
	switch tier {
	case CostTierHigh:
		shifted.Lodging += r.TierTolerance
		shifted.Activities -= r.TierTolerance
	case CostTierLow:
		shifted.Lodging -= r.TierTolerance
		shifted.Activities += r.TierTolerance
	}
	return shifted
}

// Allocate distributes budget across categories. The returned amounts sum
// exactly to budget: each category is floored to a whole unit and the
// rounding remainder is assigned to the largest category.
func Allocate(budget float64, tier CostTier, ratios BudgetRatios) (map[string]float64, error) {
	if budget <= 0 {
		return nil, types.NewError(types.AGGREGATION_FAILED,
			fmt.Sprintf("cannot allocate non-positive budget %.2f", budget))
	}
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	adjusted := ratios.forTier(tier)

	shares := map[string]float64{
		CategoryLodging:    adjusted.Lodging,
		CategoryFood:       adjusted.Food,
		CategoryTransport:  adjusted.Transport,
		CategoryActivities: adjusted.Activities,
	}

	breakdown := make(map[string]float64, len(shares))
	allocated := 0.0
	largest := CategoryLodging
	for category, share := range shares {
		amount := math.Floor(budget * share)
		breakdown[category] = amount
		allocated += amount
		if share > shares[largest] {
			largest = category
		}
	}

	// Rounding remainder goes to the largest category so the sum is exact.
	breakdown[largest] += budget - allocated

	return breakdown, nil
}
