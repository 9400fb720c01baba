package types

import "time"

// DayEntry is one day of the itinerary with fixed time slots.
type DayEntry struct {
	Day       int    `json:"day" yaml:"day"`
	Morning   string `json:"morning" yaml:"morning"`
	Afternoon string `json:"afternoon" yaml:"afternoon"`
	Evening   string `json:"evening" yaml:"evening"`
	Night     string `json:"night" yaml:"night"`
}

// Plan is the final output of a successful pipeline run. Plans are
// append-only: a newer plan supersedes an older one by timestamp, existing
// rows are never overwritten.
type Plan struct {
	ID          ID         `json:"id" yaml:"id"`
	Destination string     `json:"destination" yaml:"destination"`
	Days        int        `json:"days" yaml:"days"`
	Travelers   int        `json:"travelers" yaml:"travelers"`
	Itinerary   []DayEntry `json:"itinerary" yaml:"itinerary"`

	Lodging     []Candidate `json:"lodging" yaml:"lodging"`
	Dining      []Candidate `json:"dining" yaml:"dining"`
	Attractions []Candidate `json:"attractions" yaml:"attractions"`

	// BudgetBreakdown maps spending category to allocated amount. The values
	// sum exactly to the request budget; the rounding remainder is assigned
	// to the largest category.
	BudgetBreakdown map[string]float64 `json:"budget_breakdown" yaml:"budget_breakdown"`
	TotalBudget     float64            `json:"total_budget" yaml:"total_budget"`

	// CacheHitRatio is the cache hit ratio observed while generating this plan.
	CacheHitRatio float64 `json:"cache_hit_ratio" yaml:"cache_hit_ratio"`

	// Offline marks a plan generated without any external fetches, using only
	// place records already present in the persistent store.
	Offline bool `json:"offline,omitempty" yaml:"offline,omitempty"`

	// Diagnostics records degraded signals and other quality warnings.
	// A degraded plan is still returned; the diagnostics make it visible.
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// AnalyticsResult holds derived summary statistics over a generated plan.
// It is produced after plan creation and never mutates the plan.
type AnalyticsResult struct {
	ID                ID        `json:"id"`
	PlanID            ID        `json:"plan_id"`
	DiversityScore    float64   `json:"diversity_score"`
	BudgetUtilization float64   `json:"budget_utilization"`
	PlacesAnalyzed    int       `json:"places_analyzed"`
	Insights          []string  `json:"insights,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}
