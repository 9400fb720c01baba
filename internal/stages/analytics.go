package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Analytics derives summary statistics over the generated plan. It runs
// after the planner and never mutates the plan; losing analytics loses
// insight, not the itinerary, so the stage is non-fatal.
type Analytics struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalytics creates the analytics stage.
func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{logger: logger, now: time.Now}
}

func (a *Analytics) Name() string { return StageAnalytics }

// Dependencies lists the processor alongside the planner because Run reads
// both payloads.
func (a *Analytics) Dependencies() []string { return []string{StageProcessor, StagePlanner} }

func (a *Analytics) Fatal() bool { return false }

// Run computes diversity, budget utilization, and human-readable insights.
func (a *Analytics) Run(ctx context.Context, pctx *pipeline.Context) (*pipeline.StageResult, error) {
	payload, ok := pctx.Payload(StagePlanner)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "planner output unavailable")
	}
	plan, ok := payload.(*types.Plan)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "unexpected planner payload type")
	}

	var placesAnalyzed int
	if procPayload, ok := pctx.Payload(StageProcessor); ok {
		if input, ok := procPayload.(ProcessorOutput); ok {
			placesAnalyzed = len(input.Places)
		}
	}

	result := &types.AnalyticsResult{
		ID:                types.NewID(),
		PlanID:            plan.ID,
		DiversityScore:    diversityScore(plan),
		BudgetUtilization: budgetUtilization(plan),
		PlacesAnalyzed:    placesAnalyzed,
		GeneratedAt:       a.now().UTC(),
	}
	result.Insights = insightsFor(plan, result)

	a.logger.InfoContext(ctx, "analytics computed",
		"plan_id", plan.ID,
		"diversity", result.DiversityScore,
		"budget_utilization", result.BudgetUtilization,
	)

	return &pipeline.StageResult{
		Stage:   StageAnalytics,
		Status:  pipeline.StageStatusSuccess,
		Payload: result,
	}, nil
}

// diversityScore is the fraction of the three plan categories that are
// actually populated, weighted by how many distinct places the itinerary
// draws from.
func diversityScore(plan *types.Plan) float64 {
	populated := 0.0
	if len(plan.Lodging) > 0 {
		populated++
	}
	if len(plan.Dining) > 0 {
		populated++
	}
	if len(plan.Attractions) > 0 {
		populated++
	}
	base := populated / 3

	// A thin attraction list forces the itinerary to repeat itself.
	if plan.Days > 0 && len(plan.Attractions) < plan.Days {
		base *= 0.8
	}
	return base
}

// budgetUtilization estimates planned spend against the total budget from
// the shortlisted candidates' price estimates.
func budgetUtilization(plan *types.Plan) float64 {
	if plan.TotalBudget <= 0 || plan.Days <= 0 {
		return 0
	}

	spend := 0.0
	if len(plan.Lodging) > 0 {
		spend += plan.Lodging[0].Place.PriceEstimate * float64(plan.Days)
	}
	if avg := avgPrice(plan.Dining); avg > 0 {
		spend += avg * 3 * float64(plan.Days)
	}
	if avg := avgPrice(plan.Attractions); avg > 0 {
		spend += avg * 2 * float64(plan.Days)
	}

	utilization := spend / plan.TotalBudget
	if utilization > 1 {
		utilization = 1
	}
	return utilization
}

func avgPrice(candidates []types.Candidate) float64 {
	var total float64
	var priced int
	for _, c := range candidates {
		if c.Place.PriceEstimate > 0 {
			total += c.Place.PriceEstimate
			priced++
		}
	}
	if priced == 0 {
		return 0
	}
	return total / float64(priced)
}

func insightsFor(plan *types.Plan, result *types.AnalyticsResult) []string {
	var insights []string

	if result.DiversityScore < 0.5 {
		insights = append(insights, "low place diversity, consider broadening preferences")
	}
	switch {
	case result.BudgetUtilization > 0.9:
		insights = append(insights, "planned spend is close to the full budget")
	case result.BudgetUtilization > 0 && result.BudgetUtilization < 0.4:
		insights = append(insights, fmt.Sprintf("only %.0f%% of the budget is engaged, room for upgrades",
			100*result.BudgetUtilization))
	}
	if plan.Offline {
		insights = append(insights, "generated offline from stored places, freshness not guaranteed")
	}
	if len(plan.Diagnostics) > 0 {
		insights = append(insights, fmt.Sprintf("%d signal(s) degraded during generation", len(plan.Diagnostics)))
	}

	return insights
}
