package stages

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Shortlist sizes fed into the itinerary builder.
const (
	topLodging = 3
	topDining  = 5
)

// Planner combines every analysis signal into the final ranked plan. It is
// the pipeline's only consumer of all four scoring stages and the only
// producer of a types.Plan. The stage is fatal: without enough data for a
// plan there is nothing to degrade to.
type Planner struct {
	ratios planning.BudgetRatios
	logger *slog.Logger
	now    func() time.Time
}

// NewPlanner creates the planner stage.
func NewPlanner(ratios planning.BudgetRatios, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if ratios == (planning.BudgetRatios{}) {
		ratios = planning.DefaultBudgetRatios()
	}
	return &Planner{ratios: ratios, logger: logger, now: time.Now}
}

func (p *Planner) Name() string { return StagePlanner }

// Dependencies names every stage whose payload Run reads. The processor is
// listed even though the scorers already sit between it and the planner, so
// the ordering survives a scorer that drops that edge.
func (p *Planner) Dependencies() []string {
	return []string{StageProcessor, StageRecommendation, StageSentiment, StageSimilarity, StagePrice}
}

func (p *Planner) Fatal() bool { return true }

// Run assembles the plan from the processor's place set and whichever
// signals the scoring stages managed to produce.
func (p *Planner) Run(ctx context.Context, pctx *pipeline.Context) (*pipeline.StageResult, error) {
	req := pctx.Request

	payload, ok := pctx.Payload(StageProcessor)
	if !ok {
		return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA, "processor output unavailable")
	}
	input, ok := payload.(ProcessorOutput)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "unexpected processor payload type")
	}
	if len(input.Places) == 0 {
		return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA, "no candidate places")
	}

	signals := planning.Signals{
		Recommendation: signalFrom(pctx, StageRecommendation),
		Sentiment:      signalFrom(pctx, StageSentiment),
		Similarity:     signalFrom(pctx, StageSimilarity),
		PriceFit:       signalFrom(pctx, StagePrice),
	}

	candidates, err := planning.Aggregate(input.Places, signals)
	if err != nil {
		return nil, err
	}

	tier := costTierFor(req, candidates, p.ratios)
	breakdown, err := planning.Allocate(req.Budget, tier, p.ratios)
	if err != nil {
		return nil, err
	}

	lodging := planning.TopByCategory(candidates, types.CategoryLodging, topLodging)
	dining := planning.TopByCategory(candidates, types.CategoryFood, topDining)
	attractions := planning.TopByCategory(candidates, types.CategoryAttraction, 2*req.Days)

	diagnostics := pctx.Diagnostics()
	sort.Strings(diagnostics)

	plan := &types.Plan{
		ID:              types.NewID(),
		Destination:     req.Destination,
		Days:            req.Days,
		Travelers:       req.Travelers,
		Itinerary:       planning.BuildItinerary(req.Days, attractions, dining),
		Lodging:         lodging,
		Dining:          dining,
		Attractions:     attractions,
		BudgetBreakdown: breakdown,
		TotalBudget:     req.Budget,
		Offline:         input.Offline,
		Diagnostics:     diagnostics,
		GeneratedAt:     p.now().UTC(),
	}

	p.logger.InfoContext(ctx, "plan assembled",
		"destination", req.Destination,
		"plan_id", plan.ID,
		"candidates", len(candidates),
		"cost_tier", string(tier),
		"degraded_signals", len(diagnostics),
	)

	status := pipeline.StageStatusSuccess
	if len(diagnostics) > 0 {
		status = pipeline.StageStatusPartial
	}

	return &pipeline.StageResult{
		Stage:   StagePlanner,
		Status:  status,
		Payload: plan,
	}, nil
}

// signalFrom extracts a scoring stage's signal set, nil when the stage
// failed or produced an unexpected payload. Nil sets read as neutral in the
// aggregator, so a degraded scorer can never sink or promote a place.
func signalFrom(pctx *pipeline.Context, stage string) planning.SignalSet {
	payload, ok := pctx.Payload(stage)
	if !ok {
		return nil
	}
	signals, ok := payload.(planning.SignalSet)
	if !ok {
		return nil
	}
	return signals
}

// costTierFor classifies the destination by comparing the average lodging
// price against the daily lodging share of the budget.
func costTierFor(req types.Request, candidates []types.Candidate, ratios planning.BudgetRatios) planning.CostTier {
	var total float64
	var priced int
	for _, c := range candidates {
		if c.Place.Category == types.CategoryLodging && c.Place.PriceEstimate > 0 {
			total += c.Place.PriceEstimate
			priced++
		}
	}
	if priced == 0 {
		return planning.CostTierStandard
	}

	avg := total / float64(priced)
	share := req.Budget / float64(req.Days) * ratios.Lodging
	switch {
	case avg > 1.2*share:
		return planning.CostTierHigh
	case avg < 0.6*share:
		return planning.CostTierLow
	default:
		return planning.CostTierStandard
	}
}
