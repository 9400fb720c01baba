package stages

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/cache"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/fetch"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/pipeline"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/planning"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Service owns the default pipeline topology and turns a validated request
// into a persisted travel plan. It is the single entry point the CLI and
// tests go through.
type Service struct {
	client    *fetch.Client
	executor  *pipeline.Executor
	plan      *pipeline.ExecutionPlan
	plans     *database.PlanDAO
	analytics *database.AnalyticsDAO
	logger    *slog.Logger
}

// ServiceOption is a functional option for configuring a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger       *slog.Logger
	tracer       trace.Tracer
	ratios       planning.BudgetRatios
	scorers      map[string]Scorer
	executorOpts []pipeline.ExecutorOption
}

// WithLogger configures the service and its stages to use the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithTracer enables tracing on the pipeline executor.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(c *serviceConfig) {
		c.tracer = tracer
	}
}

// WithBudgetRatios overrides the default budget allocation ratios.
func WithBudgetRatios(ratios planning.BudgetRatios) ServiceOption {
	return func(c *serviceConfig) {
		c.ratios = ratios
	}
}

// WithScorer replaces the default scorer behind one of the four analysis
// stages (StageRecommendation, StageSentiment, StageSimilarity, StagePrice).
func WithScorer(stage string, scorer Scorer) ServiceOption {
	return func(c *serviceConfig) {
		c.scorers[stage] = scorer
	}
}

// WithExecutorOptions forwards options to the pipeline executor.
func WithExecutorOptions(opts ...pipeline.ExecutorOption) ServiceOption {
	return func(c *serviceConfig) {
		c.executorOpts = append(c.executorOpts, opts...)
	}
}

// NewService wires the default eight-stage topology:
//
//	collector -> processor -> {recommendation, sentiment, similarity, price}
//	          -> planner -> analytics
//
// The topology is validated at construction; a malformed graph is a startup
// defect, not a runtime error.
func NewService(client *fetch.Client, sources Sources, dataDB *database.DB, opts ...ServiceOption) (*Service, error) {
	cfg := &serviceConfig{
		logger:  slog.Default(),
		ratios:  planning.DefaultBudgetRatios(),
		scorers: make(map[string]Scorer),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	placeDAO := database.NewPlaceDAO(dataDB)

	scorerFor := func(stage string, fallback Scorer) Scorer {
		if s, ok := cfg.scorers[stage]; ok {
			return s
		}
		return fallback
	}

	reg := pipeline.NewRegistry()
	reg.MustRegister(NewCollector(client, sources, placeDAO, cfg.logger))
	reg.MustRegister(NewProcessor(placeDAO, cfg.logger))
	reg.MustRegister(NewScoringStage(StageRecommendation, scorerFor(StageRecommendation, RatingScorer{})))
	reg.MustRegister(NewScoringStage(StageSentiment, scorerFor(StageSentiment, LexiconScorer{})))
	reg.MustRegister(NewScoringStage(StageSimilarity, scorerFor(StageSimilarity, PreferenceScorer{})))
	reg.MustRegister(NewScoringStage(StagePrice, scorerFor(StagePrice, PriceFitScorer{Ratios: cfg.ratios})))
	reg.MustRegister(NewPlanner(cfg.ratios, cfg.logger))
	reg.MustRegister(NewAnalytics(cfg.logger))

	plan, err := reg.Build()
	if err != nil {
		return nil, err
	}

	executorOpts := append([]pipeline.ExecutorOption{
		pipeline.WithLogger(cfg.logger),
	}, cfg.executorOpts...)
	if cfg.tracer != nil {
		executorOpts = append(executorOpts, pipeline.WithTracer(cfg.tracer))
	}

	return &Service{
		client:    client,
		executor:  pipeline.NewExecutor(executorOpts...),
		plan:      plan,
		plans:     database.NewPlanDAO(dataDB),
		analytics: database.NewAnalyticsDAO(dataDB),
		logger:    cfg.logger,
	}, nil
}

// Plan validates the request, runs the pipeline, and persists the resulting
// plan and its analytics. Persistence failures degrade to diagnostics; a
// generated plan is always returned to the caller.
func (s *Service) Plan(ctx context.Context, req types.Request) (*types.Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	before := s.client.Stats()

	pctx, err := s.executor.Run(ctx, s.plan, req)
	if err != nil {
		return nil, err
	}

	payload, ok := pctx.Payload(StagePlanner)
	if !ok {
		return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA, "pipeline produced no plan")
	}
	plan, ok := payload.(*types.Plan)
	if !ok {
		return nil, types.NewError(types.STAGE_FAILED, "unexpected planner payload type")
	}

	plan.CacheHitRatio = hitRatioDelta(before, s.client.Stats())

	if err := s.plans.Save(ctx, plan); err != nil {
		s.logger.WarnContext(ctx, "failed to persist plan",
			"plan_id", plan.ID,
			"error", err,
		)
		plan.Diagnostics = append(plan.Diagnostics, "plan not persisted to the durable store")
		return plan, nil
	}

	if analyticsPayload, ok := pctx.Payload(StageAnalytics); ok {
		if result, ok := analyticsPayload.(*types.AnalyticsResult); ok {
			if err := s.analytics.Save(ctx, result); err != nil {
				s.logger.WarnContext(ctx, "failed to persist analytics",
					"plan_id", plan.ID,
					"error", err,
				)
			}
		}
	}

	return plan, nil
}

// History returns up to limit persisted plans for a destination, newest first.
func (s *Service) History(ctx context.Context, destination string, limit int) ([]*types.Plan, error) {
	return s.plans.ListByDestination(ctx, destination, limit)
}

// Latest returns the most recent persisted plan for a destination.
func (s *Service) Latest(ctx context.Context, destination string) (*types.Plan, error) {
	return s.plans.Latest(ctx, destination)
}

// AnalyticsFor returns the stored analytics result for a plan.
func (s *Service) AnalyticsFor(ctx context.Context, planID types.ID) (*types.AnalyticsResult, error) {
	return s.analytics.GetByPlanID(ctx, planID)
}

// hitRatioDelta computes the cache hit ratio over one run from before/after
// counter snapshots. The store counters are cumulative across runs.
func hitRatioDelta(before, after cache.Stats) float64 {
	hits := after.Hits - before.Hits
	total := hits + (after.Misses - before.Misses)
	if total <= 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
