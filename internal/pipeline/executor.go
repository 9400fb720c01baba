package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Executor walks an ExecutionPlan level by level. All stages within a level
// run concurrently, bounded by a semaphore; levels are strict barriers, no
// stage in level k+1 starts before every stage in level k has reached a
// terminal state.
type Executor struct {
	logger       *slog.Logger
	tracer       trace.Tracer
	maxParallel  int
	stageTimeout time.Duration
}

// ExecutorOption is a functional option for configuring an Executor.
type ExecutorOption func(*Executor)

// WithLogger configures the executor to use the specified structured logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTracer configures the executor to emit a span per run and per stage.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithMaxParallel bounds how many stages of one level execute concurrently.
func WithMaxParallel(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// WithStageTimeout sets the per-stage execution deadline. Exceeding it is a
// non-fatal failure for non-fatal stages and aborts the run for fatal ones.
func WithStageTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.stageTimeout = d
		}
	}
}

// NewExecutor creates an Executor.
// Default configuration: slog.Default() logger, no tracer, maxParallel 8,
// stage timeout 30s.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:       slog.Default(),
		maxParallel:  8,
		stageTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes the plan against the request and returns the aggregated
// context holding every stage result.
//
// Failure policy:
//   - a fatal stage failing or timing out halts execution; downstream levels
//     never run and the originating stage's error is returned
//   - a non-fatal stage failing or timing out records a failed StageResult
//     with diagnostics; downstream stages see the missing input and degrade
//   - cancellation of ctx stops the run between stages without corrupting
//     any store: in-flight fetches either complete and cache normally or are
//     abandoned with no partial write
func (e *Executor) Run(ctx context.Context, plan *ExecutionPlan, req types.Request) (*Context, error) {
	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "pipeline.run",
			trace.WithAttributes(
				attribute.String("pipeline.destination", req.Destination),
				attribute.Int("pipeline.stage_count", plan.StageCount()),
				attribute.Int("pipeline.level_count", len(plan.Levels)),
			),
		)
		defer span.End()
	}

	e.logger.InfoContext(ctx, "starting pipeline run",
		"destination", req.Destination,
		"days", req.Days,
		"stages", plan.StageCount(),
		"levels", len(plan.Levels),
	)

	pctx := NewContext(req)
	startTime := time.Now()

	for levelIdx, level := range plan.Levels {
		select {
		case <-ctx.Done():
			e.logger.WarnContext(ctx, "pipeline run cancelled",
				"destination", req.Destination,
				"level", levelIdx,
				"reason", ctx.Err(),
			)
			return pctx, types.WrapError(types.PIPELINE_CANCELLED, "pipeline run cancelled", ctx.Err())
		default:
		}

		if err := e.runLevel(ctx, levelIdx, level, pctx); err != nil {
			e.logger.ErrorContext(ctx, "pipeline run failed",
				"destination", req.Destination,
				"level", levelIdx,
				"error", err,
			)
			return pctx, err
		}
	}

	e.logger.InfoContext(ctx, "pipeline run completed",
		"destination", req.Destination,
		"duration", time.Since(startTime),
	)

	return pctx, nil
}

// runLevel executes every stage of one level concurrently and joins before
// returning. A fatal stage error is returned after the whole level has
// reached a terminal state, so sibling results are still recorded.
func (e *Executor) runLevel(ctx context.Context, levelIdx int, level []Stage, pctx *Context) error {
	names := make([]string, len(level))
	for i, s := range level {
		names[i] = s.Name()
	}
	e.logger.DebugContext(ctx, "executing level", "level", levelIdx, "stages", names)

	sem := make(chan struct{}, e.maxParallel)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var fatalErr error

	for _, stage := range level {
		wg.Add(1)
		sem <- struct{}{}

		go func(s Stage) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := e.runStage(ctx, s, pctx)
			if err != nil {
				if s.Fatal() {
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					mu.Unlock()
					return
				}

				// Tolerated failure: record it so downstream stages see the
				// degraded signal and the plan carries the diagnostic.
				result = &StageResult{
					Stage:       s.Name(),
					Status:      StageStatusFailed,
					Diagnostics: []string{fmt.Sprintf("stage %s failed: %v", s.Name(), err)},
				}
			}
			pctx.Record(result)
		}(stage)
	}

	wg.Wait()

	if fatalErr != nil {
		return fatalErr
	}

	return nil
}

// runStage executes one stage under its deadline and tracing span.
func (e *Executor) runStage(ctx context.Context, s Stage, pctx *Context) (*StageResult, error) {
	stageCtx, cancel := context.WithTimeout(ctx, e.stageTimeout)
	defer cancel()

	var span trace.Span
	if e.tracer != nil {
		stageCtx, span = e.tracer.Start(stageCtx, "pipeline.stage."+s.Name(),
			trace.WithAttributes(
				attribute.String("stage.name", s.Name()),
				attribute.Bool("stage.fatal", s.Fatal()),
			),
		)
		defer span.End()
	}

	startTime := time.Now()
	e.logger.DebugContext(stageCtx, "stage started", "stage", s.Name())

	result, err := s.Run(stageCtx, pctx)
	duration := time.Since(startTime)

	// A result delivered as the deadline expires is still a result; only a
	// Run that gave up is a failure.
	if err != nil {
		if stageCtx.Err() != nil {
			err = types.WrapError(types.STAGE_TIMEOUT,
				fmt.Sprintf("stage %s exceeded its deadline", s.Name()), err)
		} else {
			err = types.WrapError(types.STAGE_FAILED,
				fmt.Sprintf("stage %s failed", s.Name()), err)
		}
		e.logger.WarnContext(ctx, "stage failed",
			"stage", s.Name(),
			"fatal", s.Fatal(),
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	if result == nil {
		result = &StageResult{Stage: s.Name(), Status: StageStatusSuccess}
	}
	result.Stage = s.Name()

	e.logger.DebugContext(stageCtx, "stage completed",
		"stage", s.Name(),
		"status", result.Status,
		"duration", duration,
	)

	return result, nil
}
