package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

func testRequest() types.Request {
	return types.Request{
		Destination: "Hanoi",
		Budget:      10000000,
		Days:        5,
		Travelers:   2,
		Preferences: []string{"culture", "food"},
	}
}

func TestNewExecutorOptions(t *testing.T) {
	e := NewExecutor()
	assert.Equal(t, 8, e.maxParallel)
	assert.Equal(t, 30*time.Second, e.stageTimeout)

	e = NewExecutor(
		WithMaxParallel(3),
		WithStageTimeout(time.Second),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
	)
	assert.Equal(t, 3, e.maxParallel)
	assert.Equal(t, time.Second, e.stageTimeout)
	assert.NotNil(t, e.tracer)

	// Non-positive values are ignored.
	e = NewExecutor(WithMaxParallel(0), WithStageTimeout(0))
	assert.Equal(t, 8, e.maxParallel)
	assert.Equal(t, 30*time.Second, e.stageTimeout)
}

func TestExecutorRunsAllLevels(t *testing.T) {
	reg := NewRegistry()
	var ran atomic.Int32

	mkStage := func(name string, deps ...string) *fakeStage {
		return &fakeStage{
			name: name,
			deps: deps,
			run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
				ran.Add(1)
				return &StageResult{Stage: name, Status: StageStatusSuccess, Payload: name + "-payload"}, nil
			},
		}
	}

	reg.MustRegister(mkStage("a"))
	reg.MustRegister(mkStage("b", "a"))
	reg.MustRegister(mkStage("c", "b"))

	plan, err := reg.Build()
	require.NoError(t, err)

	pctx, err := NewExecutor().Run(context.Background(), plan, testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(3), ran.Load())

	payload, ok := pctx.Payload("b")
	require.True(t, ok)
	assert.Equal(t, "b-payload", payload)
}

func TestExecutorFatalStageHaltsRun(t *testing.T) {
	reg := NewRegistry()
	var downstreamRan atomic.Bool

	reg.MustRegister(&fakeStage{name: "collector"})
	reg.MustRegister(&fakeStage{
		name:  "planner",
		deps:  []string{"collector"},
		fatal: true,
		run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
			return nil, types.NewError(types.PLAN_INSUFFICIENT_DATA, "zero candidates")
		},
	})
	reg.MustRegister(&fakeStage{
		name: "analytics",
		deps: []string{"planner"},
		run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
			downstreamRan.Store(true)
			return nil, nil
		},
	})

	plan, err := reg.Build()
	require.NoError(t, err)

	_, err = NewExecutor().Run(context.Background(), plan, testRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.NewError(types.PLAN_INSUFFICIENT_DATA, "")),
		"run error must carry the originating stage's error")
	assert.False(t, downstreamRan.Load(), "downstream levels must not run after a fatal failure")
}

func TestExecutorNonFatalFailureDegrades(t *testing.T) {
	reg := NewRegistry()

	reg.MustRegister(&fakeStage{name: "processor"})
	reg.MustRegister(&fakeStage{
		name: "sentiment",
		deps: []string{"processor"},
		run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
			return nil, errors.New("model unavailable")
		},
	})
	reg.MustRegister(&fakeStage{
		name: "planner",
		deps: []string{"sentiment"},
		fatal: true,
		run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
			// Downstream must tolerate the missing upstream payload.
			_, ok := pctx.Payload("sentiment")
			assert.False(t, ok)
			return &StageResult{Stage: "planner", Status: StageStatusPartial,
				Diagnostics: []string{"sentiment signal degraded, treated as neutral"}}, nil
		},
	})

	plan, err := reg.Build()
	require.NoError(t, err)

	pctx, err := NewExecutor().Run(context.Background(), plan, testRequest())
	require.NoError(t, err, "non-fatal failure must not fail the run")

	result, ok := pctx.Result("sentiment")
	require.True(t, ok)
	assert.Equal(t, StageStatusFailed, result.Status)
	assert.NotEmpty(t, result.Diagnostics, "degraded signals are recorded, never silently dropped")
}

func TestExecutorStageTimeout(t *testing.T) {
	mkSlow := func(name string, fatal bool) *fakeStage {
		return &fakeStage{
			name:  name,
			fatal: fatal,
			run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return &StageResult{Stage: name, Status: StageStatusSuccess}, nil
				}
			},
		}
	}

	t.Run("non-fatal timeout degrades", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(mkSlow("sentiment", false))

		plan, err := reg.Build()
		require.NoError(t, err)

		pctx, err := NewExecutor(WithStageTimeout(20 * time.Millisecond)).
			Run(context.Background(), plan, testRequest())
		require.NoError(t, err)

		result, ok := pctx.Result("sentiment")
		require.True(t, ok)
		assert.Equal(t, StageStatusFailed, result.Status)
	})

	t.Run("fatal timeout aborts", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(mkSlow("planner", true))

		plan, err := reg.Build()
		require.NoError(t, err)

		_, err = NewExecutor(WithStageTimeout(20 * time.Millisecond)).
			Run(context.Background(), plan, testRequest())
		require.Error(t, err)
		assert.Equal(t, types.STAGE_TIMEOUT, types.CodeOf(err))
	})
}

func TestExecutorAcceptsResultAtDeadline(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&fakeStage{
		name:  "planner",
		fatal: true,
		run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
			// Completes exactly when the deadline fires.
			<-ctx.Done()
			return &StageResult{Stage: "planner", Status: StageStatusSuccess, Payload: "done"}, nil
		},
	})

	plan, err := reg.Build()
	require.NoError(t, err)

	pctx, err := NewExecutor(WithStageTimeout(10 * time.Millisecond)).
		Run(context.Background(), plan, testRequest())
	require.NoError(t, err, "a delivered result must not be reclassified as a timeout")

	result, ok := pctx.Result("planner")
	require.True(t, ok)
	assert.Equal(t, StageStatusSuccess, result.Status)
	assert.Equal(t, "done", result.Payload)
}

func TestExecutorCancellation(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&fakeStage{name: "a"})
	reg.MustRegister(&fakeStage{name: "b", deps: []string{"a"}})

	plan, err := reg.Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewExecutor().Run(ctx, plan, testRequest())
	require.Error(t, err)
	assert.Equal(t, types.PIPELINE_CANCELLED, types.CodeOf(err))
}

func TestExecutorLevelDeterminism(t *testing.T) {
	// Stages within a level complete in random order; the merged context must
	// be identical regardless, because results are keyed by stage name.
	run := func() map[string]*StageResult {
		reg := NewRegistry()
		reg.MustRegister(&fakeStage{name: "processor"})
		for _, name := range []string{"recommend", "sentiment", "similarity", "price"} {
			name := name
			reg.MustRegister(&fakeStage{
				name: name,
				deps: []string{"processor"},
				run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
					time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
					return &StageResult{
						Stage:   name,
						Status:  StageStatusSuccess,
						Payload: fmt.Sprintf("%s-signal", name),
					}, nil
				},
			})
		}

		plan, err := reg.Build()
		require.NoError(t, err)

		pctx, err := NewExecutor(WithMaxParallel(4)).Run(context.Background(), plan, testRequest())
		require.NoError(t, err)
		return pctx.Results()
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run(), "aggregated context must not depend on completion order")
	}
}

func TestExecutorBoundedParallelism(t *testing.T) {
	const stages = 12
	const limit = 3

	var running atomic.Int32
	var peak atomic.Int32

	reg := NewRegistry()
	for i := 0; i < stages; i++ {
		name := fmt.Sprintf("stage-%02d", i)
		reg.MustRegister(&fakeStage{
			name: name,
			run: func(ctx context.Context, pctx *Context) (*StageResult, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return &StageResult{Stage: name, Status: StageStatusSuccess}, nil
			},
		})
	}

	plan, err := reg.Build()
	require.NoError(t, err)

	_, err = NewExecutor(WithMaxParallel(limit)).Run(context.Background(), plan, testRequest())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}
