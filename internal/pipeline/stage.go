package pipeline

import (
	"context"
)

// StageStatus represents the terminal status of a stage execution.
type StageStatus string

const (
	StageStatusSuccess StageStatus = "success"
	StageStatusPartial StageStatus = "partial"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// StageResult is the output of one stage, consumed only by declared
// downstream stages through the shared Context.
type StageResult struct {
	// Stage is the producing stage's name.
	Stage string `json:"stage"`

	// Status is success, partial, failed, or skipped.
	Status StageStatus `json:"status"`

	// Payload is the stage-specific output. Nil for failed stages.
	Payload any `json:"payload,omitempty"`

	// Diagnostics carries warnings surfaced into the final plan. Degraded
	// signals are recorded here, never silently dropped.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Usable reports whether downstream stages may consume the payload.
func (r *StageResult) Usable() bool {
	return r != nil && (r.Status == StageStatusSuccess || r.Status == StageStatusPartial)
}

// Stage is a single unit of pipeline work. Implementations must be pure with
// respect to the Context: they read upstream results and return their own,
// they never mutate another stage's output. The cache store and fetch client
// a stage needs are injected at construction, never reached through globals.
type Stage interface {
	// Name uniquely identifies the stage within a registry.
	Name() string

	// Dependencies lists the upstream stage names that must complete before
	// this stage runs.
	Dependencies() []string

	// Fatal reports whether a failure of this stage aborts the whole run.
	// Non-fatal stages only degrade downstream quality.
	Fatal() bool

	// Run executes the stage. The context carries the per-stage deadline.
	Run(ctx context.Context, pctx *Context) (*StageResult, error)
}
