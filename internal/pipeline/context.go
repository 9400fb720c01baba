package pipeline

import (
	"sync"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// Context is the aggregated execution context passed through the pipeline.
// It carries the immutable request plus every completed StageResult keyed by
// stage name. Results are merged by name, not by arrival order, so the
// context seen by level k+1 is identical regardless of how level k's stages
// interleaved.
type Context struct {
	Request types.Request

	mu      sync.RWMutex
	results map[string]*StageResult
}

// NewContext creates an execution context for one pipeline run.
func NewContext(req types.Request) *Context {
	return &Context{
		Request: req,
		results: make(map[string]*StageResult),
	}
}

// Result returns the result recorded for the named stage.
func (c *Context) Result(name string) (*StageResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.results[name]
	return r, ok
}

// Payload returns the named stage's payload if the stage completed usably.
// Downstream stages use this and treat a false return as a degraded signal,
// not an error.
func (c *Context) Payload(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.results[name]
	if !ok || !r.Usable() {
		return nil, false
	}
	return r.Payload, true
}

// Results returns a copy of all recorded results keyed by stage name.
func (c *Context) Results() map[string]*StageResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*StageResult, len(c.results))
	for name, r := range c.results {
		out[name] = r
	}
	return out
}

// Diagnostics collects every recorded diagnostic across stages. Order is
// unspecified; callers needing stable output sort the slice.
func (c *Context) Diagnostics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []string
	for _, r := range c.results {
		all = append(all, r.Diagnostics...)
	}
	return all
}

// Record stores a stage result, replacing any previous result for the same
// stage. The executor is the only writer during a run; stage tests use it to
// assemble upstream state directly.
func (c *Context) Record(r *StageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r.Stage] = r
}
