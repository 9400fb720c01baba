package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// ExecutionPlan is a validated, layered ordering of registered stages.
// Level 0 contains stages with no dependencies; level k contains stages
// whose dependencies are all satisfied by levels < k. Stages within a level
// are independent by construction and may run in any order.
type ExecutionPlan struct {
	Levels [][]Stage
}

// StageCount returns the total number of stages across all levels.
func (p *ExecutionPlan) StageCount() int {
	n := 0
	for _, level := range p.Levels {
		n += len(level)
	}
	return n
}

// Registry accumulates stage declarations and validates them into an
// ExecutionPlan. Ordering and parallelism are structural properties of the
// declared dependency graph, never incidental call-order.
type Registry struct {
	stages map[string]Stage
	order  []string
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// Register adds a stage. Registering two stages with the same name is a
// configuration defect and fails immediately.
func (r *Registry) Register(stage Stage) error {
	if stage == nil {
		return fmt.Errorf("cannot register nil stage")
	}
	name := stage.Name()
	if name == "" {
		return fmt.Errorf("stage must have a name")
	}
	if _, exists := r.stages[name]; exists {
		return fmt.Errorf("stage %q already registered", name)
	}

	r.stages[name] = stage
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers a stage and panics on error. Graph construction
// errors are startup defects, never runtime conditions.
func (r *Registry) MustRegister(stage Stage) {
	if err := r.Register(stage); err != nil {
		panic(err)
	}
}

// Build validates the dependency graph and computes the level layering.
// It fails with GRAPH_UNKNOWN_DEPENDENCY when a stage names a dependency
// that was never registered, and with GRAPH_CYCLE when the declarations form
// a cycle.
func (r *Registry) Build() (*ExecutionPlan, error) {
	if len(r.stages) == 0 {
		return nil, types.NewError(types.GRAPH_EMPTY, "no stages registered")
	}

	for _, name := range r.order {
		for _, dep := range r.stages[name].Dependencies() {
			if _, exists := r.stages[dep]; !exists {
				return nil, types.NewError(types.GRAPH_UNKNOWN_DEPENDENCY,
					fmt.Sprintf("stage %q depends on unregistered stage %q", name, dep))
			}
		}
	}

	if err := r.detectCycle(); err != nil {
		return nil, err
	}

	return r.layer(), nil
}

// detectCycle checks the declarations form a DAG using depth-first search
// with three colors: white (unvisited), gray (visiting), black (visited).
func (r *Registry) detectCycle() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(r.stages))

	var dfs func(name string, path []string) error
	dfs = func(name string, path []string) error {
		color[name] = gray
		path = append(path, name)

		for _, dep := range r.stages[name].Dependencies() {
			if color[dep] == gray {
				cycle := append(path, dep)
				return types.NewError(types.GRAPH_CYCLE,
					fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
			}
			if color[dep] == white {
				if err := dfs(dep, path); err != nil {
					return err
				}
			}
		}

		color[name] = black
		return nil
	}

	for _, name := range r.order {
		if color[name] == white {
			if err := dfs(name, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

// layer groups stages into levels. Must be called on a validated acyclic
// graph. Within a level, stages are sorted by name purely for reproducible
// logging; execution treats them as an unordered independent set.
func (r *Registry) layer() *ExecutionPlan {
	level := make(map[string]int, len(r.stages))

	var depth func(name string) int
	depth = func(name string) int {
		if d, ok := level[name]; ok {
			return d
		}
		d := 0
		for _, dep := range r.stages[name].Dependencies() {
			if dd := depth(dep) + 1; dd > d {
				d = dd
			}
		}
		level[name] = d
		return d
	}

	maxLevel := 0
	for _, name := range r.order {
		if d := depth(name); d > maxLevel {
			maxLevel = d
		}
	}

	levels := make([][]Stage, maxLevel+1)
	for _, name := range r.order {
		d := level[name]
		levels[d] = append(levels[d], r.stages[name])
	}
	for _, stages := range levels {
		sort.Slice(stages, func(i, j int) bool {
			return stages[i].Name() < stages[j].Name()
		})
	}

	return &ExecutionPlan{Levels: levels}
}
