package campaign

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"rocket-dispersion/internal/flight"
	"rocket-dispersion/internal/sampler"
)

// Runner invokes the engine once per trial and turns every result, error or
// panic into an Outcome.
type Runner struct {
	engine     flight.Engine
	site       flight.Site
	settings   map[string]any
	clock      Clock
	campaignID string
}

// NewRunner creates a Runner. A nil clock measures process CPU time.
func NewRunner(engine flight.Engine, site flight.Site, settings map[string]any, clock Clock) *Runner {
	if clock == nil {
		clock = ProcessCPUTime
	}
	return &Runner{
		engine:   engine,
		site:     site,
		settings: deepCopy(settings).(map[string]any),
		clock:    clock,
	}
}

// Run simulates one trial. It never returns nil.
func (r *Runner) Run(ctx context.Context, trial int, params sampler.Parameters) Outcome {
	req := flight.Request{
		Campaign:   r.campaignID,
		Trial:      trial,
		Parameters: params.Clone(),
		Site:       r.site,
		Settings:   deepCopy(r.settings).(map[string]any),
	}

	start := r.clock()
	sol, err := r.simulate(ctx, req)
	var m flight.Metrics
	if err == nil {
		m, err = flight.Extract(sol, r.site)
	}
	elapsed := r.clock() - start

	if err != nil {
		return Failure{Trial: trial, Parameters: params.Clone(), Error: err.Error()}
	}
	return Success{Trial: trial, Parameters: params.Clone(), Metrics: m, ExecutionTime: elapsed}
}

func (r *Runner) simulate(ctx context.Context, req flight.Request) (sol *flight.Solution, err error) {
	defer func() {
		if p := recover(); p != nil {
			sol = nil
			err = fmt.Errorf("%w: engine panic: %v", flight.ErrSimulation, p)
		}
	}()
	sol, err = r.engine.Simulate(ctx, req)
	if err != nil && !errors.Is(err, flight.ErrSimulation) {
		err = fmt.Errorf("%w: %v", flight.ErrSimulation, err)
	}
	return sol, err
}

// deepCopy copies the maps and slices a decoded YAML or JSON document is
// made of.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]float64:
		return maps.Clone(t)
	default:
		return t
	}
}
