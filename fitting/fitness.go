package fitting

import (
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/growth"
	"github.com/pthm-cable/growth/sim"
)

// MissPenalty is added to the error for every observation the trajectory
// cannot reach, either past the horizon or past a failing step.
const MissPenalty = 1e6

// Evaluator scores parameter vectors against observations (lower = better).
type Evaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	condition  int
	obs        []Observation

	mu          sync.Mutex
	evals       int
	bestFitness float64
	bestParams  []float64
}

// NewEvaluator creates an evaluator for the named condition of cfg.
// Every parameter in params must be one the condition's model reads.
func NewEvaluator(params *ParamVector, cfg *config.Config, condition string, obs []Observation) (*Evaluator, error) {
	idx, ok := cfg.Derived.ConditionIndex[condition]
	if !ok {
		return nil, fmt.Errorf("fitting: unknown condition %q", condition)
	}
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}
	model, err := ConditionModel(cfg, condition)
	if err != nil {
		return nil, err
	}
	if err := params.Check(model); err != nil {
		return nil, fmt.Errorf("fitting: condition %q: %w", condition, err)
	}
	return &Evaluator{
		params:      params,
		baseConfig:  cfg.Clone(),
		condition:   idx,
		obs:         obs,
		bestFitness: math.Inf(1),
	}, nil
}

// ConditionModel returns the growth model the named condition runs with.
func ConditionModel(cfg *config.Config, condition string) (growth.Model, error) {
	idx, ok := cfg.Derived.ConditionIndex[condition]
	if !ok {
		return nil, fmt.Errorf("fitting: unknown condition %q", condition)
	}
	culture, err := sim.ResolveCondition(cfg, idx)
	if err != nil {
		return nil, err
	}
	return culture.Model, nil
}

// Start returns the condition's configured values, clamped to bounds.
func (e *Evaluator) Start() []float64 {
	return e.params.Clamp(e.params.ExtractFromCondition(e.baseConfig.Conditions[e.condition]))
}

// Config returns a copy of the base config with values applied.
func (e *Evaluator) Config(values []float64) *config.Config {
	cfg := e.baseConfig.Clone()
	e.params.ApplyToCondition(&cfg.Conditions[e.condition], values)
	return cfg
}

// Trajectory integrates the condition with values applied.
func (e *Evaluator) Trajectory(values []float64) (growth.Trajectory, error) {
	cfg := e.Config(values)
	culture, err := sim.ResolveCondition(cfg, e.condition)
	if err != nil {
		return growth.Trajectory{}, err
	}
	return growth.Integrate(culture.Model, culture.InitialState(), cfg.Simulation.Duration, culture.Params)
}

// Evaluate returns the sum of squared errors between the simulated and
// observed values. Unreachable observations cost MissPenalty each.
func (e *Evaluator) Evaluate(values []float64) float64 {
	// A failed run still scores the points it produced.
	traj, _ := e.Trajectory(values)
	obs := traj.Values()

	var sse float64
	for _, o := range e.obs {
		v, ok := valueAt(obs, o.Hour)
		if !ok {
			sse += MissPenalty
			continue
		}
		d := v - o.Value
		sse += d * d
	}

	e.mu.Lock()
	e.evals++
	if sse < e.bestFitness {
		e.bestFitness = sse
		e.bestParams = e.params.Clamp(values)
	}
	e.mu.Unlock()

	return sse
}

// Best returns the lowest error seen and the values that produced it.
func (e *Evaluator) Best() (float64, []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestFitness, append([]float64(nil), e.bestParams...)
}

// Evaluations returns how many vectors have been scored.
func (e *Evaluator) Evaluations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evals
}

// valueAt linearly interpolates values (one per step) at a fractional hour.
func valueAt(values []float64, hour float64) (float64, bool) {
	if hour < 0 || math.IsNaN(hour) {
		return 0, false
	}
	lo := int(math.Floor(hour))
	if lo >= len(values) {
		return 0, false
	}
	frac := hour - float64(lo)
	if frac == 0 {
		return values[lo], true
	}
	if lo+1 >= len(values) {
		return 0, false
	}
	return values[lo]*(1-frac) + values[lo+1]*frac, true
}
