// Package growth implements the growth-rate models and the forward Euler
// integrator that advances one culture across the simulation horizon.
//
// Three interchangeable models are provided:
//
//   - [Population]: model III of Huang (2005) on raw CFU counts,
//     dN/dt = r·N·(1−(N/Nmax)^m)·(1−(Nmin/N)^n)
//   - [LogPopulation]: the same expression applied directly to log10 CFU
//     with log10 bounds. This is not the logarithm of the population
//     model and the two are kept as separate models.
//   - [Linear]: a placeholder incrementer, state += increment·step.
package growth

import (
	"fmt"
	"math"
	"sort"
)

// Model names as used in configuration files.
const (
	ModelPopulation = "population"
	ModelLog        = "log"
	ModelLinear     = "linear"
)

// Params holds the per-culture coefficients and the shared bounds.
// Max and Min are always population units; models transform them as needed.
type Params struct {
	R float64 // Growth rate coefficient (already scaled by any adjustment)
	M float64 // Curvature exponent of the ceiling term
	N float64 // Adjustment exponent of the floor term

	Max float64 // Carrying capacity
	Min float64 // Floor

	Increment float64 // Per-step slope of the linear model
}

// Model computes the instantaneous rate of change of a culture's state.
type Model interface {
	// Name returns the configuration name of the model.
	Name() string
	// Encode converts a population value into the model's state space.
	Encode(population float64) float64
	// Observe converts a state into the value that gets plotted.
	Observe(state float64) float64
	// Rate returns d(state)/dt at the given step.
	Rate(step int, state float64, p Params) (float64, error)
}

var registry = map[string]Model{
	ModelPopulation: Population{},
	ModelLog:        LogPopulation{},
	ModelLinear:     Linear{},
}

// Lookup returns the model registered under name.
func Lookup(name string) (Model, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sigmoidal reports whether the model uses the r, m, n coefficients.
func Sigmoidal(m Model) bool {
	return m.Name() != ModelLinear
}

// modelIII evaluates r·x·(1−(x/max)^m)·(1−(min/x)^n).
// At x == min the floor term is exactly zero.
func modelIII(x, r, m, n, max, min float64) float64 {
	return r * x * (1 - math.Pow(x/max, m)) * (1 - math.Pow(min/x, n))
}

// checkBounds rejects states where modelIII is undefined or meaningless.
func checkBounds(model string, x, min, max float64) error {
	switch {
	case math.IsNaN(x) || math.IsInf(x, 0):
		return &DomainError{Model: model, State: x, Reason: "is not finite"}
	case x <= 0:
		return &DomainError{Model: model, State: x, Reason: "is not positive"}
	case x < min:
		return &DomainError{Model: model, State: x, Reason: fmt.Sprintf("is below floor %g", min)}
	case x > max:
		return &DomainError{Model: model, State: x, Reason: fmt.Sprintf("is above ceiling %g", max)}
	}
	return nil
}

// Population is the canonical model on raw counts.
type Population struct{}

func (Population) Name() string { return ModelPopulation }
func (Population) Encode(population float64) float64 { return population }
func (Population) Observe(state float64) float64 { return math.Log10(state) }

func (Population) Rate(_ int, state float64, p Params) (float64, error) {
	if err := checkBounds(ModelPopulation, state, p.Min, p.Max); err != nil {
		return 0, err
	}
	return modelIII(state, p.R, p.M, p.N, p.Max, p.Min), nil
}

// LogPopulation substitutes log10 counts and log10 bounds into model III.
type LogPopulation struct{}

func (LogPopulation) Name() string { return ModelLog }
func (LogPopulation) Encode(population float64) float64 { return math.Log10(population) }
func (LogPopulation) Observe(state float64) float64 { return state }

func (LogPopulation) Rate(_ int, state float64, p Params) (float64, error) {
	max := math.Log10(p.Max)
	min := math.Log10(p.Min)
	if min < 0 || math.IsNaN(min) {
		return 0, &DomainError{Model: ModelLog, State: state, Reason: fmt.Sprintf("has negative log floor %g", min)}
	}
	if err := checkBounds(ModelLog, state, min, max); err != nil {
		return 0, err
	}
	return modelIII(state, p.R, p.M, p.N, max, min), nil
}

// Linear ignores the state and grows by increment·step.
type Linear struct{}

func (Linear) Name() string { return ModelLinear }
func (Linear) Encode(population float64) float64 { return population }
func (Linear) Observe(state float64) float64 { return state }

func (Linear) Rate(step int, state float64, p Params) (float64, error) {
	if math.IsNaN(state) || math.IsInf(state, 0) {
		return 0, &DomainError{Model: ModelLinear, State: state, Reason: "is not finite"}
	}
	return p.Increment * float64(step), nil
}
