// Package fitting estimates the growth parameters of one condition from
// observed data.
package fitting

import (
	"fmt"

	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/growth"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the growth-rate, ceiling-exponent and
// floor-exponent parameters of a condition.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "r", Path: "conditions[].r", Min: 0.01, Max: 3.0},
			{Name: "m", Path: "conditions[].m", Min: 0.05, Max: 3.0},
			{Name: "n", Path: "conditions[].n", Min: 0.5, Max: 6.0},
		},
	}
}

// NewLinearParamVector creates the single slope parameter of the linear model.
func NewLinearParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "increment", Path: "conditions[].increment", Min: 0, Max: 0.02},
		},
	}
}

// ParamVectorFor returns the parameters that model actually reads.
func ParamVectorFor(model growth.Model) *ParamVector {
	if growth.Sigmoidal(model) {
		return NewParamVector()
	}
	return NewLinearParamVector()
}

// conditionField returns the condition field a parameter name refers to.
func conditionField(cond *config.ConditionConfig, name string) *float64 {
	switch name {
	case "r":
		return &cond.R
	case "m":
		return &cond.M
	case "n":
		return &cond.N
	case "increment":
		return &cond.Increment
	}
	return nil
}

// usedBy reports whether the parameter changes the output of model.
func (s ParamSpec) usedBy(model growth.Model) bool {
	if s.Name == "increment" {
		return !growth.Sigmoidal(model)
	}
	return growth.Sigmoidal(model)
}

// Check returns an error unless every parameter is read by model.
func (pv *ParamVector) Check(model growth.Model) error {
	if len(pv.Specs) == 0 {
		return fmt.Errorf("empty parameter vector")
	}
	for _, spec := range pv.Specs {
		if conditionField(&config.ConditionConfig{}, spec.Name) == nil {
			return fmt.Errorf("unknown parameter %q", spec.Name)
		}
		if !spec.usedBy(model) {
			return fmt.Errorf("the %s model ignores %q; fit %v instead",
				model.Name(), spec.Name, ParamVectorFor(model).Names())
		}
	}
	return nil
}

// Names returns the parameter names in Specs order.
func (pv *ParamVector) Names() []string {
	names := make([]string, len(pv.Specs))
	for i, spec := range pv.Specs {
		names[i] = spec.Name
	}
	return names
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToCondition writes clamped values into a condition.
// Order must match Specs order.
func (pv *ParamVector) ApplyToCondition(cond *config.ConditionConfig, values []float64) {
	for i, v := range pv.Clamp(values) {
		if f := conditionField(cond, pv.Specs[i].Name); f != nil {
			*f = v
		}
	}
}

// ExtractFromCondition reads the current parameter values of a condition.
func (pv *ParamVector) ExtractFromCondition(cond config.ConditionConfig) []float64 {
	values := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if f := conditionField(&cond, spec.Name); f != nil {
			values[i] = *f
		}
	}
	return values
}

// Record builds an evaluation log row from clamped raw values.
func (pv *ParamVector) Record(eval int, sse float64, raw []float64) EvalRecord {
	rec := EvalRecord{Eval: eval, SSE: sse}
	var cond config.ConditionConfig
	pv.ApplyToCondition(&cond, raw)
	rec.R, rec.M, rec.N, rec.Increment = cond.R, cond.M, cond.N, cond.Increment
	return rec
}
