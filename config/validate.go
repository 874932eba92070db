package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/pthm-cable/growth/growth"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("config: invalid configuration")

// ValidationError describes a rejected configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the loaded configuration before any integration starts.
func (c *Config) Validate() error {
	sim := c.Simulation
	d := c.Derived

	if sim.Duration <= 0 {
		return invalid("simulation.duration", "must be positive, got %d", sim.Duration)
	}
	if sim.Scale != ScaleLog10 && sim.Scale != ScaleLinear {
		return invalid("simulation.scale", "must be %q or %q, got %q", ScaleLog10, ScaleLinear, sim.Scale)
	}
	if !finite(d.Max) || !finite(d.Min) || !finite(d.Initial) {
		return invalid("simulation", "initial, max and min must be finite")
	}
	if d.Min < 0 {
		return invalid("simulation.min", "must not be negative, got %g", d.Min)
	}
	if d.Max <= d.Min {
		return invalid("simulation.max", "must exceed min (%g <= %g)", d.Max, d.Min)
	}
	if len(c.Conditions) == 0 {
		return invalid("conditions", "at least one condition is required")
	}

	seen := make(map[string]bool, len(c.Conditions))
	for i, cond := range c.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		if cond.Name == "" {
			return invalid(field+".name", "must not be empty")
		}
		field = fmt.Sprintf("conditions[%s]", cond.Name)
		if seen[cond.Name] {
			return invalid(field, "duplicate condition name")
		}
		seen[cond.Name] = true

		model, err := growth.Lookup(cond.Model)
		if err != nil {
			return invalid(field+".model", "%v (available: %v)", err, growth.Names())
		}
		if _, err := ParseColor(cond.Color); err != nil {
			return invalid(field+".color", "%v", err)
		}
		if cond.Adjustment <= 0 || !finite(cond.Adjustment) {
			return invalid(field+".adjustment", "must be positive, got %g", cond.Adjustment)
		}
		if cond.InitialFraction <= 0 || !finite(cond.InitialFraction) {
			return invalid(field+".initial_fraction", "must be positive, got %g", cond.InitialFraction)
		}

		initial := c.InitialFor(cond)
		if initial < d.Min || initial > d.Max {
			return invalid(field, "initial value %g outside [%g, %g]", initial, d.Min, d.Max)
		}

		if growth.Sigmoidal(model) {
			if !finite(cond.R) {
				return invalid(field+".r", "must be finite")
			}
			if cond.M <= 0 || !finite(cond.M) {
				return invalid(field+".m", "must be positive, got %g", cond.M)
			}
			if cond.N <= 0 || !finite(cond.N) {
				return invalid(field+".n", "must be positive, got %g", cond.N)
			}
			if initial <= 0 {
				return invalid(field, "initial value must be positive for the %s model", model.Name())
			}
		} else if !finite(cond.Increment) {
			return invalid(field+".increment", "must be finite")
		}

		// log10 of a floor below one CFU is negative and the log model's
		// floor term becomes a power of a negative base.
		if model.Name() == growth.ModelLog && d.Min < 1 {
			return invalid(field+".model", "log model needs min >= 1 CFU, got %g", d.Min)
		}
	}

	if c.Chart.WidthIn <= 0 || c.Chart.HeightIn <= 0 {
		return invalid("chart", "width_in and height_in must be positive")
	}
	return nil
}

// ParseColor resolves an SVG colour name ("tomato") or a #rrggbb hex string.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.RGBA{}, errors.New("colour is required")
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
}
