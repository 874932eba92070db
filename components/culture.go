// Package components defines ECS components for the simulation.
package components

import (
	"image/color"

	"github.com/pthm-cable/growth/growth"
)

// Culture holds one condition's read-only setup.
type Culture struct {
	Index   int    // Position in the configuration, used to order results
	Name    string // Condition name
	Label   string // Legend label
	Color   color.RGBA
	Model   growth.Model
	Params  growth.Params
	Initial float64 // Starting population, population units
}

// InitialState returns the starting value in the model's state space.
func (c *Culture) InitialState() float64 {
	return c.Model.Encode(c.Initial)
}

// Series holds the integration output of a culture.
type Series struct {
	Trajectory growth.Trajectory
	Failure    *growth.StepError // Non-nil when integration stopped early
	Done       bool
}
