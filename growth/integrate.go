package growth

import (
	"math"
)

// Point is one recorded state of a trajectory.
type Point struct {
	Step  int     // Time step (hours)
	State float64 // State in the model's own space
	Rate  float64 // Rate evaluated at State, used to reach the next point
	Value float64 // Observed value (log10 CFU or OD600)
}

// Trajectory is the ordered history of one culture.
type Trajectory struct {
	Model  string
	Points []Point
}

// Len returns the number of recorded points.
func (t Trajectory) Len() int {
	return len(t.Points)
}

// Steps returns the time steps as float64 for plotting.
func (t Trajectory) Steps() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = float64(p.Step)
	}
	return out
}

// States returns the raw states in order.
func (t Trajectory) States() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.State
	}
	return out
}

// Values returns the observed values in order.
func (t Trajectory) Values() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = p.Value
	}
	return out
}

// Step advances state by one unit of time with forward Euler.
// It does not mutate anything; the caller owns both states.
func Step(m Model, step int, state float64, p Params) (next, rate float64, err error) {
	rate, err = m.Rate(step, state, p)
	if err != nil {
		return state, 0, err
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return state, rate, &DomainError{Model: m.Name(), State: state, Reason: "gives a non-finite rate"}
	}
	return state + rate, rate, nil
}

// Integrate runs duration forward Euler steps from initial, which must
// already be in the model's state space (see Model.Encode).
//
// Each step records the current state and then applies the rate, so the
// first point is the initial condition and the last update is never
// recorded. When a step fails, the points recorded so far are returned
// together with a *StepError naming that step.
func Integrate(m Model, initial float64, duration int, p Params) (Trajectory, error) {
	if duration <= 0 {
		return Trajectory{Model: m.Name()}, ErrDuration
	}

	traj := Trajectory{
		Model:  m.Name(),
		Points: make([]Point, 0, duration),
	}

	state := initial
	for i := 0; i < duration; i++ {
		next, rate, err := Step(m, i, state, p)
		if err != nil {
			return traj, &StepError{Step: i, State: state, Err: err}
		}
		traj.Points = append(traj.Points, Point{
			Step:  i,
			State: state,
			Rate:  rate,
			Value: m.Observe(state),
		})
		state = next
	}

	return traj, nil
}
