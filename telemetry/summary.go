package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/growth/growth"
	"github.com/pthm-cable/growth/sim"
)

// Undefined marks a summary metric that the trajectory cannot support,
// e.g. a threshold never reached or a doubling time with no growth.
const Undefined = -1

// Summary holds per-condition growth metrics.
// Rates are in observed units per step (log10 units for log-valued models).
type Summary struct {
	RunID     string `csv:"run_id"`
	Condition string `csv:"condition"`
	Label     string `csv:"label"`
	Model     string `csv:"model"`
	Points    int    `csv:"points"`

	Initial  float64 `csv:"initial"`
	Final    float64 `csv:"final"`
	Increase float64 `csv:"increase"`

	MaxRate     float64 `csv:"max_rate"`
	MaxRateStep int     `csv:"max_rate_step"`
	MeanRate    float64 `csv:"mean_rate"`
	RateStd     float64 `csv:"rate_std"`

	DoublingTime  float64 `csv:"doubling_time"`  // log10(2) / max rate, log-valued models only
	LagTime       float64 `csv:"lag_time"`       // tangent at max rate meets the initial value
	ThresholdStep int     `csv:"threshold_step"` // first step with value >= threshold

	FailedStep int    `csv:"failed_step"`
	Error      string `csv:"error"`
}

// ObservedRates returns the per-step change of the observed values.
func ObservedRates(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	rates := make([]float64, len(values)-1)
	floats.SubTo(rates, values[1:], values[:len(values)-1])
	return rates
}

// Summarize computes growth metrics for one run.
func Summarize(runID string, run *sim.Run, threshold float64) Summary {
	values := run.Trajectory.Values()
	s := Summary{
		RunID:         runID,
		Condition:     run.Name,
		Label:         run.Label,
		Model:         run.Model.Name(),
		Points:        len(values),
		MaxRateStep:   Undefined,
		DoublingTime:  Undefined,
		LagTime:       Undefined,
		ThresholdStep: Undefined,
		FailedStep:    Undefined,
	}
	if run.Failure != nil {
		s.FailedStep = run.Failure.Step
		s.Error = run.Failure.Err.Error()
	}
	if len(values) == 0 {
		return s
	}

	s.Initial = values[0]
	s.Final = values[len(values)-1]
	s.Increase = s.Final - s.Initial

	for i, v := range values {
		if v >= threshold {
			s.ThresholdStep = i
			break
		}
	}

	rates := ObservedRates(values)
	if len(rates) == 0 {
		return s
	}

	s.MaxRateStep = floats.MaxIdx(rates)
	s.MaxRate = rates[s.MaxRateStep]
	s.MeanRate, s.RateStd = stat.MeanStdDev(rates, nil)
	if math.IsNaN(s.RateStd) {
		s.RateStd = 0
	}

	if s.MaxRate > 0 {
		if run.Model.Name() != growth.ModelLinear {
			s.DoublingTime = math.Log10(2) / s.MaxRate
		}
		lag := float64(s.MaxRateStep) - (values[s.MaxRateStep]-s.Initial)/s.MaxRate
		s.LagTime = math.Max(lag, 0)
	}

	return s
}

// SummarizeResult summarizes every run in configuration order.
func SummarizeResult(runID string, res *sim.Result, threshold float64) []Summary {
	out := make([]Summary, len(res.Runs))
	for i := range res.Runs {
		out[i] = Summarize(runID, &res.Runs[i], threshold)
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("condition", s.Condition),
		slog.String("model", s.Model),
		slog.Int("points", s.Points),
		slog.Float64("initial", s.Initial),
		slog.Float64("final", s.Final),
		slog.Float64("max_rate", s.MaxRate),
		slog.Int("max_rate_step", s.MaxRateStep),
		slog.Float64("doubling_time", s.DoublingTime),
		slog.Float64("lag_time", s.LagTime),
		slog.Int("threshold_step", s.ThresholdStep),
	}
	if s.FailedStep != Undefined {
		attrs = append(attrs,
			slog.Int("failed_step", s.FailedStep),
			slog.String("error", s.Error),
		)
	}
	return slog.GroupValue(attrs...)
}
