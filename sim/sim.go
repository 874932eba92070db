// Package sim builds the culture world from configuration and runs it.
package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/growth/chart"
	"github.com/pthm-cable/growth/components"
	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/growth"
	"github.com/pthm-cable/growth/systems"
)

// Options configures a simulation instance.
type Options struct {
	Parallel bool // Integrate cultures on worker goroutines
}

// Simulation holds the culture world for one configuration.
type Simulation struct {
	cfg   *config.Config
	world *ecs.World

	cultureMapper *ecs.Map2[components.Culture, components.Series]
	cultureFilter *ecs.Filter2[components.Culture, components.Series]

	growth *systems.GrowthSystem
}

// Run is the outcome for one condition.
type Run struct {
	components.Culture
	Trajectory growth.Trajectory
	Failure    *growth.StepError
}

// Failed reports whether the condition stopped before the horizon.
func (r *Run) Failed() bool {
	return r.Failure != nil
}

// Result holds every run of a simulation in configuration order.
type Result struct {
	Duration int
	Runs     []Run
}

// ResolveCondition turns a validated condition into a culture.
func ResolveCondition(cfg *config.Config, index int) (components.Culture, error) {
	if index < 0 || index >= len(cfg.Conditions) {
		return components.Culture{}, fmt.Errorf("condition index %d out of range", index)
	}
	cond := cfg.Conditions[index]

	model, err := growth.Lookup(cond.Model)
	if err != nil {
		return components.Culture{}, fmt.Errorf("condition %s: %w", cond.Name, err)
	}
	col, err := config.ParseColor(cond.Color)
	if err != nil {
		return components.Culture{}, fmt.Errorf("condition %s: %w", cond.Name, err)
	}

	return components.Culture{
		Index: index,
		Name:  cond.Name,
		Label: cond.Label,
		Color: col,
		Model: model,
		Params: growth.Params{
			R:         cond.R * cond.Adjustment,
			M:         cond.M,
			N:         cond.N,
			Max:       cfg.Derived.Max,
			Min:       cfg.Derived.Min,
			Increment: cond.Increment,
		},
		Initial: cfg.InitialFor(cond),
	}, nil
}

// New creates a simulation with one entity per configured condition.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	world := ecs.NewWorld()

	s := &Simulation{
		cfg:           cfg,
		world:         world,
		cultureMapper: ecs.NewMap2[components.Culture, components.Series](world),
		cultureFilter: ecs.NewFilter2[components.Culture, components.Series](world),
		growth:        systems.NewGrowthSystem(world, cfg.Simulation.Duration, opts.Parallel),
	}

	for i := range cfg.Conditions {
		culture, err := ResolveCondition(cfg, i)
		if err != nil {
			return nil, err
		}
		series := components.Series{}
		s.cultureMapper.NewEntity(&culture, &series)
	}

	return s, nil
}

// Run integrates every culture and collects the results.
// Failed conditions are logged and keep only their representable points.
func (s *Simulation) Run() *Result {
	s.growth.Update()

	res := &Result{Duration: s.cfg.Simulation.Duration}
	query := s.cultureFilter.Query()
	for query.Next() {
		culture, series := query.Get()
		res.Runs = append(res.Runs, Run{
			Culture:    *culture,
			Trajectory: series.Trajectory,
			Failure:    series.Failure,
		})
	}

	// Archetype iteration order is not configuration order.
	sort.Slice(res.Runs, func(i, j int) bool {
		return res.Runs[i].Index < res.Runs[j].Index
	})

	for _, r := range res.Runs {
		if r.Failure != nil {
			slog.Warn("condition stopped early",
				"condition", r.Name,
				"model", r.Model.Name(),
				"step", r.Failure.Step,
				"state", r.Failure.State,
				"points", r.Trajectory.Len(),
				"error", r.Failure.Err,
			)
		}
	}

	return res
}

// Find returns the named run.
func (r *Result) Find(name string) (*Run, bool) {
	for i := range r.Runs {
		if r.Runs[i].Name == name {
			return &r.Runs[i], true
		}
	}
	return nil, false
}

// Figure exposes the runs in the shape the chart renderers consume.
// Conditions that stopped early are labelled with the failing step.
func (r *Result) Figure(c config.ChartConfig) chart.Figure {
	fig := chart.Figure{
		Title:  c.Title,
		XLabel: c.XLabel,
		YLabel: c.YLabel,
		Lines:  make([]chart.Line, 0, len(r.Runs)),
	}
	for _, run := range r.Runs {
		label := run.Label
		if run.Failure != nil {
			label = fmt.Sprintf("%s (stopped at step %d)", label, run.Failure.Step)
		}
		fig.Lines = append(fig.Lines, chart.Line{
			Name:  run.Name,
			Label: label,
			Color: run.Color,
			X:     run.Trajectory.Steps(),
			Y:     run.Trajectory.Values(),
		})
	}
	return fig
}
