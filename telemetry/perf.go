package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for a simulation run.
const (
	PhaseBuild     = "build"
	PhaseIntegrate = "integrate"
	PhaseOutput    = "output"
)

// PerfCollector times the phases of one run.
type PerfCollector struct {
	runStart   time.Time
	phaseStart time.Time
	lastPhase  string
	order      []string
	phases     map[string]time.Duration
}

// NewPerfCollector creates a collector and starts the run clock.
func NewPerfCollector() *PerfCollector {
	now := time.Now()
	return &PerfCollector{
		runStart: now,
		phases:   make(map[string]time.Duration),
	}
}

// StartPhase ends the previous phase, if any, and begins timing phase.
// Re-entering a phase accumulates into it.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.endPhase(now)
	if _, seen := p.phases[phase]; !seen {
		p.order = append(p.order, phase)
		p.phases[phase] = 0
	}
	p.phaseStart = now
	p.lastPhase = phase
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}
}

// Stop ends the current phase and returns the run's timings.
func (p *PerfCollector) Stop() PerfStats {
	now := time.Now()
	p.endPhase(now)

	phases := make(map[string]time.Duration, len(p.phases))
	for k, v := range p.phases {
		phases[k] = v
	}
	return PerfStats{
		Total:  now.Sub(p.runStart),
		Phases: phases,
		Order:  append([]string(nil), p.order...),
	}
}

// PerfStats holds phase durations of a run.
type PerfStats struct {
	Total  time.Duration
	Phases map[string]time.Duration
	Order  []string // Phases in first-started order
}

// Pct returns the share of total run time spent in phase.
func (s PerfStats) Pct(phase string) float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Phases[phase]) / float64(s.Total) * 100
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("total_us", s.Total.Microseconds()),
	}
	for _, phase := range s.Order {
		attrs = append(attrs,
			slog.Int64(phase+"_us", s.Phases[phase].Microseconds()),
			slog.Float64(phase+"_pct", s.Pct(phase)),
		)
	}
	return slog.GroupValue(attrs...)
}
