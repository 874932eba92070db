package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_Phases(t *testing.T) {
	pc := NewPerfCollector()

	pc.StartPhase(PhaseBuild)
	time.Sleep(100 * time.Microsecond)
	pc.StartPhase(PhaseIntegrate)
	time.Sleep(200 * time.Microsecond)
	pc.StartPhase(PhaseOutput)
	stats := pc.Stop()

	if len(stats.Order) != 3 || stats.Order[0] != PhaseBuild || stats.Order[2] != PhaseOutput {
		t.Errorf("phase order = %v", stats.Order)
	}
	if stats.Phases[PhaseBuild] <= 0 || stats.Phases[PhaseIntegrate] <= 0 {
		t.Errorf("expected positive phase durations: %v", stats.Phases)
	}

	var sum time.Duration
	for _, d := range stats.Phases {
		sum += d
	}
	if sum > stats.Total {
		t.Errorf("phases sum %v exceeds total %v", sum, stats.Total)
	}

	pct := stats.Pct(PhaseBuild) + stats.Pct(PhaseIntegrate) + stats.Pct(PhaseOutput)
	if pct <= 0 || pct > 100.0001 {
		t.Errorf("phase percentages sum to %v", pct)
	}
}

func TestPerfCollector_ReenterPhase(t *testing.T) {
	pc := NewPerfCollector()

	pc.StartPhase(PhaseIntegrate)
	time.Sleep(50 * time.Microsecond)
	pc.StartPhase(PhaseOutput)
	pc.StartPhase(PhaseIntegrate)
	time.Sleep(50 * time.Microsecond)
	stats := pc.Stop()

	if len(stats.Order) != 2 {
		t.Errorf("re-entered phase listed twice: %v", stats.Order)
	}
	if stats.Phases[PhaseIntegrate] < 100*time.Microsecond {
		t.Errorf("integrate = %v, want accumulated time", stats.Phases[PhaseIntegrate])
	}
}

func TestPerfStats_Empty(t *testing.T) {
	var s PerfStats
	if s.Pct(PhaseBuild) != 0 {
		t.Error("empty stats should report 0%")
	}
	if v := s.LogValue(); len(v.Group()) != 1 {
		t.Errorf("empty stats log %d attrs, want 1", len(v.Group()))
	}
}
