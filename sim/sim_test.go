package sim

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/growth"
)

func loadConfig(t *testing.T, preset string) *config.Config {
	t.Helper()
	cfg, err := config.LoadPreset(preset, "")
	if err != nil {
		t.Fatalf("load preset %q: %v", preset, err)
	}
	return cfg
}

func run(t *testing.T, cfg *config.Config, opts Options) *Result {
	t.Helper()
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s.Run()
}

func TestRun_DefaultConditions(t *testing.T) {
	cfg := loadConfig(t, "")
	res := run(t, cfg, Options{})

	wantNames := []string{"lb_room_temperature", "milk_room_temperature", "milk_heat_shock", "milk_refrigeration"}
	if len(res.Runs) != len(wantNames) {
		t.Fatalf("runs = %d, want %d", len(res.Runs), len(wantNames))
	}
	for i, name := range wantNames {
		r := res.Runs[i]
		if r.Name != name {
			t.Errorf("run %d = %s, want %s", i, r.Name, name)
		}
		if r.Failed() {
			t.Errorf("%s failed: %v", name, r.Failure)
		}
		if r.Trajectory.Len() != 24 {
			t.Errorf("%s has %d points, want 24", name, r.Trajectory.Len())
		}
	}

	lb, _ := res.Find("lb_room_temperature")
	rt, _ := res.Find("milk_room_temperature")
	hs, _ := res.Find("milk_heat_shock")
	fr, _ := res.Find("milk_refrigeration")

	for i := 0; i < 24; i++ {
		if rt.Trajectory.Points[i].State > lb.Trajectory.Points[i].State {
			t.Errorf("step %d: milk grew faster than LB", i)
		}
		if hs.Trajectory.Points[i].State > rt.Trajectory.Points[i].State {
			t.Errorf("step %d: heat-shocked culture ahead of room temperature", i)
		}
		if fr.Trajectory.Points[i].State > rt.Trajectory.Points[i].State {
			t.Errorf("step %d: refrigerated culture ahead of room temperature", i)
		}
	}

	if math.Abs(hs.Trajectory.Points[0].Value-(3.8+math.Log10(0.2))) > 1e-9 {
		t.Errorf("heat shock starts at %v", hs.Trajectory.Points[0].Value)
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := loadConfig(t, "")
	a := run(t, cfg, Options{})
	b := run(t, cfg, Options{Parallel: true})

	for i := range a.Runs {
		pa, pb := a.Runs[i].Trajectory.Points, b.Runs[i].Trajectory.Points
		if len(pa) != len(pb) {
			t.Fatalf("%s: lengths differ", a.Runs[i].Name)
		}
		for j := range pa {
			if pa[j] != pb[j] {
				t.Fatalf("%s: point %d differs: %+v vs %+v", a.Runs[i].Name, j, pa[j], pb[j])
			}
		}
	}
}

func TestRun_Presets(t *testing.T) {
	for _, preset := range config.Presets() {
		t.Run(preset, func(t *testing.T) {
			cfg := loadConfig(t, preset)
			res := run(t, cfg, Options{})
			for _, r := range res.Runs {
				if r.Failed() {
					t.Errorf("%s failed: %v", r.Name, r.Failure)
				}
				if r.Trajectory.Len() != cfg.Simulation.Duration {
					t.Errorf("%s has %d points", r.Name, r.Trajectory.Len())
				}
				if r.Trajectory.Model != cfg.Simulation.Model {
					t.Errorf("%s used model %q", r.Name, r.Trajectory.Model)
				}
			}
		})
	}
}

func TestRun_FailureIsolated(t *testing.T) {
	cfg := loadConfig(t, "")
	cfg.Conditions[1].R = 50
	cfg.Conditions[1].Adjustment = 1
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	res := run(t, cfg, Options{})
	bad := res.Runs[1]
	if !bad.Failed() {
		t.Fatal("expected milk_room_temperature to overshoot")
	}
	if !errors.Is(bad.Failure, growth.ErrDomain) {
		t.Errorf("failure should wrap ErrDomain: %v", bad.Failure)
	}
	if bad.Failure.Step != 4 || bad.Trajectory.Len() != 4 {
		t.Errorf("failure at step %d with %d points, want 4 and 4", bad.Failure.Step, bad.Trajectory.Len())
	}

	for _, i := range []int{0, 2, 3} {
		if res.Runs[i].Failed() || res.Runs[i].Trajectory.Len() != 24 {
			t.Errorf("%s affected by failing condition", res.Runs[i].Name)
		}
	}

	fig := res.Figure(cfg.Chart)
	if !strings.Contains(fig.Lines[1].Label, "stopped at step 4") {
		t.Errorf("failed line label = %q", fig.Lines[1].Label)
	}
}

func TestRun_InitialAtFloorStaysFlat(t *testing.T) {
	cfg := loadConfig(t, "")
	cfg.Simulation.Initial = cfg.Simulation.Min
	for i := range cfg.Conditions {
		cfg.Conditions[i].InitialFraction = 1
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	res := run(t, cfg, Options{})
	for _, r := range res.Runs {
		if r.Failed() {
			t.Fatalf("%s failed at the floor: %v", r.Name, r.Failure)
		}
		for _, p := range r.Trajectory.Points {
			if p.Rate != 0 || p.State != cfg.Derived.Min {
				t.Fatalf("%s moved off the floor at step %d: %+v", r.Name, p.Step, p)
			}
		}
	}
}

func TestResolveCondition(t *testing.T) {
	cfg := loadConfig(t, "")
	c, err := ResolveCondition(cfg, 2)
	if err != nil {
		t.Fatal(err)
	}

	if c.Name != "milk_heat_shock" || c.Label != "(Milk) Heat shock" {
		t.Errorf("resolved %q / %q", c.Name, c.Label)
	}
	if math.Abs(c.Params.R-1.05/6) > 1e-12 {
		t.Errorf("effective r = %v, want 1.05/6", c.Params.R)
	}
	if math.Abs(c.Initial-cfg.Derived.Initial*0.2) > 1e-9 {
		t.Errorf("initial = %v", c.Initial)
	}
	if c.Color.R != 255 || c.Color.G != 99 || c.Color.B != 71 {
		t.Errorf("colour = %v, want tomato", c.Color)
	}
	if c.Params.Min != cfg.Derived.Min || c.Params.Max != cfg.Derived.Max {
		t.Errorf("bounds not shared: %+v", c.Params)
	}

	if _, err := ResolveCondition(cfg, 9); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestFigure(t *testing.T) {
	cfg := loadConfig(t, "")
	res := run(t, cfg, Options{})
	fig := res.Figure(cfg.Chart)

	if fig.Title != cfg.Chart.Title || fig.XLabel != "Time (hrs)" || fig.YLabel != "log[CFU]" {
		t.Errorf("figure text = %q / %q / %q", fig.Title, fig.XLabel, fig.YLabel)
	}
	if len(fig.Lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(fig.Lines))
	}

	lb := fig.Lines[0]
	if lb.Label != "(LB) Room temperature" {
		t.Errorf("label = %q", lb.Label)
	}
	if len(lb.X) != 24 || lb.X[23] != 23 {
		t.Errorf("x values = %v", lb.X)
	}
	if math.Abs(lb.Y[0]-3.8) > 1e-9 {
		t.Errorf("first y = %v, want 3.8", lb.Y[0])
	}
	if err := fig.Validate(); err != nil {
		t.Errorf("figure invalid: %v", err)
	}
}
