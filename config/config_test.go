package config

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Simulation.Duration != 24 {
		t.Errorf("duration = %d, want 24", cfg.Simulation.Duration)
	}
	if math.Abs(cfg.Derived.Initial-6309.57) > 0.01 {
		t.Errorf("derived initial = %v, want ~6309.57", cfg.Derived.Initial)
	}
	if cfg.Derived.Min != 10 {
		t.Errorf("derived min = %v, want 10", cfg.Derived.Min)
	}
	if math.Abs(math.Log10(cfg.Derived.Max)-10.1) > 1e-12 {
		t.Errorf("derived max = %v, want 10^10.1", cfg.Derived.Max)
	}
	if len(cfg.Conditions) != 4 {
		t.Fatalf("conditions = %d, want 4", len(cfg.Conditions))
	}

	lb, ok := cfg.Condition("lb_room_temperature")
	if !ok {
		t.Fatal("lb_room_temperature missing")
	}
	if lb.Adjustment != 1 || lb.InitialFraction != 1 {
		t.Errorf("LB defaults not applied: adjustment=%v fraction=%v", lb.Adjustment, lb.InitialFraction)
	}
	if lb.Model != "population" {
		t.Errorf("LB model = %q, want simulation default", lb.Model)
	}

	hs, _ := cfg.Condition("milk_heat_shock")
	if math.Abs(hs.Adjustment-1.0/6) > 1e-12 {
		t.Errorf("heat shock adjustment = %v, want 1/6", hs.Adjustment)
	}
	if math.Abs(cfg.InitialFor(*hs)-cfg.Derived.Initial*0.2) > 1e-9 {
		t.Errorf("heat shock initial = %v", cfg.InitialFor(*hs))
	}
}

func TestLoadPresets(t *testing.T) {
	want := map[string]string{
		"milk":     "population",
		"milk-log": "log",
		"od600":    "linear",
	}

	names := Presets()
	if len(names) != len(want) {
		t.Fatalf("Presets() = %v", names)
	}
	for _, name := range names {
		cfg, err := LoadPreset(name, "")
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if cfg.Simulation.Model != want[name] {
			t.Errorf("preset %s model = %q, want %q", name, cfg.Simulation.Model, want[name])
		}
		for _, cond := range cfg.Conditions {
			if cond.Model != want[name] {
				t.Errorf("preset %s condition %s model = %q", name, cond.Name, cond.Model)
			}
		}
	}
}

func TestLoadPreset_Unknown(t *testing.T) {
	if _, err := LoadPreset("gompertz", ""); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("simulation:\n  duration: 48\nchart:\n  title: custom\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay: %v", err)
	}
	if cfg.Simulation.Duration != 48 {
		t.Errorf("duration = %d, want 48", cfg.Simulation.Duration)
	}
	if cfg.Chart.Title != "custom" {
		t.Errorf("title = %q, want custom", cfg.Chart.Title)
	}
	// Untouched fields keep their defaults
	if cfg.Simulation.Initial != 3.8 || len(cfg.Conditions) != 4 {
		t.Errorf("defaults lost: initial=%v conditions=%d", cfg.Simulation.Initial, len(cfg.Conditions))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLReload(t *testing.T) {
	cfg, err := LoadPreset("od600", "")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Simulation.Model != "linear" || reloaded.Conditions[0].Increment != 0.005 {
		t.Errorf("reloaded config differs: %+v", reloaded.Simulation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero duration", func(c *Config) { c.Simulation.Duration = 0 }, "simulation.duration"},
		{"unknown scale", func(c *Config) { c.Simulation.Scale = "ln" }, "simulation.scale"},
		{"max below min", func(c *Config) { c.Simulation.Max = 0.5 }, "simulation.max"},
		{"negative min", func(c *Config) {
			c.Simulation.Scale = ScaleLinear
			c.Simulation.Initial, c.Simulation.Max, c.Simulation.Min = 0.05, 2, -1
		}, "simulation.min"},
		{"no conditions", func(c *Config) { c.Conditions = nil }, "conditions"},
		{"empty name", func(c *Config) { c.Conditions[0].Name = "" }, "conditions[0].name"},
		{"duplicate name", func(c *Config) { c.Conditions[1].Name = c.Conditions[0].Name }, "conditions[lb_room_temperature]"},
		{"unknown model", func(c *Config) { c.Conditions[0].Model = "gompertz" }, "conditions[lb_room_temperature].model"},
		{"unknown colour", func(c *Config) { c.Conditions[0].Color = "octarine" }, "conditions[lb_room_temperature].color"},
		{"negative adjustment", func(c *Config) { c.Conditions[0].Adjustment = -1 }, "conditions[lb_room_temperature].adjustment"},
		{"initial below floor", func(c *Config) { c.Conditions[0].InitialFraction = 1e-4 }, "conditions[lb_room_temperature]"},
		{"initial above ceiling", func(c *Config) { c.Conditions[0].InitialFraction = 1e7 }, "conditions[lb_room_temperature]"},
		{"zero curvature", func(c *Config) { c.Conditions[0].M = 0 }, "conditions[lb_room_temperature].m"},
		{"zero exponent", func(c *Config) { c.Conditions[0].N = 0 }, "conditions[lb_room_temperature].n"},
		{"log model below one CFU", func(c *Config) {
			c.Simulation.Min = -1
			c.Conditions[0].Model = "log"
		}, "conditions[lb_room_temperature].model"},
		{"chart size", func(c *Config) { c.Chart.WidthIn = 0 }, "chart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)

			err = cfg.Finalize()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", ve.Field, tt.field, err)
			}
		})
	}
}

func TestValidate_InitialAtFloorAllowed(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.Initial = cfg.Simulation.Min
	if err := cfg.Finalize(); err != nil {
		t.Errorf("initial exactly at the floor should be valid: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"tomato", color.RGBA{R: 255, G: 99, B: 71, A: 255}, false},
		{"CornflowerBlue", color.RGBA{R: 100, G: 149, B: 237, A: 255}, false},
		{"#ff8000", color.RGBA{R: 255, G: 128, B: 0, A: 255}, false},
		{"", color.RGBA{}, true},
		{"#ff80", color.RGBA{}, true},
		{"#gg0000", color.RGBA{}, true},
		{"octarine", color.RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClone(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cp := cfg.Clone()
	cp.Conditions[0].R = 99
	cp.Derived.ConditionIndex["extra"] = 7

	if cfg.Conditions[0].R == 99 {
		t.Error("clone shares condition slice")
	}
	if _, ok := cfg.Derived.ConditionIndex["extra"]; ok {
		t.Error("clone shares condition index")
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := InitPreset("od600", ""); err != nil {
		t.Fatal(err)
	}
	if Cfg().Simulation.Model != "linear" {
		t.Errorf("Cfg() model = %q", Cfg().Simulation.Model)
	}
	if err := Init(""); err != nil {
		t.Fatal(err)
	}
	if Cfg().Simulation.Model != "population" {
		t.Errorf("Cfg() after Init model = %q", Cfg().Simulation.Model)
	}
}
