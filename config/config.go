// Package config provides configuration loading and access for the simulation.
package config

import (
	"embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed presets/*.yaml
var presetFS embed.FS

// Value scales for SimulationConfig.Initial/Max/Min.
const (
	ScaleLog10  = "log10"  // values are base-10 exponents (3.8 means 10^3.8 CFU)
	ScaleLinear = "linear" // values are used as-is (e.g. OD600)
)

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig  `yaml:"simulation"`
	Conditions []ConditionConfig `yaml:"conditions"`
	Chart      ChartConfig       `yaml:"chart"`
	Screen     ScreenConfig      `yaml:"screen"`
	Summary    SummaryConfig     `yaml:"summary"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds the parameters shared by every condition of a run.
type SimulationConfig struct {
	Duration int     `yaml:"duration"` // Number of unit steps (hours)
	Model    string  `yaml:"model"`    // Default growth model for conditions
	Scale    string  `yaml:"scale"`    // log10 or linear, applies to the three values below
	Initial  float64 `yaml:"initial"`  // Shared initial population
	Max      float64 `yaml:"max"`      // Carrying capacity
	Min      float64 `yaml:"min"`      // Floor
}

// ConditionConfig defines one named growth scenario.
type ConditionConfig struct {
	Name            string  `yaml:"name"`
	Label           string  `yaml:"label"`            // Legend label (default: name)
	Color           string  `yaml:"color"`            // SVG colour name or #rrggbb
	Model           string  `yaml:"model"`            // Overrides simulation.model
	R               float64 `yaml:"r"`                // Growth rate
	M               float64 `yaml:"m"`                // Curvature
	N               float64 `yaml:"n"`                // Adjustment exponent
	Adjustment      float64 `yaml:"adjustment"`       // Multiplier on r (0 = 1)
	InitialFraction float64 `yaml:"initial_fraction"` // Multiplier on simulation.initial (0 = 1)
	Increment       float64 `yaml:"increment"`        // Linear model slope per step
}

// ChartConfig holds figure text and export size.
type ChartConfig struct {
	Title     string  `yaml:"title"`
	XLabel    string  `yaml:"x_label"`
	YLabel    string  `yaml:"y_label"`
	WidthIn   float64 `yaml:"width_in"`
	HeightIn  float64 `yaml:"height_in"`
	DPI       int     `yaml:"dpi"`
	TitleSize float64 `yaml:"title_size"` // points
	AxisSize  float64 `yaml:"axis_size"`  // points
}

// ScreenConfig holds display settings for the interactive window.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SummaryConfig holds growth summary settings.
type SummaryConfig struct {
	Threshold float64 `yaml:"threshold"` // Observed value counted as "reached" (e.g. log10 CFU spoilage level)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Initial        float64        // simulation.initial in population units
	Max            float64        // simulation.max in population units
	Min            float64        // simulation.min in population units
	ConditionIndex map[string]int // name -> index for condition lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	return InitPreset("", path)
}

// InitPreset is like Init but starts from the named preset instead of the defaults.
func InitPreset(preset, path string) error {
	cfg, err := LoadPreset(preset, path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	return LoadPreset("", path)
}

// LoadPreset loads the named preset (empty = embedded defaults) and merges
// the YAML file at path over it. The result is validated.
func LoadPreset(preset, path string) (*Config, error) {
	base := defaultsYAML
	if preset != "" {
		data, err := presetFS.ReadFile("presets/" + preset + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, Presets())
		}
		base = data
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(base, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Presets lists the embedded preset names.
func Presets() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		names = append(names, name[:len(name)-len(".yaml")])
	}
	return names
}

// Finalize applies defaults, computes derived values and validates.
// Call it again after editing a loaded config in place.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	sim := c.Simulation
	if sim.Scale == ScaleLog10 {
		c.Derived.Initial = math.Pow(10, sim.Initial)
		c.Derived.Max = math.Pow(10, sim.Max)
		c.Derived.Min = math.Pow(10, sim.Min)
	} else {
		c.Derived.Initial = sim.Initial
		c.Derived.Max = sim.Max
		c.Derived.Min = sim.Min
	}

	// Apply defaults to conditions that don't specify all fields
	for i := range c.Conditions {
		cond := &c.Conditions[i]
		if cond.Label == "" {
			cond.Label = cond.Name
		}
		if cond.Model == "" {
			cond.Model = sim.Model
		}
		if cond.Adjustment == 0 {
			cond.Adjustment = 1.0
		}
		if cond.InitialFraction == 0 {
			cond.InitialFraction = 1.0
		}
	}

	c.Derived.ConditionIndex = make(map[string]int, len(c.Conditions))
	for i, cond := range c.Conditions {
		c.Derived.ConditionIndex[cond.Name] = i
	}
}

// Condition returns the named condition.
func (c *Config) Condition(name string) (*ConditionConfig, bool) {
	i, ok := c.Derived.ConditionIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Conditions[i], true
}

// InitialFor returns a condition's starting population in population units.
func (c *Config) InitialFor(cond ConditionConfig) float64 {
	return c.Derived.Initial * cond.InitialFraction
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy that can be edited without touching c.
func (c *Config) Clone() *Config {
	out := *c
	out.Conditions = append([]ConditionConfig(nil), c.Conditions...)
	out.Derived.ConditionIndex = make(map[string]int, len(c.Derived.ConditionIndex))
	for k, v := range c.Derived.ConditionIndex {
		out.Derived.ConditionIndex[k] = v
	}
	return &out
}
