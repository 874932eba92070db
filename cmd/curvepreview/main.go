// Growth curve preview tool - interactive parameter tuning with sliders.
//
// Usage: go run ./cmd/curvepreview [-preset milk] [-config file.yaml]
package main

import (
	"flag"
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/growth/chart"
	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/growth"
	"github.com/pthm-cable/growth/renderer"
	"github.com/pthm-cable/growth/sim"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	panelWidth   = 360
	chartWidth   = windowWidth - panelWidth
)

// Which model kinds a slider applies to.
const (
	forSigmoidal = 1 << iota
	forLinear
	forAll = forSigmoidal | forLinear
)

// sliderSpec describes one slider bound to a condition field.
type sliderSpec struct {
	label    string
	min, max float32
	format   string
	models   int
	get      func(*config.ConditionConfig) float64
	set      func(*config.ConditionConfig, float64)
}

var sliders = []sliderSpec{
	{"r (growth rate)", 0.01, 3.0, "%.3f", forSigmoidal,
		func(c *config.ConditionConfig) float64 { return c.R },
		func(c *config.ConditionConfig, v float64) { c.R = v }},
	{"m (ceiling exponent)", 0.05, 3.0, "%.3f", forSigmoidal,
		func(c *config.ConditionConfig) float64 { return c.M },
		func(c *config.ConditionConfig, v float64) { c.M = v }},
	{"n (floor exponent)", 0.5, 6.0, "%.2f", forSigmoidal,
		func(c *config.ConditionConfig) float64 { return c.N },
		func(c *config.ConditionConfig, v float64) { c.N = v }},
	{"adjustment (r multiplier)", 0.05, 1.0, "%.3f", forSigmoidal,
		func(c *config.ConditionConfig) float64 { return c.Adjustment },
		func(c *config.ConditionConfig, v float64) { c.Adjustment = v }},
	{"increment (per-step slope)", 0, 0.02, "%.4f", forLinear,
		func(c *config.ConditionConfig) float64 { return c.Increment },
		func(c *config.ConditionConfig, v float64) { c.Increment = v }},
	{"initial fraction", 0.01, 1.0, "%.3f", forAll,
		func(c *config.ConditionConfig) float64 { return c.InitialFraction },
		func(c *config.ConditionConfig, v float64) { c.InitialFraction = v }},
}

// slidersFor returns the sliders whose fields model reads.
// A nil model (unknown name) gets every slider.
func slidersFor(model growth.Model) []sliderSpec {
	if model == nil {
		return sliders
	}
	kind := forLinear
	if growth.Sigmoidal(model) {
		kind = forSigmoidal
	}
	var out []sliderSpec
	for _, s := range sliders {
		if s.models&kind != 0 {
			out = append(out, s)
		}
	}
	return out
}

// simulate validates cfg and returns its chart.
func simulate(cfg *config.Config) (chart.Figure, error) {
	if err := cfg.Finalize(); err != nil {
		return chart.Figure{}, err
	}
	s, err := sim.New(cfg, sim.Options{})
	if err != nil {
		return chart.Figure{}, err
	}
	return s.Run().Figure(cfg.Chart), nil
}

func main() {
	configPath := flag.String("config", "", "Config YAML overlay (empty = use defaults)")
	preset := flag.String("preset", "", "Built-in preset (milk, milk-log, od600)")
	flag.Parse()

	base, err := config.LoadPreset(*preset, *configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := base.Clone()

	rl.InitWindow(windowWidth, windowHeight, "Growth Curve Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	chartRenderer := renderer.NewChartRenderer()
	selected := 0
	needsRerun := true
	var fig chart.Figure
	var simErr error
	status := ""

	for !rl.WindowShouldClose() {
		if needsRerun {
			fig, simErr = simulate(cfg)
			needsRerun = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		chartRenderer.Draw(fig, rl.Rectangle{X: 0, Y: 0, Width: chartWidth, Height: windowHeight})

		// Control panel
		panelX := float32(chartWidth + 16)
		panelY := float32(16)
		sliderW := float32(panelWidth - 110)

		rl.DrawText("Condition", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 30, Height: 30}, "<") {
			selected = (selected + len(cfg.Conditions) - 1) % len(cfg.Conditions)
		}
		if gui.Button(rl.Rectangle{X: panelX + panelWidth - 62, Y: panelY, Width: 30, Height: 30}, ">") {
			selected = (selected + 1) % len(cfg.Conditions)
		}
		cond := &cfg.Conditions[selected]
		model, _ := growth.Lookup(cond.Model)
		rl.DrawText(cond.Label, int32(panelX)+40, int32(panelY)+8, 14, rl.DarkGray)
		panelY += 45

		for _, s := range slidersFor(model) {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			current := float32(s.get(cond))
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: sliderW, Height: 20},
				"", "",
				current, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, s.get(cond)), int32(panelX+sliderW+10), int32(panelY+2), 16, rl.DarkGray)
			if next != current {
				s.set(cond, float64(next))
				needsRerun = true
			}
			panelY += 35
		}

		panelY += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 150, Height: 30}, "Reset Condition") {
			if orig, ok := base.Condition(cond.Name); ok {
				*cond = *orig
				needsRerun = true
			}
		}
		if gui.Button(rl.Rectangle{X: panelX + 160, Y: panelY, Width: 150, Height: 30}, "Reset All") {
			cfg = base.Clone()
			needsRerun = true
		}
		panelY += 50

		if simErr != nil {
			rl.DrawText("Invalid parameters:", int32(panelX), int32(panelY), 14, rl.Red)
			rl.DrawText(simErr.Error(), int32(panelX), int32(panelY)+18, 10, rl.Red)
			panelY += 40
		}

		// YAML snippet for the selected condition
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := conditionYAML(cond, model)
		for _, line := range snippet {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("C: copy YAML   P: export chart.png", int32(panelX), windowHeight-30, 12, rl.LightGray)
		if status != "" {
			rl.DrawText(status, int32(panelX), windowHeight-48, 12, rl.Gray)
		}

		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range snippet {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
			status = "copied " + cond.Name
		}
		if rl.IsKeyPressed(rl.KeyP) {
			if err := chart.SavePNG("chart.png", fig, chart.StyleFrom(cfg.Chart)); err != nil {
				status = err.Error()
			} else {
				status = "saved chart.png"
			}
		}

		rl.EndDrawing()
	}
}

func conditionYAML(c *config.ConditionConfig, model growth.Model) []string {
	lines := []string{fmt.Sprintf("- name: %s", c.Name)}
	if model == nil || growth.Sigmoidal(model) {
		lines = append(lines,
			fmt.Sprintf("  r: %.4f", c.R),
			fmt.Sprintf("  m: %.4f", c.M),
			fmt.Sprintf("  n: %.4f", c.N),
			fmt.Sprintf("  adjustment: %.4f", c.Adjustment),
		)
	}
	if model == nil || !growth.Sigmoidal(model) {
		lines = append(lines, fmt.Sprintf("  increment: %.4f", c.Increment))
	}
	return append(lines, fmt.Sprintf("  initial_fraction: %.4f", c.InitialFraction))
}
