package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/growth/chart"
	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/renderer"
	"github.com/pthm-cable/growth/sim"
	"github.com/pthm-cable/growth/telemetry"
)

// parseLevel accepts slog level names such as "debug" or "warn+2".
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Built-in preset: milk, milk-log, od600 (empty = milk)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, chart, and config snapshot")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	parallel := flag.Bool("parallel", false, "Integrate conditions on worker goroutines")

	flag.Parse()

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.InitPreset(*preset, *configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	perf := telemetry.NewPerfCollector()
	perf.StartPhase(telemetry.PhaseBuild)
	s, err := sim.New(cfg, sim.Options{Parallel: *parallel})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"model", cfg.Simulation.Model,
		"duration", cfg.Simulation.Duration,
		"conditions", len(cfg.Conditions),
		"parallel", *parallel,
	)
	perf.StartPhase(telemetry.PhaseIntegrate)
	res := s.Run()

	perf.StartPhase(telemetry.PhaseOutput)

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}
	summaries, err := out.WriteResult(res, cfg)
	if err != nil {
		slog.Error("failed to write results", "error", err)
	}
	for _, sum := range summaries {
		slog.Info("summary", "run_id", out.RunID(), "condition", sum)
	}
	slog.Info("perf", "stats", perf.Stop())

	if *headless {
		if out != nil {
			slog.Info("outputs written", "dir", out.Dir(), "run_id", out.RunID())
		}
		return
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Growth Curves")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	fig := res.Figure(cfg.Chart)
	chartRenderer := renderer.NewChartRenderer()
	exportPath := filepath.Join(*outputDir, telemetry.ChartFile)

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyP) {
			if err := chart.SavePNG(exportPath, fig, chart.StyleFrom(cfg.Chart)); err != nil {
				slog.Error("failed to export chart", "error", err)
			} else {
				slog.Info("chart exported", "path", exportPath)
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		chartRenderer.Draw(fig, rl.Rectangle{
			X:      0,
			Y:      0,
			Width:  float32(rl.GetScreenWidth()),
			Height: float32(rl.GetScreenHeight()),
		})
		rl.DrawText("P: export PNG   Esc: quit", 10, int32(rl.GetScreenHeight())-20, 10, rl.Gray)
		rl.EndDrawing()
	}
}
