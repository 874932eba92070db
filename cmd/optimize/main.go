// Package main fits the growth parameters of one condition to observed data.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/fitting"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	if d < time.Minute {
		return d.String()
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// formatRecord prints only the fitted parameters of an evaluation.
func formatRecord(params *fitting.ParamVector, rec fitting.EvalRecord) string {
	out := ""
	for i, name := range params.Names() {
		if i > 0 {
			out += " "
		}
		switch name {
		case "r":
			out += fmt.Sprintf("r=%.4f", rec.R)
		case "m":
			out += fmt.Sprintf("m=%.4f", rec.M)
		case "n":
			out += fmt.Sprintf("n=%.4f", rec.N)
		case "increment":
			out += fmt.Sprintf("increment=%.6f", rec.Increment)
		}
	}
	return out
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	preset := flag.String("preset", "", "Built-in preset to start from (milk, milk-log, od600)")
	condition := flag.String("condition", "lb_room_temperature", "Condition to fit (r, m, n; or increment for the linear model)")
	dataPath := flag.String("data", "", "CSV of observations with hour,value columns")
	method := flag.String("method", fitting.MethodNelderMead, "Optimizer: nelder-mead or cmaes")
	maxEvals := flag.Int("max-evals", 500, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *dataPath == "" {
		log.Fatal("--data is required")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.LoadPreset(*preset, *configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	obs, err := fitting.LoadObservations(*dataPath)
	if err != nil {
		log.Fatalf("failed to load observations: %v", err)
	}

	model, err := fitting.ConditionModel(baseCfg, *condition)
	if err != nil {
		log.Fatal(err)
	}
	params := fitting.ParamVectorFor(model)
	evaluator, err := fitting.NewEvaluator(params, baseCfg, *condition, obs)
	if err != nil {
		log.Fatal(err)
	}

	// Open log file
	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	headerWritten := false
	bestSSE := math.Inf(1)
	startTime := time.Now()

	onEval := func(rec fitting.EvalRecord) {
		records := []fitting.EvalRecord{rec}
		var err error
		if !headerWritten {
			err = gocsv.Marshal(records, logFile)
			headerWritten = true
		} else {
			err = gocsv.MarshalWithoutHeaders(records, logFile)
		}
		if err != nil {
			log.Printf("failed to log evaluation %d: %v", rec.Eval, err)
		}

		if rec.SSE < bestSSE {
			bestSSE = rec.SSE
		}
		if rec.Eval%25 == 0 {
			fmt.Printf("Eval %d/%d: sse=%.6f %s (best=%.6f) | elapsed: %s\n",
				rec.Eval, *maxEvals, rec.SSE, formatRecord(params, rec), bestSSE,
				formatDuration(time.Since(startTime)))
		}
	}

	fmt.Printf("Fitting %v of %s (%s model) to %d observations with %s, max_evals=%d\n",
		params.Names(), *condition, model.Name(), len(obs), *method, *maxEvals)

	result, err := fitting.Fit(evaluator, fitting.Options{
		Method:     *method,
		MaxEvals:   *maxEvals,
		Population: *population,
		OnEval:     onEval,
	})
	if err != nil {
		log.Fatalf("fit failed: %v", err)
	}

	fmt.Printf("\nFit complete after %d evaluations in %s\n", result.Evaluations, formatDuration(time.Since(startTime)))
	fmt.Printf("SSE: %.6f (start %.6f)\n", result.SSE, result.InitialSSE)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, result.Params[i])
	}

	// Save best config
	bestCfg := evaluator.Config(result.Params)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
