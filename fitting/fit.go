package fitting

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/optimize"
)

// Optimization methods.
const (
	MethodNelderMead = "nelder-mead"
	MethodCMAES      = "cmaes"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval      int     `csv:"eval"`
	SSE       float64 `csv:"sse"`
	R         float64 `csv:"r"`
	M         float64 `csv:"m"`
	N         float64 `csv:"n"`
	Increment float64 `csv:"increment"`
}

// Options configures a fit.
type Options struct {
	Method       string
	MaxEvals     int
	Population   int     // CMA-ES population size (0 = auto)
	InitStepSize float64 // CMA-ES step size in normalized space (0 = 0.3)

	// OnEval is called after every evaluation with the clamped values used.
	OnEval func(EvalRecord)
}

// Result is the best parameter vector found.
type Result struct {
	Params      []float64 // Clamped raw values in ParamVector order
	SSE         float64
	InitialSSE  float64 // Error at the starting values
	Evaluations int
}

// Fit minimizes the evaluator's error starting from the condition's
// configured values.
func Fit(e *Evaluator, opts Options) (Result, error) {
	params := e.params
	start := e.Start()
	initX := params.Normalize(start)
	initialSSE := e.Evaluate(start)

	if opts.MaxEvals <= 0 {
		opts.MaxEvals = 500
	}

	var method optimize.Method
	switch opts.Method {
	case "", MethodNelderMead:
		method = &optimize.NelderMead{}
	case MethodCMAES:
		pop := opts.Population
		if pop == 0 {
			pop = 4 + int(3.0*float64(params.Dim())/2.0)
		}
		step := opts.InitStepSize
		if step == 0 {
			step = 0.3
		}
		method = &optimize.CmaEsChol{InitStepSize: step, Population: pop}
	default:
		return Result{}, fmt.Errorf("fitting: unknown method %q", opts.Method)
	}

	evalCount := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			sse := e.Evaluate(raw)
			evalCount++
			if opts.OnEval != nil {
				opts.OnEval(params.Record(evalCount, sse, raw))
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: opts.MaxEvals,
		Concurrent:      0, // OnEval is not safe for concurrent use
	}

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Debug("optimization ended", "error", err)
	}
	if result != nil {
		slog.Debug("optimization status", "status", result.Status, "evals", evalCount)
	}

	best, bestParams := e.Best()
	if bestParams == nil {
		return Result{}, fmt.Errorf("fitting: no evaluations completed: %w", err)
	}
	return Result{
		Params:      bestParams,
		SSE:         best,
		InitialSSE:  initialSSE,
		Evaluations: e.Evaluations(),
	}, nil
}
