package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/growth/chart"
	"github.com/pthm-cable/growth/config"
	"github.com/pthm-cable/growth/sim"
)

// Output file names.
const (
	TrajectoriesFile = "trajectories.csv"
	SummaryFile      = "summary.csv"
	ConfigFile       = "config.yaml"
	ChartFile        = "chart.png"
)

// TrajectoryRecord is one row of trajectories.csv.
type TrajectoryRecord struct {
	RunID     string  `csv:"run_id"`
	Condition string  `csv:"condition"`
	Model     string  `csv:"model"`
	Step      int     `csv:"step"`
	State     float64 `csv:"state"`
	Value     float64 `csv:"value"`
	Rate      float64 `csv:"rate"`
}

// csvFile appends gocsv records, writing the header on first use.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager writes the files of one simulation run to a directory.
// All rows carry the same run id.
type OutputManager struct {
	dir   string
	runID string

	trajectories *csvFile
	summary      *csvFile
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	f, err := os.Create(filepath.Join(dir, TrajectoriesFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", TrajectoriesFile, err)
	}
	om.trajectories = &csvFile{f: f}

	f, err = os.Create(filepath.Join(dir, SummaryFile))
	if err != nil {
		om.trajectories.f.Close()
		return nil, fmt.Errorf("creating %s: %w", SummaryFile, err)
	}
	om.summary = &csvFile{f: f}

	return om, nil
}

// RunID returns the identifier stamped on every row.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the configuration used for the run as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteRun appends every point of a run to trajectories.csv.
func (om *OutputManager) WriteRun(run *sim.Run) error {
	if om == nil || run.Trajectory.Len() == 0 {
		return nil
	}

	records := make([]TrajectoryRecord, 0, run.Trajectory.Len())
	for _, p := range run.Trajectory.Points {
		records = append(records, TrajectoryRecord{
			RunID:     om.runID,
			Condition: run.Name,
			Model:     run.Trajectory.Model,
			Step:      p.Step,
			State:     p.State,
			Value:     p.Value,
			Rate:      p.Rate,
		})
	}
	if err := om.trajectories.write(records); err != nil {
		return fmt.Errorf("writing trajectory %s: %w", run.Name, err)
	}
	return nil
}

// WriteSummaries appends summary records to summary.csv.
func (om *OutputManager) WriteSummaries(summaries []Summary) error {
	if om == nil || len(summaries) == 0 {
		return nil
	}
	if err := om.summary.write(summaries); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// WriteChart renders the figure to chart.png.
func (om *OutputManager) WriteChart(fig chart.Figure, style chart.Style) error {
	if om == nil {
		return nil
	}
	return chart.SavePNG(filepath.Join(om.dir, ChartFile), fig, style)
}

// WriteResult writes trajectories, summaries, and the chart for a result
// and returns the summaries.
func (om *OutputManager) WriteResult(res *sim.Result, cfg *config.Config) ([]Summary, error) {
	summaries := SummarizeResult(om.RunID(), res, cfg.Summary.Threshold)
	if om == nil {
		return summaries, nil
	}

	for i := range res.Runs {
		if err := om.WriteRun(&res.Runs[i]); err != nil {
			return summaries, err
		}
	}
	if err := om.WriteSummaries(summaries); err != nil {
		return summaries, err
	}

	fig := res.Figure(cfg.Chart)
	err := om.WriteChart(fig, chart.StyleFrom(cfg.Chart))
	if errors.Is(err, chart.ErrEmpty) {
		slog.Warn("no points to chart", "dir", om.dir)
	} else if err != nil {
		return summaries, fmt.Errorf("writing chart: %w", err)
	}
	return summaries, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.trajectories, om.summary} {
		if c == nil || c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
