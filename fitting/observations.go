package fitting

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

// ErrNoObservations is returned when an observation file has no rows.
var ErrNoObservations = errors.New("fitting: no observations")

// Observation is one measured value, in the units the model observes
// (log10 CFU for population models).
type Observation struct {
	Hour  float64 `csv:"hour"`
	Value float64 `csv:"value"`
}

// ReadObservations parses hour,value CSV rows.
func ReadObservations(r io.Reader) ([]Observation, error) {
	var obs []Observation
	if err := gocsv.Unmarshal(r, &obs); err != nil {
		return nil, fmt.Errorf("parsing observations: %w", err)
	}
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}
	for i, o := range obs {
		if math.IsNaN(o.Hour) || math.IsInf(o.Hour, 0) || o.Hour < 0 {
			return nil, fmt.Errorf("observation %d: hour %v must be finite and non-negative", i, o.Hour)
		}
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return nil, fmt.Errorf("observation %d: value must be finite", i)
		}
	}
	return obs, nil
}

// LoadObservations reads observations from a CSV file.
func LoadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening observations: %w", err)
	}
	defer f.Close()
	return ReadObservations(f)
}
