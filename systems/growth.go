// Package systems contains the ECS systems that advance cultures.
package systems

import (
	"errors"
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/growth/components"
	"github.com/pthm-cable/growth/growth"
)

// parallelThreshold is the minimum culture count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 8

// cultureSnapshot captures read-only state for parallel processing.
type cultureSnapshot struct {
	Entity  ecs.Entity
	Culture components.Culture
}

// outcome captures computed outputs to apply after the parallel phase.
type outcome struct {
	Trajectory growth.Trajectory
	Err        error
}

// GrowthSystem integrates every culture that has not been integrated yet.
type GrowthSystem struct {
	filter    ecs.Filter2[components.Culture, components.Series]
	seriesMap *ecs.Map[components.Series]
	duration  int
	parallel  bool

	snapshots []cultureSnapshot
	outcomes  []outcome
}

// NewGrowthSystem creates a growth system for the given horizon.
func NewGrowthSystem(w *ecs.World, duration int, parallel bool) *GrowthSystem {
	return &GrowthSystem{
		filter:    *ecs.NewFilter2[components.Culture, components.Series](w),
		seriesMap: ecs.NewMap[components.Series](w),
		duration:  duration,
		parallel:  parallel,
	}
}

// Update integrates pending cultures and writes their series.
// Returns the number of cultures integrated.
func (s *GrowthSystem) Update() int {
	// Snapshot phase: the query must be closed before series are written.
	s.snapshots = s.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		culture, series := query.Get()
		if series.Done {
			continue
		}
		s.snapshots = append(s.snapshots, cultureSnapshot{
			Entity:  query.Entity(),
			Culture: *culture,
		})
	}

	n := len(s.snapshots)
	if n == 0 {
		return 0
	}
	if cap(s.outcomes) < n {
		s.outcomes = make([]outcome, n)
	}
	s.outcomes = s.outcomes[:n]

	// Compute phase: cultures share nothing mutable.
	if s.parallel && n >= parallelThreshold {
		s.computeParallel()
	} else {
		for i := range s.snapshots {
			s.outcomes[i] = s.integrate(&s.snapshots[i].Culture)
		}
	}

	// Apply phase
	for i, snap := range s.snapshots {
		series := s.seriesMap.Get(snap.Entity)
		out := s.outcomes[i]
		series.Trajectory = out.Trajectory
		series.Failure = nil
		var stepErr *growth.StepError
		if errors.As(out.Err, &stepErr) {
			series.Failure = stepErr
		} else if out.Err != nil {
			series.Failure = &growth.StepError{Step: 0, State: snap.Culture.InitialState(), Err: out.Err}
		}
		series.Done = true
	}

	return n
}

func (s *GrowthSystem) integrate(c *components.Culture) outcome {
	traj, err := growth.Integrate(c.Model, c.InitialState(), s.duration, c.Params)
	return outcome{Trajectory: traj, Err: err}
}

// computeParallel splits the snapshots across GOMAXPROCS workers.
func (s *GrowthSystem) computeParallel() {
	n := len(s.snapshots)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				s.outcomes[i] = s.integrate(&s.snapshots[i].Culture)
			}
		}(start, end)
	}
	wg.Wait()
}
