package sim

import (
	"context"
	"sync"
)

// RunSpec describes one ensemble member run.
type RunSpec struct {
	Particles int
	Radius    float32
	Dt        float32
	Frames    int
}

// Ensemble runs independent simulations with consecutive seeds in parallel.
// build must return a fresh Simulation per call; the provider it injects
// must be safe for concurrent use.
type Ensemble struct {
	build     func() (*Simulation, error)
	numRuns   int
	seedStart int64
}

func NewEnsemble(build func() (*Simulation, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, spec RunSpec) ([]Summary, error) {
	results := make([]Summary, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := e.build()
			if err != nil {
				errs[idx] = err
				return
			}
			s.Initialize(spec.Particles, spec.Radius, e.seedStart+int64(idx))
			results[idx], errs[idx] = s.Run(ctx, spec.Frames, spec.Dt)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
