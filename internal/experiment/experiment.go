// Package experiment turns a configuration into a finished simulation run.
package experiment

import (
	"context"
	"io"
	"log"

	"github.com/san-kum/cherrycore/internal/config"
	"github.com/san-kum/cherrycore/internal/metrics"
	"github.com/san-kum/cherrycore/internal/sim"
)

// StabilityThreshold is the speed, in boxes per second, above which a
// particle counts as runaway for the stability metric.
const StabilityThreshold = 1.0

type Experiment struct {
	cfg      config.Config
	provider string
	registry *Registry
	logger   *log.Logger
	sim      *sim.Simulation
}

type Option func(*Experiment)

// WithProvider selects a registered provider by name. The default is
// delaunay.
func WithProvider(name string) Option {
	return func(e *Experiment) { e.provider = name }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

// New validates cfg and builds the simulation with the standard metrics
// attached. cfg is copied.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := &Experiment{
		cfg:      *cfg,
		provider: ProviderDelaunay,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := e.build()
	if err != nil {
		return nil, err
	}
	e.sim = s
	return e, nil
}

func (e *Experiment) build() (*sim.Simulation, error) {
	provider, err := e.registry.GetProvider(e.provider, e.cfg.Margin)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(provider, sim.WithParams(e.cfg.Params()), sim.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(StabilityThreshold) {
		s.AddMetric(m)
	}
	return s, nil
}

// Simulation returns the underlying simulation for adding observers.
func (e *Experiment) Simulation() *sim.Simulation {
	return e.sim
}

func (e *Experiment) Config() config.Config { return e.cfg }

// Run seeds the particles and advances the configured number of frames.
func (e *Experiment) Run(ctx context.Context) (sim.Summary, error) {
	e.sim.Initialize(e.cfg.Particles, float32(e.cfg.Radius), e.cfg.Seed)
	return e.sim.Run(ctx, e.cfg.Frames, float32(e.cfg.Dt))
}

// Replicate runs n independent copies in parallel with seeds Seed,
// Seed+1, ... Observers attached to Simulation are not carried over.
func (e *Experiment) Replicate(ctx context.Context, n int) ([]sim.Summary, error) {
	ens := sim.NewEnsemble(e.build, n, e.cfg.Seed)
	return ens.Run(ctx, sim.RunSpec{
		Particles: e.cfg.Particles,
		Radius:    float32(e.cfg.Radius),
		Dt:        float32(e.cfg.Dt),
		Frames:    e.cfg.Frames,
	})
}

// MeanMetrics averages each metric over the summaries.
func MeanMetrics(sums []sim.Summary) map[string]float64 {
	out := make(map[string]float64)
	if len(sums) == 0 {
		return out
	}
	for _, s := range sums {
		for k, v := range s.Metrics {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(sums))
	}
	return out
}
