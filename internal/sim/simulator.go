package sim

import (
	"context"
	"io"
	"log"
	"math"

	"github.com/san-kum/cherrycore/internal/buffers"
	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/linalg"
	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/physics"
	"github.com/san-kum/cherrycore/internal/steering"
)

// Simulation owns the particles, the steering axes and the exported
// mirrors. It is not safe for concurrent use.
type Simulation struct {
	store    *particle.Store
	physics  *physics.SoftSphere
	provider geometry.Provider
	steerer  *steering.Steerer
	exporter *buffers.Exporter
	params   Params
	logger   *log.Logger

	solver linalg.LinearSolver
	eigen  linalg.SymEigenSolver

	axes    [][3]float32
	hasAxes bool
	frame   int
	time    float64
	last    FrameStats

	metrics   []Metric
	observers []Observer
}

// Option configures a Simulation.
type Option func(*Simulation)

func WithParams(p Params) Option {
	return func(s *Simulation) { s.params = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithSolvers replaces the gonum solvers used by the steering pass.
func WithSolvers(solver linalg.LinearSolver, eigen linalg.SymEigenSolver) Option {
	return func(s *Simulation) {
		s.solver = solver
		s.eigen = eigen
	}
}

// New builds an empty simulation. A nil provider disables steering.
func New(provider geometry.Provider, opts ...Option) (*Simulation, error) {
	g := linalg.NewGonum()
	s := &Simulation{
		store:    particle.NewStore(),
		physics:  physics.NewSoftSphere(),
		provider: provider,
		exporter: buffers.New(),
		params:   DefaultParams(),
		logger:   log.New(io.Discard, "", 0),
		solver:   g,
		eigen:    g,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if provider != nil {
		s.steerer = steering.NewSteerer(provider, s.solver, s.eigen)
	}
	s.applyParams()
	return s, nil
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Initialize discards all state and creates n particles. Views obtained
// earlier become stale.
func (s *Simulation) Initialize(n int, radius float32, seed int64) {
	s.store.Initialize(n, radius, seed)
	s.exporter.Reset(n)
	s.axes = make([][3]float32, n)
	s.hasAxes = false
	s.frame = 0
	s.time = 0
	s.last = FrameStats{}
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Update advances one frame. dt is used as given. With no particles it does
// nothing.
func (s *Simulation) Update(dt float32) FrameStats {
	ps := s.store.Particles()
	if len(ps) == 0 {
		return FrameStats{}
	}

	stats := FrameStats{Frame: s.frame, Dt: dt}
	s.steer(ps, dt, &stats)

	stats.Contacts = s.physics.Repel(ps, dt)
	s.physics.Advance(ps, dt)

	var axes [][3]float32
	if s.hasAxes {
		axes = s.axes
	}
	s.exporter.Refresh(ps, axes, s.params.AxisSegmentLength)

	s.frame++
	s.time += float64(dt)
	stats.Time = s.time
	stats.KineticEnergy = physics.KineticEnergy(ps)
	px, py, pz := physics.Momentum(ps)
	stats.Momentum = math.Sqrt(px*px + py*py + pz*pz)
	stats.MeanSpeed = meanSpeed(ps)
	s.last = stats

	for _, m := range s.metrics {
		m.Observe(stats, ps)
	}
	for _, o := range s.observers {
		o.OnFrame(stats, ps)
	}
	return stats
}

func (s *Simulation) steer(ps []particle.Particle, dt float32, stats *FrameStats) {
	switch {
	case len(ps) < geometry.MinPoints:
		stats.Steering = SteeringIdle
		return
	case s.steerer == nil || s.params.SteeringStrength <= 0:
		stats.Steering = SteeringSkipped
		s.clearAxes()
		return
	case s.frame%s.params.SteeringEveryNFrames != 0:
		stats.Steering = SteeringSkipped
		return
	}

	rep, err := s.steerer.Run(ps, s.params.SteeringStrength, dt, s.axes)
	if err != nil {
		stats.Steering = SteeringFailed
		s.logger.Printf("frame %d: steering skipped: %v", s.frame, err)
		return
	}
	s.hasAxes = true
	stats.Steering = SteeringRan
	stats.Tetrahedra = rep.Tetrahedra
	stats.Steered = rep.Steered
	stats.Fallbacks = rep.Fallbacks
}

// clearAxes zeroes axes left over from earlier steering runs, so a disabled
// steerer exports degenerate segments at the particles.
func (s *Simulation) clearAxes() {
	if !s.hasAxes {
		return
	}
	for i := range s.axes {
		s.axes[i] = [3]float32{}
	}
}

// Run advances frames updates of length dt, checking ctx between frames.
func (s *Simulation) Run(ctx context.Context, frames int, dt float32) (Summary, error) {
	sum := Summary{Metrics: make(map[string]float64)}
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			s.collect(&sum)
			return sum, ctx.Err()
		default:
		}

		st := s.Update(dt)
		sum.Frames++
		switch st.Steering {
		case SteeringRan:
			sum.SteeringRuns++
		case SteeringFailed:
			sum.SteeringFailures++
		}
	}
	s.collect(&sum)
	return sum, nil
}

func (s *Simulation) collect(sum *Summary) {
	sum.Time = s.time
	sum.Last = s.last
	for name, v := range s.Metrics() {
		sum.Metrics[name] = v
	}
}

func (s *Simulation) applyParams() {
	s.physics.RepulsionStrength = s.params.RepulsionStrength
	s.physics.Damping = s.params.Damping
	s.physics.Clamp = physics.SpeedClamp{Min: s.params.MinSpeed, Max: s.params.MaxSpeed}
}

func (s *Simulation) Params() Params { return s.params }

// SetParams validates p and applies it from the next Update on. On error
// the current parameters are kept.
func (s *Simulation) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	s.applyParams()
	return nil
}

func (s *Simulation) ParticleCount() int { return s.store.Count() }

// Particles gives in-process collaborators direct access to the particles.
func (s *Simulation) Particles() []particle.Particle { return s.store.Particles() }

func (s *Simulation) Positions() buffers.View    { return s.exporter.Positions() }
func (s *Simulation) Radii() buffers.View        { return s.exporter.Radii() }
func (s *Simulation) Axes() buffers.View         { return s.exporter.Axes() }
func (s *Simulation) AxisSegments() buffers.View { return s.exporter.Segments() }

// Frame returns the number of completed updates since Initialize.
func (s *Simulation) Frame() int { return s.frame }

func (s *Simulation) Time() float64 { return s.time }

func (s *Simulation) LastStats() FrameStats { return s.last }

func (s *Simulation) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func meanSpeed(ps []particle.Particle) float64 {
	if len(ps) == 0 {
		return 0
	}
	sum := 0.0
	for i := range ps {
		sum += float64(ps[i].Speed())
	}
	return sum / float64(len(ps))
}
