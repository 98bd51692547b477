package particle

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Particle is one soft sphere in the unit torus. Mass is implicitly 1.
type Particle struct {
	Pos    [3]float32
	Vel    [3]float32
	Radius float32
	ID     int
}

// Speed returns the velocity magnitude.
func (p *Particle) Speed() float32 {
	return norm3(p.Vel)
}

// Store owns the particle sequence for one simulation epoch.
type Store struct {
	particles []Particle
}

func NewStore() *Store {
	return &Store{}
}

// Initialize discards every particle and creates n new ones at seeded,
// uniformly random positions with zero velocity.
func (s *Store) Initialize(n int, defaultRadius float32, seed int64) {
	if n < 0 {
		n = 0
	}
	rng := rand.New(rand.NewSource(seed))
	s.particles = make([]Particle, n)
	for i := range s.particles {
		p := &s.particles[i]
		p.Pos[0] = rng.Float32()
		p.Pos[1] = rng.Float32()
		p.Pos[2] = rng.Float32()
		p.Radius = defaultRadius
		p.ID = i
	}
}

func (s *Store) Count() int { return len(s.particles) }

// Particles returns the backing slice. Index is the particle identity.
func (s *Store) Particles() []Particle { return s.particles }

// Positions64 promotes the positions of ps to double precision for geometry
// work.
func Positions64(ps []Particle) []r3.Vec {
	out := make([]r3.Vec, len(ps))
	for i := range ps {
		p := &ps[i]
		out[i] = r3.Vec{X: float64(p.Pos[0]), Y: float64(p.Pos[1]), Z: float64(p.Pos[2])}
	}
	return out
}
