package sim

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cherrycore/internal/delaunay"
	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/periodic"
	"gonum.org/v1/gonum/spatial/r3"
)

func separation(s *Simulation) float64 {
	ps := s.Particles()
	dx, dy, dz := periodic.MinImage3(
		ps[1].Pos[0]-ps[0].Pos[0],
		ps[1].Pos[1]-ps[0].Pos[1],
		ps[1].Pos[2]-ps[0].Pos[2],
	)
	return math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
}

var _ = Describe("Simulation", func() {
	const dt = 0.016

	Context("two overlapping particles without steering", func() {
		var s *Simulation

		BeforeEach(func() {
			p := DefaultParams()
			p.SteeringStrength = 0
			// Strong enough to separate the pair within the first frames, so
			// the remaining ones run on damping alone.
			p.RepulsionStrength = 400

			var err error
			s, err = New(nil, WithParams(p))
			Expect(err).NotTo(HaveOccurred())
			s.Initialize(2, 0.1, 1)

			ps := s.Particles()
			ps[0].Pos = [3]float32{0.4, 0.5, 0.5}
			ps[1].Pos = [3]float32{0.59, 0.5, 0.5}
		})

		It("pushes them apart and then damps them", func() {
			initial := separation(s)
			Expect(initial).To(BeNumerically("<", 0.2))

			speeds := make([]float32, 0, 10)
			for i := 0; i < 10; i++ {
				s.Update(dt)
				speeds = append(speeds, s.Particles()[0].Speed())
			}

			Expect(separation(s)).To(BeNumerically(">", initial))
			for i := 5; i < len(speeds); i++ {
				Expect(speeds[i]).To(BeNumerically("<", speeds[i-1]), "frame %d", i)
			}
		})

		It("conserves momentum", func() {
			for i := 0; i < 10; i++ {
				st := s.Update(dt)
				Expect(st.Momentum).To(BeNumerically("~", 0, 1e-6))
			}
		})
	})

	Context("two overlapping particles with default parameters", func() {
		It("separates them and then only damps", func() {
			p := DefaultParams()
			p.SteeringStrength = 0
			s, err := New(nil, WithParams(p))
			Expect(err).NotTo(HaveOccurred())
			s.Initialize(2, 0.1, 1)

			ps := s.Particles()
			ps[0].Pos = [3]float32{0.4, 0.5, 0.5}
			ps[1].Pos = [3]float32{0.59, 0.5, 0.5}
			initial := separation(s)

			frames := 0
			for s.Update(dt).Contacts > 0 {
				frames++
				Expect(frames).To(BeNumerically("<", 2000), "pair never separated")
			}
			Expect(separation(s)).To(BeNumerically(">", initial))

			prev := s.Particles()[0].Speed()
			Expect(prev).To(BeNumerically(">", 0))
			for i := 0; i < 10; i++ {
				st := s.Update(dt)
				Expect(st.Contacts).To(BeZero())
				speed := s.Particles()[0].Speed()
				Expect(speed).To(BeNumerically("<", prev), "frame %d", i)
				prev = speed
			}
		})
	})

	Context("with no particles", func() {
		It("updates without touching any buffer", func() {
			s, err := New(delaunay.New())
			Expect(err).NotTo(HaveOccurred())
			s.Initialize(0, 0.01, 0)

			before := s.Positions()
			st := s.Update(dt)

			Expect(st).To(Equal(FrameStats{}))
			Expect(s.Frame()).To(Equal(0))
			Expect(s.Positions().Len()).To(Equal(0))
			Expect(s.Radii().Len()).To(Equal(0))
			Expect(s.Axes().Len()).To(Equal(0))
			Expect(s.AxisSegments().Len()).To(Equal(0))
			Expect(s.Positions()).To(Equal(before))
		})
	})

	Context("when the provider fails once", func() {
		It("skips steering for that frame only", func() {
			calls := 0
			inner := delaunay.New()
			flaky := geometry.ProviderFunc(func(points []r3.Vec, period r3.Vec) ([]geometry.Tetrahedron, error) {
				calls++
				if calls == 1 {
					panic(errors.New("simulated provider crash"))
				}
				return inner.Tetrahedralize(points, period)
			})

			p := DefaultParams()
			p.SteeringEveryNFrames = 1
			s, err := New(flaky, WithParams(p))
			Expect(err).NotTo(HaveOccurred())
			s.Initialize(4, 0.01, 42)

			first := s.Update(dt)
			Expect(first.Steering).To(Equal(SteeringFailed))
			Expect(s.Axes().Len()).To(Equal(0))

			second := s.Update(dt)
			Expect(second.Steering).To(Equal(SteeringRan))
			Expect(second.Tetrahedra).To(BeNumerically(">", 0))
			Expect(s.Axes().Len()).To(Equal(4))
			Expect(calls).To(Equal(2))
		})
	})

	Context("with steering on a larger population", func() {
		It("steers particles and exports their axes", func() {
			p := DefaultParams()
			p.SteeringEveryNFrames = 1
			p.SteeringStrength = 1
			s, err := New(delaunay.New(), WithParams(p))
			Expect(err).NotTo(HaveOccurred())
			s.Initialize(64, 0.02, 5)

			st := s.Update(dt)
			Expect(st.Steering).To(Equal(SteeringRan))
			Expect(st.Steered).To(Equal(64))
			Expect(st.KineticEnergy).To(BeNumerically(">", 0))

			pos := s.Positions()
			seg := s.AxisSegments()
			axes := s.Axes()
			Expect(seg.Len()).To(Equal(64))
			for i := 0; i < 64; i++ {
				a := axes.At(i)
				n := math.Sqrt(float64(a[0]*a[0] + a[1]*a[1] + a[2]*a[2]))
				Expect(n).To(BeNumerically("~", 1, 1e-4))

				mid := (seg.At(i)[0] + seg.At(i)[3]) / 2
				Expect(mid).To(BeNumerically("~", pos.At(i)[0], 1e-5))
			}
		})
	})
})
