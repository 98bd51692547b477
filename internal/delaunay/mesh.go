package delaunay

import (
	"fmt"
	"math"

	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/linalg"
	"gonum.org/v1/gonum/spatial/r3"
)

// sphereTol shrinks circumspheres slightly so points on a sphere do not
// join the cavity.
const sphereTol = 1e-12

// tet is positively oriented: SignedVolume(v0,v1,v2,v3) > 0. nb[k] is the
// neighbour across the face opposite v[k], or -1 on the hull.
type tet struct {
	v    [4]int
	nb   [4]int
	cc   r3.Vec
	r2   float64
	dead bool

	// stamps of the last insertion that tested / accepted this tet
	seen, cav int
}

type faceRef struct{ t, k int }

type mesh struct {
	solver linalg.LinearSolver
	pts    []image
	nreal  int
	tets   []tet
	last   int
	volEps float64
	stamp  int
}

func newMesh(solver linalg.LinearSolver, imgs []image, volEps float64) *mesh {
	return &mesh{
		solver: solver,
		pts:    imgs,
		nreal:  len(imgs),
		volEps: volEps,
	}
}

func (m *mesh) build() error {
	if err := m.addSuper(); err != nil {
		return err
	}
	for i := 0; i < m.nreal; i++ {
		if err := m.insert(i); err != nil {
			return err
		}
	}
	return nil
}

func (m *mesh) touchesSuper(t tet) bool {
	for _, v := range t.v {
		if v >= m.nreal {
			return true
		}
	}
	return false
}

func (m *mesh) addSuper() error {
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Scale(-1, lo)
	for _, p := range m.pts {
		lo = r3.Vec{X: math.Min(lo.X, p.pos.X), Y: math.Min(lo.Y, p.pos.Y), Z: math.Min(lo.Z, p.pos.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.pos.X), Y: math.Max(hi.Y, p.pos.Y), Z: math.Max(hi.Z, p.pos.Z)}
	}
	c := r3.Scale(0.5, r3.Add(lo, hi))
	ext := r3.Sub(hi, lo)
	s := 100 * math.Max(1e-9, math.Max(ext.X, math.Max(ext.Y, ext.Z)))

	corners := [4]r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}}
	for _, d := range corners {
		m.pts = append(m.pts, image{pos: r3.Add(c, r3.Scale(s, d)), raw: -1})
	}

	t := tet{v: [4]int{m.nreal, m.nreal + 1, m.nreal + 2, m.nreal + 3}, nb: [4]int{-1, -1, -1, -1}}
	if m.volume(t.v) < 0 {
		t.v[0], t.v[1] = t.v[1], t.v[0]
	}
	if err := m.sphere(&t); err != nil {
		return err
	}
	m.tets = append(m.tets, t)
	m.last = 0
	return nil
}

func (m *mesh) volume(v [4]int) float64 {
	return geometry.SignedVolume(m.pts[v[0]].pos, m.pts[v[1]].pos, m.pts[v[2]].pos, m.pts[v[3]].pos)
}

func (m *mesh) sphere(t *tet) error {
	a := m.pts[t.v[0]].pos
	cc, err := geometry.Circumcenter(m.solver, a, m.pts[t.v[1]].pos, m.pts[t.v[2]].pos, m.pts[t.v[3]].pos)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	t.cc = cc
	t.r2 = r3.Norm2(r3.Sub(cc, a))
	return nil
}

func (m *mesh) inSphere(t int, p r3.Vec) bool {
	tt := &m.tets[t]
	return r3.Norm2(r3.Sub(p, tt.cc)) < tt.r2*(1-sphereTol)
}

// locate walks from the last created tetrahedron towards p and returns a
// live tetrahedron containing it.
func (m *mesh) locate(p r3.Vec) (int, error) {
	t := m.last
	for step := 0; step < len(m.tets); step++ {
		tt := &m.tets[t]
		next, crossed := -1, false
		for j := 0; j < 4; j++ {
			// rotate the first face tried so the walk cannot cycle
			k := (j + step) % 4
			if m.beyond(tt, k, p) {
				next, crossed = tt.nb[k], true
				break
			}
		}
		if !crossed {
			return t, nil
		}
		if next < 0 {
			break
		}
		t = next
	}

	for i := range m.tets {
		if !m.tets[i].dead && m.inSphere(i, p) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: point outside mesh", ErrDegenerate)
}

// beyond reports whether p lies on the far side of the face opposite v[k].
func (m *mesh) beyond(tt *tet, k int, p r3.Vec) bool {
	var c [4]r3.Vec
	for j, v := range tt.v {
		c[j] = m.pts[v].pos
	}
	c[k] = p
	return geometry.SignedVolume(c[0], c[1], c[2], c[3]) < 0
}

func (m *mesh) insert(i int) error {
	p := m.pts[i].pos
	start, err := m.locate(p)
	if err != nil {
		return err
	}

	m.stamp++
	m.tets[start].seen = m.stamp
	m.tets[start].cav = m.stamp
	bad := []int{start}
	for head := 0; head < len(bad); head++ {
		for _, nb := range m.tets[bad[head]].nb {
			if nb < 0 || m.tets[nb].seen == m.stamp {
				continue
			}
			m.tets[nb].seen = m.stamp
			if m.inSphere(nb, p) {
				m.tets[nb].cav = m.stamp
				bad = append(bad, nb)
			}
		}
	}

	faces := make(map[[3]int]faceRef, len(bad)*4)
	for _, b := range bad {
		old := m.tets[b]
		for k := 0; k < 4; k++ {
			nb := old.nb[k]
			if nb >= 0 && m.tets[nb].cav == m.stamp {
				continue
			}

			nt := tet{v: old.v, nb: [4]int{-1, -1, -1, -1}}
			nt.v[k] = i
			nt.nb[k] = nb
			if m.volume(nt.v) <= m.volEps {
				return ErrDegenerate
			}
			if err := m.sphere(&nt); err != nil {
				return err
			}

			idx := len(m.tets)
			m.tets = append(m.tets, nt)
			if nb >= 0 {
				for j, o := range m.tets[nb].nb {
					if o == b {
						m.tets[nb].nb[j] = idx
						break
					}
				}
			}

			for j := 0; j < 4; j++ {
				if j == k {
					continue
				}
				key := faceKey(nt.v, j)
				if other, ok := faces[key]; ok {
					m.tets[idx].nb[j] = other.t
					m.tets[other.t].nb[other.k] = idx
					delete(faces, key)
				} else {
					faces[key] = faceRef{t: idx, k: j}
				}
			}
			m.last = idx
		}
	}

	for _, b := range bad {
		m.tets[b].dead = true
	}
	return nil
}

// faceKey returns the sorted vertex triple of the face opposite v[skip].
func faceKey(v [4]int, skip int) [3]int {
	var f [3]int
	j := 0
	for k := 0; k < 4; k++ {
		if k != skip {
			f[j] = v[k]
			j++
		}
	}
	if f[0] > f[1] {
		f[0], f[1] = f[1], f[0]
	}
	if f[1] > f[2] {
		f[1], f[2] = f[2], f[1]
	}
	if f[0] > f[1] {
		f[0], f[1] = f[1], f[0]
	}
	return f
}
