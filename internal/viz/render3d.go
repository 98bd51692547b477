package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// projScale maps one box period to this fraction of the smaller canvas side.
const projScale = 0.4

// Camera orbits the centre of the periodic box and projects box
// coordinates onto the canvas with a simple perspective divide.
type Camera struct {
	Center           r3.Vec
	Distance         float64
	RotX, RotY, RotZ float64
	Zoom             float64
	Near             float64
}

// NewCamera looks at a box of the given period from a slightly raised
// three-quarter view.
func NewCamera(period float64) *Camera {
	h := period / 2
	return &Camera{
		Center:   r3.Vec{X: h, Y: h, Z: h},
		Distance: 4 * period,
		RotX:     0.45,
		RotY:     -0.6,
		Zoom:     1.0,
		Near:     0.1 * period,
	}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint moves p into camera space, centred on Center.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	p = r3.Sub(p, c.Center)
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps p to dot coordinates on an sw x sh canvas. It returns the
// camera-space depth, larger meaning nearer, and whether the dot lands on
// the canvas.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.RotatePoint(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := math.Min(float64(sw), float64(sh)) * projScale
	sx := int(math.Round(rot.X*scale*pScale)) + sw/2
	sy := int(math.Round(-rot.Y*scale*pScale)) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// Edge is a segment in box coordinates. Start == End draws a single dot,
// or a disc when Radius is positive.
type Edge struct {
	Start, End r3.Vec
	Radius     float64
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                    { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e r3.Vec)          { w.Edges = append(w.Edges, Edge{Start: s, End: e}) }
func (w *Wireframe) AddPoint(p r3.Vec, r float64) { w.Edges = append(w.Edges, Edge{Start: p, End: p, Radius: r}) }
func (w *Wireframe) Clear()                       { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	r              int
	depth          float64
}

// Render3D draws the wireframe far to near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	dotScale := math.Min(float64(cw), float64(ch)) * projScale
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if !v1 && !v2 {
			continue
		}
		r := int(e.Radius * cam.Zoom * dotScale)
		proj = append(proj, projectedEdge{x1, y1, x2, y2, r, (d1 + d2) / 2})
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.DrawDisc(e.x1, e.y1, e.r)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// BoxWireframe outlines the cube [0, period)^3.
func BoxWireframe(period float64) *Wireframe {
	w, s := NewWireframe(), period
	v := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: s, Y: 0, Z: 0}, {X: s, Y: s, Z: 0}, {X: 0, Y: s, Z: 0},
		{X: 0, Y: 0, Z: s}, {X: s, Y: 0, Z: s}, {X: s, Y: s, Z: s}, {X: 0, Y: s, Z: s},
	}
	ei := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for _, e := range ei {
		w.AddEdge(v[e[0]], v[e[1]])
	}
	return w
}
