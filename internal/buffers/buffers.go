// Package buffers keeps packed float32 mirrors of the particle state for
// renderers and other hosts.
//
// The mirrors are rewritten in full on every Refresh. Readers get a [View],
// which stays valid until the next Reset; after that it reports Stale and
// must be fetched again.
package buffers

import (
	"unsafe"

	"github.com/san-kum/cherrycore/internal/particle"
)

// Component counts per particle.
const (
	PositionStride = 3
	RadiusStride   = 1
	AxisStride     = 3
	SegmentStride  = 6
)

// View is a read-only window on one exported buffer.
type View struct {
	data   []float32
	stride int
	epoch  uint64
	owner  *Exporter
}

// Len returns the number of particles in the view.
func (v View) Len() int {
	if v.stride == 0 {
		return 0
	}
	return len(v.data) / v.stride
}

func (v View) Stride() int { return v.stride }

// At returns the components of particle i. The slice aliases the buffer.
func (v View) At(i int) []float32 {
	return v.data[i*v.stride : (i+1)*v.stride : (i+1)*v.stride]
}

// Float32s returns the whole packed buffer. Callers must not modify it.
func (v View) Float32s() []float32 { return v.data }

// Bytes reinterprets the buffer as raw bytes in host byte order, for
// handing to graphics APIs without copying.
func (v View) Bytes() []byte {
	if len(v.data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v.data[0])), len(v.data)*4)
}

// Stale reports whether the view was taken before the last Reset, or before
// any Refresh.
func (v View) Stale() bool {
	return v.owner == nil || v.owner.epoch != v.epoch
}

// Exporter owns the mirrors.
type Exporter struct {
	epoch     uint64
	refreshed bool
	hasAxes   bool

	positions []float32
	radii     []float32
	axes      []float32
	segments  []float32
}

func New() *Exporter {
	return &Exporter{}
}

// Reset sizes the mirrors for n particles and invalidates every view handed
// out so far.
func (e *Exporter) Reset(n int) {
	e.epoch++
	e.refreshed = false
	e.hasAxes = false
	e.positions = make([]float32, n*PositionStride)
	e.radii = make([]float32, n*RadiusStride)
	e.axes = make([]float32, n*AxisStride)
	e.segments = make([]float32, n*SegmentStride)
}

func (e *Exporter) Epoch() uint64 { return e.epoch }

// Refresh copies the particle state into the mirrors. axes is nil until
// steering has produced axes; segmentLength is the full length of each axis
// segment, centred on the particle.
func (e *Exporter) Refresh(ps []particle.Particle, axes [][3]float32, segmentLength float32) {
	if len(ps)*PositionStride != len(e.positions) {
		e.Reset(len(ps))
	}

	half := segmentLength / 2
	for i := range ps {
		p := &ps[i]
		copy(e.positions[i*PositionStride:], p.Pos[:])
		e.radii[i] = p.Radius

		if axes == nil {
			continue
		}
		a := axes[i]
		copy(e.axes[i*AxisStride:], a[:])
		seg := e.segments[i*SegmentStride : (i+1)*SegmentStride]
		for k := 0; k < 3; k++ {
			seg[k] = p.Pos[k] - a[k]*half
			seg[3+k] = p.Pos[k] + a[k]*half
		}
	}
	e.hasAxes = e.hasAxes || axes != nil
	e.refreshed = true
}

func (e *Exporter) view(data []float32, stride int) View {
	if !e.refreshed {
		return View{stride: stride}
	}
	return View{data: data, stride: stride, epoch: e.epoch, owner: e}
}

func (e *Exporter) Positions() View { return e.view(e.positions, PositionStride) }

func (e *Exporter) Radii() View { return e.view(e.radii, RadiusStride) }

// Axes is empty until steering has run at least once since the last Reset.
func (e *Exporter) Axes() View {
	if !e.hasAxes {
		return e.view(nil, AxisStride)
	}
	return e.view(e.axes, AxisStride)
}

// Segments holds two endpoints per particle: pos−axis·L/2 then pos+axis·L/2.
func (e *Exporter) Segments() View {
	if !e.hasAxes {
		return e.view(nil, SegmentStride)
	}
	return e.view(e.segments, SegmentStride)
}
