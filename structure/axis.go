package structure

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molrep/picking"
)

// AxisParams parameterizes a smoothed helix axis approximation.
type AxisParams struct {
	// LocalAngle is the largest bend in degrees between local axis
	// directions before a new segment starts.
	LocalAngle float32
	// CenterDist is the largest distance in Å of a local center from the
	// current segment axis before a new segment starts.
	CenterDist float32
	// SSBorder extends segments to the first and last residue of the helix.
	SSBorder bool

	ColorParams  ColorParams
	RadiusParams RadiusParams
	// Scale multiplies segment thickness. Zero means 1.
	Scale float32
	// PickingOffset is the picking id of the first segment returned.
	PickingOffset uint32
}

// AxisData holds one entry per axis segment in a stable order.
type AxisData struct {
	Begin        []float32 // stride 3
	End          []float32 // stride 3
	Size         []float32 // stride 1
	Color        []float32 // stride 3
	PickingColor []float32 // stride 3
	// Residue is the polymer-local index of the first residue of each segment.
	Residue []int
}

// Len returns the number of segments.
func (d AxisData) Len() int { return len(d.Size) }

// AxisGeometry computes helix axes for polymers. Implementations must
// return segments in the same order for identical inputs.
type AxisGeometry interface {
	Axis(p Polymer, params AxisParams) (AxisData, error)
}

// SimpleAxis approximates helix axes from sliding means of trace atom
// positions. Consecutive window means lie close to the helix axis; a
// segment is split where the local direction bends by more than
// LocalAngle or a mean drifts further than CenterDist from the axis line.
type SimpleAxis struct {
	// Window is the number of trace atoms averaged per local center.
	// Zero means 4, about one helical turn.
	Window int
}

// Axis implements AxisGeometry.
func (g SimpleAxis) Axis(p Polymer, params AxisParams) (AxisData, error) {
	cm, err := NewColorMaker(p.s, params.ColorParams)
	if err != nil {
		return AxisData{}, err
	}
	rf, err := NewRadiusFactory(params.RadiusParams)
	if err != nil {
		return AxisData{}, err
	}
	scale := params.Scale
	if scale == 0 {
		scale = 1
	}
	window := g.Window
	if window <= 0 {
		window = 4
	}

	var d AxisData
	trace := p.TracePositions()
	n := len(trace)
	for start := 0; start < n; {
		if p.SS(start) != SSHelix {
			start++
			continue
		}
		end := start
		for end < n && p.SS(end) == SSHelix {
			end++
		}
		if end-start >= window {
			for _, seg := range splitRun(trace[start:end], window, params) {
				first := start + seg.first
				a := p.TraceAtom(first)
				c := cm.AtomColor(a)
				d.Begin = append(d.Begin, seg.begin[0], seg.begin[1], seg.begin[2])
				d.End = append(d.End, seg.end[0], seg.end[1], seg.end[2])
				d.Size = append(d.Size, rf.AtomRadius(a)*scale)
				d.Color = append(d.Color, c.R, c.G, c.B)
				d.Residue = append(d.Residue, first)
			}
		}
		start = end
	}
	d.PickingColor = picking.Colors(params.PickingOffset, d.Len())
	return d, nil
}

type axisSegment struct {
	first      int
	begin, end mgl32.Vec3
}

func splitRun(trace []mgl32.Vec3, window int, params AxisParams) []axisSegment {
	centers := make([]mgl32.Vec3, len(trace)-window+1)
	for i := range centers {
		var sum mgl32.Vec3
		for _, t := range trace[i : i+window] {
			sum = sum.Add(t)
		}
		centers[i] = sum.Mul(1 / float32(window))
	}

	cosLimit := math32.Cos(mgl32.DegToRad(params.LocalAngle))
	var out []axisSegment
	emit := func(from, to int) {
		if to-from < 1 {
			return
		}
		seg := axisSegment{first: from, begin: centers[from], end: centers[to]}
		if params.SSBorder {
			dir := seg.end.Sub(seg.begin).Normalize()
			seg.begin = project(trace[from], seg.begin, dir)
			seg.end = project(trace[to+window-1], seg.begin, dir)
		}
		out = append(out, seg)
	}

	from := 0
	for k := 1; k < len(centers); k++ {
		if k-from < 2 {
			continue
		}
		dir := centers[from+1].Sub(centers[from]).Normalize()
		step := centers[k].Sub(centers[k-1]).Normalize()
		drift := distanceToLine(centers[k], centers[from], dir)
		if step.Dot(dir) < cosLimit || (params.CenterDist > 0 && drift > params.CenterDist) {
			emit(from, k-1)
			from = k - 1
		}
	}
	emit(from, len(centers)-1)
	return out
}

// project returns the point on the line through origin along dir closest to p.
func project(p, origin, dir mgl32.Vec3) mgl32.Vec3 {
	return origin.Add(dir.Mul(p.Sub(origin).Dot(dir)))
}

func distanceToLine(p, origin, dir mgl32.Vec3) float32 {
	return p.Sub(project(p, origin, dir)).Len()
}
