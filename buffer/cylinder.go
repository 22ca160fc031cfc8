package buffer

import "github.com/chewxy/math32"

// CylinderData holds per-cylinder source arrays. Each cylinder runs from
// Position1 to Position2; the half at each end takes that end's color.
// Both picking arrays are optional.
type CylinderData struct {
	Position1     []float32 // stride 3
	Position2     []float32 // stride 3
	Color         []float32 // stride 3
	Color2        []float32 // stride 3
	Radius        []float32 // stride 1
	PickingColor  []float32 // stride 3
	PickingColor2 []float32 // stride 3
}

// NewCylinder creates a cylinder buffer drawn with the given strategy.
func NewCylinder(d CylinderData, s Strategy, opts ...Option) *Buffer {
	o := buildOptions(opts)
	n := len(d.Position1) / 3
	src := Attributes{
		ChannelPosition1:     d.Position1,
		ChannelPosition2:     d.Position2,
		ChannelColor:         d.Color,
		ChannelColor2:        d.Color2,
		ChannelRadius:        d.Radius,
		ChannelPickingColor:  d.PickingColor,
		ChannelPickingColor2: d.PickingColor2,
	}
	var geo geometry
	if s == StrategyImpostor {
		geo = cylinderImpostor{}
	} else {
		geo = cylinderMesh{segments: o.radialSegments}
	}
	return newBuffer(FamilyCylinder, s, n, src, geo, o)
}

// cylinderImpostor draws each cylinder as the 8 corners of its bounding
// box. The vertex shader orients the box along the axis and the fragment
// shader ray-casts the capped cylinder inside it.
type cylinderImpostor struct{}

var boxMapping = []float32{
	-1, 1, -1,
	-1, -1, -1,
	1, 1, -1,
	1, 1, 1,
	1, -1, -1,
	1, -1, 1,
	-1, 1, 1,
	-1, -1, 1,
}

var boxIndex = []uint32{
	0, 1, 2,
	1, 4, 2,
	2, 4, 3,
	4, 5, 3,
	3, 5, 6,
	5, 7, 6,
	6, 7, 0,
	7, 1, 0,
	0, 2, 6,
	2, 3, 6,
	1, 7, 4,
	4, 7, 5,
}

func (cylinderImpostor) layout() []VertexAttribute {
	return []VertexAttribute{
		{ChannelMapping, 3},
		{ChannelPosition1, 3},
		{ChannelPosition2, 3},
		{ChannelColor, 3},
		{ChannelColor2, 3},
		{ChannelRadius, 1},
		{ChannelPickingColor, 3},
		{ChannelPickingColor2, 3},
	}
}

func (cylinderImpostor) vertexStarts(n int) []int { return fixedStarts(n, 8) }

func (cylinderImpostor) indices(n int) []uint32 { return repeatIndices(boxIndex, n, 8) }

func (cylinderImpostor) affects(src Channel) Channels { return ChannelSet(src) }

func (cylinderImpostor) expand(b *Buffer, ch Channel) {
	dst := b.vertex[ch]
	if ch == ChannelMapping {
		for v := 0; v < len(dst); v += len(boxMapping) {
			copy(dst[v:], boxMapping)
		}
		return
	}
	if src, ok := b.source[ch]; ok {
		replicate(dst, src, ch.Stride(), b.starts)
	}
}

// cylinderMesh tessellates each cylinder into four rings of radial
// segments. Rings 0 and 1 take the first color, rings 2 and 3 the second.
type cylinderMesh struct {
	segments int
}

func (g cylinderMesh) layout() []VertexAttribute {
	return []VertexAttribute{
		{ChannelPosition, 3},
		{ChannelNormal, 3},
		{ChannelColor, 3},
		{ChannelPickingColor, 3},
	}
}

func (g cylinderMesh) perCylinder() int { return len(cylinderRings) * g.segments }

func (g cylinderMesh) vertexStarts(n int) []int { return fixedStarts(n, g.perCylinder()) }

func (g cylinderMesh) indices(n int) []uint32 {
	return repeatIndices(cylinderIndex(g.segments), n, g.perCylinder())
}

func (g cylinderMesh) affects(src Channel) Channels {
	switch src {
	case ChannelPosition1, ChannelPosition2:
		return ChannelSet(ChannelPosition, ChannelNormal)
	case ChannelRadius:
		return ChannelSet(ChannelPosition)
	case ChannelColor, ChannelColor2:
		return ChannelSet(ChannelColor)
	case ChannelPickingColor, ChannelPickingColor2:
		return ChannelSet(ChannelPickingColor)
	default:
		return 0
	}
}

func (g cylinderMesh) expand(b *Buffer, ch Channel) {
	dst := b.vertex[ch]
	seg := g.segments
	k := g.perCylinder()
	switch ch {
	case ChannelPosition, ChannelNormal:
		p1s, p2s, rad := b.source[ChannelPosition1], b.source[ChannelPosition2], b.source[ChannelRadius]
		for i := 0; i < b.count; i++ {
			p1, p2 := vec3At(p1s, i), vec3At(p2s, i)
			_, u, v := cylinderBasis(p1, p2)
			r := float32(1)
			if rad != nil {
				r = rad[i]
			}
			d := p2.Sub(p1)
			for ring, t := range cylinderRings {
				center := p1.Add(d.Mul(t))
				for j := 0; j < seg; j++ {
					s, c := segmentAngle(j, seg)
					n := u.Mul(c).Add(v.Mul(s))
					out := n
					if ch == ChannelPosition {
						out = center.Add(n.Mul(r))
					}
					putVec3(dst, i*k+ring*seg+j, out)
				}
			}
		}
	case ChannelColor, ChannelPickingColor:
		first, second := b.source[ch], b.source[ChannelColor2]
		if ch == ChannelPickingColor {
			second = b.source[ChannelPickingColor2]
		}
		if second == nil {
			second = first
		}
		if first == nil {
			return
		}
		for i := 0; i < b.count; i++ {
			for ring := range cylinderRings {
				src := first
				if ring >= 2 {
					src = second
				}
				c := vec3At(src, i)
				for j := 0; j < seg; j++ {
					putVec3(dst, i*k+ring*seg+j, c)
				}
			}
		}
	}
}

// segmentAngle returns the sine and cosine of radial segment j of seg.
func segmentAngle(j, seg int) (sin, cos float32) {
	return math32.Sincos(float32(j) * 2 * math32.Pi / float32(seg))
}
