package buffer

// SphereData holds per-sphere source arrays. PickingColor is optional.
type SphereData struct {
	Position     []float32 // stride 3
	Color        []float32 // stride 3
	Radius       []float32 // stride 1
	PickingColor []float32 // stride 3
}

// NewSphere creates a sphere buffer drawn with the given strategy.
func NewSphere(d SphereData, s Strategy, opts ...Option) *Buffer {
	o := buildOptions(opts)
	n := len(d.Position) / 3
	src := Attributes{
		ChannelPosition:     d.Position,
		ChannelColor:        d.Color,
		ChannelRadius:       d.Radius,
		ChannelPickingColor: d.PickingColor,
	}
	var geo geometry
	if s == StrategyImpostor {
		geo = sphereImpostor{}
	} else {
		geo = sphereMesh{t: newSphereTemplate(o.sphereDetail)}
	}
	return newBuffer(FamilySphere, s, n, src, geo, o)
}

// sphereImpostor draws each sphere as a 4-vertex quad; the fragment
// shader ray-casts the sphere inside it.
type sphereImpostor struct{}

var quadMapping = []float32{
	-1, 1,
	-1, -1,
	1, 1,
	1, -1,
}

var quadIndex = []uint32{0, 1, 2, 1, 3, 2}

func (sphereImpostor) layout() []VertexAttribute {
	return []VertexAttribute{
		{ChannelMapping, 2},
		{ChannelPosition, 3},
		{ChannelColor, 3},
		{ChannelRadius, 1},
		{ChannelPickingColor, 3},
	}
}

func (sphereImpostor) vertexStarts(n int) []int { return fixedStarts(n, 4) }

func (sphereImpostor) indices(n int) []uint32 { return repeatIndices(quadIndex, n, 4) }

func (sphereImpostor) affects(src Channel) Channels { return ChannelSet(src) }

func (sphereImpostor) expand(b *Buffer, ch Channel) {
	dst := b.vertex[ch]
	if ch == ChannelMapping {
		for v := 0; v < len(dst); v += len(quadMapping) {
			copy(dst[v:], quadMapping)
		}
		return
	}
	if src, ok := b.source[ch]; ok {
		replicate(dst, src, ch.Stride(), b.starts)
	}
}

// sphereMesh places a scaled copy of a unit sphere at every center.
type sphereMesh struct {
	t sphereTemplate
}

func (g sphereMesh) layout() []VertexAttribute {
	return []VertexAttribute{
		{ChannelPosition, 3},
		{ChannelNormal, 3},
		{ChannelColor, 3},
		{ChannelPickingColor, 3},
	}
}

func (g sphereMesh) vertexStarts(n int) []int { return fixedStarts(n, g.t.vertexCount()) }

func (g sphereMesh) indices(n int) []uint32 {
	return repeatIndices(g.t.index, n, g.t.vertexCount())
}

func (g sphereMesh) affects(src Channel) Channels {
	switch src {
	case ChannelPosition, ChannelRadius:
		return ChannelSet(ChannelPosition)
	default:
		return ChannelSet(src)
	}
}

func (g sphereMesh) expand(b *Buffer, ch Channel) {
	dst := b.vertex[ch]
	k := g.t.vertexCount()
	switch ch {
	case ChannelNormal:
		for v := 0; v < len(dst); v += len(g.t.points) {
			copy(dst[v:], g.t.points)
		}
	case ChannelPosition:
		pos, rad := b.source[ChannelPosition], b.source[ChannelRadius]
		for i := 0; i < b.count; i++ {
			c := vec3At(pos, i)
			r := float32(1)
			if rad != nil {
				r = rad[i]
			}
			for j := 0; j < k; j++ {
				putVec3(dst, i*k+j, c.Add(vec3At(g.t.points, j).Mul(r)))
			}
		}
	default:
		if src, ok := b.source[ch]; ok {
			replicate(dst, src, ch.Stride(), b.starts)
		}
	}
}
