package buffer

import "fmt"

// GlyphQuad is one positioned glyph of a laid-out label. Corner offsets
// are in em units relative to the label anchor; texture coordinates
// address the glyph atlas.
type GlyphQuad struct {
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
}

// Layouter lays out label text as glyph quads.
type Layouter interface {
	Layout(text string) ([]GlyphQuad, error)
}

// TextData holds per-label source arrays.
type TextData struct {
	Position []float32 // stride 3, label anchor
	Color    []float32 // stride 3
	Size     []float32 // stride 1, em size in Å
	Text     []string
}

// NewText lays out every label and creates a text buffer with four
// vertices per glyph. Labels always render as camera-facing billboards,
// so the buffer reports StrategyImpostor.
func NewText(d TextData, l Layouter, opts ...Option) (*Buffer, error) {
	o := buildOptions(opts)
	n := len(d.Text)
	geo := &textQuads{glyphs: make([][]GlyphQuad, n)}
	for i, s := range d.Text {
		q, err := l.Layout(s)
		if err != nil {
			return nil, fmt.Errorf("buffer: layout label %d: %w", i, err)
		}
		geo.glyphs[i] = q
	}
	src := Attributes{
		ChannelPosition: d.Position,
		ChannelColor:    d.Color,
		ChannelSize:     d.Size,
	}
	b := newBuffer(FamilyText, StrategyImpostor, n, src, geo, o)
	return b, nil
}

// textQuads expands every label into one quad per glyph.
type textQuads struct {
	glyphs [][]GlyphQuad
}

func (*textQuads) layout() []VertexAttribute {
	return []VertexAttribute{
		{ChannelPosition, 3},
		{ChannelOffset, 2},
		{ChannelTexCoord, 2},
		{ChannelColor, 3},
		{ChannelSize, 1},
	}
}

func (g *textQuads) vertexStarts(n int) []int {
	s := make([]int, n+1)
	for i := 0; i < n; i++ {
		s[i+1] = s[i] + 4*len(g.glyphs[i])
	}
	return s
}

func (g *textQuads) indices(int) []uint32 {
	var out []uint32
	var base uint32
	for _, q := range g.glyphs {
		for range q {
			for _, p := range quadIndex {
				out = append(out, base+p)
			}
			base += 4
		}
	}
	return out
}

func (*textQuads) affects(src Channel) Channels { return ChannelSet(src) }

func (g *textQuads) expand(b *Buffer, ch Channel) {
	dst := b.vertex[ch]
	switch ch {
	case ChannelOffset, ChannelTexCoord:
		v := 0
		for _, quads := range g.glyphs {
			for _, q := range quads {
				if ch == ChannelOffset {
					copy(dst[2*v:], []float32{q.X0, q.Y1, q.X0, q.Y0, q.X1, q.Y1, q.X1, q.Y0})
				} else {
					copy(dst[2*v:], []float32{q.U0, q.V0, q.U0, q.V1, q.U1, q.V0, q.U1, q.V1})
				}
				v += 4
			}
		}
	default:
		if src, ok := b.source[ch]; ok {
			replicate(dst, src, ch.Stride(), b.starts)
		}
	}
}
