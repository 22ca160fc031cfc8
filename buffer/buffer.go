// Package buffer turns per-entity attribute arrays into GPU-ready vertex
// and index arrays for the three primitive families used by molecular
// representations: spheres, cylinders and text labels.
//
// A Buffer keeps two copies of its data. Source arrays hold one record per
// entity in the order they were supplied, so slot i always belongs to the
// same atom, bond or label. Vertex arrays are expanded from the sources by
// the buffer's geometry, which depends on the family and on the rendering
// strategy chosen at construction:
//
//   - StrategyMesh tessellates every entity into triangles.
//   - StrategyImpostor emits a few proxy vertices per entity that a
//     ray-casting fragment shader turns into an exact surface.
//
// SetAttributes replaces any subset of the source channels in place and
// regenerates only the vertex channels derived from them. All other arrays
// keep their contents and backing storage.
//
// Length checks on attribute arrays are compiled in only with the
// molrepdebug build tag.
package buffer

import (
	"errors"
	"fmt"

	"github.com/gogpu/molrep/picking"
)

// Buffer errors.
var (
	// ErrUnknownChannel is returned when updating a channel the buffer does not carry.
	ErrUnknownChannel = errors.New("buffer: unknown channel")

	// ErrUnknownUniform is returned when setting a uniform the buffer does not declare.
	ErrUnknownUniform = errors.New("buffer: unknown uniform")

	// ErrDisposed is returned when mutating a disposed buffer.
	ErrDisposed = errors.New("buffer: disposed")
)

// Family identifies the primitive a buffer draws.
type Family uint8

const (
	FamilySphere Family = iota
	FamilyCylinder
	FamilyText
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilySphere:
		return "sphere"
	case FamilyCylinder:
		return "cylinder"
	case FamilyText:
		return "text"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Strategy selects between tessellated and ray-cast rendering.
type Strategy uint8

const (
	StrategyMesh Strategy = iota
	StrategyImpostor
)

// String returns the strategy name.
func (s Strategy) String() string {
	if s == StrategyImpostor {
		return "impostor"
	}
	return "mesh"
}

// VertexAttribute describes one vertex channel of a buffer.
type VertexAttribute struct {
	Channel Channel
	// Stride is the number of float32 components per vertex.
	Stride int
}

// geometry expands source channels into vertex channels.
type geometry interface {
	// layout lists the vertex channels in a fixed order.
	layout() []VertexAttribute
	// vertexStarts returns the first vertex of every entity plus the total.
	vertexStarts(n int) []int
	// indices builds the index array.
	indices(n int) []uint32
	// affects returns the vertex channels derived from a source channel.
	affects(src Channel) Channels
	// expand regenerates vertex channel ch from the sources.
	expand(b *Buffer, ch Channel)
}

// Buffer holds attribute arrays for one primitive family.
// A Buffer has a single owner and is not safe for concurrent use.
type Buffer struct {
	family   Family
	strategy Strategy
	label    string
	geo      geometry
	layout   []VertexAttribute

	count  int
	source Attributes
	vertex Attributes
	starts []int
	index  []uint32

	uniforms *Uniforms
	picker   picking.Picker
	pickable bool
	visible  bool
	disposed bool

	dirty Channels
}

func newBuffer(family Family, strategy Strategy, count int, src Attributes, geo geometry, o options) *Buffer {
	b := &Buffer{
		family:   family,
		strategy: strategy,
		label:    o.label,
		geo:      geo,
		count:    count,
		source:   make(Attributes, len(src)),
		vertex:   make(Attributes),
		picker:   o.picker,
		visible:  true,
	}
	for ch, data := range src {
		if data == nil {
			continue
		}
		if stride := ch.Stride(); stride > 0 {
			assertLen(ch, data, count*stride)
		}
		b.source[ch] = append([]float32(nil), data...)
	}
	_, b.pickable = b.source[ChannelPickingColor]
	if b.pickable {
		if c, ok := b.source[ChannelColor]; ok {
			assertLen(ChannelPickingColor, b.source[ChannelPickingColor], len(c))
		}
	}

	b.starts = geo.vertexStarts(count)
	nv := b.starts[len(b.starts)-1]
	for _, va := range geo.layout() {
		// Picking channels exist only when picking colors were supplied.
		if (va.Channel == ChannelPickingColor || va.Channel == ChannelPickingColor2) && !b.pickable {
			continue
		}
		b.layout = append(b.layout, va)
		b.vertex[va.Channel] = make([]float32, nv*va.Stride)
		b.dirty |= ChannelSet(va.Channel)
	}
	for _, va := range b.layout {
		geo.expand(b, va.Channel)
	}
	b.index = geo.indices(count)
	b.dirty |= ChannelSet(ChannelIndex)

	b.uniforms = newUniforms(family, strategy, o)
	return b
}

// Family returns the primitive family.
func (b *Buffer) Family() Family { return b.family }

// Strategy returns the rendering strategy fixed at construction.
func (b *Buffer) Strategy() Strategy { return b.strategy }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Count returns the number of entities.
func (b *Buffer) Count() int { return b.count }

// VertexCount returns the number of expanded vertices.
func (b *Buffer) VertexCount() int { return b.starts[len(b.starts)-1] }

// VertexRange returns the first vertex and vertex count of entity i.
func (b *Buffer) VertexRange(i int) (first, n int) {
	return b.starts[i], b.starts[i+1] - b.starts[i]
}

// Layout returns the vertex channels in upload order.
func (b *Buffer) Layout() []VertexAttribute { return b.layout }

// Attribute returns the source array of a channel, or nil. The slice is
// owned by the buffer.
func (b *Buffer) Attribute(ch Channel) []float32 { return b.source[ch] }

// Vertex returns the expanded array of a vertex channel, or nil. The slice
// is owned by the buffer.
func (b *Buffer) Vertex(ch Channel) []float32 { return b.vertex[ch] }

// Index returns the triangle list index array.
func (b *Buffer) Index() []uint32 { return b.index }

// Uniforms returns the uniform set.
func (b *Buffer) Uniforms() *Uniforms { return b.uniforms }

// Pickable reports whether the buffer was built with picking colors.
func (b *Buffer) Pickable() bool { return b.pickable }

// Picker returns the picker resolving the buffer's slots, if any.
func (b *Buffer) Picker() picking.Picker { return b.picker }

// Visible reports whether the buffer is drawn.
func (b *Buffer) Visible() bool { return b.visible }

// SetVisibility shows or hides the buffer.
func (b *Buffer) SetVisibility(v bool) { b.visible = v }

// Disposed reports whether Dispose was called.
func (b *Buffer) Disposed() bool { return b.disposed }

// SetAttributes replaces the given source channels in place and
// regenerates the vertex channels derived from them. Channels not present
// in a keep their current contents.
func (b *Buffer) SetAttributes(a Attributes) error {
	if b.disposed {
		return ErrDisposed
	}
	for ch := range a {
		if _, ok := b.source[ch]; !ok {
			return fmt.Errorf("%w: %s on %s buffer %q", ErrUnknownChannel, ch, b.family, b.label)
		}
	}
	var affected Channels
	for ch, data := range a {
		dst := b.source[ch]
		assertLen(ch, data, len(dst))
		copy(dst, data)
		affected |= b.geo.affects(ch)
	}
	affected &= b.vertexSet()
	affected.Each(func(ch Channel) { b.geo.expand(b, ch) })
	b.dirty |= affected
	return nil
}

func (b *Buffer) vertexSet() Channels {
	var s Channels
	for _, va := range b.layout {
		s |= ChannelSet(va.Channel)
	}
	return s
}

// TakeDirty returns the vertex channels changed since the previous call
// and clears the set. A new buffer reports every channel and the index.
func (b *Buffer) TakeDirty() Channels {
	d := b.dirty
	b.dirty = 0
	return d
}

// PrepareDraw refreshes the self-updating uniforms for the coming draw.
func (b *Buffer) PrepareDraw(m Matrices) { b.uniforms.prepare(m) }

// Dispose releases the arrays. The buffer must not be drawn afterwards.
func (b *Buffer) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	b.visible = false
	b.source = nil
	b.vertex = nil
	b.index = nil
	b.dirty = 0
}

// replicate copies the stride-wide record of every entity to each of its
// vertices.
func replicate(dst, src []float32, stride int, starts []int) {
	for i := 0; i+1 < len(starts); i++ {
		rec := src[i*stride : (i+1)*stride]
		for v := starts[i]; v < starts[i+1]; v++ {
			copy(dst[v*stride:(v+1)*stride], rec)
		}
	}
}

// fixedStarts returns vertex starts for k vertices per entity.
func fixedStarts(n, k int) []int {
	s := make([]int, n+1)
	for i := range s {
		s[i] = i * k
	}
	return s
}

// repeatIndices tiles a per-entity index pattern for n entities of k
// vertices each.
func repeatIndices(pattern []uint32, n, k int) []uint32 {
	out := make([]uint32, 0, n*len(pattern))
	for i := 0; i < n; i++ {
		base := uint32(i * k)
		for _, p := range pattern {
			out = append(out, base+p)
		}
	}
	return out
}
