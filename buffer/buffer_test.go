package buffer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func sphereData(n int, picking bool) SphereData {
	d := SphereData{
		Position: make([]float32, 3*n),
		Color:    make([]float32, 3*n),
		Radius:   make([]float32, n),
	}
	for i := 0; i < n; i++ {
		d.Position[3*i] = float32(i) * 4
		d.Color[3*i+1] = 0.5
		d.Radius[i] = 1 + float32(i)
	}
	if picking {
		d.PickingColor = make([]float32, 3*n)
		for i := range d.PickingColor {
			d.PickingColor[i] = float32(i) / 255
		}
	}
	return d
}

func cylinderData(n int) CylinderData {
	d := CylinderData{
		Position1: make([]float32, 3*n),
		Position2: make([]float32, 3*n),
		Color:     make([]float32, 3*n),
		Color2:    make([]float32, 3*n),
		Radius:    make([]float32, n),
	}
	for i := 0; i < n; i++ {
		d.Position1[3*i] = float32(i)
		d.Position2[3*i] = float32(i)
		d.Position2[3*i+2] = 2
		d.Color[3*i] = 1
		d.Color2[3*i+2] = 1
		d.Radius[i] = 0.25
	}
	return d
}

// snapshot copies every source and vertex array of a buffer.
func snapshot(b *Buffer) (src, vtx map[Channel][]float32) {
	src = make(map[Channel][]float32)
	vtx = make(map[Channel][]float32)
	for ch, a := range b.source {
		src[ch] = append([]float32(nil), a...)
	}
	for ch, a := range b.vertex {
		vtx[ch] = append([]float32(nil), a...)
	}
	return src, vtx
}

func TestVertexCounts(t *testing.T) {
	tests := []struct {
		name  string
		b     *Buffer
		verts int
		index int
	}{
		{"sphere impostor", NewSphere(sphereData(3, false), StrategyImpostor), 12, 18},
		{"sphere mesh detail 0", NewSphere(sphereData(2, false), StrategyMesh, WithSphereDetail(0)), 2 * 7 * 13, 2 * 6 * 12 * 6},
		{"cylinder impostor", NewCylinder(cylinderData(5), StrategyImpostor), 40, 5 * 36},
		{"cylinder mesh", NewCylinder(cylinderData(2), StrategyMesh, WithRadialSegments(6)), 2 * 4 * 6, 2 * 2 * 6 * 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.VertexCount(); got != tt.verts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.verts)
			}
			if got := len(tt.b.Index()); got != tt.index {
				t.Errorf("len(Index()) = %d, want %d", got, tt.index)
			}
			for _, va := range tt.b.Layout() {
				if got := len(tt.b.Vertex(va.Channel)); got != tt.verts*va.Stride {
					t.Errorf("%s has %d values, want %d", va.Channel, got, tt.verts*va.Stride)
				}
			}
			maxIndex := uint32(tt.verts - 1)
			for _, i := range tt.b.Index() {
				if i > maxIndex {
					t.Fatalf("index %d out of range", i)
				}
			}
		})
	}
}

func TestMeshVertexCountScalesWithDetail(t *testing.T) {
	lo := NewSphere(sphereData(1, false), StrategyMesh, WithSphereDetail(0)).VertexCount()
	hi := NewSphere(sphereData(1, false), StrategyMesh, WithSphereDetail(2)).VertexCount()
	if hi <= lo {
		t.Errorf("detail 2 has %d vertices, detail 0 has %d", hi, lo)
	}
	c6 := NewCylinder(cylinderData(1), StrategyMesh, WithRadialSegments(6)).VertexCount()
	c12 := NewCylinder(cylinderData(1), StrategyMesh, WithRadialSegments(12)).VertexCount()
	if c12 != 2*c6 {
		t.Errorf("12 segments = %d vertices, want %d", c12, 2*c6)
	}
}

func TestPickable(t *testing.T) {
	if NewSphere(sphereData(2, false), StrategyImpostor).Pickable() {
		t.Error("buffer without picking colors is pickable")
	}
	b := NewSphere(sphereData(2, true), StrategyImpostor)
	if !b.Pickable() {
		t.Fatal("buffer with picking colors is not pickable")
	}
	if len(b.Attribute(ChannelPickingColor)) != len(b.Attribute(ChannelColor)) {
		t.Error("picking color length differs from color length")
	}
	if b.Vertex(ChannelPickingColor) == nil {
		t.Error("missing picking vertex channel")
	}
	if NewSphere(sphereData(2, false), StrategyImpostor).Vertex(ChannelPickingColor) != nil {
		t.Error("non-pickable buffer has a picking vertex channel")
	}
}

func TestSetAttributesIsolation(t *testing.T) {
	for _, s := range []Strategy{StrategyImpostor, StrategyMesh} {
		t.Run(s.String(), func(t *testing.T) {
			b := NewSphere(sphereData(3, true), s)
			b.TakeDirty()
			src, vtx := snapshot(b)
			colorBacking := &b.Attribute(ChannelColor)[0]

			color := make([]float32, 9)
			for i := range color {
				color[i] = 0.75
			}
			if err := b.SetAttributes(Attributes{ChannelColor: color}); err != nil {
				t.Fatalf("SetAttributes() error: %v", err)
			}

			if &b.Attribute(ChannelColor)[0] != colorBacking {
				t.Error("color source was reallocated")
			}
			if !reflect.DeepEqual(b.Attribute(ChannelColor), color) {
				t.Errorf("color = %v", b.Attribute(ChannelColor))
			}
			for ch, want := range src {
				if ch != ChannelColor && !reflect.DeepEqual(b.Attribute(ch), want) {
					t.Errorf("source %s changed", ch)
				}
			}
			for ch, want := range vtx {
				if ch != ChannelColor && !reflect.DeepEqual(b.Vertex(ch), want) {
					t.Errorf("vertex %s changed", ch)
				}
			}
			for _, v := range b.Vertex(ChannelColor) {
				if v != 0.75 {
					t.Fatalf("vertex color not updated: %v", v)
				}
			}
			if got := b.TakeDirty(); got != ChannelSet(ChannelColor) {
				t.Errorf("TakeDirty() = %s, want color", got)
			}
			if got := b.TakeDirty(); got != 0 {
				t.Errorf("second TakeDirty() = %s, want empty", got)
			}
		})
	}
}

func TestSetAttributesMeshRadius(t *testing.T) {
	b := NewSphere(sphereData(2, false), StrategyMesh, WithSphereDetail(0))
	b.TakeDirty()
	normals := append([]float32(nil), b.Vertex(ChannelNormal)...)

	if err := b.SetAttributes(Attributes{ChannelRadius: []float32{2, 2}}); err != nil {
		t.Fatal(err)
	}
	if got := b.TakeDirty(); got != ChannelSet(ChannelPosition) {
		t.Errorf("TakeDirty() = %s, want position", got)
	}
	if !reflect.DeepEqual(b.Vertex(ChannelNormal), normals) {
		t.Error("normals changed on radius update")
	}
	// The first template vertex is the north pole of sphere 0.
	pole := mgl32.Vec3{b.Vertex(ChannelPosition)[0], b.Vertex(ChannelPosition)[1], b.Vertex(ChannelPosition)[2]}
	if !pole.ApproxEqual(mgl32.Vec3{0, 2, 0}) {
		t.Errorf("pole = %v, want (0, 2, 0)", pole)
	}
}

func TestCylinderMeshSecondColor(t *testing.T) {
	b := NewCylinder(cylinderData(1), StrategyMesh, WithRadialSegments(4))
	if err := b.SetAttributes(Attributes{ChannelColor2: []float32{0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	vc := b.Vertex(ChannelColor)
	// Rings 0 and 1 keep the first color, rings 2 and 3 take the new one.
	if vc[0] != 1 || vc[1] != 0 {
		t.Errorf("first half color = %v", vc[0:3])
	}
	last := 3 * (b.VertexCount() - 1)
	if vc[last] != 0 || vc[last+1] != 1 {
		t.Errorf("second half color = %v", vc[last:last+3])
	}
}

func TestSetAttributesErrors(t *testing.T) {
	b := NewSphere(sphereData(1, false), StrategyImpostor)
	err := b.SetAttributes(Attributes{ChannelPickingColor: []float32{0, 0, 1}})
	if !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("SetAttributes(picking) error = %v, want ErrUnknownChannel", err)
	}
	b.Dispose()
	if !b.Disposed() || b.Visible() {
		t.Error("disposed buffer should be hidden")
	}
	if err := b.SetAttributes(Attributes{ChannelColor: []float32{1, 1, 1}}); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetAttributes after Dispose error = %v, want ErrDisposed", err)
	}
}

func TestStrategyFixed(t *testing.T) {
	b := NewCylinder(cylinderData(1), StrategyImpostor, WithShrink(0.1))
	if b.Strategy() != StrategyImpostor || b.Family() != FamilyCylinder {
		t.Errorf("got %s %s", b.Family(), b.Strategy())
	}
	if v, ok := b.Uniforms().Scalar(UniformShrink); !ok || v != 0.1 {
		t.Errorf("shrink = %v, %v", v, ok)
	}
	if _, ok := NewCylinder(cylinderData(1), StrategyMesh).Uniforms().Scalar(UniformShrink); ok {
		t.Error("mesh cylinder declares shrink")
	}
}

func TestDirtyOnCreate(t *testing.T) {
	b := NewSphere(sphereData(1, false), StrategyImpostor)
	d := b.TakeDirty()
	for _, va := range b.Layout() {
		if !d.Has(va.Channel) {
			t.Errorf("new buffer: %s not dirty", va.Channel)
		}
	}
	if !d.Has(ChannelIndex) {
		t.Error("new buffer: index not dirty")
	}
}

func TestEmptyBuffer(t *testing.T) {
	b := NewSphere(SphereData{}, StrategyImpostor)
	if b.Count() != 0 || b.VertexCount() != 0 || len(b.Index()) != 0 {
		t.Errorf("empty buffer has %d entities, %d vertices", b.Count(), b.VertexCount())
	}
}

func TestChannels(t *testing.T) {
	s := ChannelSet(ChannelColor, ChannelRadius)
	if !s.Has(ChannelColor) || s.Has(ChannelPosition) || s.Len() != 2 {
		t.Errorf("set = %s", s)
	}
	if s.String() != "color|radius" {
		t.Errorf("String() = %q", s.String())
	}
	if ChannelPickingColor2.Stride() != 3 || ChannelSize.Stride() != 1 || ChannelMapping.Stride() != 0 {
		t.Error("unexpected strides")
	}
}
