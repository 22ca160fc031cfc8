//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/molrep/buffer"
)

func TestProgramFor(t *testing.T) {
	tests := []struct {
		family   buffer.Family
		strategy buffer.Strategy
		label    string
		pickable bool
	}{
		{buffer.FamilySphere, buffer.StrategyImpostor, "sphere_impostor", true},
		{buffer.FamilySphere, buffer.StrategyMesh, "sphere_mesh", true},
		{buffer.FamilyCylinder, buffer.StrategyImpostor, "cylinder_impostor", true},
		{buffer.FamilyCylinder, buffer.StrategyMesh, "cylinder_mesh", true},
		{buffer.FamilyText, buffer.StrategyImpostor, "text", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, err := programFor(tt.family, tt.strategy)
			if err != nil {
				t.Fatal(err)
			}
			if p.label != tt.label || p.pickable != tt.pickable {
				t.Errorf("program = %s pickable %v", p.label, p.pickable)
			}
			src := p.fullSource()
			if !strings.Contains(src, "struct Uniforms") || !strings.Contains(src, "fn vs_main") {
				t.Error("source lacks uniform block or vertex entry point")
			}
			if tt.pickable != strings.Contains(src, "fn fs_pick") {
				t.Errorf("fs_pick presence = %v, want %v", !tt.pickable, tt.pickable)
			}
		})
	}

	if _, err := programFor(buffer.FamilyText, buffer.StrategyMesh); !errors.Is(err, ErrNoProgram) {
		t.Errorf("text mesh error = %v, want ErrNoProgram", err)
	}
}

// Every program input must exist in the buffer layout, so draws can bind a
// vertex buffer per shader location.
func TestProgramInputsMatchLayouts(t *testing.T) {
	bufs := []*buffer.Buffer{
		spheres(1, buffer.StrategyImpostor, true),
		spheres(1, buffer.StrategyMesh, true),
		sticks(1, buffer.StrategyImpostor),
		sticks(1, buffer.StrategyMesh),
	}
	for _, b := range bufs {
		p, err := programFor(b.Family(), b.Strategy())
		if err != nil {
			t.Fatal(err)
		}
		layout := make(map[buffer.Channel]int)
		for _, a := range b.Layout() {
			layout[a.Channel] = a.Stride
		}
		for _, in := range p.inputs {
			for _, ch := range []buffer.Channel{in.Channel, pickSubstitute(in.Channel)} {
				stride, ok := layout[ch]
				if !ok {
					t.Errorf("%s: layout lacks %s", p.label, ch)
					continue
				}
				if stride != in.Stride {
					t.Errorf("%s: %s stride %d, layout %d", p.label, ch, in.Stride, stride)
				}
			}
		}
	}
}

func TestVertexLayouts(t *testing.T) {
	p, err := programFor(buffer.FamilyCylinder, buffer.StrategyImpostor)
	if err != nil {
		t.Fatal(err)
	}
	layouts := vertexLayouts(p.inputs)
	if len(layouts) != 6 {
		t.Fatalf("len = %d, want 6", len(layouts))
	}
	if layouts[0].ArrayStride != 12 || layouts[0].Attributes[0].Format != gputypes.VertexFormatFloat32x3 {
		t.Errorf("mapping layout = %+v", layouts[0])
	}
	if layouts[5].ArrayStride != 4 || layouts[5].Attributes[0].Format != gputypes.VertexFormatFloat32 {
		t.Errorf("radius layout = %+v", layouts[5])
	}
	for i, l := range layouts {
		if l.Attributes[0].ShaderLocation != uint32(i) {
			t.Errorf("layout %d at location %d", i, l.Attributes[0].ShaderLocation)
		}
	}
}

func TestPickSubstitute(t *testing.T) {
	tests := map[buffer.Channel]buffer.Channel{
		buffer.ChannelColor:    buffer.ChannelPickingColor,
		buffer.ChannelColor2:   buffer.ChannelPickingColor2,
		buffer.ChannelPosition: buffer.ChannelPosition,
	}
	for in, want := range tests {
		if got := pickSubstitute(in); got != want {
			t.Errorf("pickSubstitute(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestCompileSPIRVRejectsInvalidSource(t *testing.T) {
	if _, err := compileSPIRV("fn broken( {"); err == nil {
		t.Error("compileSPIRV accepted invalid WGSL")
	}
}
