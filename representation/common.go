package representation

import (
	"maps"
	"slices"

	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/structure"
)

// baseTable holds the parameters every geometry variant inherits.
var baseTable = Table{
	"colorScheme":    bufferParam(ChangeColor),
	"colorValue":     bufferParam(ChangeColor),
	"radiusType":     bufferParam(ChangeRadius),
	"radiusSize":     bufferParam(ChangeRadius),
	"radiusScale":    bufferParam(ChangeRadius),
	"impostor":       strategyParam(),
	"sphereDetail":   strategyParam(buffer.StrategyMesh),
	"radialSegments": strategyParam(buffer.StrategyMesh),
	"disablePicking": rebuildParam(),
	"opacity":        uniformParam(ChangeOpacity),
	"cylinderShrink": uniformParam(ChangeShrink),
}

var baseDefaults = Params{
	"colorScheme":    structure.SchemeElement,
	"colorValue":     "",
	"radiusType":     structure.RadiusSize,
	"radiusSize":     0.15,
	"radiusScale":    1.0,
	"impostor":       true,
	"sphereDetail":   2,
	"radialSegments": 10,
	"disablePicking": false,
	"opacity":        1.0,
	"cylinderShrink": 0.0,
}

// defaultsFor returns the inherited defaults of the enabled entries of t
// with overrides applied.
func defaultsFor(t Table, overrides Params) Params {
	p := make(Params, len(t))
	for name, desc := range t {
		if desc.Effect == EffectDisabled {
			continue
		}
		if v, ok := baseDefaults[name]; ok {
			p[name] = v
		}
	}
	maps.Copy(p, overrides)
	return p
}

func (b *Base) colorParams() (structure.ColorParams, error) {
	c, err := b.params.Color("colorValue")
	if err != nil {
		return structure.ColorParams{}, err
	}
	return structure.ColorParams{Scheme: b.params.String("colorScheme"), Value: c}, nil
}

func (b *Base) radiusParams(scale float32) structure.RadiusParams {
	return structure.RadiusParams{
		Type:  b.params.String("radiusType"),
		Size:  b.params.Float("radiusSize"),
		Scale: b.params.Float("radiusScale") * scale,
	}
}

// atomSpheres builds the sphere buffer of a view's atoms. Radii are
// scaled by scale.
func (b *Base) atomSpheres(d *Data, scale float32) (*buffer.Buffer, error) {
	v := d.View
	picker := picking.NewIndexPicker(picking.KindAtom, slices.Clone(v.AtomIndices()))
	offset, pick, err := b.reservePicking(d, picker)
	if err != nil {
		return nil, err
	}
	cp, err := b.colorParams()
	if err != nil {
		return nil, err
	}
	ad, err := v.AtomData(structure.AtomDataParams{
		Position:      true,
		Color:         true,
		Radius:        true,
		Picking:       pick,
		PickingOffset: offset,
		ColorParams:   cp,
		RadiusParams:  b.radiusParams(scale),
	})
	if err != nil {
		return nil, err
	}
	if !pick {
		picker = nil
	}
	return buffer.NewSphere(buffer.SphereData{
		Position:     ad.Position,
		Color:        ad.Color,
		Radius:       ad.Radius,
		PickingColor: ad.PickingColor,
	}, b.Strategy(), b.bufferOptions("atoms", pickerOrNil(picker))...), nil
}

// updateAtomSpheres patches the changed lanes of an atom sphere buffer.
func (b *Base) updateAtomSpheres(what ChangeSet, v *structure.View, buf *buffer.Buffer, scale float32) error {
	p := structure.AtomDataParams{
		Position: what.Has(ChangePosition),
		Color:    what.Has(ChangeColor),
		Radius:   what.Has(ChangeRadius),
	}
	if !p.Position && !p.Color && !p.Radius {
		return nil
	}
	var err error
	if p.ColorParams, err = b.colorParams(); err != nil {
		return err
	}
	p.RadiusParams = b.radiusParams(scale)
	ad, err := v.AtomData(p)
	if err != nil {
		return err
	}
	a := buffer.Attributes{}
	if p.Position {
		a[buffer.ChannelPosition] = ad.Position
	}
	if p.Color {
		a[buffer.ChannelColor] = ad.Color
	}
	if p.Radius {
		a[buffer.ChannelRadius] = ad.Radius
	}
	return buf.SetAttributes(a)
}

// bondAttributes converts the requested lanes of bond data to cylinder
// attributes.
func bondAttributes(bd structure.BondData) buffer.Attributes {
	a := buffer.Attributes{}
	if bd.Position1 != nil {
		a[buffer.ChannelPosition1] = bd.Position1
		a[buffer.ChannelPosition2] = bd.Position2
	}
	if bd.Color != nil {
		a[buffer.ChannelColor] = bd.Color
		a[buffer.ChannelColor2] = bd.Color2
	}
	if bd.Radius != nil {
		a[buffer.ChannelRadius] = bd.Radius
	}
	return a
}

func cylinderData(bd structure.BondData) buffer.CylinderData {
	return buffer.CylinderData{
		Position1:     bd.Position1,
		Position2:     bd.Position2,
		Color:         bd.Color,
		Color2:        bd.Color2,
		Radius:        bd.Radius,
		PickingColor:  bd.PickingColor,
		PickingColor2: bd.PickingColor2,
	}
}

// pickerOrNil avoids storing a typed nil pointer in the Picker interface.
func pickerOrNil(p *picking.IndexPicker) picking.Picker {
	if p == nil {
		return nil
	}
	return p
}
