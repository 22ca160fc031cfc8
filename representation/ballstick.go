package representation

import (
	"slices"

	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/structure"
)

var ballAndStickTable = baseTable.Extend(Table{
	"aspectRatio": bufferParam(ChangeRadius),
})

// BallAndStick draws atoms as spheres and bonds as cylinders. Sphere
// radii are the bond radius times aspectRatio.
type BallAndStick struct {
	Base
}

// NewBallAndStick creates an uninitialized ball+stick representation.
func NewBallAndStick(env Env) *BallAndStick {
	r := &BallAndStick{}
	r.setup("ball+stick", ballAndStickTable, defaultsFor(ballAndStickTable, Params{
		"aspectRatio": 2.0,
	}), r, env)
	return r
}

// CreateData implements Builder.
func (r *BallAndStick) CreateData(v *structure.View) (*Data, error) {
	d := &Data{View: v}
	if v.AtomCount() == 0 {
		return d, nil
	}
	spheres, err := r.atomSpheres(d, r.params.Float("aspectRatio"))
	if err != nil {
		r.release(d)
		return nil, err
	}
	d.Buffers = append(d.Buffers, spheres)

	if v.BondCount() == 0 {
		return d, nil
	}
	picker := picking.NewIndexPicker(picking.KindBond, slices.Clone(v.BondIndices()))
	offset, pick, err := r.reservePicking(d, picker)
	if err != nil {
		r.release(d)
		return nil, err
	}
	cp, err := r.colorParams()
	if err != nil {
		r.release(d)
		return nil, err
	}
	bd, err := v.BondData(structure.BondDataParams{
		Position:      true,
		Color:         true,
		Radius:        true,
		Picking:       pick,
		PickingOffset: offset,
		ColorParams:   cp,
		RadiusParams:  r.radiusParams(1),
	})
	if err != nil {
		r.release(d)
		return nil, err
	}
	if !pick {
		picker = nil
	}
	d.Buffers = append(d.Buffers, buffer.NewCylinder(cylinderData(bd), r.Strategy(),
		r.bufferOptions("bonds", pickerOrNil(picker))...))
	return d, nil
}

// UpdateData implements Builder.
func (r *BallAndStick) UpdateData(what ChangeSet, d *Data) error {
	r.setUniforms(what, d)
	if !sameCounts(d, d.View.AtomCount(), d.View.BondCount()) {
		return ErrRebuildRequired
	}
	if len(d.Buffers) == 0 {
		return nil
	}
	if err := r.updateAtomSpheres(what, d.View, d.Buffers[0], r.params.Float("aspectRatio")); err != nil {
		return err
	}
	if len(d.Buffers) < 2 {
		return nil
	}
	p := structure.BondDataParams{
		Position: what.Has(ChangePosition),
		Color:    what.Has(ChangeColor),
		Radius:   what.Has(ChangeRadius),
	}
	if !p.Position && !p.Color && !p.Radius {
		return nil
	}
	var err error
	if p.ColorParams, err = r.colorParams(); err != nil {
		return err
	}
	p.RadiusParams = r.radiusParams(1)
	bd, err := d.View.BondData(p)
	if err != nil {
		return err
	}
	return d.Buffers[1].SetAttributes(bondAttributes(bd))
}

// Spacefill draws atoms as van der Waals spheres. It shares the sphere
// path of BallAndStick with the bond parameters disabled.
type Spacefill struct {
	Base
}

var spacefillTable = ballAndStickTable.Disable("aspectRatio", "cylinderShrink", "radialSegments")

// NewSpacefill creates an uninitialized spacefill representation.
func NewSpacefill(env Env) *Spacefill {
	r := &Spacefill{}
	r.setup("spacefill", spacefillTable, defaultsFor(spacefillTable, Params{
		"radiusType": structure.RadiusVDW,
	}), r, env)
	return r
}

// CreateData implements Builder.
func (r *Spacefill) CreateData(v *structure.View) (*Data, error) {
	d := &Data{View: v}
	if v.AtomCount() == 0 {
		return d, nil
	}
	spheres, err := r.atomSpheres(d, 1)
	if err != nil {
		r.release(d)
		return nil, err
	}
	d.Buffers = append(d.Buffers, spheres)
	return d, nil
}

// UpdateData implements Builder.
func (r *Spacefill) UpdateData(what ChangeSet, d *Data) error {
	r.setUniforms(what, d)
	if !sameCounts(d, d.View.AtomCount()) {
		return ErrRebuildRequired
	}
	if len(d.Buffers) == 0 {
		return nil
	}
	return r.updateAtomSpheres(what, d.View, d.Buffers[0], 1)
}

// sameCounts reports whether the buffers of d hold exactly the given
// entity counts in order. A zero count expects no buffer.
func sameCounts(d *Data, counts ...int) bool {
	i := 0
	for _, n := range counts {
		if n == 0 {
			continue
		}
		if i >= len(d.Buffers) || d.Buffers[i].Count() != n {
			return false
		}
		i++
	}
	return i == len(d.Buffers)
}
