package representation

import (
	"fmt"
	"strconv"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/structure"
)

// Distance label units.
const (
	UnitNone     = ""
	UnitAngstrom = "angstrom"
	UnitNM       = "nm"
)

var distanceTable = baseTable.Extend(Table{
	"atomPair":   rebuildParam(),
	"labelUnit":  rebuildParam(),
	"labelSize":  bufferParam(ChangeLabelSize),
	"labelColor": bufferParam(ChangeLabelColor),
}).Disable("sphereDetail")

// distanceData is the Aux record of a Distance data entry.
type distanceData struct {
	// bonds joins the representative atoms of every resolved pair.
	bonds structure.BondStore
	// pairs holds the atomPair index of every resolved pair.
	pairs []int
	// midpoints anchor the labels, stride 3.
	midpoints []float32
	labels    []string
	dropped   int

	cylinders *buffer.Buffer
	text      *buffer.Buffer
}

// Distance measures pairs of atoms. Each pair is drawn as a cylinder
// between its atoms and a label with the distance at the midpoint.
type Distance struct {
	Base
}

// NewDistance creates an uninitialized distance representation. Its Env
// must carry a Layouter.
func NewDistance(env Env) *Distance {
	r := &Distance{}
	r.setup("distance", distanceTable, defaultsFor(distanceTable, Params{
		"atomPair":    [][2]string(nil),
		"labelUnit":   UnitNone,
		"labelSize":   1.0,
		"labelColor":  "white",
		"colorScheme": structure.SchemeUniform,
		"colorValue":  "#90ee90",
		"radiusSize":  0.075,
	}), r, env)
	return r
}

// resolvePairs maps every pair to the first atom of each side in view
// order. Pairs with an empty side are dropped.
func resolvePairs(v *structure.View, pairs [][2]string) (kept []int, bonds structure.BondStore) {
	for i, p := range pairs {
		a := v.EntityIndices(p[0])
		b := v.EntityIndices(p[1])
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		kept = append(kept, i)
		bonds.Add(a[0], b[0], 1)
	}
	return kept, bonds
}

func (r *Distance) formatDistance(d float32) string {
	switch r.params.String("labelUnit") {
	case UnitAngstrom:
		return strconv.FormatFloat(float64(d), 'f', 2, 32) + " Å"
	case UnitNM:
		return strconv.FormatFloat(float64(d/10), 'f', 2, 32) + " nm"
	default:
		return strconv.FormatFloat(float64(d), 'f', 2, 32)
	}
}

func (r *Distance) validateParams(p Params) error {
	switch u := p.String("labelUnit"); u {
	case UnitNone, UnitAngstrom, UnitNM:
		return nil
	default:
		return fmt.Errorf("%w: label unit %q", ErrInvalidParam, u)
	}
}

// CreateData implements Builder.
func (r *Distance) CreateData(v *structure.View) (*Data, error) {
	if err := r.validateParams(r.params); err != nil {
		return nil, err
	}
	pairs := r.params.Pairs("atomPair")
	kept, bonds := resolvePairs(v, pairs)
	aux := &distanceData{bonds: bonds, pairs: kept, dropped: len(pairs) - len(kept)}
	d := &Data{View: v, Aux: aux}
	if aux.dropped > 0 {
		r.logDropped(aux.dropped, len(pairs))
	}
	n := len(kept)
	if n == 0 {
		return d, nil
	}
	if r.env.Layouter == nil {
		return nil, ErrNoLayouter
	}

	s := v.Structure()
	td := buffer.TextData{Text: make([]string, n)}
	aux.midpoints = make([]float32, 3*n)
	for i := 0; i < n; i++ {
		p1 := s.Position(bonds.Atom1[i])
		p2 := s.Position(bonds.Atom2[i])
		mid := p1.Add(p2).Mul(0.5)
		copy(aux.midpoints[3*i:], mid[:])
		td.Text[i] = r.formatDistance(p2.Sub(p1).Len())
	}
	td.Position = aux.midpoints
	aux.labels = td.Text

	picker := picking.NewIndexPicker(picking.KindDistance, kept)
	offset, pick, err := r.reservePicking(d, picker)
	if err != nil {
		return nil, err
	}
	cp, err := r.colorParams()
	if err != nil {
		r.release(d)
		return nil, err
	}
	bd, err := bonds.Data(s, structure.BondDataParams{
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
	// The cylinder center is (position1+position2)/2 in the shaders, the
	// same point as the label anchor in midpoints.
	aux.cylinders = buffer.NewCylinder(cylinderData(bd), r.Strategy(),
		r.bufferOptions("bonds", pickerOrNil(picker))...)
	d.Buffers = append(d.Buffers, aux.cylinders)

	if td.Color, err = r.labelColors(n); err != nil {
		r.release(d)
		return nil, err
	}
	td.Size = r.labelSizes(n)
	aux.text, err = buffer.NewText(td, r.env.Layouter, r.bufferOptions("text", nil)...)
	if err != nil {
		r.release(d)
		return nil, err
	}
	d.Buffers = append(d.Buffers, aux.text)
	return d, nil
}

func (r *Distance) logDropped(dropped, total int) {
	molrep.Logger().Debug("representation: dropped unresolved pairs",
		"name", r.name, "dropped", dropped, "pairs", total)
}

// UpdateData implements Builder. Position changes re-resolve the pairs.
func (r *Distance) UpdateData(what ChangeSet, d *Data) error {
	if what.Has(ChangePosition) {
		return ErrRebuildRequired
	}
	r.setUniforms(what, d)
	aux, ok := d.Aux.(*distanceData)
	if !ok || aux.text == nil {
		return nil
	}

	a := buffer.Attributes{}
	if err := r.patchText(what, aux.text.Count(), a); err != nil {
		return err
	}
	if len(a) > 0 {
		if err := aux.text.SetAttributes(a); err != nil {
			return err
		}
	}

	p := structure.BondDataParams{Color: what.Has(ChangeColor), Radius: what.Has(ChangeRadius)}
	if !p.Color && !p.Radius {
		return nil
	}
	var err error
	if p.ColorParams, err = r.colorParams(); err != nil {
		return err
	}
	p.RadiusParams = r.radiusParams(1)
	bd, err := aux.bonds.Data(d.View.Structure(), p)
	if err != nil {
		return err
	}
	return aux.cylinders.SetAttributes(bondAttributes(bd))
}

// DroppedPairs returns the number of pairs of the last build that had a
// side without matching atoms, summed over all views.
func (r *Distance) DroppedPairs() int {
	n := 0
	for _, d := range r.data {
		if aux, ok := d.Aux.(*distanceData); ok {
			n += aux.dropped
		}
	}
	return n
}

// Midpoints returns the label anchors of the data entry at index i.
func (r *Distance) Midpoints(i int) []float32 {
	if i < 0 || i >= len(r.data) {
		return nil
	}
	if aux, ok := r.data[i].Aux.(*distanceData); ok {
		return aux.midpoints
	}
	return nil
}
