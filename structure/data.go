package structure

import (
	"github.com/gogpu/molrep/picking"
)

// AtomDataParams selects which per-atom arrays AtomData extracts.
type AtomDataParams struct {
	Position bool
	Color    bool
	Radius   bool
	// Picking requests picking colors encoding PickingOffset+i for atom i.
	Picking       bool
	PickingOffset uint32

	ColorParams  ColorParams
	RadiusParams RadiusParams
}

// AtomData holds flat per-atom arrays in view order. Arrays that were not
// requested are nil.
type AtomData struct {
	Position     []float32 // stride 3
	Color        []float32 // stride 3
	Radius       []float32 // stride 1
	PickingColor []float32 // stride 3
}

// AtomData extracts per-atom arrays for every atom of the view.
func (v *View) AtomData(p AtomDataParams) (AtomData, error) {
	n := v.AtomCount()
	var d AtomData
	var cm ColorMaker
	var rf RadiusFactory
	var err error
	if p.Position {
		d.Position = make([]float32, 3*n)
	}
	if p.Color {
		if cm, err = NewColorMaker(v.s, p.ColorParams); err != nil {
			return AtomData{}, err
		}
		d.Color = make([]float32, 3*n)
	}
	if p.Radius {
		if rf, err = NewRadiusFactory(p.RadiusParams); err != nil {
			return AtomData{}, err
		}
		d.Radius = make([]float32, n)
	}
	if p.Picking {
		d.PickingColor = picking.Colors(p.PickingOffset, n)
	}
	for i, ai := range v.atoms {
		a := v.s.Atom(ai)
		if d.Position != nil {
			d.Position[3*i] = v.s.x[ai]
			d.Position[3*i+1] = v.s.y[ai]
			d.Position[3*i+2] = v.s.z[ai]
		}
		if d.Color != nil {
			c := cm.AtomColor(a)
			d.Color[3*i], d.Color[3*i+1], d.Color[3*i+2] = c.R, c.G, c.B
		}
		if d.Radius != nil {
			d.Radius[i] = rf.AtomRadius(a)
		}
	}
	return d, nil
}

// BondDataParams selects which per-bond arrays are extracted.
type BondDataParams struct {
	Position bool
	Color    bool
	Radius   bool
	// Picking requests picking colors encoding PickingOffset+i for bond i
	// on both endpoints.
	Picking       bool
	PickingOffset uint32

	ColorParams  ColorParams
	RadiusParams RadiusParams
}

// BondData holds flat per-bond arrays. Endpoint 1 and 2 carry the values of
// the bond's first and second atom.
type BondData struct {
	Position1     []float32
	Position2     []float32
	Color         []float32
	Color2        []float32
	Radius        []float32
	PickingColor  []float32
	PickingColor2 []float32
}

// BondStore is a bond table that is not part of a structure's topology,
// such as the synthetic bonds joining the atoms of a distance measurement.
type BondStore struct {
	Atom1 []int
	Atom2 []int
	Order []uint8
}

// Add appends a bond between structure atoms a1 and a2.
func (b *BondStore) Add(a1, a2 int, order uint8) {
	b.Atom1 = append(b.Atom1, a1)
	b.Atom2 = append(b.Atom2, a2)
	b.Order = append(b.Order, order)
}

// Len returns the number of bonds.
func (b *BondStore) Len() int { return len(b.Atom1) }

// BondData extracts per-bond arrays for every bond of the view.
func (v *View) BondData(p BondDataParams) (BondData, error) {
	s := v.s
	return bondData(s, len(v.bonds), func(i int) (int, int) {
		b := v.bonds[i]
		return s.bondAtom1[b], s.bondAtom2[b]
	}, p)
}

// BondIndices returns the structure bond indices of the view in order.
func (v *View) BondIndices() []int { return v.bonds }

// Data extracts per-bond arrays for a bond store over structure s.
func (b *BondStore) Data(s *Structure, p BondDataParams) (BondData, error) {
	return bondData(s, b.Len(), func(i int) (int, int) { return b.Atom1[i], b.Atom2[i] }, p)
}

func bondData(s *Structure, n int, atoms func(i int) (int, int), p BondDataParams) (BondData, error) {
	var d BondData
	var cm ColorMaker
	var rf RadiusFactory
	var err error
	if p.Position {
		d.Position1 = make([]float32, 3*n)
		d.Position2 = make([]float32, 3*n)
	}
	if p.Color {
		if cm, err = NewColorMaker(s, p.ColorParams); err != nil {
			return BondData{}, err
		}
		d.Color = make([]float32, 3*n)
		d.Color2 = make([]float32, 3*n)
	}
	if p.Radius {
		if rf, err = NewRadiusFactory(p.RadiusParams); err != nil {
			return BondData{}, err
		}
		d.Radius = make([]float32, n)
	}
	if p.Picking {
		d.PickingColor = picking.Colors(p.PickingOffset, n)
		d.PickingColor2 = picking.Colors(p.PickingOffset, n)
	}
	for i := 0; i < n; i++ {
		a1, a2 := atoms(i)
		if d.Position1 != nil {
			d.Position1[3*i], d.Position1[3*i+1], d.Position1[3*i+2] = s.x[a1], s.y[a1], s.z[a1]
			d.Position2[3*i], d.Position2[3*i+1], d.Position2[3*i+2] = s.x[a2], s.y[a2], s.z[a2]
		}
		if d.Color != nil {
			c1 := cm.AtomColor(s.Atom(a1))
			c2 := cm.AtomColor(s.Atom(a2))
			d.Color[3*i], d.Color[3*i+1], d.Color[3*i+2] = c1.R, c1.G, c1.B
			d.Color2[3*i], d.Color2[3*i+1], d.Color2[3*i+2] = c2.R, c2.G, c2.B
		}
		if d.Radius != nil {
			r1 := rf.AtomRadius(s.Atom(a1))
			r2 := rf.AtomRadius(s.Atom(a2))
			d.Radius[i] = min(r1, r2)
		}
	}
	return d, nil
}
