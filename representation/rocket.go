package representation

import (
	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/structure"
)

var rocketTable = baseTable.Extend(Table{
	"minResidues": rebuildParam(),
	"excludeKind": rebuildParam(),
	"localAngle":  rebuildParam(),
	"centerDist":  rebuildParam(),
	"ssBorder":    rebuildParam(),
	"scale":       bufferParam(ChangeScale),
}).Disable("sphereDetail")

// rocketData is the Aux record of a Rocket data entry. Segments of all
// eligible polymers are concatenated in polymer order; polymer k owns
// counts[k] segments starting at offsets[k].
type rocketData struct {
	polymers []structure.Polymer
	offsets  []int
	counts   []int
	total    int

	begin, end []float32
	size       []float32
	color      []float32
	// entities holds the trace atom of the first residue of each segment.
	entities []int

	cylinders *buffer.Buffer
}

// Rocket draws helices as straight cylinders along their axes.
type Rocket struct {
	Base
}

// NewRocket creates an uninitialized rocket representation. Axes come
// from Env.Axis.
func NewRocket(env Env) *Rocket {
	r := &Rocket{}
	r.setup("rocket", rocketTable, defaultsFor(rocketTable, Params{
		"minResidues": 4,
		"excludeKind": structure.PolymerNucleic.String(),
		"localAngle":  30.0,
		"centerDist":  2.5,
		"ssBorder":    false,
		"scale":       1.0,
		"colorScheme": structure.SchemeChainID,
		"radiusSize":  1.5,
	}), r, env)
	return r
}

func (r *Rocket) eligible(p structure.Polymer) bool {
	if p.ResidueCount() < r.params.Int("minResidues") {
		return false
	}
	ex := r.params.String("excludeKind")
	return ex == "" || p.Kind().String() != ex
}

func (r *Rocket) axisParams() (structure.AxisParams, error) {
	cp, err := r.colorParams()
	if err != nil {
		return structure.AxisParams{}, err
	}
	return structure.AxisParams{
		LocalAngle:   r.params.Float("localAngle"),
		CenterDist:   r.params.Float("centerDist"),
		SSBorder:     r.params.Bool("ssBorder"),
		ColorParams:  cp,
		RadiusParams: r.radiusParams(1),
		Scale:        r.params.Float("scale"),
	}, nil
}

// CreateData implements Builder.
func (r *Rocket) CreateData(v *structure.View) (*Data, error) {
	params, err := r.axisParams()
	if err != nil {
		return nil, err
	}
	aux := &rocketData{}
	v.EachPolymer(func(p structure.Polymer) {
		if err != nil || !r.eligible(p) {
			return
		}
		var ad structure.AxisData
		if ad, err = r.env.Axis.Axis(p, params); err != nil {
			return
		}
		aux.polymers = append(aux.polymers, p)
		aux.offsets = append(aux.offsets, aux.total)
		aux.counts = append(aux.counts, ad.Len())
		aux.begin = append(aux.begin, ad.Begin...)
		aux.end = append(aux.end, ad.End...)
		aux.size = append(aux.size, ad.Size...)
		aux.color = append(aux.color, ad.Color...)
		for i := 0; i < ad.Len(); i++ {
			res := 0
			if i < len(ad.Residue) {
				res = ad.Residue[i]
			}
			aux.entities = append(aux.entities, p.TraceAtom(res).Index())
		}
		aux.total += ad.Len()
	})
	if err != nil {
		return nil, err
	}

	d := &Data{View: v, Aux: aux}
	if aux.total == 0 {
		return d, nil
	}
	picker := picking.NewIndexPicker(picking.KindAxis, aux.entities)
	offset, pick, err := r.reservePicking(d, picker)
	if err != nil {
		return nil, err
	}
	cd := buffer.CylinderData{
		Position1: aux.begin,
		Position2: aux.end,
		Color:     aux.color,
		Color2:    aux.color,
		Radius:    aux.size,
	}
	if pick {
		cd.PickingColor = picking.Colors(offset, aux.total)
		cd.PickingColor2 = cd.PickingColor
	} else {
		picker = nil
	}
	aux.cylinders = buffer.NewCylinder(cd, r.Strategy(), r.bufferOptions("axes", pickerOrNil(picker))...)
	d.Buffers = append(d.Buffers, aux.cylinders)
	return d, nil
}

// UpdateData implements Builder. Color and size changes recompute the
// axis of every polymer and write only the changed lanes at the recorded
// offsets. Position changes rebuild.
func (r *Rocket) UpdateData(what ChangeSet, d *Data) error {
	if what.Has(ChangePosition) {
		return ErrRebuildRequired
	}
	r.setUniforms(what, d)
	aux, ok := d.Aux.(*rocketData)
	if !ok || aux.cylinders == nil {
		return nil
	}
	color := what.Has(ChangeColor)
	size := what.Has(ChangeRadius | ChangeScale)
	if !color && !size {
		return nil
	}

	params, err := r.axisParams()
	if err != nil {
		return err
	}
	for k, p := range aux.polymers {
		ad, err := r.env.Axis.Axis(p, params)
		if err != nil {
			return err
		}
		if ad.Len() != aux.counts[k] {
			return ErrRebuildRequired
		}
		off := aux.offsets[k]
		if color {
			copy(aux.color[3*off:], ad.Color)
		}
		if size {
			copy(aux.size[off:], ad.Size)
		}
	}

	a := buffer.Attributes{}
	if color {
		a[buffer.ChannelColor] = aux.color
		a[buffer.ChannelColor2] = aux.color
	}
	if size {
		a[buffer.ChannelRadius] = aux.size
	}
	return aux.cylinders.SetAttributes(a)
}

// Offsets returns the segment offset and count of every eligible polymer
// of the data entry at index i.
func (r *Rocket) Offsets(i int) (offsets, counts []int) {
	if i < 0 || i >= len(r.data) {
		return nil, nil
	}
	if aux, ok := r.data[i].Aux.(*rocketData); ok {
		return aux.offsets, aux.counts
	}
	return nil, nil
}
