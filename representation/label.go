package representation

import (
	"fmt"
	"strconv"

	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/structure"
)

// Label types.
const (
	LabelAtomName  = "atomname"
	LabelAtomIndex = "atomindex"
	LabelElement   = "element"
	LabelResName   = "resname"
	LabelResNo     = "resno"
	LabelResidue   = "residue"
)

var labelTable = Table{
	"labelType":  rebuildParam(),
	"labelSize":  bufferParam(ChangeLabelSize),
	"labelColor": bufferParam(ChangeLabelColor),
	"opacity":    uniformParam(ChangeOpacity),
}

// Label draws one text label per atom of the view.
type Label struct {
	Base
}

// NewLabel creates an uninitialized label representation. Its Env must
// carry a Layouter.
func NewLabel(env Env) *Label {
	r := &Label{}
	r.setup("label", labelTable, Params{
		"labelType":  LabelAtomName,
		"labelSize":  1.0,
		"labelColor": "white",
		"opacity":    1.0,
	}, r, env)
	return r
}

func labelText(kind string, a structure.AtomProxy) (string, error) {
	switch kind {
	case LabelAtomName:
		return a.AtomName(), nil
	case LabelAtomIndex:
		return strconv.Itoa(a.Index()), nil
	case LabelElement:
		return a.Element(), nil
	case LabelResName:
		return a.ResName(), nil
	case LabelResNo:
		return strconv.Itoa(a.ResNo()), nil
	case LabelResidue:
		return a.ResName() + strconv.Itoa(a.ResNo()), nil
	default:
		return "", fmt.Errorf("%w: label type %q", ErrInvalidParam, kind)
	}
}

func (r *Label) validateParams(p Params) error {
	switch k := p.String("labelType"); k {
	case LabelAtomName, LabelAtomIndex, LabelElement, LabelResName, LabelResNo, LabelResidue:
		return nil
	default:
		return fmt.Errorf("%w: label type %q", ErrInvalidParam, k)
	}
}

// CreateData implements Builder.
func (r *Label) CreateData(v *structure.View) (*Data, error) {
	d := &Data{View: v}
	n := v.AtomCount()
	if n == 0 {
		return d, nil
	}
	if r.env.Layouter == nil {
		return nil, ErrNoLayouter
	}
	kind := r.params.String("labelType")
	td := buffer.TextData{Text: make([]string, 0, n)}
	var err error
	v.EachAtom(func(a structure.AtomProxy) {
		if err != nil {
			return
		}
		var s string
		s, err = labelText(kind, a)
		td.Text = append(td.Text, s)
	})
	if err != nil {
		return nil, err
	}
	ad, err := v.AtomData(structure.AtomDataParams{Position: true})
	if err != nil {
		return nil, err
	}
	td.Position = ad.Position
	if td.Color, err = r.labelColors(n); err != nil {
		return nil, err
	}
	td.Size = r.labelSizes(n)

	tb, err := buffer.NewText(td, r.env.Layouter, r.bufferOptions("text", nil)...)
	if err != nil {
		return nil, err
	}
	d.Buffers = append(d.Buffers, tb)
	return d, nil
}

// UpdateData implements Builder.
func (r *Label) UpdateData(what ChangeSet, d *Data) error {
	r.setUniforms(what, d)
	if len(d.Buffers) == 0 {
		return nil
	}
	tb := d.Buffers[0]
	n := tb.Count()
	a := buffer.Attributes{}
	if what.Has(ChangePosition) {
		ad, err := d.View.AtomData(structure.AtomDataParams{Position: true})
		if err != nil {
			return err
		}
		if len(ad.Position) != 3*n {
			return ErrRebuildRequired
		}
		a[buffer.ChannelPosition] = ad.Position
	}
	if err := r.patchText(what, n, a); err != nil {
		return err
	}
	if len(a) == 0 {
		return nil
	}
	return tb.SetAttributes(a)
}

// patchText adds the label size and color lanes requested by what.
func (b *Base) patchText(what ChangeSet, n int, a buffer.Attributes) error {
	if what.Has(ChangeLabelSize) {
		a[buffer.ChannelSize] = b.labelSizes(n)
	}
	if what.Has(ChangeLabelColor) {
		c, err := b.labelColors(n)
		if err != nil {
			return err
		}
		a[buffer.ChannelColor] = c
	}
	return nil
}

func (b *Base) labelSizes(n int) []float32 {
	s := make([]float32, n)
	size := b.params.Float("labelSize")
	for i := range s {
		s[i] = size
	}
	return s
}

func (b *Base) labelColors(n int) ([]float32, error) {
	c, err := b.params.Color("labelColor")
	if err != nil {
		return nil, err
	}
	out := make([]float32, 3*n)
	for i := 0; i < n; i++ {
		out[3*i], out[3*i+1], out[3*i+2] = c.R, c.G, c.B
	}
	return out, nil
}
