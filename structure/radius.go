package structure

import "fmt"

// Radius type names.
const (
	RadiusVDW      = "vdw"
	RadiusCovalent = "covalent"
	RadiusSize     = "size"
)

// RadiusParams selects how atom radii are derived.
type RadiusParams struct {
	Type string
	// Size is the fixed radius of the size type.
	Size float32
	// Scale multiplies every radius. Zero means 1.
	Scale float32
}

// RadiusFactory computes atom radii.
type RadiusFactory struct {
	p RadiusParams
}

// NewRadiusFactory validates the parameters and creates a factory.
func NewRadiusFactory(p RadiusParams) (RadiusFactory, error) {
	switch p.Type {
	case "", RadiusVDW, RadiusCovalent, RadiusSize:
	default:
		return RadiusFactory{}, fmt.Errorf("structure: unknown radius type %q", p.Type)
	}
	if p.Scale == 0 {
		p.Scale = 1
	}
	return RadiusFactory{p: p}, nil
}

// AtomRadius returns the radius of an atom.
func (f RadiusFactory) AtomRadius(a AtomProxy) float32 {
	var r float32
	switch f.p.Type {
	case RadiusSize:
		r = f.p.Size
	case RadiusCovalent:
		r = lookupElement(a.Element()).covalent
	default:
		r = lookupElement(a.Element()).vdw
	}
	return r * f.p.Scale
}
