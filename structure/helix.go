package structure

import (
	"fmt"

	"github.com/chewxy/math32"
)

// HelixOptions configures BuildHelix.
type HelixOptions struct {
	Name     string
	Chains   int
	Residues int
	// CoilEnds is the number of residues at each chain end marked as coil.
	CoilEnds int
	// Spacing is the x offset between chains in Å. Zero means 20.
	Spacing float32
}

// ideal alpha helix: 3.6 residues per turn, 1.5 Å rise per residue.
const (
	helixTurn = 100.0 * math32.Pi / 180
	helixRise = 1.5
)

// BuildHelix creates a poly-alanine structure of ideal alpha helices with
// backbone and CB atoms and explicit bonds. It is used by the demo command
// and as a deterministic fixture.
func BuildHelix(o HelixOptions) (*Structure, error) {
	if o.Chains <= 0 || o.Residues <= 0 {
		return nil, fmt.Errorf("structure: helix needs chains and residues, got %d and %d", o.Chains, o.Residues)
	}
	if o.Spacing == 0 {
		o.Spacing = 20
	}
	b := NewBuilder(o.Name)
	for c := 0; c < o.Chains; c++ {
		chain := string(rune('A' + c%26))
		x0 := float32(c) * o.Spacing
		prevC := -1
		for r := 0; r < o.Residues; r++ {
			ss := SSHelix
			if r < o.CoilEnds || r >= o.Residues-o.CoilEnds {
				ss = SSCoil
			}
			base := Atom{ResName: "ALA", ResNo: r + 1, Chain: chain, SS: ss}
			at := func(name, element string, radius, dAngle, dz float32) int {
				a := base
				a.Name, a.Element = name, element
				ang := float32(r)*helixTurn + dAngle
				a.X = x0 + radius*math32.Cos(ang)
				a.Y = radius * math32.Sin(ang)
				a.Z = float32(r)*helixRise + dz
				return b.AddAtom(a)
			}
			n := at("N", "N", 1.55, -0.47, -0.45)
			ca := at("CA", "C", 2.3, 0, 0)
			cc := at("C", "C", 1.65, 0.45, 0.55)
			ox := at("O", "O", 2.1, 0.7, 1.5)
			cb := at("CB", "C", 3.3, 0.1, -0.55)
			b.AddBond(n, ca, 1)
			b.AddBond(ca, cc, 1)
			b.AddBond(cc, ox, 2)
			b.AddBond(ca, cb, 1)
			if prevC >= 0 {
				b.AddBond(prevC, n, 1)
			}
			prevC = cc
		}
	}
	return b.Build()
}
