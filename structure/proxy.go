package structure

import "github.com/go-gl/mathgl/mgl32"

// AtomProxy is an index-addressable reference to one atom row. It never
// owns data; it reads the structure's columns on every call.
type AtomProxy struct {
	s     *Structure
	index int
}

// Index returns the atom index in the structure.
func (a AtomProxy) Index() int { return a.index }

// Position returns the atom coordinates.
func (a AtomProxy) Position() mgl32.Vec3 { return a.s.Position(a.index) }

// X returns the x coordinate.
func (a AtomProxy) X() float32 { return a.s.x[a.index] }

// Y returns the y coordinate.
func (a AtomProxy) Y() float32 { return a.s.y[a.index] }

// Z returns the z coordinate.
func (a AtomProxy) Z() float32 { return a.s.z[a.index] }

// Element returns the upper-case element symbol.
func (a AtomProxy) Element() string { return a.s.element[a.index] }

// AtomName returns the atom name, e.g. "CA".
func (a AtomProxy) AtomName() string { return a.s.atomName[a.index] }

// ResidueIndex returns the index of the residue containing the atom.
func (a AtomProxy) ResidueIndex() int { return a.s.residueOf[a.index] }

func (a AtomProxy) residue() *residue { return &a.s.residues[a.s.residueOf[a.index]] }

// ResName returns the residue name.
func (a AtomProxy) ResName() string { return a.residue().resName }

// ResNo returns the residue number.
func (a AtomProxy) ResNo() int { return a.residue().resNo }

// Chain returns the chain identifier.
func (a AtomProxy) Chain() string { return a.residue().chain }

// SS returns the secondary structure code of the residue.
func (a AtomProxy) SS() byte { return a.residue().ss }

// PolymerKind returns the kind of the residue.
func (a AtomProxy) PolymerKind() PolymerKind { return a.residue().kind }

// IsTrace reports whether the atom is its residue's trace atom (CA or P).
func (a AtomProxy) IsTrace() bool { return a.residue().traceAtom == a.index }

// BondProxy is an index-addressable reference to one bond row.
type BondProxy struct {
	s     *Structure
	index int
}

// Index returns the bond index in the structure.
func (b BondProxy) Index() int { return b.index }

// Atom1 returns the first atom of the bond.
func (b BondProxy) Atom1() AtomProxy { return b.s.Atom(b.s.bondAtom1[b.index]) }

// Atom2 returns the second atom of the bond.
func (b BondProxy) Atom2() AtomProxy { return b.s.Atom(b.s.bondAtom2[b.index]) }

// Order returns the bond order.
func (b BondProxy) Order() uint8 { return b.s.bondOrder[b.index] }
