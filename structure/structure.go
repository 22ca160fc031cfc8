// Package structure provides columnar storage for molecular structures,
// read-only filtered views over them, and the data extraction routines
// representations use to fill attribute buffers.
//
// A Structure owns all per-atom columns. Views, atom proxies and bond
// proxies only reference rows by index; they are valid as long as the
// structure is not rebuilt.
package structure

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Structure errors.
var (
	// ErrEmptyStructure is returned when building a structure without atoms.
	ErrEmptyStructure = errors.New("structure: no atoms")

	// ErrAtomIndex is returned when a bond references a missing atom.
	ErrAtomIndex = errors.New("structure: atom index out of range")

	// ErrPositionCount is returned when a coordinate frame does not match the atom count.
	ErrPositionCount = errors.New("structure: position count mismatch")
)

// PolymerKind classifies the residues of a polymer chain.
type PolymerKind uint8

const (
	// PolymerNone marks ligands, ions and solvent.
	PolymerNone PolymerKind = iota
	// PolymerProtein marks amino-acid residues traced through CA.
	PolymerProtein
	// PolymerNucleic marks nucleotides traced through P.
	PolymerNucleic
)

// String returns the kind name.
func (k PolymerKind) String() string {
	switch k {
	case PolymerProtein:
		return "protein"
	case PolymerNucleic:
		return "nucleic"
	default:
		return "none"
	}
}

// Secondary structure codes stored per residue.
const (
	SSCoil  byte = 'c'
	SSHelix byte = 'h'
	SSSheet byte = 'e'
)

// Atom is the input record used by Builder.
type Atom struct {
	Name    string
	Element string
	ResName string
	ResNo   int
	Chain   string
	X, Y, Z float32
	// SS is the secondary structure code of the residue. Zero means coil.
	SS byte
}

type residue struct {
	atomOffset int
	atomCount  int
	resName    string
	resNo      int
	chain      string
	kind       PolymerKind
	ss         byte
	traceAtom  int // -1 when the residue has no trace atom
}

type polymerRange struct {
	residueStart int
	residueEnd   int // exclusive
	kind         PolymerKind
	chain        string
}

// Structure is the full dataset: per-atom columns, residues, bonds and
// polymer ranges.
type Structure struct {
	Name string

	x, y, z   []float32
	element   []string
	atomName  []string
	residueOf []int

	residues []residue
	polymers []polymerRange
	chains   []string

	bondAtom1 []int
	bondAtom2 []int
	bondOrder []uint8

	// generation increases on every coordinate or topology change so views
	// can detect that they need a refresh.
	generation uint64
}

// AtomCount returns the number of atoms.
func (s *Structure) AtomCount() int { return len(s.x) }

// BondCount returns the number of bonds.
func (s *Structure) BondCount() int { return len(s.bondAtom1) }

// ResidueCount returns the number of residues.
func (s *Structure) ResidueCount() int { return len(s.residues) }

// Chains returns chain identifiers in first-appearance order.
func (s *Structure) Chains() []string { return s.chains }

// Generation returns a counter bumped on every coordinate or topology change.
func (s *Structure) Generation() uint64 { return s.generation }

// Atom returns a proxy for the atom at index i.
func (s *Structure) Atom(i int) AtomProxy { return AtomProxy{s: s, index: i} }

// Bond returns a proxy for the bond at index i.
func (s *Structure) Bond(i int) BondProxy { return BondProxy{s: s, index: i} }

// Position returns the coordinates of atom i.
func (s *Structure) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{s.x[i], s.y[i], s.z[i]}
}

// SetPositions replaces all coordinates with a flat x,y,z array, as read
// from a trajectory frame. Topology is unchanged.
func (s *Structure) SetPositions(coords []float32) error {
	if len(coords) != 3*len(s.x) {
		return fmt.Errorf("%w: got %d values for %d atoms", ErrPositionCount, len(coords), len(s.x))
	}
	for i := range s.x {
		s.x[i] = coords[3*i]
		s.y[i] = coords[3*i+1]
		s.z[i] = coords[3*i+2]
	}
	s.generation++
	return nil
}

// AddBond appends a bond between atoms a1 and a2.
func (s *Structure) AddBond(a1, a2 int, order uint8) error {
	n := len(s.x)
	if a1 < 0 || a1 >= n || a2 < 0 || a2 >= n || a1 == a2 {
		return fmt.Errorf("%w: bond %d-%d", ErrAtomIndex, a1, a2)
	}
	s.bondAtom1 = append(s.bondAtom1, a1)
	s.bondAtom2 = append(s.bondAtom2, a2)
	s.bondOrder = append(s.bondOrder, order)
	s.generation++
	return nil
}

// Builder accumulates atoms and bonds and produces an immutable-topology
// Structure.
type Builder struct {
	name  string
	atoms []Atom
	bonds [][3]int
}

// NewBuilder creates a builder for a structure with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddAtom appends an atom and returns its index.
func (b *Builder) AddAtom(a Atom) int {
	b.atoms = append(b.atoms, a)
	return len(b.atoms) - 1
}

// AddBond records a bond between two atom indices.
func (b *Builder) AddBond(a1, a2 int, order uint8) {
	b.bonds = append(b.bonds, [3]int{a1, a2, int(order)})
}

// Build creates the structure. Residues are formed from consecutive atoms
// sharing chain, residue number and residue name; polymers are maximal
// runs of traced residues of the same kind within a chain whose trace atoms
// are within bonding distance of each other.
func (b *Builder) Build() (*Structure, error) {
	if len(b.atoms) == 0 {
		return nil, ErrEmptyStructure
	}
	n := len(b.atoms)
	s := &Structure{
		Name:      b.name,
		x:         make([]float32, n),
		y:         make([]float32, n),
		z:         make([]float32, n),
		element:   make([]string, n),
		atomName:  make([]string, n),
		residueOf: make([]int, n),
	}
	seenChain := make(map[string]bool)
	for i, a := range b.atoms {
		s.x[i], s.y[i], s.z[i] = a.X, a.Y, a.Z
		s.element[i] = normalizeElement(a.Element, a.Name)
		s.atomName[i] = a.Name

		if i == 0 || !sameResidue(b.atoms[i-1], a) {
			ss := a.SS
			if ss == 0 {
				ss = SSCoil
			}
			s.residues = append(s.residues, residue{
				atomOffset: i,
				resName:    a.ResName,
				resNo:      a.ResNo,
				chain:      a.Chain,
				ss:         ss,
				traceAtom:  -1,
			})
		}
		ri := len(s.residues) - 1
		r := &s.residues[ri]
		r.atomCount++
		s.residueOf[i] = ri
		if !seenChain[a.Chain] {
			seenChain[a.Chain] = true
			s.chains = append(s.chains, a.Chain)
		}
	}
	for ri := range s.residues {
		classifyResidue(s, &s.residues[ri])
	}
	s.polymers = findPolymers(s)

	for _, bd := range b.bonds {
		if err := s.AddBond(bd[0], bd[1], uint8(bd[2])); err != nil {
			return nil, err
		}
	}
	s.generation = 0
	return s, nil
}

func sameResidue(a, b Atom) bool {
	return a.Chain == b.Chain && a.ResNo == b.ResNo && a.ResName == b.ResName
}

// classifyResidue sets the polymer kind and trace atom of a residue.
func classifyResidue(s *Structure, r *residue) {
	for i := r.atomOffset; i < r.atomOffset+r.atomCount; i++ {
		switch s.atomName[i] {
		case "CA":
			if s.element[i] == "C" {
				r.kind = PolymerProtein
				r.traceAtom = i
				return
			}
		case "P":
			r.kind = PolymerNucleic
			r.traceAtom = i
			return
		}
	}
}

// maxTraceGap is the largest trace-atom distance still considered a
// continuous backbone (CA-CA is 3.8 Å, P-P up to about 7 Å).
const maxTraceGap = 7.5

func findPolymers(s *Structure) []polymerRange {
	var out []polymerRange
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, polymerRange{
				residueStart: start,
				residueEnd:   end,
				kind:         s.residues[start].kind,
				chain:        s.residues[start].chain,
			})
		}
		start = -1
	}
	for ri := range s.residues {
		r := s.residues[ri]
		if r.kind == PolymerNone || r.traceAtom < 0 {
			flush(ri)
			continue
		}
		if start >= 0 {
			prev := s.residues[ri-1]
			gap := s.Position(r.traceAtom).Sub(s.Position(prev.traceAtom)).Len()
			if prev.chain != r.chain || prev.kind != r.kind || gap > maxTraceGap {
				flush(ri)
			}
		}
		if start < 0 {
			start = ri
		}
	}
	flush(len(s.residues))
	return out
}
