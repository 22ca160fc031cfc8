package structure

import "github.com/go-gl/mathgl/mgl32"

// Polymer is a contiguous run of traced residues of one kind within a
// chain, restricted to the residues whose trace atom is part of a view.
type Polymer struct {
	s            *Structure
	index        int
	residueStart int
	residueEnd   int
	kind         PolymerKind
	chain        string
}

// Index returns the position of the polymer in view iteration order.
func (p Polymer) Index() int { return p.index }

// Kind returns the polymer kind.
func (p Polymer) Kind() PolymerKind { return p.kind }

// Chain returns the chain identifier.
func (p Polymer) Chain() string { return p.chain }

// ResidueCount returns the number of residues.
func (p Polymer) ResidueCount() int { return p.residueEnd - p.residueStart }

// ResidueStart returns the structure index of the first residue.
func (p Polymer) ResidueStart() int { return p.residueStart }

// TraceAtom returns the trace atom of the i-th residue of the polymer.
func (p Polymer) TraceAtom(i int) AtomProxy {
	return p.s.Atom(p.s.residues[p.residueStart+i].traceAtom)
}

// SS returns the secondary structure code of the i-th residue.
func (p Polymer) SS(i int) byte { return p.s.residues[p.residueStart+i].ss }

// TracePositions returns the trace atom positions in residue order.
func (p Polymer) TracePositions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, p.ResidueCount())
	for i := range out {
		out[i] = p.TraceAtom(i).Position()
	}
	return out
}

// EachPolymer calls fn for every polymer of the view in structure order.
// A structural polymer is split into several view polymers where the
// selection leaves gaps in its trace.
func (v *View) EachPolymer(fn func(p Polymer)) {
	s := v.s
	idx := 0
	for _, pr := range s.polymers {
		start := -1
		emit := func(end int) {
			if start < 0 {
				return
			}
			fn(Polymer{
				s:            s,
				index:        idx,
				residueStart: start,
				residueEnd:   end,
				kind:         pr.kind,
				chain:        pr.chain,
			})
			idx++
			start = -1
		}
		for ri := pr.residueStart; ri < pr.residueEnd; ri++ {
			if v.Contains(s.residues[ri].traceAtom) {
				if start < 0 {
					start = ri
				}
				continue
			}
			emit(ri)
		}
		emit(pr.residueEnd)
	}
}

// PolymerCount returns the number of polymers EachPolymer visits.
func (v *View) PolymerCount() int {
	n := 0
	v.EachPolymer(func(Polymer) { n++ })
	return n
}
