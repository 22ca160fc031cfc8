package structure

import "fmt"

// View is a read-only filtered subset of a structure selected by an
// expression. Atoms and bonds are iterated in structure order, which is
// stable across refreshes as long as the selection matches the same rows.
type View struct {
	s    *Structure
	expr string
	sel  Selection

	atoms []int   // structure atom indices in ascending order
	local []int32 // structure atom index -> view-local index, -1 if absent
	bonds []int   // structure bond indices with both atoms in the view

	generation uint64
}

// View creates a filtered view of the structure.
func (s *Structure) View(expr string) (*View, error) {
	sel, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	v := &View{s: s, expr: expr, sel: sel}
	v.rebuild()
	return v, nil
}

// Structure returns the underlying structure.
func (v *View) Structure() *Structure { return v.s }

// Expression returns the selection expression of the view.
func (v *View) Expression() string { return v.expr }

// SetExpression changes the selection and refreshes the view.
func (v *View) SetExpression(expr string) error {
	sel, err := Compile(expr)
	if err != nil {
		return fmt.Errorf("structure: view %q: %w", expr, err)
	}
	v.expr, v.sel = expr, sel
	v.rebuild()
	return nil
}

// Refresh re-evaluates the selection against the current structure.
func (v *View) Refresh() { v.rebuild() }

// Stale reports whether the structure changed since the last refresh.
func (v *View) Stale() bool { return v.generation != v.s.generation }

func (v *View) rebuild() {
	s := v.s
	n := s.AtomCount()
	v.atoms = v.atoms[:0]
	if cap(v.local) < n {
		v.local = make([]int32, n)
	}
	v.local = v.local[:n]
	for i := 0; i < n; i++ {
		if v.sel.Match(s.Atom(i)) {
			v.local[i] = int32(len(v.atoms))
			v.atoms = append(v.atoms, i)
		} else {
			v.local[i] = -1
		}
	}
	v.bonds = v.bonds[:0]
	for b := range s.bondAtom1 {
		if v.local[s.bondAtom1[b]] >= 0 && v.local[s.bondAtom2[b]] >= 0 {
			v.bonds = append(v.bonds, b)
		}
	}
	v.generation = s.generation
}

// AtomCount returns the number of atoms in the view.
func (v *View) AtomCount() int { return len(v.atoms) }

// BondCount returns the number of bonds with both atoms in the view.
func (v *View) BondCount() int { return len(v.bonds) }

// Atom returns the i-th atom of the view.
func (v *View) Atom(i int) AtomProxy { return v.s.Atom(v.atoms[i]) }

// AtomIndices returns the structure indices of the view's atoms. The slice
// is owned by the view.
func (v *View) AtomIndices() []int { return v.atoms }

// Contains reports whether the structure atom index is part of the view.
func (v *View) Contains(atomIndex int) bool {
	return atomIndex >= 0 && atomIndex < len(v.local) && v.local[atomIndex] >= 0
}

// EachAtom calls fn for every atom in view order.
func (v *View) EachAtom(fn func(a AtomProxy)) {
	for _, i := range v.atoms {
		fn(v.s.Atom(i))
	}
}

// EachBond calls fn for every bond in view order.
func (v *View) EachBond(fn func(b BondProxy)) {
	for _, i := range v.bonds {
		fn(v.s.Bond(i))
	}
}

// EntityIndices resolves a selection expression against the view and
// returns the matching structure atom indices in view order. A malformed
// expression or no match yields an empty result; it never fails.
func (v *View) EntityIndices(expr string) []int {
	sel, err := Compile(expr)
	if err != nil {
		return nil
	}
	var out []int
	for _, i := range v.atoms {
		if sel.Match(v.s.Atom(i)) {
			out = append(out, i)
		}
	}
	return out
}
