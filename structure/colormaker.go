package structure

import (
	"fmt"

	"github.com/gogpu/molrep"
)

// Color scheme names.
const (
	SchemeElement      = "element"
	SchemeUniform      = "uniform"
	SchemeChainID      = "chainid"
	SchemeResidueIndex = "residueindex"
)

// ColorParams selects a color scheme.
type ColorParams struct {
	Scheme string
	// Value is the color of the uniform scheme and the carbon color of the
	// element scheme when non-zero.
	Value molrep.Color
}

// ColorMaker assigns colors to atoms.
type ColorMaker interface {
	AtomColor(a AtomProxy) molrep.Color
}

// ValidColorScheme reports whether name is a known scheme. The empty name
// selects the element scheme.
func ValidColorScheme(name string) bool {
	switch name {
	case "", SchemeElement, SchemeUniform, SchemeChainID, SchemeResidueIndex:
		return true
	}
	return false
}

// NewColorMaker creates the color maker for a scheme.
func NewColorMaker(s *Structure, p ColorParams) (ColorMaker, error) {
	switch p.Scheme {
	case "", SchemeElement:
		return elementColorMaker{carbon: p.Value}, nil
	case SchemeUniform:
		return uniformColorMaker{c: p.Value}, nil
	case SchemeChainID:
		idx := make(map[string]int, len(s.chains))
		for i, c := range s.chains {
			idx[c] = i
		}
		return chainColorMaker{index: idx, n: len(s.chains)}, nil
	case SchemeResidueIndex:
		return residueIndexColorMaker{n: s.ResidueCount()}, nil
	default:
		return nil, fmt.Errorf("structure: unknown color scheme %q", p.Scheme)
	}
}

type elementColorMaker struct{ carbon molrep.Color }

func (m elementColorMaker) AtomColor(a AtomProxy) molrep.Color {
	if a.Element() == "C" && m.carbon != (molrep.Color{}) {
		return m.carbon
	}
	return ElementColor(a.Element())
}

type uniformColorMaker struct{ c molrep.Color }

func (m uniformColorMaker) AtomColor(AtomProxy) molrep.Color { return m.c }

type chainColorMaker struct {
	index map[string]int
	n     int
}

func (m chainColorMaker) AtomColor(a AtomProxy) molrep.Color {
	if m.n == 0 {
		return molrep.Grey
	}
	return molrep.HSL(360*float32(m.index[a.Chain()])/float32(m.n), 0.7, 0.5)
}

// residueIndexColorMaker runs a blue-to-red rainbow along residues.
type residueIndexColorMaker struct{ n int }

func (m residueIndexColorMaker) AtomColor(a AtomProxy) molrep.Color {
	if m.n <= 1 {
		return molrep.HSL(240, 1, 0.5)
	}
	t := float32(a.ResidueIndex()) / float32(m.n-1)
	return molrep.HSL(240*(1-t), 1, 0.5)
}
