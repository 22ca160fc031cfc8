package structure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSelectionSyntax is returned for malformed selection expressions.
var ErrSelectionSyntax = errors.New("structure: selection syntax error")

// Selection decides whether an atom belongs to a subset.
type Selection interface {
	Match(a AtomProxy) bool
}

// SelectionFunc adapts a function to the Selection interface.
type SelectionFunc func(a AtomProxy) bool

// Match implements Selection.
func (f SelectionFunc) Match(a AtomProxy) bool { return f(a) }

var selectAll = SelectionFunc(func(AtomProxy) bool { return true })

// Compile parses a selection expression.
//
// The supported language is intentionally small:
//
//	*  all                   every atom
//	protein nucleic polymer  residue kinds
//	hetero helix sheet       non-polymer residues, secondary structure
//	hydrogen                 element H
//	@0,5,7                   atom indices
//	_FE                      element
//	10  10-20  ALA           residue number, range or name
//	10:A.CA  :B  .CA         residue, chain and atom name qualifiers
//	not, and, or, ( )        boolean composition; juxtaposition means and
func Compile(expr string) (Selection, error) {
	toks := tokenize(expr)
	if len(toks) == 0 {
		return selectAll, nil
	}
	p := &selParser{toks: toks}
	sel, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %q in %q", ErrSelectionSyntax, p.toks[p.pos], expr)
	}
	return sel, nil
}

func tokenize(expr string) []string {
	expr = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(expr)
	return strings.Fields(expr)
}

type selParser struct {
	toks []string
	pos  int
}

func (p *selParser) peek() string {
	if p.pos < len(p.toks) {
		return strings.ToLower(p.toks[p.pos])
	}
	return ""
}

func (p *selParser) parseOr() (Selection, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = SelectionFunc(func(a AtomProxy) bool { return l.Match(a) || r.Match(a) })
	}
	return left, nil
}

func (p *selParser) parseAnd() (Selection, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok == "" || tok == "or" || tok == ")" {
			return left, nil
		}
		if tok == "and" {
			p.pos++
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = SelectionFunc(func(a AtomProxy) bool { return l.Match(a) && r.Match(a) })
	}
}

func (p *selParser) parseNot() (Selection, error) {
	switch p.peek() {
	case "":
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSelectionSyntax)
	case "not":
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return SelectionFunc(func(a AtomProxy) bool { return !inner.Match(a) }), nil
	case "(":
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("%w: missing )", ErrSelectionSyntax)
		}
		p.pos++
		return inner, nil
	case ")", "and", "or":
		return nil, fmt.Errorf("%w: unexpected %q", ErrSelectionSyntax, p.toks[p.pos])
	}
	tok := p.toks[p.pos]
	p.pos++
	return parseTerm(tok)
}

func parseTerm(tok string) (Selection, error) {
	switch strings.ToLower(tok) {
	case "*", "all":
		return selectAll, nil
	case "protein":
		return kindSelection(PolymerProtein), nil
	case "nucleic":
		return kindSelection(PolymerNucleic), nil
	case "hetero":
		return kindSelection(PolymerNone), nil
	case "polymer":
		return SelectionFunc(func(a AtomProxy) bool { return a.PolymerKind() != PolymerNone }), nil
	case "helix":
		return SelectionFunc(func(a AtomProxy) bool { return a.SS() == SSHelix }), nil
	case "sheet":
		return SelectionFunc(func(a AtomProxy) bool { return a.SS() == SSSheet }), nil
	case "hydrogen":
		return SelectionFunc(func(a AtomProxy) bool { return a.Element() == "H" }), nil
	}

	switch tok[0] {
	case '@':
		return parseIndexList(tok[1:])
	case '_':
		el := strings.ToUpper(tok[1:])
		if el == "" {
			return nil, fmt.Errorf("%w: empty element in %q", ErrSelectionSyntax, tok)
		}
		return SelectionFunc(func(a AtomProxy) bool { return a.Element() == el }), nil
	}
	return parseAtomSpec(tok)
}

func kindSelection(k PolymerKind) Selection {
	return SelectionFunc(func(a AtomProxy) bool { return a.PolymerKind() == k })
}

func parseIndexList(s string) (Selection, error) {
	set := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("%w: bad atom index %q", ErrSelectionSyntax, part)
		}
		set[i] = struct{}{}
	}
	return SelectionFunc(func(a AtomProxy) bool {
		_, ok := set[a.Index()]
		return ok
	}), nil
}

// parseAtomSpec parses [resno|resno-resno|RESNAME][:chain][.atomname].
func parseAtomSpec(tok string) (Selection, error) {
	var atomName, chain string
	hasAtom, hasChain := false, false
	if i := strings.IndexByte(tok, '.'); i >= 0 {
		atomName, hasAtom = strings.ToUpper(tok[i+1:]), true
		tok = tok[:i]
	}
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		chain, hasChain = tok[i+1:], true
		tok = tok[:i]
	}
	if (hasAtom && atomName == "") || (hasChain && chain == "") {
		return nil, fmt.Errorf("%w: empty qualifier", ErrSelectionSyntax)
	}

	var res func(a AtomProxy) bool
	switch {
	case tok == "":
	case isDigits(tok) || (tok[0] == '-' && isDigits(tok[1:])):
		n, _ := strconv.Atoi(tok)
		res = func(a AtomProxy) bool { return a.ResNo() == n }
	case strings.Contains(tok[1:], "-"):
		i := strings.Index(tok[1:], "-") + 1
		lo, err1 := strconv.Atoi(tok[:i])
		hi, err2 := strconv.Atoi(tok[i+1:])
		if err1 != nil || err2 != nil || lo > hi {
			return nil, fmt.Errorf("%w: bad residue range %q", ErrSelectionSyntax, tok)
		}
		res = func(a AtomProxy) bool { n := a.ResNo(); return n >= lo && n <= hi }
	case isLetters(tok):
		name := strings.ToUpper(tok)
		res = func(a AtomProxy) bool { return a.ResName() == name }
	default:
		return nil, fmt.Errorf("%w: bad term %q", ErrSelectionSyntax, tok)
	}
	if res == nil && !hasAtom && !hasChain {
		return nil, fmt.Errorf("%w: empty term", ErrSelectionSyntax)
	}

	return SelectionFunc(func(a AtomProxy) bool {
		if res != nil && !res(a) {
			return false
		}
		if hasChain && a.Chain() != chain {
			return false
		}
		if hasAtom && a.AtomName() != atomName {
			return false
		}
		return true
	}), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			if s[i] < '0' || s[i] > '9' || i == 0 {
				return false
			}
		}
	}
	return s != ""
}
