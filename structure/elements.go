package structure

import (
	"strings"

	"github.com/gogpu/molrep"
)

type elementInfo struct {
	vdw      float32
	covalent float32
	color    uint32
}

// elements holds radii in Å and CPK-style colors.
var elements = map[string]elementInfo{
	"H":  {vdw: 1.1, covalent: 0.31, color: 0xffffff},
	"C":  {vdw: 1.7, covalent: 0.76, color: 0x909090},
	"N":  {vdw: 1.55, covalent: 0.71, color: 0x3050f8},
	"O":  {vdw: 1.52, covalent: 0.66, color: 0xff0d0d},
	"F":  {vdw: 1.47, covalent: 0.57, color: 0x90e050},
	"P":  {vdw: 1.8, covalent: 1.07, color: 0xff8000},
	"S":  {vdw: 1.8, covalent: 1.05, color: 0xffff30},
	"CL": {vdw: 1.75, covalent: 1.02, color: 0x1ff01f},
	"NA": {vdw: 2.27, covalent: 1.66, color: 0xab5cf2},
	"MG": {vdw: 1.73, covalent: 1.41, color: 0x8aff00},
	"CA": {vdw: 2.31, covalent: 1.76, color: 0x3dff00},
	"FE": {vdw: 2.0, covalent: 1.32, color: 0xe06633},
	"ZN": {vdw: 1.39, covalent: 1.22, color: 0x7d80b0},
}

var defaultElement = elementInfo{vdw: 2.0, covalent: 1.6, color: 0xff1493}

func lookupElement(e string) elementInfo {
	if info, ok := elements[e]; ok {
		return info
	}
	return defaultElement
}

// ElementColor returns the CPK color for an element symbol.
func ElementColor(e string) molrep.Color {
	return molrep.HexInt(lookupElement(strings.ToUpper(e)).color)
}

// normalizeElement upper-cases the element or guesses it from the first
// letter of the atom name.
func normalizeElement(element, name string) string {
	e := strings.ToUpper(strings.TrimSpace(element))
	if e != "" {
		return e
	}
	name = strings.TrimLeft(strings.TrimSpace(name), "0123456789")
	if name == "" {
		return "X"
	}
	return strings.ToUpper(name[:1])
}
