// Package picking encodes entity identities as colors and resolves rendered
// picking pixels back to the entity that produced them.
//
// Every pickable buffer gets a contiguous range of global ids from a Pool.
// The id of slot i is rangeStart+i, written into the buffer's picking color
// channel as a 24-bit RGB value. An external hit-testing pass reads the
// pixel under the cursor and hands it to Pool.Resolve.
package picking

import (
	"errors"
	"fmt"
	"sort"
)

// MaxID is the largest id representable in a 24-bit picking color.
// Id 0 is reserved for background.
const MaxID = 1<<24 - 1

// ErrPoolExhausted is returned when the pool has no room for a range.
var ErrPoolExhausted = errors.New("picking: id pool exhausted")

// EncodeColor writes the picking color for id into dst as three float32
// components in [0, 1].
func EncodeColor(id uint32, dst []float32) {
	dst[0] = float32((id>>16)&0xff) / 255
	dst[1] = float32((id>>8)&0xff) / 255
	dst[2] = float32(id&0xff) / 255
}

// DecodeRGB returns the id encoded by an 8-bit RGB pixel.
func DecodeRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Colors fills a new array with picking colors for ids offset..offset+n-1.
func Colors(offset uint32, n int) []float32 {
	out := make([]float32, 3*n)
	for i := 0; i < n; i++ {
		EncodeColor(offset+uint32(i), out[3*i:])
	}
	return out
}

// Kind names the entity family a picker resolves to.
type Kind uint8

const (
	KindAtom Kind = iota + 1
	KindBond
	KindDistance
	KindAxis
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindBond:
		return "bond"
	case KindDistance:
		return "distance"
	case KindAxis:
		return "axis"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Picker maps buffer-local slot indices to entities.
type Picker interface {
	Kind() Kind
	Len() int
	// Entity returns the structure index of the entity behind slot i.
	Entity(i int) int
}

// IndexPicker is a Picker backed by an index slice.
type IndexPicker struct {
	kind    Kind
	indices []int
}

// NewIndexPicker creates a picker whose slot i resolves to indices[i].
func NewIndexPicker(kind Kind, indices []int) *IndexPicker {
	return &IndexPicker{kind: kind, indices: indices}
}

// Kind implements Picker.
func (p *IndexPicker) Kind() Kind { return p.kind }

// Len implements Picker.
func (p *IndexPicker) Len() int { return len(p.indices) }

// Entity implements Picker.
func (p *IndexPicker) Entity(i int) int { return p.indices[i] }

// Hit is the result of resolving a picking pixel.
type Hit struct {
	Picker Picker
	Kind   Kind
	// Slot is the buffer-local index.
	Slot int
	// Entity is the structure index of the entity.
	Entity int
}

type poolEntry struct {
	start  uint32
	picker Picker
}

// Pool hands out contiguous global id ranges to pickers.
// A Pool has a single owner and is not safe for concurrent use.
type Pool struct {
	entries []poolEntry // sorted by start
}

// NewPool creates an empty pool.
func NewPool() *Pool { return &Pool{} }

// Add reserves len(p) ids for picker p and returns the first id.
// Freed ranges are reused first-fit.
func (pl *Pool) Add(p Picker) (uint32, error) {
	need := uint32(p.Len())
	next := uint32(1)
	at := len(pl.entries)
	for i, e := range pl.entries {
		if e.start-next >= need {
			at = i
			break
		}
		next = e.start + uint32(e.picker.Len())
	}
	if at == len(pl.entries) && uint64(next)+uint64(need) > MaxID+1 {
		return 0, fmt.Errorf("%w: need %d ids", ErrPoolExhausted, need)
	}
	pl.entries = append(pl.entries, poolEntry{})
	copy(pl.entries[at+1:], pl.entries[at:])
	pl.entries[at] = poolEntry{start: next, picker: p}
	return next, nil
}

// Remove releases the range held by picker p.
func (pl *Pool) Remove(p Picker) {
	for i, e := range pl.entries {
		if e.picker == p {
			pl.entries = append(pl.entries[:i], pl.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered pickers.
func (pl *Pool) Len() int { return len(pl.entries) }

// Lookup resolves a global id.
func (pl *Pool) Lookup(id uint32) (Hit, bool) {
	if id == 0 {
		return Hit{}, false
	}
	i := sort.Search(len(pl.entries), func(i int) bool { return pl.entries[i].start > id }) - 1
	if i < 0 {
		return Hit{}, false
	}
	e := pl.entries[i]
	slot := int(id - e.start)
	if slot >= e.picker.Len() {
		return Hit{}, false
	}
	return Hit{Picker: e.picker, Kind: e.picker.Kind(), Slot: slot, Entity: e.picker.Entity(slot)}, true
}

// Resolve resolves an 8-bit RGB picking pixel.
func (pl *Pool) Resolve(r, g, b uint8) (Hit, bool) {
	return pl.Lookup(DecodeRGB(r, g, b))
}
