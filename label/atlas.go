package label

import "sync"

// Atlas maps glyph ids to texture regions. Rasterizing glyphs into the
// atlas texture is left to the renderer; the atlas only assigns regions.
type Atlas interface {
	Region(glyph uint32) (u0, v0, u1, v1 float32)
}

// GridAtlas assigns glyphs to cells of a square grid in first-use order.
// When the grid is full, further glyphs share the last cell.
type GridAtlas struct {
	cells int

	mu   sync.Mutex
	slot map[uint32]int
}

// NewGridAtlas creates an atlas with cells×cells regions.
func NewGridAtlas(cells int) *GridAtlas {
	return &GridAtlas{cells: max(cells, 1), slot: make(map[uint32]int)}
}

// Region implements Atlas.
func (a *GridAtlas) Region(glyph uint32) (u0, v0, u1, v1 float32) {
	a.mu.Lock()
	i, ok := a.slot[glyph]
	if !ok {
		i = min(len(a.slot), a.cells*a.cells-1)
		a.slot[glyph] = i
	}
	a.mu.Unlock()

	step := 1 / float32(a.cells)
	u0 = float32(i%a.cells) * step
	v0 = float32(i/a.cells) * step
	return u0, v0, u0 + step, v0 + step
}

// Len returns the number of glyphs seen.
func (a *GridAtlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slot)
}
