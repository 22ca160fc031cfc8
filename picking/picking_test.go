package picking

import (
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	tests := []uint32{1, 255, 256, 0x123456, MaxID}
	for _, id := range tests {
		var c [3]float32
		EncodeColor(id, c[:])
		r := uint8(c[0]*255 + 0.5)
		g := uint8(c[1]*255 + 0.5)
		b := uint8(c[2]*255 + 0.5)
		if got := DecodeRGB(r, g, b); got != id {
			t.Errorf("round trip of %#x = %#x", id, got)
		}
	}
}

func TestColors(t *testing.T) {
	c := Colors(0x0100fe, 3)
	if len(c) != 9 {
		t.Fatalf("len = %d, want 9", len(c))
	}
	// 0x0100ff and 0x010100 straddle a byte boundary.
	if c[5] != 1 || c[7] != float32(1)/255 || c[8] != 0 {
		t.Errorf("colors = %v", c)
	}
}

func TestPoolAddLookup(t *testing.T) {
	pool := NewPool()
	atoms := NewIndexPicker(KindAtom, []int{10, 11, 12})
	bonds := NewIndexPicker(KindBond, []int{7, 8})

	a, err := pool.Add(atoms)
	if err != nil || a != 1 {
		t.Fatalf("Add(atoms) = %d, %v; want 1", a, err)
	}
	b, err := pool.Add(bonds)
	if err != nil || b != 4 {
		t.Fatalf("Add(bonds) = %d, %v; want 4", b, err)
	}

	tests := []struct {
		id     uint32
		ok     bool
		kind   Kind
		slot   int
		entity int
	}{
		{0, false, 0, 0, 0},
		{1, true, KindAtom, 0, 10},
		{3, true, KindAtom, 2, 12},
		{4, true, KindBond, 0, 7},
		{5, true, KindBond, 1, 8},
		{6, false, 0, 0, 0},
	}
	for _, tt := range tests {
		hit, ok := pool.Lookup(tt.id)
		if ok != tt.ok {
			t.Errorf("Lookup(%d) ok = %v, want %v", tt.id, ok, tt.ok)
			continue
		}
		if ok && (hit.Kind != tt.kind || hit.Slot != tt.slot || hit.Entity != tt.entity) {
			t.Errorf("Lookup(%d) = %+v", tt.id, hit)
		}
	}

	hit, ok := pool.Resolve(0, 0, 5)
	if !ok || hit.Picker != bonds {
		t.Errorf("Resolve(0,0,5) = %+v, %v", hit, ok)
	}
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool()
	first := NewIndexPicker(KindAtom, make([]int, 4))
	second := NewIndexPicker(KindAtom, make([]int, 4))
	pool.Add(first)
	pool.Add(second)
	pool.Remove(first)
	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pool.Len())
	}
	if _, ok := pool.Lookup(2); ok {
		t.Error("removed range still resolves")
	}

	small := NewIndexPicker(KindDistance, make([]int, 2))
	start, err := pool.Add(small)
	if err != nil || start != 1 {
		t.Errorf("Add(small) = %d, %v; want reuse of 1", start, err)
	}
	big := NewIndexPicker(KindAxis, make([]int, 3))
	start, _ = pool.Add(big)
	if start != 9 {
		t.Errorf("Add(big) = %d, want 9 after the last range", start)
	}
}

func TestPoolExhausted(t *testing.T) {
	pool := NewPool()
	huge := sizedPicker(MaxID)
	if _, err := pool.Add(huge); err != nil {
		t.Fatalf("Add(MaxID) error: %v", err)
	}
	if _, err := pool.Add(NewIndexPicker(KindAtom, []int{0})); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Add() error = %v, want ErrPoolExhausted", err)
	}
}

func TestKindString(t *testing.T) {
	if KindBond.String() != "bond" || Kind(9).String() != "Kind(9)" {
		t.Errorf("String() = %q, %q", KindBond.String(), Kind(9).String())
	}
}

// sizedPicker claims n slots without backing storage.
type sizedPicker int

func (p sizedPicker) Kind() Kind     { return KindAtom }
func (p sizedPicker) Len() int       { return int(p) }
func (p sizedPicker) Entity(int) int { return 0 }
