package label

import (
	"errors"
	"strconv"
	"testing"

	"github.com/gogpu/molrep/buffer"
)

var _ buffer.Layouter = (*Shaper)(nil)

func TestLayout(t *testing.T) {
	s, err := NewShaper()
	if err != nil {
		t.Fatalf("NewShaper() error: %v", err)
	}
	tests := []struct {
		text   string
		glyphs int
	}{
		{"", 0},
		{"CA", 2},
		{"3.80", 4},
		{"N 1", 2},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q, err := s.Layout(tt.text)
			if err != nil {
				t.Fatalf("Layout() error: %v", err)
			}
			if len(q) != tt.glyphs {
				t.Fatalf("Layout(%q) = %d quads, want %d", tt.text, len(q), tt.glyphs)
			}
			for i, g := range q {
				if g.X1 <= g.X0 || g.Y1 <= g.Y0 {
					t.Errorf("quad %d is empty: %+v", i, g)
				}
				if g.X1-g.X0 > 1 || g.Y1-g.Y0 > 1.5 {
					t.Errorf("quad %d is not in em units: %+v", i, g)
				}
			}
			for i := 1; i < len(q); i++ {
				if q[i].X0 <= q[i-1].X0 {
					t.Errorf("quad %d does not advance", i)
				}
			}
		})
	}
}

func TestLayoutAlignment(t *testing.T) {
	center, _ := NewShaper()
	left, _ := NewShaper(WithAlign(AlignLeft))
	right, _ := NewShaper(WithAlign(AlignRight))

	qc, _ := center.Layout("HH")
	ql, _ := left.Layout("HH")
	qr, _ := right.Layout("HH")

	if ql[0].X0 < 0 {
		t.Errorf("left aligned label starts at %v", ql[0].X0)
	}
	if qr[1].X1 > 0.01 {
		t.Errorf("right aligned label ends at %v", qr[1].X1)
	}
	mid := (qc[0].X0 + qc[1].X1) / 2
	if mid < -0.1 || mid > 0.1 {
		t.Errorf("centered label midpoint = %v", mid)
	}
}

func TestLayoutCache(t *testing.T) {
	s, _ := NewShaper()
	a, _ := s.Layout("OG1")
	b, _ := s.Layout("OG1")
	if &a[0] != &b[0] {
		t.Error("repeated layout was not cached")
	}
}

func TestLayoutCacheBounded(t *testing.T) {
	s, err := NewShaper(WithCacheSize(2))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Layout("1.00")
	_, _ = s.Layout("2.00")
	_, _ = s.Layout("1.00") // "2.00" is now least recent
	_, _ = s.Layout("3.00")
	if got := s.CacheLen(); got != 2 {
		t.Fatalf("CacheLen() = %d, want 2", got)
	}
	b, _ := s.Layout("1.00")
	if &a[0] != &b[0] {
		t.Error("recently used layout was evicted")
	}
	for i := 0; i < 100; i++ {
		_, _ = s.Layout(strconv.Itoa(i))
	}
	if got := s.CacheLen(); got != 2 {
		t.Errorf("CacheLen() after 100 labels = %d, want 2", got)
	}
}

func TestNormalization(t *testing.T) {
	s, _ := NewShaper()
	composed, _ := s.Layout("\u00c5")
	decomposed, _ := s.Layout("A\u030a")
	if len(composed) != len(decomposed) {
		t.Errorf("NFC and NFD forms lay out differently: %d vs %d quads", len(composed), len(decomposed))
	}
}

func TestBadFont(t *testing.T) {
	if _, err := NewShaper(WithFont([]byte("not a font"))); !errors.Is(err, ErrFont) {
		t.Errorf("NewShaper() error = %v, want ErrFont", err)
	}
}

func TestGridAtlas(t *testing.T) {
	a := NewGridAtlas(2)
	u0, v0, u1, v1 := a.Region(7)
	if u0 != 0 || v0 != 0 || u1 != 0.5 || v1 != 0.5 {
		t.Errorf("first region = %v %v %v %v", u0, v0, u1, v1)
	}
	u0, v0, _, _ = a.Region(9)
	if u0 != 0.5 || v0 != 0 {
		t.Errorf("second region = %v %v", u0, v0)
	}
	a.Region(7)
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	for g := uint32(100); g < 110; g++ {
		a.Region(g)
	}
	u0, v0, _, _ = a.Region(200)
	if u0 != 0.5 || v0 != 0.5 {
		t.Errorf("overflow region = %v %v, want last cell", u0, v0)
	}
}
