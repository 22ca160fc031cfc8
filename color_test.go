package molrep

import "testing"

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"#ff0000", 0xff0000},
		{"0x00ff00", 0x00ff00},
		{"#00f", 0x0000ff},
		{"White", 0xffffff},
		{"  skyblue ", 0x87ceeb},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q) error: %v", tt.in, err)
			}
			if got := c.Int(); got != tt.want {
				t.Errorf("ParseColor(%q).Int() = %06x, want %06x", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#gg0000", "notacolor"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) expected error", in)
		}
	}
}

func TestHexIntRoundTrip(t *testing.T) {
	for _, v := range []uint32{0x000000, 0xffffff, 0x123456, 0x909090} {
		if got := HexInt(v).Int(); got != v {
			t.Errorf("HexInt(%06x).Int() = %06x", v, got)
		}
	}
}

func TestHSL(t *testing.T) {
	if got := HSL(0, 1, 0.5).Int(); got != 0xff0000 {
		t.Errorf("HSL(0,1,0.5) = %06x, want ff0000", got)
	}
	if got := HSL(120, 1, 0.5).Int(); got != 0x00ff00 {
		t.Errorf("HSL(120,1,0.5) = %06x, want 00ff00", got)
	}
	if got := HSL(-120, 1, 0.5).Int(); got != 0x0000ff {
		t.Errorf("HSL(-120,1,0.5) = %06x, want 0000ff", got)
	}
}

func TestColorString(t *testing.T) {
	if got := Red.String(); got != "#ff0000" {
		t.Errorf("Red.String() = %q", got)
	}
}
