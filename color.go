package molrep

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Color is an opaque RGB color with components in [0, 1].
// Components are float32 because colors end up in GPU attribute arrays.
type Color struct {
	R, G, B float32
}

// RGB creates a color from components in [0, 1].
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b}
}

// HexInt creates a color from a packed 0xRRGGBB integer.
func HexInt(v uint32) Color {
	return Color{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
	}
}

// Int packs the color into a 0xRRGGBB integer.
func (c Color) Int() uint32 {
	return uint32(clamp255(c.R*255+0.5))<<16 |
		uint32(clamp255(c.G*255+0.5))<<8 |
		uint32(clamp255(c.B*255+0.5))
}

// String returns the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Int())
}

// ParseColor parses a named color, "#RGB", "#RRGGBB" or "0xRRGGBB".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")

	var r, g, b uint32
	switch len(hex) {
	case 3:
		if !parseHex(hex[0:1], &r) || !parseHex(hex[1:2], &g) || !parseHex(hex[2:3], &b) {
			return Color{}, fmt.Errorf("molrep: invalid color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if !parseHex(hex[0:2], &r) || !parseHex(hex[2:4], &g) || !parseHex(hex[4:6], &b) {
			return Color{}, fmt.Errorf("molrep: invalid color %q", s)
		}
	default:
		return Color{}, fmt.Errorf("molrep: invalid color %q", s)
	}
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}, nil
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseHex accumulates hex digits of s into val and reports whether all
// digits were valid.
func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

// Lerp performs linear interpolation between two colors.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
	}
}

// HSL creates a color from HSL values.
// h is hue [0, 360), s is saturation [0, 1], l is lightness [0, 1].
func HSL(h, s, l float32) Color {
	h = math32.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math32.Abs(2*l-1)) * s
	x := c * (1 - math32.Abs(math32.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float32
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB(r+m, g+m, b+m)
}

func clamp255(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors
var (
	Black   = RGB(0, 0, 0)
	White   = RGB(1, 1, 1)
	Red     = RGB(1, 0, 0)
	Green   = RGB(0, 1, 0)
	Blue    = RGB(0, 0, 1)
	Yellow  = RGB(1, 1, 0)
	Cyan    = RGB(0, 1, 1)
	Magenta = RGB(1, 0, 1)
	Grey    = HexInt(0x909090)
)

var namedColors = map[string]Color{
	"black":   Black,
	"white":   White,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"yellow":  Yellow,
	"cyan":    Cyan,
	"magenta": Magenta,
	"grey":    Grey,
	"gray":    Grey,
	"orange":  HexInt(0xffa500),
	"skyblue": HexInt(0x87ceeb),
}
