// Package label lays out short label strings (atom names, distances) as
// glyph quads for text buffers.
//
// Text is NFC-normalized and shaped with go-text/typesetting's HarfBuzz
// port. Quads are expressed in em units relative to the label anchor so
// that the label size can change without a new layout.
package label

import (
	"bytes"
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/molrep/buffer"
)

// ErrFont is returned when the font data cannot be parsed.
var ErrFont = errors.New("label: invalid font")

// DefaultCacheSize is the default number of cached layouts.
const DefaultCacheSize = 4096

// shapeSize is the pixel size used for shaping. Results are divided by it
// to get em units.
const shapeSize = 64

// Align positions a label horizontally relative to its anchor.
type Align uint8

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Option configures a Shaper.
type Option func(*Shaper)

// WithFont sets the TrueType/OpenType font data. The default is Go Regular.
func WithFont(ttf []byte) Option {
	return func(s *Shaper) { s.ttf = ttf }
}

// WithAtlas sets the atlas providing texture coordinates.
func WithAtlas(a Atlas) Option {
	return func(s *Shaper) { s.atlas = a }
}

// WithCacheSize bounds the number of cached layouts. The least recently
// used layout is dropped first. Values below 1 mean DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(s *Shaper) { s.cacheSize = n }
}

// WithAlign sets the horizontal alignment.
func WithAlign(a Align) Option {
	return func(s *Shaper) { s.align = a }
}

// Shaper lays out label text. It implements buffer.Layouter and is safe
// for concurrent use.
type Shaper struct {
	ttf   []byte
	atlas Atlas
	align Align

	font *font.Font
	pool sync.Pool

	mu        sync.Mutex
	cacheSize int
	cache     map[string]*list.Element
	lru       list.List // front is most recent
}

type layoutEntry struct {
	text  string
	quads []buffer.GlyphQuad
}

// NewShaper parses the font and creates a shaper.
func NewShaper(opts ...Option) (*Shaper, error) {
	s := &Shaper{ttf: goregular.TTF}
	for _, opt := range opts {
		opt(s)
	}
	if s.atlas == nil {
		s.atlas = NewGridAtlas(16)
	}
	face, err := font.ParseTTF(bytes.NewReader(s.ttf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFont, err)
	}
	s.font = face.Font
	s.pool.New = func() any { return &shaping.HarfbuzzShaper{} }
	if s.cacheSize < 1 {
		s.cacheSize = DefaultCacheSize
	}
	s.cache = make(map[string]*list.Element)
	return s, nil
}

// Atlas returns the atlas used for texture coordinates.
func (s *Shaper) Atlas() Atlas { return s.atlas }

// Layout implements buffer.Layouter. Layouts are cached per string; the
// returned slice must not be modified.
func (s *Shaper) Layout(text string) ([]buffer.GlyphQuad, error) {
	text = norm.NFC.String(text)
	s.mu.Lock()
	if e, ok := s.cache[text]; ok {
		s.lru.MoveToFront(e)
		s.mu.Unlock()
		return e.Value.(*layoutEntry).quads, nil
	}
	s.mu.Unlock()

	q := s.shape(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.cache[text]; ok {
		s.lru.MoveToFront(e)
		return e.Value.(*layoutEntry).quads, nil
	}
	s.cache[text] = s.lru.PushFront(&layoutEntry{text: text, quads: q})
	for s.lru.Len() > s.cacheSize {
		old := s.lru.Back()
		s.lru.Remove(old)
		delete(s.cache, old.Value.(*layoutEntry).text)
	}
	return q, nil
}

// CacheLen returns the number of cached layouts.
func (s *Shaper) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

func (s *Shaper) shape(text string) []buffer.GlyphQuad {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(s.font),
		Size:      fixed.I(shapeSize),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)

	quads := make([]buffer.GlyphQuad, 0, len(out.Glyphs))
	var pen float32
	for _, g := range out.Glyphs {
		x := pen + em(g.XOffset) + em(g.XBearing)
		y0 := em(g.YOffset) + em(g.YBearing)
		y1 := y0 + em(g.Height)
		w := em(g.Width)
		pen += em(g.Advance)
		if w == 0 || y0 == y1 {
			// Whitespace has an advance but no ink.
			continue
		}
		u0, v0, u1, v1 := s.atlas.Region(uint32(g.GlyphID))
		quads = append(quads, buffer.GlyphQuad{
			X0: x, X1: x + w,
			Y0: min(y0, y1), Y1: max(y0, y1),
			U0: u0, V0: v0, U1: u1, V1: v1,
		})
	}

	var shift float32
	switch s.align {
	case AlignCenter:
		shift = -pen / 2
	case AlignRight:
		shift = -pen
	}
	// Center vertically on the x-height band.
	const lift = -0.25
	for i := range quads {
		quads[i].X0 += shift
		quads[i].X1 += shift
		quads[i].Y0 += lift
		quads[i].Y1 += lift
	}
	return quads
}

func em(v fixed.Int26_6) float32 { return float32(v) / 64 / shapeSize }

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
