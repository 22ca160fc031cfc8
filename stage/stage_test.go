package stage

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/config"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/render"
	"github.com/gogpu/molrep/representation"
	"github.com/gogpu/molrep/structure"
)

// fixedLayouter lays out one unit quad per rune.
type fixedLayouter struct{}

func (fixedLayouter) Layout(text string) ([]buffer.GlyphQuad, error) {
	var out []buffer.GlyphQuad
	x := float32(0)
	for range text {
		out = append(out, buffer.GlyphQuad{X0: x, X1: x + 1, Y1: 1, U1: 1, V1: 1})
		x++
	}
	return out, nil
}

// pickBackend records frames and answers every pick with one id.
type pickBackend struct {
	*render.StatsBackend
	id     uint32
	picked []render.Frame
}

func (p *pickBackend) Pick(f render.Frame, _, _ uint32) (r, g, b uint8, err error) {
	p.picked = append(p.picked, f)
	return uint8(p.id >> 16), uint8(p.id >> 8), uint8(p.id), nil
}

func newStage(t *testing.T, opts ...Option) (*Stage, *render.StatsBackend) {
	t.Helper()
	sb := render.NewStatsBackend()
	opts = append([]Option{WithBackend(sb), WithLayouter(fixedLayouter{})}, opts...)
	s, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, sb
}

func helix(t *testing.T, chains, residues int) *structure.Structure {
	t.Helper()
	st, err := structure.BuildHelix(structure.HelixOptions{Name: "helix", Chains: chains, Residues: residues})
	require.NoError(t, err)
	return st
}

func TestNewDefaults(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &render.StatsBackend{}, s.Backend())
	assert.Equal(t, config.Default(), s.Config())
	assert.InDelta(t, -50, s.Camera().CameraZ(), 1e-6)
	assert.Empty(t, s.Components())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SphereDetail = 7
	_, err := New(WithConfig(cfg))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestCameraFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Distance = 120
	s, _ := newStage(t, WithConfig(cfg))
	assert.InDelta(t, -120, s.Camera().CameraZ(), 1e-6)
}

func TestAddRepresentationDraws(t *testing.T) {
	s, sb := newStage(t)
	c := s.AddComponent(helix(t, 1, 4))

	r, err := c.AddRepresentation("ball+stick", "protein", nil)
	require.NoError(t, err)
	require.Len(t, r.Buffers(), 2)
	assert.Equal(t, representation.StateBuilt, r.State())
	assert.Equal(t, r.Buffers(), s.Buffers())

	drew, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drew)
	for _, b := range r.Buffers() {
		st := sb.Stats(b)
		require.NotNil(t, st)
		assert.Equal(t, 1, st.Draws)
		assert.Positive(t, st.Bytes)
	}

	drew, err = s.Frame()
	require.NoError(t, err)
	assert.False(t, drew, "no mutation, no frame")
}

func TestAddRepresentationErrors(t *testing.T) {
	s, _ := newStage(t)
	c := s.AddComponent(helix(t, 1, 2))

	_, err := c.AddRepresentation("cartoon", "", nil)
	assert.ErrorIs(t, err, representation.ErrUnknownType)

	_, err = c.AddRepresentation("ball+stick", "(protein", nil)
	assert.ErrorIs(t, err, structure.ErrSelectionSyntax)

	_, err = c.AddRepresentation("ball+stick", "", representation.Params{"nope": 1})
	assert.ErrorIs(t, err, representation.ErrUnknownParam)
	assert.Empty(t, c.Representations())
}

func TestConfigParameters(t *testing.T) {
	cfg := config.Default()
	cfg.Impostor = false
	cfg.RadialSegments = 16
	cfg.Representations = map[string]map[string]any{
		"ball+stick": {"aspectRatio": 3.0},
	}
	s, _ := newStage(t, WithConfig(cfg))
	c := s.AddComponent(helix(t, 1, 3))

	bs, err := c.AddRepresentation("ball+stick", "", nil)
	require.NoError(t, err)
	p := bs.Parameters()
	assert.Equal(t, false, p["impostor"])
	assert.Equal(t, 16, p["radialSegments"])
	assert.InDelta(t, 3.0, p["aspectRatio"], 1e-9)

	// caller parameters win over config
	bs2, err := c.AddRepresentation("ball+stick", "", representation.Params{"aspectRatio": 1.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, bs2.Parameters()["aspectRatio"], 1e-9)

	// spacefill does not take radialSegments; the global setting is dropped
	sf, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)
	_, ok := sf.Parameters()["radialSegments"]
	assert.False(t, ok)
	assert.Equal(t, false, sf.Parameters()["impostor"])
}

func TestConfigSectionDisabledParam(t *testing.T) {
	cfg := config.Default()
	cfg.Representations = map[string]map[string]any{
		"spacefill": {"radialSegments": 12},
	}
	s, _ := newStage(t, WithConfig(cfg))
	c := s.AddComponent(helix(t, 1, 2))

	_, err := c.AddRepresentation("spacefill", "", nil)
	assert.ErrorIs(t, err, representation.ErrParamDisabled)
	assert.Empty(t, c.Representations())
}

func TestRemoveRepresentationReleases(t *testing.T) {
	s, sb := newStage(t)
	c := s.AddComponent(helix(t, 1, 3))
	r, err := c.AddRepresentation("ball+stick", "", nil)
	require.NoError(t, err)
	_, err = s.Frame()
	require.NoError(t, err)

	c.RemoveRepresentation(r)
	assert.Equal(t, representation.StateDisposed, r.State())
	assert.Empty(t, c.Representations())

	drew, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drew)
	assert.Equal(t, 2, sb.Released)
	assert.Equal(t, 0, s.PickingPool().Len())
}

func TestRemoveComponent(t *testing.T) {
	s, sb := newStage(t)
	c1 := s.AddComponent(helix(t, 1, 2))
	c2 := s.AddComponent(helix(t, 1, 2))
	_, err := c1.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)
	_, err = c2.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Redraw())

	s.RemoveComponent(c1)
	assert.Equal(t, []*Component{c2}, s.Components())
	require.NoError(t, s.Redraw())
	assert.Equal(t, 1, sb.Released)

	s.RemoveComponent(c1)
	assert.Len(t, s.Components(), 1)
}

func TestSetPositionsUpdates(t *testing.T) {
	s, sb := newStage(t)
	st := helix(t, 1, 2)
	c := s.AddComponent(st)
	r, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)
	_, err = s.Frame()
	require.NoError(t, err)

	coords := make([]float32, 3*st.AtomCount())
	for i := range coords {
		coords[i] = float32(i)
	}
	require.NoError(t, c.SetPositions(coords))
	assert.True(t, s.Scheduler().Pending())

	drew, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drew)
	b := r.Buffers()[0]
	assert.Equal(t, 2, sb.Stats(b).Draws)
	assert.Equal(t, float32(3), b.Attribute(buffer.ChannelPosition)[3])

	assert.Error(t, c.SetPositions(coords[:3]))
}

func TestComponentVisibility(t *testing.T) {
	s, sb := newStage(t)
	c := s.AddComponent(helix(t, 1, 2))
	r, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)

	c.SetVisibility(false)
	require.NoError(t, s.Redraw())
	assert.Nil(t, sb.Stats(r.Buffers()[0]))

	c.SetVisibility(true)
	drew, err := s.Frame()
	require.NoError(t, err)
	assert.True(t, drew)
	assert.NotNil(t, sb.Stats(r.Buffers()[0]))
}

func TestPick(t *testing.T) {
	pb := &pickBackend{StatsBackend: render.NewStatsBackend()}
	s, _ := newStage(t, WithBackend(pb))
	c := s.AddComponent(helix(t, 1, 4))
	_, err := c.AddRepresentation("ball+stick", "", nil)
	require.NoError(t, err)

	// 4 residues of 5 atoms: ids 1..20 are atoms, bonds follow.
	tests := []struct {
		id     uint32
		kind   picking.Kind
		entity int
	}{
		{1, picking.KindAtom, 0},
		{6, picking.KindAtom, 5},
		{21, picking.KindBond, 0},
	}
	for _, tt := range tests {
		pb.id = tt.id
		hit, ok, err := s.Pick(10, 10)
		require.NoError(t, err)
		require.True(t, ok, "id %d", tt.id)
		assert.Equal(t, tt.kind, hit.Kind, "id %d", tt.id)
		assert.Equal(t, tt.entity, hit.Entity, "id %d", tt.id)
	}

	pb.id = 0
	_, ok, err := s.Pick(0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, pb.picked[0].Buffers, 2)
}

func TestPickSkipsUnpickable(t *testing.T) {
	pb := &pickBackend{StatsBackend: render.NewStatsBackend(), id: 1}
	s, _ := newStage(t, WithBackend(pb))
	c := s.AddComponent(helix(t, 1, 2))
	_, err := c.AddRepresentation("spacefill", "", representation.Params{"disablePicking": true})
	require.NoError(t, err)
	_, err = c.AddRepresentation("label", "", nil)
	require.NoError(t, err)

	_, ok, err := s.Pick(1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pb.picked[0].Buffers)
}

func TestPickNeedsPicker(t *testing.T) {
	s, _ := newStage(t)
	_, _, err := s.Pick(0, 0)
	assert.ErrorIs(t, err, ErrNoPicker)
}

func TestAutoView(t *testing.T) {
	s, _ := newStage(t)
	s.AutoView()
	assert.InDelta(t, -50, s.Camera().CameraZ(), 1e-6, "empty scene keeps camera")

	s.AddComponent(helix(t, 3, 60))
	s.Scheduler().Consume()
	s.AutoView()
	assert.Less(t, s.Camera().CameraZ(), float32(-50))
	assert.True(t, s.Scheduler().Pending())
}

func TestRun(t *testing.T) {
	s, sb := newStage(t)
	c := s.AddComponent(helix(t, 1, 2))
	_, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = s.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, sb.Frames)
}

func TestClose(t *testing.T) {
	s, sb := newStage(t)
	c := s.AddComponent(helix(t, 1, 2))
	r, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Redraw())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, representation.StateDisposed, r.State())
	assert.Equal(t, 1, sb.Released)

	_, err = s.Frame()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Redraw(), ErrClosed)
	_, _, err = s.Pick(0, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.AddRepresentation("spacefill", "", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer SetLogger(nil)

	s, _ := newStage(t)
	c := s.AddComponent(helix(t, 1, 2))
	_, err := c.AddRepresentation("spacefill", "", nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "stage: component added")
	assert.Contains(t, out, "type=spacefill")
}
