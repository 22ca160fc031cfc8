// Package stage ties structures, representations, the camera and a render
// backend together.
//
// A Stage owns one render scheduler shared by every representation and
// the camera, so any number of mutations between two frames result in a
// single draw. The frame loop consumes the scheduler's dirty flag; it may
// be driven by Run or by the host application through Frame.
//
// Example:
//
//	st, err := stage.New(stage.WithConfig(cfg))
//	comp := st.AddComponent(s)
//	_, err = comp.AddRepresentation("ball+stick", "protein", nil)
//	_, err = st.Frame()
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/camera"
	"github.com/gogpu/molrep/config"
	"github.com/gogpu/molrep/label"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/render"
	"github.com/gogpu/molrep/representation"
	"github.com/gogpu/molrep/structure"
)

// Stage errors.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("stage: closed")

	// ErrNoPicker is returned by Pick when the backend cannot render
	// picking colors.
	ErrNoPicker = errors.New("stage: backend does not support picking")
)

// Picker is implemented by backends that can render the picking pass and
// read back one pixel.
type Picker interface {
	Pick(f render.Frame, x, y uint32) (r, g, b uint8, err error)
}

// Option configures a Stage.
type Option func(*options)

type options struct {
	backend  render.Backend
	cfg      config.Config
	layouter buffer.Layouter
	axis     structure.AxisGeometry
}

// WithBackend sets the render backend. The default records uploads
// without drawing.
func WithBackend(b render.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithConfig sets the settings. The default is config.Default.
func WithConfig(c config.Config) Option {
	return func(o *options) { o.cfg = c }
}

// WithLayouter sets the label layouter. The default is a label.Shaper
// with the Go Regular font.
func WithLayouter(l buffer.Layouter) Option {
	return func(o *options) { o.layouter = l }
}

// WithAxis sets the helix axis collaborator used by rocket
// representations.
func WithAxis(a structure.AxisGeometry) Option {
	return func(o *options) { o.axis = a }
}

// SetLogger configures logging for molrep and the GPU backend. Pass nil
// to restore the silent default.
func SetLogger(l *slog.Logger) {
	molrep.SetLogger(l)
	propagateLogger(l)
}

// Stage is a scene of structure components.
//
// A Stage has a single owner. Only the scheduler it exposes is safe for
// concurrent use.
type Stage struct {
	cfg     config.Config
	sched   *render.Scheduler
	cam     *camera.Controller
	pool    *picking.Pool
	env     representation.Env
	backend render.Backend
	loop    *render.Loop

	components []*Component
	closed     bool
}

// New creates a stage. The configuration is validated.
func New(opts ...Option) (*Stage, error) {
	o := options{cfg: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.backend == nil {
		o.backend = render.NewStatsBackend()
	}
	if o.layouter == nil {
		sh, err := label.NewShaper()
		if err != nil {
			return nil, fmt.Errorf("stage: %w", err)
		}
		o.layouter = sh
	}
	propagateLogger(molrep.Logger())

	s := &Stage{
		cfg:     o.cfg,
		sched:   render.NewScheduler(),
		pool:    picking.NewPool(),
		backend: o.backend,
	}
	s.cam = camera.NewController(
		camera.WithFOV(o.cfg.Camera.FOV),
		camera.WithClip(o.cfg.Camera.Near, o.cfg.Camera.Far),
		camera.WithDistance(-o.cfg.Camera.Distance),
		camera.WithRequester(s.sched),
	)
	s.env = representation.Env{
		Requester: s.sched,
		Pool:      s.pool,
		Layouter:  o.layouter,
		Axis:      o.axis,
	}
	s.loop = render.NewLoop(s.sched, s.backend, s.cam, s.Buffers)
	molrep.Logger().Info("stage: created", "backend", fmt.Sprintf("%T", s.backend))
	return s, nil
}

// Config returns the settings.
func (s *Stage) Config() config.Config { return s.cfg }

// Camera returns the scene transform controller.
func (s *Stage) Camera() *camera.Controller { return s.cam }

// Scheduler returns the render scheduler.
func (s *Stage) Scheduler() *render.Scheduler { return s.sched }

// Backend returns the render backend.
func (s *Stage) Backend() render.Backend { return s.backend }

// PickingPool returns the pool that assigns picking ids.
func (s *Stage) PickingPool() *picking.Pool { return s.pool }

// Components returns the components in insertion order.
func (s *Stage) Components() []*Component { return s.components }

// AddComponent adds a structure to the scene.
func (s *Stage) AddComponent(st *structure.Structure) *Component {
	c := &Component{stage: s, structure: st}
	s.components = append(s.components, c)
	molrep.Logger().Info("stage: component added", "name", st.Name, "atoms", st.AtomCount())
	s.sched.RequestRender()
	return c
}

// RemoveComponent disposes every representation of c and removes it.
func (s *Stage) RemoveComponent(c *Component) {
	i := slices.Index(s.components, c)
	if i < 0 {
		return
	}
	for _, r := range c.reprs {
		r.Dispose()
	}
	c.reprs = nil
	s.components = slices.Delete(s.components, i, i+1)
	molrep.Logger().Info("stage: component removed", "name", c.structure.Name)
	s.sched.RequestRender()
}

// Buffers returns the buffers of every representation in draw order.
func (s *Stage) Buffers() []*buffer.Buffer {
	var out []*buffer.Buffer
	for _, c := range s.components {
		for _, r := range c.reprs {
			out = append(out, r.Buffers()...)
		}
	}
	return out
}

// Frame draws a frame if one was requested.
func (s *Stage) Frame() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	return s.loop.Frame()
}

// Redraw draws a frame unconditionally.
func (s *Stage) Redraw() error {
	if s.closed {
		return ErrClosed
	}
	return s.loop.Redraw()
}

// Run draws requested frames until ctx is done.
func (s *Stage) Run(ctx context.Context, interval time.Duration) error {
	if s.closed {
		return ErrClosed
	}
	return s.loop.Run(ctx, interval)
}

// Pick renders the picking pass and resolves the entity under pixel
// (x, y). It reports false when the pixel shows no pickable entity.
func (s *Stage) Pick(x, y uint32) (picking.Hit, bool, error) {
	if s.closed {
		return picking.Hit{}, false, ErrClosed
	}
	pk, ok := s.backend.(Picker)
	if !ok {
		return picking.Hit{}, false, ErrNoPicker
	}
	m := s.cam.Matrices()
	f := render.Frame{Matrices: m}
	for _, b := range s.Buffers() {
		if b.Disposed() || !b.Visible() || !b.Pickable() {
			continue
		}
		b.PrepareDraw(m)
		f.Buffers = append(f.Buffers, b)
	}
	r, g, bl, err := pk.Pick(f, x, y)
	if err != nil {
		return picking.Hit{}, false, fmt.Errorf("stage: pick: %w", err)
	}
	hit, ok := s.pool.Resolve(r, g, bl)
	if ok {
		molrep.Logger().Debug("stage: picked", "kind", hit.Kind.String(), "entity", hit.Entity)
	}
	return hit, ok, nil
}

// AutoView centers the camera on the atoms of every component and moves
// it back far enough to see them.
func (s *Stage) AutoView() {
	var lo, hi mgl32.Vec3
	n := 0
	for _, c := range s.components {
		st := c.structure
		for i := 0; i < st.AtomCount(); i++ {
			p := st.Position(i)
			if n == 0 {
				lo, hi = p, p
			}
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
			n++
		}
	}
	if n == 0 {
		return
	}
	s.cam.Center(lo.Add(hi).Mul(0.5))
	s.cam.Distance(-max(hi.Sub(lo).Len(), s.cfg.Camera.Distance))
}

// Close disposes every representation and closes the backend.
func (s *Stage) Close() error {
	if s.closed {
		return nil
	}
	for _, c := range s.components {
		for _, r := range c.reprs {
			r.Dispose()
		}
		c.reprs = nil
	}
	s.components = nil
	s.closed = true
	molrep.Logger().Info("stage: closed")
	return s.loop.Close()
}
