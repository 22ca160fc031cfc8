package representation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
	"github.com/gogpu/molrep/picking"
	"github.com/gogpu/molrep/render"
	"github.com/gogpu/molrep/structure"
)

// Representation errors.
var (
	// ErrUnknownParam is returned for a parameter missing from the table.
	ErrUnknownParam = errors.New("representation: unknown parameter")

	// ErrParamDisabled is returned for a parameter the variant disabled.
	ErrParamDisabled = errors.New("representation: parameter disabled")

	// ErrInvalidParam is returned for a value of the wrong type.
	ErrInvalidParam = errors.New("representation: invalid parameter value")

	// ErrRebuildRequired is returned by UpdateData when a change cannot be
	// applied in place. The data entry is then rebuilt.
	ErrRebuildRequired = errors.New("representation: rebuild required")

	// ErrNotInitialized is returned before Init.
	ErrNotInitialized = errors.New("representation: not initialized")

	// ErrDisposed is returned after Dispose.
	ErrDisposed = errors.New("representation: disposed")

	// ErrNoLayouter is returned by text-producing variants without a layouter.
	ErrNoLayouter = errors.New("representation: no text layouter")
)

// State is the lifecycle state of a representation.
type State uint8

const (
	StateUninitialized State = iota
	StateBuilt
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilt:
		return "built"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Env holds the collaborators shared by the representations of a stage.
// Every field is optional.
type Env struct {
	// Requester is notified after every mutation.
	Requester render.Requester
	// Pool assigns picking ids. Without a pool nothing is pickable.
	Pool *picking.Pool
	// Layouter lays out label text.
	Layouter buffer.Layouter
	// Axis computes helix axes. Defaults to structure.SimpleAxis.
	Axis structure.AxisGeometry
}

// Data is the record created per view. Aux holds variant caches consumed
// by the variant's own UpdateData.
type Data struct {
	View    *structure.View
	Buffers []*buffer.Buffer
	Pickers []picking.Picker
	Aux     any
}

// Builder is the variant-specific part of a representation.
type Builder interface {
	// CreateData derives arrays and buffers for one view. An empty view
	// yields a record without buffers.
	CreateData(v *structure.View) (*Data, error)
	// UpdateData patches the buffers of d for the changed kinds.
	UpdateData(what ChangeSet, d *Data) error
}

// Representation turns structure views into buffers and keeps them in
// sync with parameter changes.
type Representation interface {
	Builder

	Name() string
	// Init merges p over the defaults and builds data for tracked views.
	Init(p Params) error
	// AddView tracks a view and builds its data.
	AddView(v *structure.View) error
	SetParameters(p Params) error
	// Update applies a structural change such as new coordinates.
	Update(what ChangeSet) error
	SetVisibility(visible bool)
	Visible() bool
	Parameters() Params
	Table() Table
	Buffers() []*buffer.Buffer
	State() State
	Dispose()
}

// Base owns the lifecycle and parameter bookkeeping shared by all
// variants. Variants embed it and pass themselves as the Builder.
//
// A Base has a single owner and is not safe for concurrent use.
type Base struct {
	name     string
	table    Table
	defaults Params
	params   Params
	impl     Builder
	env      Env

	views   []*structure.View
	data    []*Data
	state   State
	visible bool
}

func (b *Base) setup(name string, table Table, defaults Params, impl Builder, env Env) {
	if env.Axis == nil {
		env.Axis = structure.SimpleAxis{}
	}
	b.name = name
	b.table = table
	b.defaults = defaults
	b.params = defaults.Clone()
	b.impl = impl
	b.env = env
	b.visible = true
}

// Name returns the registered name of the variant.
func (b *Base) Name() string { return b.name }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// Table returns the parameter table.
func (b *Base) Table() Table { return b.table }

// Parameters returns a copy of the current values.
func (b *Base) Parameters() Params { return b.params.Clone() }

// Visible reports the visibility flag.
func (b *Base) Visible() bool { return b.visible }

// Data returns the data entries in view order.
func (b *Base) Data() []*Data { return b.data }

// Strategy returns the active rendering strategy.
func (b *Base) Strategy() buffer.Strategy { return strategyOf(b.params) }

func strategyOf(p Params) buffer.Strategy {
	if p.Bool("impostor") {
		return buffer.StrategyImpostor
	}
	return buffer.StrategyMesh
}

// Init implements Representation.
func (b *Base) Init(p Params) error {
	switch b.state {
	case StateDisposed:
		return ErrDisposed
	case StateBuilt:
		return b.SetParameters(p)
	}
	next, _, err := b.merge(p)
	if err != nil {
		return err
	}
	b.params = next
	b.state = StateBuilt
	molrep.Logger().Debug("representation: init", "name", b.name, "views", len(b.views))
	err = b.rebuild()
	b.requestRender()
	return err
}

// AddView implements Representation.
func (b *Base) AddView(v *structure.View) error {
	if b.state == StateDisposed {
		return ErrDisposed
	}
	b.views = append(b.views, v)
	if b.state != StateBuilt {
		return nil
	}
	d, err := b.create(v)
	if err != nil {
		return err
	}
	b.data = append(b.data, d)
	b.requestRender()
	return nil
}

// merge validates p against the table and returns the merged values and
// the sorted names whose value changed.
func (b *Base) merge(p Params) (Params, []string, error) {
	next := b.params.Clone()
	var changed []string
	for name, v := range p {
		desc, ok := b.table[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q for %s", ErrUnknownParam, name, b.name)
		}
		if desc.Effect == EffectDisabled {
			return nil, nil, fmt.Errorf("%w: %q for %s", ErrParamDisabled, name, b.name)
		}
		cv, err := coerce(b.defaults[name], v)
		if err != nil {
			return nil, nil, fmt.Errorf("%s %q: %w", b.name, name, err)
		}
		if !reflect.DeepEqual(next[name], cv) {
			next[name] = cv
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	if err := b.validate(next); err != nil {
		return nil, nil, err
	}
	return next, changed, nil
}

// paramValidator is implemented by variants whose parameters take a fixed
// set of values.
type paramValidator interface {
	validateParams(p Params) error
}

// validate checks the values coercion cannot: color strings, scheme and
// radius names, and variant enumerations.
func (b *Base) validate(p Params) error {
	for _, name := range []string{"colorValue", "labelColor"} {
		if _, ok := p[name]; !ok {
			continue
		}
		if _, err := p.Color(name); err != nil {
			return fmt.Errorf("%w: %s %q for %s", ErrInvalidParam, name, p.String(name), b.name)
		}
	}
	if _, ok := p["colorScheme"]; ok && !structure.ValidColorScheme(p.String("colorScheme")) {
		return fmt.Errorf("%w: color scheme %q for %s", ErrInvalidParam, p.String("colorScheme"), b.name)
	}
	if _, ok := p["radiusType"]; ok {
		if _, err := structure.NewRadiusFactory(structure.RadiusParams{Type: p.String("radiusType")}); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParam, err)
		}
	}
	if v, ok := b.impl.(paramValidator); ok {
		return v.validateParams(p)
	}
	return nil
}

// SetParameters implements Representation. Values are validated before
// any is applied.
func (b *Base) SetParameters(p Params) error {
	switch b.state {
	case StateDisposed:
		return ErrDisposed
	case StateUninitialized:
		return ErrNotInitialized
	}
	next, changed, err := b.merge(p)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}

	old := b.params
	prev := strategyOf(old)
	b.params = next
	cur := strategyOf(next)

	rebuild := false
	var what ChangeSet
	for _, name := range changed {
		desc := b.table[name]
		switch desc.Effect {
		case EffectRebuild:
			rebuild = true
		case EffectRebuildOnStrategy:
			if prev != cur || slices.Contains(desc.Shapes, cur) {
				rebuild = true
			}
		case EffectBuffer, EffectUniform:
			what |= desc.Change
		}
	}

	molrep.Logger().Debug("representation: parameters changed",
		"name", b.name, "changed", changed, "rebuild", rebuild, "what", what.String())
	if rebuild {
		if err = b.rebuild(); err != nil {
			// Restore the previous build so the representation keeps its
			// buffers.
			b.params = old
			if rerr := b.rebuild(); rerr != nil {
				molrep.Logger().Warn("representation: restore failed", "name", b.name, "err", rerr)
			}
		}
	} else {
		err = b.update(what, nil)
	}
	b.requestRender()
	return err
}

// Update implements Representation. Stale views are refreshed first.
func (b *Base) Update(what ChangeSet) error {
	switch b.state {
	case StateDisposed:
		return ErrDisposed
	case StateUninitialized:
		return ErrNotInitialized
	}
	// Entries whose view gained or lost atoms or bonds cannot be patched
	// in place.
	rebuilt := make([]bool, len(b.data))
	for i, d := range b.data {
		if !d.View.Stale() {
			continue
		}
		atoms := slices.Clone(d.View.AtomIndices())
		bonds := slices.Clone(d.View.BondIndices())
		d.View.Refresh()
		if slices.Equal(atoms, d.View.AtomIndices()) && slices.Equal(bonds, d.View.BondIndices()) {
			continue
		}
		molrep.Logger().Debug("representation: view topology changed", "name", b.name, "index", i,
			"atoms", d.View.AtomCount(), "bonds", d.View.BondCount())
		if err := b.rebuildEntry(i); err != nil {
			b.requestRender()
			return fmt.Errorf("representation: %s rebuild: %w", b.name, err)
		}
		rebuilt[i] = true
	}
	err := b.update(what, rebuilt)
	b.requestRender()
	return err
}

// update patches every entry not marked in skip.
func (b *Base) update(what ChangeSet, skip []bool) error {
	if what == 0 {
		return nil
	}
	for i, d := range b.data {
		if i < len(skip) && skip[i] {
			continue
		}
		err := b.impl.UpdateData(what, d)
		if errors.Is(err, ErrRebuildRequired) {
			molrep.Logger().Debug("representation: rebuilding entry", "name", b.name, "index", i, "what", what.String())
			err = b.rebuildEntry(i)
		}
		if err != nil {
			return fmt.Errorf("representation: %s update: %w", b.name, err)
		}
	}
	return nil
}

func (b *Base) rebuild() error {
	for _, d := range b.data {
		b.release(d)
	}
	b.data = b.data[:0]
	for _, v := range b.views {
		d, err := b.create(v)
		if err != nil {
			return err
		}
		b.data = append(b.data, d)
	}
	return nil
}

func (b *Base) rebuildEntry(i int) error {
	b.release(b.data[i])
	d, err := b.create(b.data[i].View)
	if err != nil {
		b.data[i] = &Data{View: b.data[i].View}
		return err
	}
	b.data[i] = d
	return nil
}

func (b *Base) create(v *structure.View) (*Data, error) {
	d, err := b.impl.CreateData(v)
	if err != nil {
		return nil, fmt.Errorf("representation: %s create: %w", b.name, err)
	}
	for _, buf := range d.Buffers {
		buf.SetVisibility(b.visible)
	}
	molrep.Logger().Debug("representation: created data",
		"name", b.name, "view", v.Expression(), "atoms", v.AtomCount(), "buffers", len(d.Buffers))
	return d, nil
}

func (b *Base) release(d *Data) {
	for _, buf := range d.Buffers {
		buf.Dispose()
	}
	if b.env.Pool != nil {
		for _, p := range d.Pickers {
			b.env.Pool.Remove(p)
		}
	}
	d.Buffers, d.Pickers = nil, nil
}

// SetVisibility implements Representation.
func (b *Base) SetVisibility(visible bool) {
	if b.state == StateDisposed {
		return
	}
	b.visible = visible
	for _, d := range b.data {
		for _, buf := range d.Buffers {
			buf.SetVisibility(visible)
		}
	}
	b.requestRender()
}

// Buffers implements Representation.
func (b *Base) Buffers() []*buffer.Buffer {
	var out []*buffer.Buffer
	for _, d := range b.data {
		out = append(out, d.Buffers...)
	}
	return out
}

// Dispose implements Representation.
func (b *Base) Dispose() {
	if b.state == StateDisposed {
		return
	}
	for _, d := range b.data {
		b.release(d)
	}
	b.data = nil
	b.views = nil
	b.state = StateDisposed
	molrep.Logger().Debug("representation: disposed", "name", b.name)
	b.requestRender()
}

func (b *Base) requestRender() {
	if b.env.Requester != nil {
		b.env.Requester.RequestRender()
	}
}

// reservePicking registers p with the pool and returns the first id. It
// reports false when picking is off, in which case no colors are built.
func (b *Base) reservePicking(d *Data, p picking.Picker) (uint32, bool, error) {
	if b.env.Pool == nil || b.params.Bool("disablePicking") || p.Len() == 0 {
		return 0, false, nil
	}
	offset, err := b.env.Pool.Add(p)
	if err != nil {
		return 0, false, err
	}
	d.Pickers = append(d.Pickers, p)
	return offset, true, nil
}

// bufferOptions returns the construction options shared by all buffers.
func (b *Base) bufferOptions(label string, p picking.Picker) []buffer.Option {
	opts := []buffer.Option{
		buffer.WithLabel(b.name + "/" + label),
		buffer.WithOpacity(b.params.Float("opacity")),
	}
	if p != nil {
		opts = append(opts, buffer.WithPicker(p))
	}
	if _, ok := b.params["sphereDetail"]; ok {
		opts = append(opts, buffer.WithSphereDetail(b.params.Int("sphereDetail")))
	}
	if _, ok := b.params["radialSegments"]; ok {
		opts = append(opts, buffer.WithRadialSegments(b.params.Int("radialSegments")))
	}
	if _, ok := b.params["cylinderShrink"]; ok {
		opts = append(opts, buffer.WithShrink(b.params.Float("cylinderShrink")))
	}
	return opts
}

// setUniforms forwards opacity and shrink changes to the buffers of d.
func (b *Base) setUniforms(what ChangeSet, d *Data) {
	for _, buf := range d.Buffers {
		u := buf.Uniforms()
		if what.Has(ChangeOpacity) {
			_ = u.SetScalar(buffer.UniformOpacity, b.params.Float("opacity"))
		}
		if what.Has(ChangeShrink) {
			if _, ok := u.Scalar(buffer.UniformShrink); ok {
				_ = u.SetScalar(buffer.UniformShrink, b.params.Float("cylinderShrink"))
			}
		}
	}
}
