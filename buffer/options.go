package buffer

import "github.com/gogpu/molrep/picking"

// Option configures a Buffer during creation.
//
// Example:
//
//	b := buffer.NewSphere(data, buffer.StrategyMesh,
//		buffer.WithSphereDetail(2),
//		buffer.WithLabel("atoms"))
type Option func(*options)

type options struct {
	label          string
	picker         picking.Picker
	sphereDetail   int
	radialSegments int
	shrink         float32
	opacity        float32
}

func defaultOptions() options {
	return options{
		sphereDetail:   1,
		radialSegments: 10,
		opacity:        1,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLabel sets a debug label used in logs and GPU resource names.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithPicker attaches the picker that maps the buffer's slots back to
// entities. It has no effect on Pickable, which depends only on the
// presence of picking colors.
func WithPicker(p picking.Picker) Option {
	return func(o *options) { o.picker = p }
}

// WithSphereDetail sets the tessellation level of mesh spheres (0-3).
func WithSphereDetail(d int) Option {
	return func(o *options) { o.sphereDetail = min(max(d, 0), 3) }
}

// WithRadialSegments sets the number of segments around mesh cylinders.
// Values below 3 are raised to 3.
func WithRadialSegments(n int) Option {
	return func(o *options) { o.radialSegments = max(n, 3) }
}

// WithShrink sets the initial cylinder shrink uniform.
func WithShrink(s float32) Option {
	return func(o *options) { o.shrink = s }
}

// WithOpacity sets the initial opacity uniform.
func WithOpacity(a float32) Option {
	return func(o *options) { o.opacity = a }
}
