package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRequester struct{ n int }

func (r *countingRequester) RequestRender() { r.n++ }

func compose(q mgl32.Quat, t mgl32.Vec3, s float32) mgl32.Mat4 {
	m := q.Mat4().Mat3().Mul(s).Mat4()
	m.SetCol(3, t.Vec4(1))
	return m
}

func TestOrientationRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		q    mgl32.Quat
		t    mgl32.Vec3
		s    float32
	}{
		{"identity", mgl32.QuatIdent(), mgl32.Vec3{}, 1},
		{"rotated", mgl32.QuatRotate(0.8, mgl32.Vec3{1, 2, 3}.Normalize()), mgl32.Vec3{-4, 5, 12}, 80},
		{"half turn", mgl32.QuatRotate(math.Pi, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 1, 1}, 0.5},
		{"near", mgl32.QuatRotate(-2.1, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, -30, 0}, 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController()
			m := compose(tt.q, tt.t, tt.s)
			require.NoError(t, c.SetOrientation(m))

			got := c.Orientation()
			for i := range m {
				assert.InDelta(t, m[i], got[i], 1e-4*float64(max(tt.s, 1)), "element %d", i)
			}
			assert.InDelta(t, -tt.s, c.CameraZ(), 1e-4*float64(tt.s))
			assert.True(t, c.Rotation().ApproxEqualThreshold(tt.q, 1e-4) ||
				c.Rotation().ApproxEqualThreshold(tt.q.Scale(-1), 1e-4), "rotation %v, want %v", c.Rotation(), tt.q)
		})
	}
}

func TestSetOrientationDegenerate(t *testing.T) {
	c := NewController()
	c.Translate(mgl32.Vec3{1, 2, 3})
	before := c.Orientation()

	nan := float32(math.NaN())
	mirror := mgl32.Scale3D(-2, 2, 2)
	for name, m := range map[string]mgl32.Mat4{
		"zero":   {},
		"tiny":   mgl32.Scale3D(1e-8, 1e-8, 1e-8),
		"nan":    mgl32.Scale3D(nan, 1, 1),
		"mirror": mirror,
	} {
		err := c.SetOrientation(m)
		assert.True(t, errors.Is(err, ErrDegenerateOrientation), "%s: err = %v", name, err)
	}
	assert.Equal(t, before, c.Orientation(), "state changed by rejected input")
}

func TestDistance(t *testing.T) {
	c := NewController()
	c.Spin(mgl32.Vec3{0, 1, 0}, 0.4)
	c.Translate(mgl32.Vec3{3, 0, -1})
	rot, trans := c.Rotation(), c.Translation()

	c.Distance(-123.25)
	assert.Equal(t, float32(-123.25), c.CameraZ())
	assert.Equal(t, rot, c.Rotation())
	assert.Equal(t, trans, c.Translation())
	assert.Equal(t, trans, c.Orientation().Col(3).Vec3())
}

func TestZoom(t *testing.T) {
	c := NewController(WithDistance(-100))
	c.Zoom(0.25)
	assert.InDelta(t, -75, c.CameraZ(), 1e-5)
	c.Zoom(-1)
	assert.InDelta(t, -150, c.CameraZ(), 1e-5)
}

func TestCenter(t *testing.T) {
	c := NewController()
	c.Center(mgl32.Vec3{10, -2, 4})
	p := c.ModelView().Mul4x1(mgl32.Vec4{10, -2, 4, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.InDelta(t, c.CameraZ(), p.Z(), 1e-4)
}

func TestSpinUsesViewAxis(t *testing.T) {
	c := NewController()
	c.Spin(mgl32.Vec3{0, 1, 0}, math.Pi/2)
	c.Spin(mgl32.Vec3{1, 0, 0}, math.Pi/2)

	// Two view-space spins compose on the left.
	want := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0}).Mul(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}))
	v := mgl32.Vec3{0, 0, 1}
	got := c.Rotation().Rotate(v)
	assert.True(t, got.ApproxEqualThreshold(want.Rotate(v), 1e-5), "got %v, want %v", got, want.Rotate(v))
}

func TestAlign(t *testing.T) {
	c := NewController()
	basis := mgl32.HomogRotate3DZ(0.6).Mat3()
	require.NoError(t, c.Align(basis))
	// The basis x axis ends up on view x.
	x := c.Rotation().Rotate(basis.Col(0))
	assert.True(t, x.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5), "x = %v", x)

	// A left-handed basis is flipped to a proper rotation.
	left := mgl32.Mat3{1, 0, 0, 0, 1, 0, 0, 0, -1}
	require.NoError(t, c.Align(left))
	r := c.Rotation().Mat4().Mat3()
	assert.InDelta(t, 1, r.Det(), 1e-5)

	err := c.Align(mgl32.Mat3{})
	assert.True(t, errors.Is(err, ErrDegenerateOrientation))
}

func TestAlignShearedBasis(t *testing.T) {
	c := NewController()
	// The inverse has columns (1,0,0), (0.5,1,0), (0,0,1), which
	// orthonormalize to the identity.
	sheared := mgl32.Mat3{1, 0, 0, 0.5, 1, 0, 0, 0, 1}.Inv()
	require.NoError(t, c.Align(sheared))

	r := c.Rotation().Mat4().Mat3()
	assert.True(t, r.Mul3(r.Transpose()).ApproxEqualThreshold(mgl32.Ident3(), 1e-5), "not orthonormal: %v", r)
	for i := 0; i < 3; i++ {
		axis := mgl32.Ident3().Col(i)
		got := c.Rotation().Rotate(axis)
		assert.True(t, got.ApproxEqualThreshold(axis, 1e-5), "axis %d -> %v", i, got)
	}
}

func TestMutatorsRequestRender(t *testing.T) {
	r := &countingRequester{}
	c := NewController(WithRequester(r))
	c.Translate(mgl32.Vec3{1, 0, 0})
	c.Pan(1, 1)
	c.Center(mgl32.Vec3{})
	c.Zoom(0.1)
	c.Distance(-10)
	c.Spin(mgl32.Vec3{0, 0, 1}, 1)
	_ = c.Align(mgl32.Ident3())
	_ = c.SetOrientation(mgl32.Ident4())
	assert.Equal(t, 8, r.n)
}

func TestMatrices(t *testing.T) {
	c := NewController(WithFOV(60), WithClip(1, 500))
	c.SetAspect(800, 400)
	m := c.Matrices()
	assert.Equal(t, c.ModelView(), m.ModelView)
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(60), 2, 1, 500), m.Projection)
}
