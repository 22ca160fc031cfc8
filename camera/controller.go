// Package camera implements the scene transform controller: the rotation,
// translation and camera distance that place a structure in view.
//
// The combined state is exchanged as a single orientation matrix whose
// upper 3x3 block is the rotation scaled by the camera distance and whose
// last column holds the translation.
package camera

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
)

// ErrDegenerateOrientation is returned for orientation or basis matrices
// that cannot be decomposed into a rotation and a positive scale.
var ErrDegenerateOrientation = errors.New("camera: degenerate orientation")

// minScale is the smallest accepted orientation scale.
const minScale = 1e-6

// Requester receives render requests. render.Scheduler implements it.
type Requester interface {
	RequestRender()
}

// Option configures a Controller.
type Option func(*Controller)

// WithFOV sets the vertical field of view in degrees.
func WithFOV(deg float32) Option {
	return func(c *Controller) { c.fov = deg }
}

// WithClip sets the near and far clip distances.
func WithClip(near, far float32) Option {
	return func(c *Controller) { c.near, c.far = near, far }
}

// WithDistance sets the initial camera depth coordinate.
func WithDistance(z float32) Option {
	return func(c *Controller) { c.cameraZ = z }
}

// WithRequester sets the render requester notified by every mutator.
func WithRequester(r Requester) Option {
	return func(c *Controller) { c.req = r }
}

// Controller holds the scene transform. Mutators never block; each one
// requests a render. A Controller has a single owner and is not safe for
// concurrent use.
type Controller struct {
	rotation    mgl32.Quat
	translation mgl32.Vec3
	// cameraZ is the camera depth coordinate; the scene is in front of the
	// camera when it is negative.
	cameraZ float32

	fov, near, far float32
	aspect         float32

	req Requester
}

// NewController creates a controller looking at the origin from 50 Å.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		rotation: mgl32.QuatIdent(),
		cameraZ:  -50,
		fov:      40,
		near:     0.1,
		far:      10000,
		aspect:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) changed() {
	if c.req != nil {
		c.req.RequestRender()
	}
}

// SetRequester replaces the render requester.
func (c *Controller) SetRequester(r Requester) { c.req = r }

// Rotation returns the current rotation.
func (c *Controller) Rotation() mgl32.Quat { return c.rotation }

// Translation returns the current translation.
func (c *Controller) Translation() mgl32.Vec3 { return c.translation }

// CameraZ returns the camera depth coordinate.
func (c *Controller) CameraZ() float32 { return c.cameraZ }

// Orientation returns the combined transform: rotation scaled by
// -CameraZ in the upper 3x3 block and the translation in column 3.
func (c *Controller) Orientation() mgl32.Mat4 {
	m := c.rotation.Mat4().Mat3().Mul(-c.cameraZ).Mat4()
	m.SetCol(3, c.translation.Vec4(1))
	return m
}

// SetOrientation decomposes m and replaces rotation, translation and
// camera distance. A matrix whose scale is near zero, non-finite, or that
// contains a reflection is rejected and the state is left unchanged.
func (c *Controller) SetOrientation(m mgl32.Mat4) error {
	a := m.Mat3()
	s := a.Col(0).Len()
	if !finite(s) || s < minScale {
		return fmt.Errorf("%w: scale %v", ErrDegenerateOrientation, s)
	}
	r := a.Mul(1 / s)
	if det := r.Det(); !finite(det) || det < 0.5 {
		return fmt.Errorf("%w: rotation determinant %v", ErrDegenerateOrientation, det)
	}
	t := m.Col(3).Vec3()
	if !finite(t.X()) || !finite(t.Y()) || !finite(t.Z()) {
		return fmt.Errorf("%w: translation %v", ErrDegenerateOrientation, t)
	}
	c.rotation = mgl32.Mat4ToQuat(r.Mat4()).Normalize()
	c.translation = t
	c.cameraZ = -s
	molrep.Logger().Debug("camera: orientation set", "scale", s)
	c.changed()
	return nil
}

// Translate moves the scene by v in model coordinates.
func (c *Controller) Translate(v mgl32.Vec3) {
	c.translation = c.translation.Add(v)
	c.changed()
}

// Pan moves the scene along the screen axes. dx and dy are in Å.
func (c *Controller) Pan(dx, dy float32) {
	c.Translate(c.rotation.Inverse().Rotate(mgl32.Vec3{dx, dy, 0}))
}

// Center moves point p to the center of rotation.
func (c *Controller) Center(p mgl32.Vec3) {
	c.translation = p.Mul(-1)
	c.changed()
}

// Zoom moves the camera toward the scene by the fraction delta of the
// current distance. Negative values move away.
func (c *Controller) Zoom(delta float32) {
	c.Distance(c.cameraZ * (1 - delta))
}

// Distance sets the camera depth coordinate to exactly z.
func (c *Controller) Distance(z float32) {
	c.cameraZ = z
	c.changed()
}

// Spin rotates the scene by angle radians about axis, given in view
// space.
func (c *Controller) Spin(axis mgl32.Vec3, angle float32) {
	if axis.Len() < minScale {
		return
	}
	local := c.rotation.Inverse().Rotate(axis).Normalize()
	c.rotation = c.rotation.Mul(mgl32.QuatRotate(angle, local)).Normalize()
	c.changed()
}

// Align rotates the scene so that the given basis maps onto the view
// axes. The basis is inverted; an orientation-reversing result has all
// three axes negated.
func (c *Controller) Align(basis mgl32.Mat3) error {
	det := basis.Det()
	if !finite(det) || math32.Abs(det) < minScale {
		return fmt.Errorf("%w: basis determinant %v", ErrDegenerateOrientation, det)
	}
	inv := basis.Inv()
	if inv.Det() < 0 {
		inv = inv.Mul(-1)
	}
	// Gram-Schmidt, so a scaled or sheared basis still yields a rotation.
	x := inv.Col(0).Normalize()
	y := inv.Col(1).Sub(x.Mul(inv.Col(1).Dot(x))).Normalize()
	rot := mgl32.Mat3FromCols(x, y, x.Cross(y))
	c.rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
	c.changed()
	return nil
}

// SetAspect sets the viewport aspect ratio from its size in pixels.
func (c *Controller) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.changed()
}

// ModelView returns the model-view matrix for the current state.
func (c *Controller) ModelView() mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, c.cameraZ).
		Mul4(c.rotation.Mat4()).
		Mul4(mgl32.Translate3D(c.translation[0], c.translation[1], c.translation[2]))
}

// Projection returns the perspective projection.
func (c *Controller) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}

// Matrices returns the draw matrices for buffers.
func (c *Controller) Matrices() buffer.Matrices {
	return buffer.Matrices{ModelView: c.ModelView(), Projection: c.Projection()}
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
