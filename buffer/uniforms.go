package buffer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform names.
const (
	UniformModelViewMatrixInverse           = "modelViewMatrixInverse"
	UniformModelViewMatrixInverseTranspose  = "modelViewMatrixInverseTranspose"
	UniformModelViewProjectionMatrixInverse = "modelViewProjectionMatrixInverse"
	UniformOpacity                          = "opacity"
	UniformShrink                           = "shrink"
)

// UniformSize is the size in bytes of the packed uniform block: five
// column-major 4x4 matrices followed by one vec4 of scalars.
const UniformSize = 5*64 + 16

// Matrices are the per-draw camera matrices.
type Matrices struct {
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4
}

// binding recomputes one uniform from the draw matrices.
type binding struct {
	name   string
	update func(m Matrices, u *Uniforms)
}

// Uniforms is the uniform set of a buffer. Matrix-derived values are
// recomputed by PrepareDraw before every draw and must not be cached by
// callers across frames.
type Uniforms struct {
	ModelView  mgl32.Mat4
	Projection mgl32.Mat4

	ModelViewInverse           mgl32.Mat4
	ModelViewInverseTranspose  mgl32.Mat4
	ModelViewProjectionInverse mgl32.Mat4

	scalars  map[string]float32
	bindings []binding
}

var (
	bindMVInverse = binding{UniformModelViewMatrixInverse, func(m Matrices, u *Uniforms) {
		u.ModelViewInverse = m.ModelView.Inv()
	}}
	bindMVInverseTranspose = binding{UniformModelViewMatrixInverseTranspose, func(m Matrices, u *Uniforms) {
		u.ModelViewInverseTranspose = m.ModelView.Inv().Transpose()
	}}
	bindMVPInverse = binding{UniformModelViewProjectionMatrixInverse, func(m Matrices, u *Uniforms) {
		u.ModelViewProjectionInverse = m.Projection.Mul4(m.ModelView).Inv()
	}}
)

func newUniforms(family Family, strategy Strategy, o options) *Uniforms {
	u := &Uniforms{
		ModelView:  mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		scalars:    map[string]float32{UniformOpacity: o.opacity},
	}
	switch {
	case family == FamilyText:
	case strategy == StrategyImpostor:
		u.bindings = []binding{bindMVInverse, bindMVInverseTranspose, bindMVPInverse}
	default:
		// Mesh normals only need the normal matrix.
		u.bindings = []binding{bindMVInverseTranspose}
	}
	if family == FamilyCylinder && strategy == StrategyImpostor {
		u.scalars[UniformShrink] = o.shrink
	}
	return u
}

// Bindings returns the names of the self-updating uniforms.
func (u *Uniforms) Bindings() []string {
	names := make([]string, len(u.bindings))
	for i, b := range u.bindings {
		names[i] = b.name
	}
	return names
}

func (u *Uniforms) prepare(m Matrices) {
	u.ModelView, u.Projection = m.ModelView, m.Projection
	for _, b := range u.bindings {
		b.update(m, u)
	}
}

// Scalar returns a scalar uniform and whether it is declared.
func (u *Uniforms) Scalar(name string) (float32, bool) {
	v, ok := u.scalars[name]
	return v, ok
}

// SetScalar sets a declared scalar uniform.
func (u *Uniforms) SetScalar(name string, v float32) error {
	if _, ok := u.scalars[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	u.scalars[name] = v
	return nil
}

// AppendBytes appends the packed little-endian uniform block to dst.
func (u *Uniforms) AppendBytes(dst []byte) []byte {
	for _, m := range [...]*mgl32.Mat4{
		&u.ModelView, &u.Projection,
		&u.ModelViewInverse, &u.ModelViewInverseTranspose, &u.ModelViewProjectionInverse,
	} {
		for _, f := range m {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
		}
	}
	for _, f := range [4]float32{u.scalars[UniformOpacity], u.scalars[UniformShrink]} {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
