package buffer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// sphereTemplate is a unit UV sphere shared by all entities of a mesh
// sphere buffer.
type sphereTemplate struct {
	points []float32 // unit positions, which are also the normals
	index  []uint32
}

// newSphereTemplate tessellates a unit sphere. Detail 0 gives 6 latitude
// bands; every level adds 4.
func newSphereTemplate(detail int) sphereTemplate {
	lat := 6 + 4*detail
	lon := 2 * lat
	var t sphereTemplate
	for i := 0; i <= lat; i++ {
		theta := float32(i) * math32.Pi / float32(lat)
		st, ct := math32.Sincos(theta)
		for j := 0; j <= lon; j++ {
			phi := float32(j) * 2 * math32.Pi / float32(lon)
			sp, cp := math32.Sincos(phi)
			t.points = append(t.points, cp*st, ct, sp*st)
		}
	}
	row := uint32(lon + 1)
	for i := uint32(0); i < uint32(lat); i++ {
		for j := uint32(0); j < uint32(lon); j++ {
			a := i*row + j
			b := a + row
			t.index = append(t.index, a, b, a+1, b, b+1, a+1)
		}
	}
	return t
}

func (t sphereTemplate) vertexCount() int { return len(t.points) / 3 }

// cylinderBasis returns the unit axis from p1 to p2 and two unit vectors
// perpendicular to it and each other.
func cylinderBasis(p1, p2 mgl32.Vec3) (axis, u, v mgl32.Vec3) {
	d := p2.Sub(p1)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}
	}
	axis = d.Normalize()
	ref := mgl32.Vec3{0, 1, 0}
	if math32.Abs(axis.Dot(ref)) > 0.9 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	u = axis.Cross(ref).Normalize()
	v = axis.Cross(u)
	return axis, u, v
}

// cylinderRings are the axial positions of the four vertex rings of a mesh
// cylinder. The two middle rings coincide so each half can carry the
// color of its own endpoint.
var cylinderRings = [4]float32{0, 0.5, 0.5, 1}

// cylinderIndex builds the open-ended side triangles for one cylinder with
// the given number of radial segments, joining ring 0 to 1 and ring 2 to 3.
func cylinderIndex(segments int) []uint32 {
	seg := uint32(segments)
	var out []uint32
	for _, r := range [2]uint32{0, 2} {
		for j := uint32(0); j < seg; j++ {
			a := r*seg + j
			b := r*seg + (j+1)%seg
			c := a + seg
			d := b + seg
			out = append(out, a, c, b, b, c, d)
		}
	}
	return out
}

func vec3At(s []float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{s[3*i], s[3*i+1], s[3*i+2]}
}

func putVec3(s []float32, i int, v mgl32.Vec3) {
	s[3*i], s[3*i+1], s[3*i+2] = v[0], v[1], v[2]
}
