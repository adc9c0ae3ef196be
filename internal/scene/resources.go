package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Resources allocates geometries and materials and counts the ones still
// alive, so that leaks across a long run are observable.
type Resources struct {
	geometries int
	materials  int
}

// NewResources returns an empty allocator.
func NewResources() *Resources {
	return &Resources{}
}

// NewGeometry allocates a geometry over the given vertices and faces.
func (r *Resources) NewGeometry(vertices []mgl64.Vec3, faces [][3]int) *Geometry {
	r.geometries++
	return &Geometry{Vertices: vertices, Faces: faces, res: r}
}

// NewMaterial allocates a material.
func (r *Resources) NewMaterial(kind Kind, color colorful.Color, shared bool) *Material {
	r.materials++
	return &Material{Kind: kind, Color: color, Shared: shared, res: r}
}

// Live returns the number of geometries and materials not yet disposed.
func (r *Resources) Live() (geometries, materials int) {
	return r.geometries, r.materials
}

// Hex converts a 0xRRGGBB value into a color. Bits above 24 are ignored.
func Hex(c uint32) colorful.Color {
	return colorful.Color{
		R: float64(c>>16&0xff) / 255,
		G: float64(c>>8&0xff) / 255,
		B: float64(c&0xff) / 255,
	}
}
