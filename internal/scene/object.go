// Package scene holds the renderable objects of a visualization, the
// accounting of their geometry and material resources, and the bounded
// scrolling history that owns them.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Kind distinguishes how an object is drawn.
type Kind int

const (
	KindLine Kind = iota
	KindMesh
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindMesh:
		return "mesh"
	default:
		return "group"
	}
}

// Geometry is a vertex buffer with optional triangle faces.
type Geometry struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int

	res      *Resources
	disposed bool
}

// Dispose releases the geometry. Safe to call more than once.
func (g *Geometry) Dispose() {
	if g == nil || g.disposed {
		return
	}
	g.disposed = true
	g.Vertices = nil
	g.Faces = nil
	if g.res != nil {
		g.res.geometries--
	}
}

// Disposed reports whether Dispose has run.
func (g *Geometry) Disposed() bool { return g.disposed }

// Material describes the color of an object. Shared materials belong to the
// strategy that created them and survive the objects that use them.
type Material struct {
	Kind   Kind
	Color  colorful.Color
	Flat   bool
	Shared bool

	res      *Resources
	disposed bool
}

// Dispose releases the material. Safe to call more than once.
func (m *Material) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.disposed = true
	if m.res != nil {
		m.res.materials--
	}
}

// Disposed reports whether Dispose has run.
func (m *Material) Disposed() bool { return m.disposed }

// Object is a renderable unit: a line, a mesh, or a group of children.
type Object struct {
	Kind     Kind
	Geometry *Geometry
	Material *Material
	Children []*Object
	Position mgl64.Vec3

	parent *Object
}

// NewLine creates a polyline object.
func NewLine(g *Geometry, m *Material) *Object {
	return &Object{Kind: KindLine, Geometry: g, Material: m}
}

// NewMesh creates a triangle mesh object.
func NewMesh(g *Geometry, m *Material) *Object {
	return &Object{Kind: KindMesh, Geometry: g, Material: m}
}

// NewGroup creates a compound object.
func NewGroup(children ...*Object) *Object {
	o := &Object{Kind: KindGroup}
	for _, c := range children {
		o.Add(c)
	}
	return o
}

// Add appends child to a group.
func (o *Object) Add(child *Object) {
	if child == nil {
		return
	}
	child.parent = o
	o.Children = append(o.Children, child)
}

// TranslateZ moves the object along the depth axis.
func (o *Object) TranslateZ(dz float64) {
	o.Position[2] += dz
}

// WorldPosition returns the accumulated translation of o and its parents.
func (o *Object) WorldPosition() mgl64.Vec3 {
	p := o.Position
	for parent := o.parent; parent != nil; parent = parent.parent {
		p = p.Add(parent.Position)
	}
	return p
}

// Traverse calls fn for o and every descendant, parents first.
func (o *Object) Traverse(fn func(*Object)) {
	fn(o)
	for _, c := range o.Children {
		c.Traverse(fn)
	}
}

// SetMaterial assigns m to o and, for groups, to every child.
func (o *Object) SetMaterial(m *Material) {
	o.Traverse(func(obj *Object) {
		if obj.Kind != KindGroup {
			obj.Material = m
		}
	})
}

// Dispose releases every geometry in the object tree, plus materials that
// are not shared.
func (o *Object) Dispose() {
	o.Traverse(func(obj *Object) {
		obj.Geometry.Dispose()
		if obj.Material != nil && !obj.Material.Shared {
			obj.Material.Dispose()
		}
	})
}

// VertexCount counts vertices across the object tree.
func (o *Object) VertexCount() int {
	n := 0
	o.Traverse(func(obj *Object) {
		if obj.Geometry != nil {
			n += len(obj.Geometry.Vertices)
		}
	})
	return n
}
