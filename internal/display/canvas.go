package display

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/guidoenr/waterfall/internal/scene"
)

// Cell is one depth-tested sample of a Canvas.
type Cell struct {
	Color colorful.Color
	Depth float64
	Fill  bool
	Set   bool
}

// Canvas is a small software rasterizer with a depth buffer, sized in
// terminal cells.
type Canvas struct {
	W, H  int
	cells []Cell
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Resize changes the size and clears the canvas.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	c.W, c.H = w, h
	if cap(c.cells) < w*h {
		c.cells = make([]Cell, w*h)
	}
	c.cells = c.cells[:w*h]
	c.Clear()
}

func (c *Canvas) Clear() {
	clear(c.cells)
}

// At returns the cell at x, y.
func (c *Canvas) At(x, y int) Cell {
	return c.cells[y*c.W+x]
}

func (c *Canvas) plot(x, y int, depth float64, col colorful.Color, fill bool) {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return
	}
	cell := &c.cells[y*c.W+x]
	if cell.Set && cell.Depth <= depth {
		return
	}
	*cell = Cell{Color: col, Depth: depth, Fill: fill, Set: true}
}

// Line draws a segment between a and b, interpolating depth.
func (c *Canvas) Line(a, b Point, col colorful.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps > 4*(c.W+c.H) {
		// Clip absurdly long segments produced near the camera plane.
		steps = 4 * (c.W + c.H)
	}
	if steps == 0 {
		c.plot(int(a.X), int(a.Y), a.Depth, col, false)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.plot(
			int(math.Floor(a.X+dx*t)),
			int(math.Floor(a.Y+dy*t)),
			a.Depth+(b.Depth-a.Depth)*t,
			col, false,
		)
	}
}

// Triangle fills the triangle abc using barycentric coverage of cell
// centers.
func (c *Canvas) Triangle(a, b, p Point, col colorful.Color) {
	minX := max(0, int(math.Floor(math.Min(a.X, math.Min(b.X, p.X)))))
	maxX := min(c.W-1, int(math.Ceil(math.Max(a.X, math.Max(b.X, p.X)))))
	minY := max(0, int(math.Floor(math.Min(a.Y, math.Min(b.Y, p.Y)))))
	maxY := min(c.H-1, int(math.Ceil(math.Max(a.Y, math.Max(b.Y, p.Y)))))
	area := edge(a, b, p.X, p.Y)
	if area == 0 {
		c.Line(a, b, col)
		c.Line(b, p, col)
		return
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			w0 := edge(b, p, px, py) / area
			w1 := edge(p, a, px, py) / area
			w2 := edge(a, b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			c.plot(x, y, w0*a.Depth+w1*b.Depth+w2*p.Depth, col, true)
		}
	}
}

func edge(a, b Point, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
}

// Draw rasterizes every object of sc.
func (c *Canvas) Draw(sc *scene.Scene, pr Projector) {
	if sc == nil {
		return
	}
	for _, root := range sc.Children() {
		root.Traverse(func(obj *scene.Object) {
			c.drawObject(obj, pr)
		})
	}
}

func (c *Canvas) drawObject(obj *scene.Object, pr Projector) {
	g := obj.Geometry
	if g == nil || g.Disposed() || obj.Material == nil {
		return
	}
	offset := obj.WorldPosition()
	col := obj.Material.Color
	project := func(v mgl64.Vec3) (Point, bool) {
		return pr.Project(v.Add(offset))
	}

	switch obj.Kind {
	case scene.KindLine:
		var prev Point
		havePrev := false
		for _, v := range g.Vertices {
			p, ok := project(v)
			if ok && havePrev {
				c.Line(prev, p, col)
			}
			prev, havePrev = p, ok
		}
	case scene.KindMesh:
		for _, f := range g.Faces {
			a, okA := project(g.Vertices[f[0]])
			b, okB := project(g.Vertices[f[1]])
			p, okC := project(g.Vertices[f[2]])
			if okA && okB && okC {
				c.Triangle(a, b, p, col)
			}
		}
	}
}
