package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// Bar draws the spectrum as flat bars, grouped by height so that every
// bucket keeps its own color. Bars do not age.
type Bar struct {
	core
	colors palette
}

func NewBar() *Bar {
	return &Bar{core: newCore("bar", "Bar", options{
		kind:    scene.KindMesh,
		zStep:   -2,
		logAxis: true,
	})}
}

func (b *Bar) Prepare(ctx *Context) error {
	if err := b.prepare(ctx); err != nil {
		return err
	}
	b.colors.dispose()
	b.colors = newPalette(ctx.Resources, scene.KindMesh, barBuckets, BarColor)
	for _, m := range b.colors {
		m.Flat = true
	}
	return nil
}

func (b *Bar) Data() Frame              { return b.frequencyData() }
func (b *Bar) Tick()                    { b.tick(b.Data, b.Build) }
func (b *Bar) Keydown(k input.Key) bool { return b.keydown(k) }

func (b *Bar) CleanUp() {
	b.cleanUp()
	b.colors.dispose()
	b.colors = nil
}

// Build emits one quad per adjacent pair of points, from the floor to the
// height of the left point, into the mesh of that height's bucket.
func (b *Bar) Build(f Frame) *scene.Object {
	pts := spectrumPoints(&b.core, f)
	if len(pts) < 2 {
		return nil
	}
	type bucket struct {
		vertices []mgl64.Vec3
		faces    [][3]int
	}
	var buckets [barBuckets]bucket
	for i := 0; i < len(pts)-1; i++ {
		p, next := pts[i], pts[i+1]
		bk := &buckets[BarBucket(p.Y())]
		y := p.Y() + curtainLift
		i4 := len(bk.vertices)
		bk.vertices = append(bk.vertices,
			mgl64.Vec3{p.X(), 0, 0},
			mgl64.Vec3{p.X(), y, 0},
			mgl64.Vec3{next.X(), 0, 0},
			mgl64.Vec3{next.X(), y, 0},
		)
		bk.faces = append(bk.faces,
			[3]int{i4 + 2, i4 + 1, i4},
			[3]int{i4 + 3, i4 + 1, i4 + 2},
		)
	}
	group := scene.NewGroup()
	for i, bk := range buckets {
		if len(bk.vertices) == 0 {
			continue
		}
		group.Add(scene.NewMesh(b.ctx.Resources.NewGeometry(bk.vertices, bk.faces), b.colors[i]))
	}
	return group
}
