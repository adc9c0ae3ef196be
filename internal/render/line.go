package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// Line draws one polyline of the log-decimated spectrum per tick.
type Line struct {
	core
}

func NewLine() *Line {
	return &Line{core: newCore("line", "Line", options{
		kind:    scene.KindLine,
		zStep:   -2,
		logAxis: true,
		aging:   true,
	})}
}

func (l *Line) Prepare(ctx *Context) error { return l.prepare(ctx) }
func (l *Line) Data() Frame                { return l.frequencyData() }
func (l *Line) Tick()                      { l.tick(l.Data, l.Build) }
func (l *Line) Keydown(k input.Key) bool   { return l.keydown(k) }
func (l *Line) CleanUp()                   { l.cleanUp() }

func (l *Line) Build(f Frame) *scene.Object {
	pts := spectrumPoints(&l.core, f)
	if pts == nil {
		return nil
	}
	return scene.NewLine(l.ctx.Resources.NewGeometry(pts, nil), l.base)
}

// spectrumPoints decimates a magnitude frame onto the log axis, y being the
// raw magnitude.
func spectrumPoints(c *core, f Frame) []mgl64.Vec3 {
	if !c.prepared || len(f.Bytes) == 0 {
		return nil
	}
	return c.points(len(f.Bytes), func(i int) float64 { return float64(f.Bytes[i]) })
}
