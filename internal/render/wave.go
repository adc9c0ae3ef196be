package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// Wave draws the raw waveform on a linear axis, centered on y=0.
type Wave struct {
	core
}

func NewWave() *Wave {
	return &Wave{core: newCore("wave", "Sine Wave", options{
		kind:       scene.KindLine,
		zStep:      -10,
		timeDomain: true,
		aging:      true,
		poi: func(w, _ float64) mgl64.Vec3 {
			return mgl64.Vec3{w / 2, 0, -50}
		},
	})}
}

func (w *Wave) Prepare(ctx *Context) error { return w.prepare(ctx) }
func (w *Wave) Data() Frame                { return w.timeData() }
func (w *Wave) Tick()                      { w.tick(w.Data, w.Build) }
func (w *Wave) Keydown(k input.Key) bool   { return w.keydown(k) }
func (w *Wave) CleanUp()                   { w.cleanUp() }

func (w *Wave) Build(f Frame) *scene.Object {
	if !w.prepared || len(f.Bytes) == 0 {
		return nil
	}
	scale := w.ctx.Height / 256
	pts := w.points(len(f.Bytes), func(i int) float64 {
		return (float64(f.Bytes[i]) - 127.5) * scale
	})
	return scene.NewLine(w.ctx.Resources.NewGeometry(pts, nil), w.base)
}
