package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

const (
	minZStep    = 0.25
	maxZStep    = 64
	zStepFactor = 1.25
)

// options describe what a variant needs from the shared lifecycle.
type options struct {
	kind       scene.Kind
	zStep      float64
	timeDomain bool
	logAxis    bool
	aging      bool
	poi        func(w, h float64) mgl64.Vec3
}

func defaultPOI(w, h float64) mgl64.Vec3 {
	return mgl64.Vec3{w / 2, h / 3, -150}
}

// core holds the state every variant shares: the scene with its history,
// the analysis buffer, the base and aging materials, and the depth step.
type core struct {
	id   string
	desc string
	opts options

	ctx      *Context
	sc       *scene.Scene
	hist     *scene.History
	base     *scene.Material
	aging    palette
	buf      []uint8
	axis     Axis
	zStep    float64
	paused   bool
	failed   bool
	prepared bool
}

func newCore(id, desc string, opts options) core {
	if opts.poi == nil {
		opts.poi = defaultPOI
	}
	return core{id: id, desc: desc, opts: opts, zStep: opts.zStep}
}

func (c *core) ID() string   { return c.id }
func (c *core) Desc() string { return c.desc }

// Scene returns the scene of the current preparation, or nil.
func (c *core) Scene() *scene.Scene { return c.sc }

func (c *core) Paused() bool { return c.paused }

// Live returns the number of objects currently held by the history.
func (c *core) Live() int {
	if c.hist == nil {
		return 0
	}
	return c.hist.Live()
}

// ZStep returns the current depth step between consecutive objects.
func (c *core) ZStep() float64 { return c.zStep }

func (c *core) prepare(ctx *Context) error {
	if err := ctx.validate(); err != nil {
		return err
	}
	c.cleanUp()

	c.ctx = ctx
	c.sc = scene.New()
	hist, err := scene.NewHistory(c.sc, ctx.Shapes)
	if err != nil {
		return err
	}
	c.hist = hist

	a := ctx.Analyser
	n := a.FrequencyBinCount()
	maxIndex := 0
	if c.opts.timeDomain {
		n = a.FFTSize()
		maxIndex = n
	} else {
		ceiling := ctx.MaxFrequency
		if ceiling <= 0 {
			ceiling = DefaultMaxFrequency
		}
		maxIndex = MaxDrawIndex(n, ceiling, a.SampleRate(), a.FFTSize())
	}
	if len(c.buf) != n {
		c.buf = make([]uint8, n)
	}
	c.axis = NewAxis(ctx.Width, maxIndex, c.opts.logAxis)

	c.base = ctx.Resources.NewMaterial(c.opts.kind, scene.Hex(baseColor), true)
	if c.opts.aging {
		c.aging = newPalette(ctx.Resources, c.opts.kind, ctx.Shapes, func(i int) uint32 {
			return AgingColor(i, ctx.Shapes)
		})
	}

	ctx.Camera.Reset(c.opts.poi(ctx.Width, ctx.Height))
	c.paused = false
	c.failed = false
	c.prepared = true
	return nil
}

// tick pulls a frame, scrolls the history and inserts what build makes of
// the frame. A failed strategy leaves the history as it is.
func (c *core) tick(data func() Frame, build func(Frame) *scene.Object) {
	if !c.prepared || c.failed {
		return
	}
	f := data()
	if c.failed {
		return
	}
	var aged func(int) *scene.Material
	if c.opts.aging {
		aged = c.aging.at
	}
	c.hist.Scroll(c.zStep, aged)
	c.hist.Insert(build(f))
}

// frequencyData fills the shared buffer with spectral magnitudes.
func (c *core) frequencyData() Frame {
	if c.ctx == nil {
		return Frame{}
	}
	c.ctx.Analyser.ByteFrequencyData(c.buf)
	return Frame{Bytes: c.buf}
}

// timeData fills the shared buffer with waveform samples.
func (c *core) timeData() Frame {
	if c.ctx == nil {
		return Frame{}
	}
	c.ctx.Analyser.ByteTimeDomainData(c.buf)
	return Frame{Bytes: c.buf}
}

// points decimates n samples along the axis into plot points at z=0.
// Indices past n read as zero.
func (c *core) points(n int, ys func(i int) float64) []mgl64.Vec3 {
	y := func(i int) float64 {
		if i >= n {
			return 0
		}
		return ys(i)
	}
	picks := c.axis.Decimate(y)
	pts := make([]mgl64.Vec3, len(picks))
	for i, p := range picks {
		pts[i] = mgl64.Vec3{p.X, y(p.Index), 0}
	}
	return pts
}

func (c *core) keydown(k input.Key) bool {
	if !c.prepared {
		return false
	}
	cam := c.ctx.Camera
	switch k {
	case input.KeyW:
		cam.Up()
	case input.KeyS:
		cam.Down()
	case input.KeyA:
		cam.Left()
	case input.KeyD:
		cam.Right()
	case input.KeyR:
		cam.Forward()
	case input.KeyF:
		cam.Backward()
	case input.ArrowUp:
		cam.Pan(0, 1)
	case input.ArrowDown:
		cam.Pan(0, -1)
	case input.ArrowLeft:
		cam.Pan(-1, 0)
	case input.ArrowRight:
		cam.Pan(1, 0)
	case input.KeyC:
		cam.Reset(c.opts.poi(c.ctx.Width, c.ctx.Height))
	case input.KeyZ:
		c.zStep = scaleZStep(c.zStep, 1/zStepFactor)
	case input.KeyX:
		c.zStep = scaleZStep(c.zStep, zStepFactor)
	case input.Space:
		c.paused = !c.paused
	default:
		return false
	}
	return true
}

func scaleZStep(z, f float64) float64 {
	sign := -1.0
	if z > 0 {
		sign = 1
	}
	mag := math.Abs(z) * f
	return sign * math.Max(minZStep, math.Min(maxZStep, mag))
}

// fail marks the strategy as unable to build further objects and logs once.
func (c *core) fail(err error) {
	if c.failed {
		return
	}
	c.failed = true
	c.ctx.logger().Printf("%s: %v", c.id, err)
}

func (c *core) cleanUp() {
	if c.hist != nil {
		c.hist.Reset()
		c.hist = nil
	}
	if c.sc != nil {
		c.sc.Dispose()
		c.sc = nil
	}
	c.base.Dispose()
	c.base = nil
	c.aging.dispose()
	c.aging = nil
	c.prepared = false
}
