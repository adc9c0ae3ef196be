package render

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
	"github.com/guidoenr/waterfall/internal/spectrum"
)

const (
	// complexDecimation is how many waveform samples are averaged into one
	// transform input.
	complexDecimation = 4
	// complexGate zeroes centered samples quieter than this.
	complexGate = 0.6
)

// ComplexMode selects how each complex bin is drawn.
type ComplexMode int

const (
	// ModeMagnitude draws |c| as y.
	ModeMagnitude ComplexMode = iota
	// ModeMagnitudeImag adds the imaginary part along z.
	ModeMagnitudeImag
	// ModeFull draws the 3D ribbon (re, im) plus both projections.
	ModeFull
	// ModeNormal draws the direction of c at a log-compressed length.
	ModeNormal

	complexModes
)

func (m ComplexMode) String() string {
	switch m {
	case ModeMagnitude:
		return "magnitude"
	case ModeMagnitudeImag:
		return "magnitude+imag"
	case ModeFull:
		return "full"
	case ModeNormal:
		return "normal"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type forwarder interface {
	Forward(dst, src []float64) error
}

// Complex transforms a decimated waveform itself and draws the complex
// spectrum as one or more lines grouped per tick.
type Complex struct {
	core
	mode ComplexMode

	fft      forwarder
	in       []float64
	out      []float64
	maxIndex int
}

func NewComplex() *Complex {
	return &Complex{core: newCore("complex", "Complex Spectrum", options{
		kind:       scene.KindLine,
		zStep:      -2,
		timeDomain: true,
		logAxis:    true,
		aging:      true,
	})}
}

// Mode returns the active sub-rendering.
func (c *Complex) Mode() ComplexMode { return c.mode }

// SetMode switches the sub-rendering used by the next Build.
func (c *Complex) SetMode(m ComplexMode) {
	if m < 0 || m >= complexModes {
		m = ModeMagnitude
	}
	c.mode = m
}

func (c *Complex) Prepare(ctx *Context) error {
	if err := c.prepare(ctx); err != nil {
		return err
	}
	a := ctx.Analyser
	n := max(1, a.FFTSize()/complexDecimation)
	t, err := spectrum.New(n)
	if err != nil {
		return err
	}
	c.fft = t
	c.in = make([]float64, n)
	c.out = make([]float64, 2*n)

	ceiling := ctx.MaxFrequency
	if ceiling <= 0 {
		ceiling = DefaultMaxFrequency
	}
	// Decimating the input by k keeps the bin spacing at sampleRate/fftSize.
	c.maxIndex = MaxDrawIndex(max(1, n/2), ceiling, a.SampleRate(), a.FFTSize())
	c.axis = NewAxis(ctx.Width, c.maxIndex, true)
	return nil
}

// Data averages the waveform down, centers and gates it, and transforms
// the result. Once a transform has failed, Data returns empty frames.
func (c *Complex) Data() Frame {
	if !c.prepared || c.failed {
		return Frame{}
	}
	raw := c.timeData().Bytes
	downsample(c.in, raw)
	if err := c.fft.Forward(c.out, c.in); err != nil {
		c.fail(err)
		return Frame{}
	}
	return Frame{Complex: c.out}
}

func (c *Complex) Tick() { c.tick(c.Data, c.Build) }

// Keydown cycles the sub-rendering on M and falls back to the shared keys.
func (c *Complex) Keydown(k input.Key) bool {
	if k == input.KeyM && c.prepared {
		c.SetMode((c.mode + 1) % complexModes)
		return true
	}
	return c.keydown(k)
}

func (c *Complex) CleanUp() {
	c.cleanUp()
	c.fft = nil
	c.in = nil
	c.out = nil
}

// Build returns a group of lines, one per component the mode draws.
func (c *Complex) Build(f Frame) *scene.Object {
	if !c.prepared || len(f.Complex) < 2 {
		return nil
	}
	bins := len(f.Complex) / 2
	n := min(bins, c.maxIndex)
	scale := 2 * c.ctx.Height / (127.5 * float64(bins))
	bin := func(i int) complex128 {
		if i >= n {
			return 0
		}
		return spectrum.At(f.Complex, i)
	}
	picks := c.axis.Decimate(func(i int) float64 { return cmplx.Abs(bin(i)) })

	var lines [][]mgl64.Vec3
	switch c.mode {
	case ModeMagnitudeImag:
		lines = make([][]mgl64.Vec3, 2)
	case ModeFull:
		lines = make([][]mgl64.Vec3, 3)
	default:
		lines = make([][]mgl64.Vec3, 1)
	}
	normLen := c.ctx.Height / math.Log1p(c.ctx.Height)

	for _, p := range picks {
		v := bin(p.Index)
		re, im, mag := real(v)*scale, imag(v)*scale, cmplx.Abs(v)*scale
		switch c.mode {
		case ModeMagnitude:
			lines[0] = append(lines[0], mgl64.Vec3{p.X, mag, 0})
		case ModeMagnitudeImag:
			lines[0] = append(lines[0], mgl64.Vec3{p.X, mag, 0})
			lines[1] = append(lines[1], mgl64.Vec3{p.X, 0, im})
		case ModeFull:
			lines[0] = append(lines[0], mgl64.Vec3{p.X, re, im})
			lines[1] = append(lines[1], mgl64.Vec3{p.X, re, 0})
			lines[2] = append(lines[2], mgl64.Vec3{p.X, 0, im})
		case ModeNormal:
			pt := mgl64.Vec3{p.X, 0, 0}
			if mag > 0 {
				l := normLen * math.Log1p(mag)
				pt[1] = l * re / mag
				pt[2] = l * im / mag
			}
			lines[0] = append(lines[0], pt)
		}
	}

	group := scene.NewGroup()
	for _, pts := range lines {
		group.Add(scene.NewLine(c.ctx.Resources.NewGeometry(pts, nil), c.base))
	}
	return group
}

// downsample box-averages src into len(dst) centered values and zeroes the
// ones inside the gate.
func downsample(dst []float64, src []uint8) {
	if len(dst) == 0 {
		return
	}
	k := max(1, len(src)/len(dst))
	for i := range dst {
		sum, cnt := 0.0, 0
		for j := i * k; j < (i+1)*k && j < len(src); j++ {
			sum += float64(src[j])
			cnt++
		}
		v := 0.0
		if cnt > 0 {
			v = sum/float64(cnt) - 127.5
		}
		if math.Abs(v) < complexGate {
			v = 0
		}
		dst[i] = v
	}
}
