// Package render implements the interchangeable geometry strategies that turn
// one analysis frame per tick into an object of a scrolling 3D history.
package render

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// ErrInvalidConfig is returned by Prepare when the context cannot back a
// strategy: non-positive frame size, shape count or plot dimensions.
var ErrInvalidConfig = errors.New("invalid render configuration")

// DefaultMaxFrequency is the ceiling above which frequency bins are ignored.
const DefaultMaxFrequency = 15000

// Analyser is the audio-analysis module a strategy pulls frames from. The
// analyser owns the samples; each call overwrites dst.
type Analyser interface {
	FFTSize() int
	FrequencyBinCount() int
	SampleRate() float64
	ByteFrequencyData(dst []uint8)
	ByteTimeDomainData(dst []uint8)
}

// Context carries everything a strategy needs from the session.
type Context struct {
	Analyser     Analyser
	Camera       *camera.Controller
	Resources    *scene.Resources
	Width        float64
	Height       float64
	Shapes       int
	MaxFrequency float64
	Log          *log.Logger
}

func (c *Context) validate() error {
	if c == nil || c.Analyser == nil || c.Camera == nil || c.Resources == nil {
		return fmt.Errorf("%w: incomplete context", ErrInvalidConfig)
	}
	if n := c.Analyser.FFTSize(); n <= 0 {
		return fmt.Errorf("%w: fft size %d", ErrInvalidConfig, n)
	}
	if c.Shapes <= 0 {
		return fmt.Errorf("%w: shape count %d", ErrInvalidConfig, c.Shapes)
	}
	if c.Width <= 1 || c.Height <= 0 {
		return fmt.Errorf("%w: plot %.0fx%.0f", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Analyser.SampleRate() <= 0 {
		return fmt.Errorf("%w: sample rate %.0f", ErrInvalidConfig, c.Analyser.SampleRate())
	}
	return nil
}

func (c *Context) logger() *log.Logger {
	if c.Log == nil {
		c.Log = log.New(io.Discard, "", 0)
	}
	return c.Log
}

// Frame is one analysis frame. Bytes holds magnitudes or waveform samples in
// 0-255; Complex holds an interleaved spectrum for the complex strategy.
type Frame struct {
	Bytes   []uint8
	Complex []float64
}

// Strategy is one geometry-generation algorithm with its own materials,
// buffers and scrolling history.
type Strategy interface {
	ID() string
	Desc() string
	// Prepare allocates buffers and materials for the context and positions
	// the camera. It tears down any previous preparation first.
	Prepare(ctx *Context) error
	// Data pulls the next analysis frame.
	Data() Frame
	// Build turns a frame into one object, or nil when there is nothing to add.
	Build(f Frame) *scene.Object
	// Tick scrolls the history, pulls a frame and inserts its object.
	Tick()
	// Keydown reports whether the key was consumed.
	Keydown(k input.Key) bool
	// CleanUp releases everything the strategy owns. Idempotent.
	CleanUp()
	Scene() *scene.Scene
	Paused() bool
	Live() int
}

type entry struct {
	id   string
	desc string
	make func() Strategy
}

var registry = []entry{
	{"line", "Line", func() Strategy { return NewLine() }},
	{"frontmesh", "Front Mesh", func() Strategy { return NewFrontMesh() }},
	{"upmesh", "Up Mesh", func() Strategy { return NewUpMesh() }},
	{"bar", "Bar", func() Strategy { return NewBar() }},
	{"wave", "Sine Wave", func() Strategy { return NewWave() }},
	{"complex", "Complex Spectrum", func() Strategy { return NewComplex() }},
	{"stop", "Stop", func() Strategy { return NewStop() }},
}

// IDs returns the strategy identifiers in menu order.
func IDs() []string {
	out := make([]string, len(registry))
	for i, e := range registry {
		out[i] = e.id
	}
	return out
}

// Describe returns the human label of id.
func Describe(id string) string {
	for _, e := range registry {
		if e.id == id {
			return e.desc
		}
	}
	return ""
}

// Known reports whether id names a strategy.
func Known(id string) bool {
	return Describe(id) != ""
}

// New creates a fresh, unprepared instance of the strategy id.
func New(id string) (Strategy, error) {
	for _, e := range registry {
		if e.id == id {
			return e.make(), nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q", id)
}
