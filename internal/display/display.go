// Package display presents a scene through a camera pose, either as colored
// text in a terminal or in an SDL window.
package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// ErrQuit is returned by Present once the user closed the output.
var ErrQuit = errors.New("display closed")

// Status is the diagnostic line shown with every frame.
type Status struct {
	Strategy    string
	Rate        float64
	FrameLength string
	SampleRate  float64
	Live        int
	Shapes      int
	Paused      bool
	Device      string
}

// String renders the status as a single line.
func (s Status) String() string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(s.Strategy)
	if s.Paused {
		b.WriteString(" [paused]")
	}
	b.WriteString(" | rate ")
	appendFloat(&b, s.Rate, 1)
	b.WriteString("/s frame ")
	b.WriteString(s.FrameLength)
	b.WriteString("s @ ")
	appendFloat(&b, s.SampleRate, 0)
	b.WriteString(" Hz | shapes ")
	b.WriteString(strconv.Itoa(s.Live))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(s.Shapes))
	if s.Device != "" {
		b.WriteString(" | mic=")
		b.WriteString(s.Device)
	}
	return b.String()
}

func appendFloat(b *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b.Write(strconv.AppendFloat(buf[:0], value, 'f', precision, 64))
}

// Display is an output backend. Present is called once per scheduler
// invocation, throttled or not.
type Display interface {
	Present(sc *scene.Scene, pose camera.Pose, st Status) error
	// Keys drains key presses the backend captured itself. Backends that
	// rely on the terminal keyboard reader return nil.
	Keys() []input.Key
	Close() error
}

// Backend names accepted by Open.
const (
	BackendTerminal = "terminal"
	BackendSDL      = "sdl"
)

// Options configure Open.
type Options struct {
	Backend string
	// Plot size in scene units; also the SDL window size in pixels.
	PlotWidth  float64
	PlotHeight float64
	Glyphs     string
	UseANSI    bool
}

// Open creates the backend named in opts.
func Open(opts Options) (Display, error) {
	switch opts.Backend {
	case "", BackendTerminal:
		return NewTerminal(TerminalConfig{
			PlotWidth:  opts.PlotWidth,
			PlotHeight: opts.PlotHeight,
			Glyphs:     opts.Glyphs,
			UseANSI:    opts.UseANSI,
		}), nil
	case BackendSDL:
		return NewSDL(opts.PlotWidth, opts.PlotHeight)
	default:
		return nil, fmt.Errorf("unknown display backend %q", opts.Backend)
	}
}
