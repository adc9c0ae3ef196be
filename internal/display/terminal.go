package display

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string

	fogColor = colorful.Color{R: 0.02, G: 0.02, B: 0.05}
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

// TerminalConfig configures the text backend. Zero Cols and Rows follow the
// terminal size.
type TerminalConfig struct {
	Out        io.Writer
	Cols       int
	Rows       int
	PlotWidth  float64
	PlotHeight float64
	Glyphs     string
	UseANSI    bool
}

// Terminal draws the scene as colored characters on the alternate screen.
type Terminal struct {
	cfg    TerminalConfig
	out    *bufio.Writer
	glyphs []rune
	canvas *Canvas
	opened bool
	fixed  bool
}

func NewTerminal(cfg TerminalConfig) *Terminal {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	fixed := cfg.Out != os.Stdout || (cfg.Cols > 0 && cfg.Rows > 0)
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		cfg.Cols, cfg.Rows = 80, 24
	}
	return &Terminal{
		cfg:    cfg,
		out:    bufio.NewWriterSize(cfg.Out, 64*1024),
		glyphs: Glyphs(cfg.Glyphs),
		canvas: NewCanvas(cfg.Cols, max(cfg.Rows-1, 1)),
		fixed:  fixed,
	}
}

func (t *Terminal) open() {
	if t.opened {
		return
	}
	t.opened = true
	t.out.WriteString("\x1b[?1049h\x1b[2J\x1b[H\x1b[?25l")
}

func (t *Terminal) ensureDimensions() {
	if t.fixed {
		return
	}
	fd := int(os.Stdout.Fd())
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 1 {
		return
	}
	if w == t.cfg.Cols && h == t.cfg.Rows {
		return
	}
	t.cfg.Cols, t.cfg.Rows = w, h
	t.canvas.Resize(w, h-1)
}

// Present rasterizes sc and rewrites the whole screen, status bar last.
func (t *Terminal) Present(sc *scene.Scene, pose camera.Pose, st Status) error {
	t.open()
	t.ensureDimensions()

	c := t.canvas
	c.Clear()
	c.Draw(sc, NewProjector(pose, t.cfg.PlotWidth, t.cfg.PlotHeight, c.W, c.H))

	t.out.WriteString("\x1b[H")
	for y := 0; y < c.H; y++ {
		t.writeRow(y)
		t.out.WriteString("\r\n")
	}
	t.out.WriteString(statusBar(st.String(), t.cfg.Cols))
	return t.out.Flush()
}

func (t *Terminal) writeRow(y int) {
	c := t.canvas
	var row strings.Builder
	row.Grow(c.W * 8)
	lastColor := -1
	for x := 0; x < c.W; x++ {
		cell := c.At(x, y)
		if !cell.Set {
			row.WriteByte(' ')
			continue
		}
		// Depth runs from -1 (near) to 1 (far); far cells fade into the fog.
		near := clamp01(1 - (cell.Depth+1)/2)
		near = math.Pow(near, 0.35)
		v := near
		if cell.Fill {
			v = 0.4 + 0.6*near
		}
		if t.cfg.UseANSI {
			fg := rgbToANSI(fogColor.BlendLab(cell.Color, 0.25+0.75*near).Clamped())
			if fg != lastColor {
				row.WriteString(colorCode(fg))
				lastColor = fg
			}
		}
		row.WriteRune(glyphFor(t.glyphs, v))
	}
	if t.cfg.UseANSI {
		row.WriteString(resetANSI)
	}
	t.out.WriteString(row.String())
}

// Keys returns nil: the terminal keyboard is read by the session.
func (t *Terminal) Keys() []input.Key { return nil }

// Close restores the cursor and the primary screen.
func (t *Terminal) Close() error {
	if !t.opened {
		return nil
	}
	t.opened = false
	t.out.WriteString("\x1b[?25h\x1b[?1049l\x1b[0m")
	return t.out.Flush()
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	if len(text) >= width {
		return text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}

func colorCode(index int) string {
	if index < 0 {
		index = 0
	} else if index >= len(precomputedANSI) {
		index = len(precomputedANSI) - 1
	}
	return precomputedANSI[index]
}

// rgbToANSI maps a color onto the xterm 256-color cube, using the gray ramp
// for unsaturated colors.
func rgbToANSI(c colorful.Color) int {
	r, g, b := clamp01(c.R), clamp01(c.G), clamp01(c.B)

	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
