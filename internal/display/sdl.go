//go:build sdl

package display

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// SDL draws the scene with hardware lines and triangles in a window sized
// to the plot.
type SDL struct {
	width, height float64

	window   *sdl.Window
	renderer *sdl.Renderer
	title    string
	keys     []input.Key
	verts    []sdl.Vertex
}

// NewSDL opens a window of plotW x plotH pixels.
func NewSDL(plotW, plotH float64) (Display, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	window, err := sdl.CreateWindow(
		"waterfall",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(plotW), int32(plotH),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl renderer: %w", err)
	}
	_ = renderer.SetLogicalSize(int32(plotW), int32(plotH))
	return &SDL{width: plotW, height: plotH, window: window, renderer: renderer}, nil
}

// Present draws objects back to front, then pumps window events.
func (s *SDL) Present(sc *scene.Scene, pose camera.Pose, st Status) error {
	if title := st.String(); title != s.title {
		s.window.SetTitle(title)
		s.title = title
	}
	r := s.renderer
	if err := r.SetDrawColor(5, 5, 12, 255); err != nil {
		return err
	}
	if err := r.Clear(); err != nil {
		return err
	}

	pr := NewProjector(pose, s.width, s.height, int(s.width), int(s.height))
	var objs []*scene.Object
	if sc != nil {
		for _, root := range sc.Children() {
			root.Traverse(func(o *scene.Object) {
				if o.Geometry != nil && !o.Geometry.Disposed() && o.Material != nil {
					objs = append(objs, o)
				}
			})
		}
	}
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].WorldPosition().Z() < objs[j].WorldPosition().Z()
	})
	for _, o := range objs {
		if err := s.drawObject(o, pr); err != nil {
			return err
		}
	}
	r.Present()
	return s.pump()
}

func (s *SDL) drawObject(o *scene.Object, pr Projector) error {
	offset := o.WorldPosition()
	project := func(v mgl64.Vec3) (Point, bool) { return pr.Project(v.Add(offset)) }
	g := o.Geometry

	switch o.Kind {
	case scene.KindLine:
		var prev Point
		havePrev := false
		for _, v := range g.Vertices {
			p, ok := project(v)
			if ok && havePrev {
				c := sdlColor(o.Material, (prev.Depth+p.Depth)/2)
				if err := s.renderer.SetDrawColor(c.R, c.G, c.B, c.A); err != nil {
					return err
				}
				if err := s.renderer.DrawLineF(float32(prev.X), float32(prev.Y), float32(p.X), float32(p.Y)); err != nil {
					return err
				}
			}
			prev, havePrev = p, ok
		}
	case scene.KindMesh:
		s.verts = s.verts[:0]
		for _, f := range g.Faces {
			var tri [3]Point
			ok := true
			for k := range f {
				p, visible := project(g.Vertices[f[k]])
				tri[k], ok = p, ok && visible
			}
			if !ok {
				continue
			}
			for _, p := range tri {
				s.verts = append(s.verts, sdl.Vertex{
					Position: sdl.FPoint{X: float32(p.X), Y: float32(p.Y)},
					Color:    sdlColor(o.Material, p.Depth),
				})
			}
		}
		if len(s.verts) > 0 {
			return s.renderer.RenderGeometry(nil, s.verts, nil)
		}
	}
	return nil
}

func sdlColor(m *scene.Material, depth float64) sdl.Color {
	near := clamp01(1 - (depth+1)/2)
	c := fogColor.BlendLab(m.Color, 0.25+0.75*near).Clamped()
	r, g, b := c.RGB255()
	return sdl.Color{R: r, G: g, B: b, A: 255}
}

func (s *SDL) pump() error {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return ErrQuit
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN {
				continue
			}
			if k, ok := sdlKey(e.Keysym.Sym); ok {
				s.keys = append(s.keys, k)
			}
		}
	}
	return nil
}

func sdlKey(sym sdl.Keycode) (input.Key, bool) {
	switch sym {
	case sdl.K_UP:
		return input.ArrowUp, true
	case sdl.K_DOWN:
		return input.ArrowDown, true
	case sdl.K_LEFT:
		return input.ArrowLeft, true
	case sdl.K_RIGHT:
		return input.ArrowRight, true
	case sdl.K_ESCAPE:
		return input.Escape, true
	case sdl.K_TAB:
		return input.Tab, true
	case sdl.K_SPACE:
		return input.Space, true
	case sdl.K_EQUALS, sdl.K_PLUS, sdl.K_KP_PLUS:
		return input.Plus, true
	case sdl.K_MINUS, sdl.K_KP_MINUS:
		return input.Minus, true
	}
	if sym >= 0x20 && sym < 0x7f {
		return input.FromRune(rune(sym))
	}
	return "", false
}

// Keys drains the key presses seen since the last call.
func (s *SDL) Keys() []input.Key {
	keys := s.keys
	s.keys = nil
	return keys
}

func (s *SDL) Close() error {
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return true }
