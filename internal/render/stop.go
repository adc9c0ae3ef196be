package render

import (
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// Stop pulls no data and builds nothing. Selecting it tears down whatever
// was running and leaves an empty, camera-controllable scene.
type Stop struct {
	core
}

func NewStop() *Stop {
	return &Stop{core: newCore("stop", "Stop", options{kind: scene.KindLine, zStep: -2})}
}

func (s *Stop) Prepare(ctx *Context) error { return s.prepare(ctx) }
func (s *Stop) Data() Frame                { return Frame{} }
func (s *Stop) Build(Frame) *scene.Object  { return nil }
func (s *Stop) Tick()                      {}
func (s *Stop) Keydown(k input.Key) bool   { return s.keydown(k) }
func (s *Stop) CleanUp()                   { s.cleanUp() }
