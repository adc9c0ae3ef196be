//go:build !sdl

package display

import "errors"

// NewSDL fails in builds without the sdl tag.
func NewSDL(plotW, plotH float64) (Display, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return false }
