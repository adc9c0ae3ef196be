// Package settings holds the operator-facing visualization settings and
// notifies subscribers when they change.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/guidoenr/waterfall/internal/analyzer"
	"github.com/guidoenr/waterfall/internal/render"
)

var (
	// ErrUnknownStrategy is returned when a strategy id is not registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrFFTSize is returned for a frame size outside the selectable options.
	ErrFFTSize = errors.New("fft size must be a power of two between 512 and 32768")
)

const (
	MinFFTOption = 512
	MaxFFTOption = 32768
	MaxShapes    = 1000
)

// Settings are the values an operator can change while running.
type Settings struct {
	FFTSize   int     `json:"fftSize"`
	Shapes    int     `json:"shapes"`
	Strategy  string  `json:"strategy"`
	Smoothing float64 `json:"smoothing"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		FFTSize:   4096,
		Shapes:    60,
		Strategy:  "line",
		Smoothing: 0,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	if s.FFTSize < MinFFTOption || s.FFTSize > MaxFFTOption || s.FFTSize&(s.FFTSize-1) != 0 {
		return fmt.Errorf("fft size %d: %w", s.FFTSize, ErrFFTSize)
	}
	if s.Shapes <= 0 || s.Shapes > MaxShapes {
		return fmt.Errorf("shape count %d out of range [1, %d]", s.Shapes, MaxShapes)
	}
	if !render.Known(s.Strategy) {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, s.Strategy)
	}
	if s.Smoothing < 0 || s.Smoothing > 1 {
		return fmt.Errorf("smoothing %.2f out of range [0, 1]", s.Smoothing)
	}
	return nil
}

// NeedsRestart reports whether moving from s to next changes anything that
// can only be applied at a strategy boundary.
func (s Settings) NeedsRestart(next Settings) bool {
	return s.FFTSize != next.FFTSize || s.Shapes != next.Shapes || s.Strategy != next.Strategy
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	FFTSize   *int     `json:"fftSize,omitempty"`
	Shapes    *int     `json:"shapes,omitempty"`
	Strategy  *string  `json:"strategy,omitempty"`
	Smoothing *float64 `json:"smoothing,omitempty"`
}

// Apply returns s with the patch merged in.
func (p Patch) Apply(s Settings) Settings {
	if p.FFTSize != nil {
		s.FFTSize = *p.FFTSize
	}
	if p.Shapes != nil {
		s.Shapes = *p.Shapes
	}
	if p.Strategy != nil {
		s.Strategy = *p.Strategy
	}
	if p.Smoothing != nil {
		s.Smoothing = *p.Smoothing
	}
	return s
}

// Store guards the current settings. Subscribers run synchronously after a
// successful change, outside the lock, with the old and new values.
type Store struct {
	mu   sync.RWMutex
	cur  Settings
	subs []func(old, cur Settings)
}

// NewStore validates initial and wraps it.
func NewStore(initial Settings) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Store{cur: initial}, nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn func(old, cur Settings)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Set replaces the settings if next is valid.
func (s *Store) Set(next Settings) error {
	_, err := s.swap(func(Settings) Settings { return next })
	return err
}

// Update applies p to the current settings. The read, validation and write
// happen under one lock so concurrent patches do not overwrite each other.
func (s *Store) Update(p Patch) (Settings, error) {
	return s.swap(p.Apply)
}

// swap computes and validates the next settings under the lock, then
// notifies subscribers outside it.
func (s *Store) swap(fn func(Settings) Settings) (Settings, error) {
	s.mu.Lock()
	old := s.cur
	next := fn(old)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return old, err
	}
	s.cur = next
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	if old == next {
		return next, nil
	}
	for _, fn := range subs {
		fn(old, next)
	}
	return next, nil
}

// RoundFFTSize returns the selectable frame size nearest to n from above.
func RoundFFTSize(n int) int {
	return min(max(analyzer.RoundFFTSize(n), MinFFTOption), MaxFFTOption)
}

// FFTSizeOptions lists the selectable frame sizes.
func FFTSizeOptions() []int {
	var out []int
	for n := MinFFTOption; n <= MaxFFTOption; n *= 2 {
		out = append(out, n)
	}
	return out
}

// SuggestFFTSize picks the first option longer than a fifteenth of a second
// at sampleRate, or the largest option.
func SuggestFFTSize(sampleRate float64) int {
	opts := FFTSizeOptions()
	for _, n := range opts {
		if float64(n) > sampleRate/15 {
			return n
		}
	}
	return opts[len(opts)-1]
}

// FrameLength formats the duration of one frame in seconds.
func FrameLength(fftSize int, sampleRate float64) string {
	if sampleRate <= 0 {
		return "0.0000"
	}
	return fmt.Sprintf("%.4f", float64(fftSize)/sampleRate)
}
