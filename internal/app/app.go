// Package app runs a visualization session: audio in, one strategy ticking
// under the scheduler, a display out, and settings applied at strategy
// boundaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/guidoenr/waterfall/internal/analyzer"
	"github.com/guidoenr/waterfall/internal/audio"
	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/display"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/render"
	"github.com/guidoenr/waterfall/internal/scene"
	"github.com/guidoenr/waterfall/internal/settings"
)

// Config configures the application runtime.
type Config struct {
	DeviceName   string
	DisableAudio bool
	Settings     settings.Settings
	TargetFPS    float64
	PlotWidth    float64
	PlotHeight   float64
	MaxFrequency float64
	Backend      string
	Glyphs       string
	UseANSI      bool
	// NoKeyboard skips the terminal keyboard reader.
	NoKeyboard  bool
	ProfilePath string
	// Debug logs the scheduler's rate report.
	Debug bool
	// Display overrides the backend named by Backend.
	Display display.Display
	Log     *log.Logger
}

// Snapshot is the session state published to the status surface.
type Snapshot struct {
	Strategy    string            `json:"strategy"`
	Description string            `json:"description"`
	Rate        float64           `json:"rate"`
	FrameLength string            `json:"frameLength"`
	SampleRate  float64           `json:"sampleRate"`
	Live        int               `json:"live"`
	Paused      bool              `json:"paused"`
	Device      string            `json:"device,omitempty"`
	Settings    settings.Settings `json:"settings"`
}

// App ties together audio capture, analysis, rendering and display.
type App struct {
	cfg         Config
	log         *log.Logger
	capture     *audio.Capture
	analyser    *analyzer.Analyzer
	cam         *camera.Controller
	res         *scene.Resources
	store       *settings.Store
	sched       *Scheduler
	disp        display.Display
	prof        *profiler
	deviceLabel string

	applied settings.Settings
	changes chan struct{}
	keys    chan input.Key

	mu       sync.RWMutex
	snapshot Snapshot
}

// New constructs the application using the provided configuration.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.PlotWidth <= 1 {
		cfg.PlotWidth = 800
	}
	if cfg.PlotHeight <= 0 {
		cfg.PlotHeight = 400
	}
	if cfg.MaxFrequency <= 0 {
		cfg.MaxFrequency = render.DefaultMaxFrequency
	}
	def := settings.Defaults()
	if cfg.Settings.Shapes == 0 {
		cfg.Settings.Shapes = def.Shapes
	}
	if cfg.Settings.Strategy == "" {
		cfg.Settings.Strategy = def.Strategy
	}

	a := &App{
		cfg:     cfg,
		log:     cfg.Log,
		cam:     camera.New(cfg.PlotWidth, cfg.PlotHeight),
		res:     scene.NewResources(),
		changes: make(chan struct{}, 1),
	}

	var src analyzer.Source
	sampleRate := 44100.0
	if cfg.DisableAudio {
		src = analyzer.NewSynth(sampleRate)
		a.log.Println("audio disabled, using synthetic generator")
	} else {
		capture, err := audio.NewCapture(audio.Config{
			DeviceName: cfg.DeviceName,
			Channels:   2,
		})
		if err != nil {
			return nil, fmt.Errorf("audio capture: %w", err)
		}
		a.capture = capture
		src = capture
		sampleRate = capture.SampleRate()
		if info := capture.Device(); info != nil {
			a.deviceLabel = info.Name
			a.log.Printf("audio capture started on \"%s\" @ %.0f Hz", info.Name, sampleRate)
		} else {
			a.log.Printf("audio capture started @ %.0f Hz", sampleRate)
		}
	}

	// A zero frame size picks the suggestion for the device rate.
	if cfg.Settings.FFTSize == 0 {
		cfg.Settings.FFTSize = settings.SuggestFFTSize(sampleRate)
	}
	store, err := settings.NewStore(cfg.Settings)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("settings: %w", err)
	}
	a.store = store
	a.prof = newProfiler(cfg.ProfilePath, cfg.Log)

	s := store.Get()
	a.analyser, err = analyzer.New(src, analyzer.Config{
		SampleRate: sampleRate,
		FFTSize:    s.FFTSize,
		Smoothing:  s.Smoothing,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("analyser: %w", err)
	}

	a.disp = cfg.Display
	if a.disp == nil {
		a.disp, err = display.Open(display.Options{
			Backend:    cfg.Backend,
			PlotWidth:  cfg.PlotWidth,
			PlotHeight: cfg.PlotHeight,
			Glyphs:     cfg.Glyphs,
			UseANSI:    cfg.UseANSI,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("display: %w", err)
		}
	}

	a.sched = NewScheduler(a.log, a.present)
	a.sched.prof = a.prof
	a.sched.debug = cfg.Debug

	store.Subscribe(func(old, cur settings.Settings) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})

	if err := a.boundary(s, true); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Run drives the display refresh loop until the context is cancelled or the
// user quits.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Duration(float64(time.Second) / a.cfg.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	if !a.cfg.NoKeyboard {
		a.startInputListener(inputCtx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case k, ok := <-a.keys:
			if !ok {
				a.keys = nil
				continue
			}
			if a.handleKey(k) {
				return nil
			}
		case <-a.changes:
			if err := a.applyPending(); err != nil {
				a.log.Printf("settings: %v", err)
			}
		case now := <-ticker.C:
			quit, err := a.step(now)
			if err != nil {
				if errors.Is(err, display.ErrQuit) {
					return nil
				}
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// step runs one display refresh. It reports whether a key asked to quit.
func (a *App) step(now time.Time) (bool, error) {
	for _, k := range a.disp.Keys() {
		if a.handleKey(k) {
			return true, nil
		}
	}
	if _, err := a.sched.Frame(now); err != nil {
		return false, err
	}
	a.publish()
	return false, nil
}

func (a *App) present(st render.Strategy) error {
	return a.disp.Present(st.Scene(), a.cam.Pose(), a.displayStatus())
}

// handleKey offers k to the active strategy first and falls back to the
// session keys. It reports whether the session should end.
func (a *App) handleKey(k input.Key) bool {
	if st := a.sched.Active(); st != nil && st.Keydown(k) {
		return false
	}
	cur := a.store.Get()
	ids := render.IDs()
	switch k {
	case input.KeyQ, input.Escape:
		return true
	case input.Tab:
		next := ids[(indexOf(ids, cur.Strategy)+1)%len(ids)]
		a.update(settings.Patch{Strategy: &next})
	case input.Plus:
		n := min(cur.Shapes+5, settings.MaxShapes)
		a.update(settings.Patch{Shapes: &n})
	case input.Minus:
		n := max(cur.Shapes-5, 1)
		a.update(settings.Patch{Shapes: &n})
	default:
		if d, ok := input.DigitValue(k); ok && d >= 1 && d <= len(ids) {
			a.update(settings.Patch{Strategy: &ids[d-1]})
		}
	}
	return false
}

func (a *App) update(p settings.Patch) {
	if _, err := a.store.Update(p); err != nil {
		a.log.Printf("settings: %v", err)
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// applyPending brings the running session in line with the stored settings.
func (a *App) applyPending() error {
	return a.boundary(a.store.Get(), false)
}

// boundary applies cur. Changes to frame size, shape count or strategy stop
// and clean up the running strategy before the new one is prepared.
func (a *App) boundary(cur settings.Settings, force bool) error {
	old := a.applied
	if cur.Smoothing != old.Smoothing || force {
		if err := a.analyser.SetSmoothing(cur.Smoothing); err != nil {
			return err
		}
	}
	if !force && !old.NeedsRestart(cur) {
		a.applied = cur
		a.publish()
		return nil
	}

	a.sched.Stop()
	if err := a.analyser.SetFFTSize(cur.FFTSize); err != nil {
		return err
	}
	st, err := render.New(cur.Strategy)
	if err != nil {
		return fmt.Errorf("%w: %q", settings.ErrUnknownStrategy, cur.Strategy)
	}
	rctx := &render.Context{
		Analyser:     a.analyser,
		Camera:       a.cam,
		Resources:    a.res,
		Width:        a.cfg.PlotWidth,
		Height:       a.cfg.PlotHeight,
		Shapes:       cur.Shapes,
		MaxFrequency: a.cfg.MaxFrequency,
		Log:          a.log,
	}
	if err := a.sched.Switch(st, rctx); err != nil {
		return fmt.Errorf("prepare %s: %w", cur.Strategy, err)
	}
	a.applied = cur
	a.log.Printf("strategy %s (fft %d, shapes %d, frame %ss)",
		st.Desc(), cur.FFTSize, cur.Shapes, settings.FrameLength(cur.FFTSize, a.analyser.SampleRate()))
	a.publish()
	return nil
}

func (a *App) publish() {
	snap := Snapshot{
		Rate:        a.sched.Rate(),
		FrameLength: settings.FrameLength(a.applied.FFTSize, a.analyser.SampleRate()),
		SampleRate:  a.analyser.SampleRate(),
		Device:      a.deviceLabel,
		Settings:    a.applied,
	}
	if st := a.sched.Active(); st != nil {
		snap.Strategy = st.ID()
		snap.Description = st.Desc()
		snap.Live = st.Live()
		snap.Paused = st.Paused()
	}
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
}

func (a *App) displayStatus() display.Status {
	a.mu.RLock()
	snap := a.snapshot
	a.mu.RUnlock()
	st := display.Status{
		Strategy:    snap.Description,
		Rate:        a.sched.Rate(),
		FrameLength: snap.FrameLength,
		SampleRate:  snap.SampleRate,
		Shapes:      snap.Settings.Shapes,
		Device:      snap.Device,
	}
	if active := a.sched.Active(); active != nil {
		st.Live = active.Live()
		st.Paused = active.Paused()
	}
	return st
}

// Status returns the latest published snapshot. Safe for concurrent use.
func (a *App) Status() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Settings returns the stored settings. Safe for concurrent use.
func (a *App) Settings() settings.Settings {
	return a.store.Get()
}

// UpdateSettings validates and stores p. The session applies it at the next
// strategy boundary. Safe for concurrent use.
func (a *App) UpdateSettings(p settings.Patch) (settings.Settings, error) {
	return a.store.Update(p)
}

// Close releases held resources.
func (a *App) Close() error {
	if a.sched != nil {
		a.sched.Stop()
	}
	var errs []error
	if a.disp != nil {
		errs = append(errs, a.disp.Close())
	}
	if a.capture != nil {
		errs = append(errs, a.capture.Close())
	}
	errs = append(errs, a.prof.Close())
	return errors.Join(errs...)
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		a.keys = nil
		return
	}

	keys := make(chan input.Key, 16)
	a.keys = keys

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(keys)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			k, ok := input.FromKeyboard(char, key)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case keys <- k:
			}
		}
	}()
}

// StrategyInfo names one selectable strategy.
type StrategyInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Strategies lists the registered strategies in selection order.
func (a *App) Strategies() []StrategyInfo {
	ids := render.IDs()
	out := make([]StrategyInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, StrategyInfo{ID: id, Description: render.Describe(id)})
	}
	return out
}
