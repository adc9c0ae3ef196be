package app

import (
	"io"
	"log"
	"time"

	"github.com/guidoenr/waterfall/internal/render"
)

// rateWindow is the number of accepted ticks between two rate reports.
const rateWindow = 50

// Scheduler decides, on every display refresh, whether the active strategy
// advances by one tick or the existing scene is only drawn again.
type Scheduler struct {
	log     *log.Logger
	present func(render.Strategy) error
	prof    *profiler
	// debug enables the periodic rate report in the log.
	debug bool

	strategy render.Strategy
	period   time.Duration
	running  bool

	last        time.Time
	accepted    int
	windowStart time.Time
	windowTicks int
	rate        float64
}

// NewScheduler creates a stopped scheduler. present is called once per
// Frame with the active strategy.
func NewScheduler(logger *log.Logger, present func(render.Strategy) error) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scheduler{log: logger, present: present}
}

// FramePeriod returns the duration of one analysis frame.
func FramePeriod(fftSize int, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(fftSize) / sampleRate * float64(time.Second))
}

// Start schedules st, which must already be prepared.
func (s *Scheduler) Start(st render.Strategy, period time.Duration) {
	s.strategy = st
	s.period = period
	s.running = st != nil
	s.last = time.Time{}
	s.accepted = 0
	s.windowStart = time.Time{}
	s.windowTicks = 0
}

// Stop withholds further ticks and cleans the active strategy up. Safe to
// call when nothing is running.
func (s *Scheduler) Stop() {
	s.running = false
	if s.strategy != nil {
		s.strategy.CleanUp()
		s.strategy = nil
	}
}

// Switch stops the active strategy, prepares next and starts it. The old
// strategy is cleaned up before next is prepared.
func (s *Scheduler) Switch(next render.Strategy, ctx *render.Context) error {
	s.Stop()
	if err := next.Prepare(ctx); err != nil {
		return err
	}
	a := ctx.Analyser
	s.Start(next, FramePeriod(a.FFTSize(), a.SampleRate()))
	return nil
}

// Active returns the running strategy, or nil.
func (s *Scheduler) Active() render.Strategy {
	if !s.running {
		return nil
	}
	return s.strategy
}

// Frame handles one display refresh at now. Invocations closer than a third
// of the frame period to the last accepted tick, and every invocation while
// the strategy is paused, only redraw. It reports whether a tick ran.
func (s *Scheduler) Frame(now time.Time) (bool, error) {
	if !s.running || s.strategy == nil {
		return false, nil
	}
	s.prof.beginFrame()
	defer s.prof.endFrame()

	throttled := s.strategy.Paused() ||
		(!s.last.IsZero() && now.Sub(s.last) < s.period/3)
	if !throttled {
		s.strategy.Tick()
		s.prof.markSection("tick")
		s.accept(now)
	}

	var err error
	if s.present != nil {
		err = s.present(s.strategy)
		s.prof.markSection("present")
	}
	return !throttled, err
}

func (s *Scheduler) accept(now time.Time) {
	s.last = now
	s.accepted++
	if s.windowStart.IsZero() {
		s.windowStart = now
		return
	}
	s.windowTicks++
	if s.windowTicks < rateWindow {
		return
	}
	if elapsed := now.Sub(s.windowStart).Seconds(); elapsed > 0 {
		s.rate = float64(s.windowTicks) / elapsed
		if s.debug {
			s.log.Printf("%s: %.1f updates/s", s.strategy.ID(), s.rate)
		}
	}
	s.windowStart = now
	s.windowTicks = 0
}

// Rate returns the last reported update rate in ticks per second.
func (s *Scheduler) Rate() float64 { return s.rate }

// Accepted returns the number of ticks since Start.
func (s *Scheduler) Accepted() int { return s.accepted }
