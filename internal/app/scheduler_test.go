package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guidoenr/waterfall/internal/analyzer"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/render"
	"github.com/guidoenr/waterfall/internal/scene"
)

type fakeStrategy struct {
	id      string
	events  *[]string
	ticks   int
	paused  bool
	prepErr error
}

func (f *fakeStrategy) ID() string   { return f.id }
func (f *fakeStrategy) Desc() string { return f.id }
func (f *fakeStrategy) Prepare(*render.Context) error {
	*f.events = append(*f.events, "prepare "+f.id)
	return f.prepErr
}
func (f *fakeStrategy) Data() render.Frame               { return render.Frame{} }
func (f *fakeStrategy) Build(render.Frame) *scene.Object { return nil }
func (f *fakeStrategy) Tick()                            { f.ticks++ }
func (f *fakeStrategy) Keydown(input.Key) bool           { return false }
func (f *fakeStrategy) CleanUp()                         { *f.events = append(*f.events, "cleanup "+f.id) }
func (f *fakeStrategy) Scene() *scene.Scene              { return scene.New() }
func (f *fakeStrategy) Paused() bool                     { return f.paused }
func (f *fakeStrategy) Live() int                        { return f.ticks }

func newFake(id string, events *[]string) *fakeStrategy {
	return &fakeStrategy{id: id, events: events}
}

func TestSchedulerThrottlesWithinThirdOfPeriod(t *testing.T) {
	var events []string
	presents := 0
	s := NewScheduler(nil, func(render.Strategy) error { presents++; return nil })
	st := newFake("line", &events)
	s.Start(st, 90*time.Millisecond)

	t0 := time.Unix(100, 0)
	steps := []struct {
		at   time.Duration
		tick bool
	}{
		{0, true},
		{10 * time.Millisecond, false},
		{29 * time.Millisecond, false},
		{30 * time.Millisecond, true},
		{45 * time.Millisecond, false},
		{70 * time.Millisecond, true},
	}
	for i, step := range steps {
		ticked, err := s.Frame(t0.Add(step.at))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if ticked != step.tick {
			t.Fatalf("frame %d at %v ticked=%v want=%v", i, step.at, ticked, step.tick)
		}
	}
	if st.ticks != 3 || s.Accepted() != 3 {
		t.Fatalf("ticks=%d accepted=%d want 3", st.ticks, s.Accepted())
	}
	if presents != len(steps) {
		t.Fatalf("presents=%d want=%d", presents, len(steps))
	}
}

func TestSchedulerPausedOnlyRedraws(t *testing.T) {
	var events []string
	presents := 0
	s := NewScheduler(nil, func(render.Strategy) error { presents++; return nil })
	st := newFake("bar", &events)
	st.paused = true
	s.Start(st, time.Millisecond)

	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		if ticked, _ := s.Frame(now); ticked {
			t.Fatalf("paused strategy ticked")
		}
	}
	if st.ticks != 0 || presents != 5 {
		t.Fatalf("ticks=%d presents=%d", st.ticks, presents)
	}
}

func TestSchedulerReportsRate(t *testing.T) {
	var events []string
	var buf bytes.Buffer
	s := NewScheduler(newTestLogger(&buf), nil)
	s.debug = true
	s.Start(newFake("wave", &events), 30*time.Millisecond)

	now := time.Unix(0, 0)
	for i := 0; i <= rateWindow; i++ {
		if _, err := s.Frame(now); err != nil {
			t.Fatalf("frame: %v", err)
		}
		now = now.Add(50 * time.Millisecond)
	}
	if got := s.Rate(); got < 19.99 || got > 20.01 {
		t.Fatalf("rate=%.3f want 20", got)
	}
	if !strings.Contains(buf.String(), "wave: 20.0 updates/s") {
		t.Fatalf("rate not logged: %q", buf.String())
	}
}

func TestSchedulerRateReportQuietWithoutDebug(t *testing.T) {
	var events []string
	var buf bytes.Buffer
	s := NewScheduler(newTestLogger(&buf), nil)
	s.Start(newFake("wave", &events), 30*time.Millisecond)

	now := time.Unix(0, 0)
	for i := 0; i <= rateWindow; i++ {
		s.Frame(now)
		now = now.Add(50 * time.Millisecond)
	}
	if got := s.Rate(); got < 19.99 || got > 20.01 {
		t.Fatalf("rate=%.3f want 20", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("rate logged without debug: %q", buf.String())
	}
}

func TestSchedulerPropagatesPresentError(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	s := NewScheduler(nil, func(render.Strategy) error { return boom })
	s.Start(newFake("line", &events), time.Second)
	if _, err := s.Frame(time.Unix(1, 0)); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestSchedulerSwitchCleansUpBeforePrepare(t *testing.T) {
	var events []string
	s := NewScheduler(nil, nil)
	ctx := &render.Context{Analyser: testAnalyser(t), Width: 800, Height: 400, Shapes: 10}

	if err := s.Switch(newFake("a", &events), ctx); err != nil {
		t.Fatalf("switch a: %v", err)
	}
	if err := s.Switch(newFake("b", &events), ctx); err != nil {
		t.Fatalf("switch b: %v", err)
	}
	want := []string{"prepare a", "cleanup a", "prepare b"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("events=%v want=%v", events, want)
	}
	if s.Active().ID() != "b" {
		t.Fatalf("active=%s want b", s.Active().ID())
	}
	if want := FramePeriod(2048, 44100); s.period != want {
		t.Fatalf("period=%v want=%v", s.period, want)
	}
}

func TestSchedulerSwitchFailureLeavesNothingRunning(t *testing.T) {
	var events []string
	s := NewScheduler(nil, nil)
	ctx := &render.Context{Analyser: testAnalyser(t), Width: 800, Height: 400, Shapes: 10}
	bad := newFake("bad", &events)
	bad.prepErr = errors.New("no")
	if err := s.Switch(bad, ctx); err == nil {
		t.Fatalf("expected prepare error")
	}
	if s.Active() != nil {
		t.Fatalf("failed strategy is active")
	}
	if ticked, _ := s.Frame(time.Unix(1, 0)); ticked {
		t.Fatalf("stopped scheduler ticked")
	}
}

func TestFramePeriod(t *testing.T) {
	if got := FramePeriod(4096, 44100); got.Milliseconds() != 92 {
		t.Fatalf("period=%v", got)
	}
	if FramePeriod(4096, 0) != 0 {
		t.Fatalf("zero rate should give zero period")
	}
}

func TestProfilerWritesCSV(t *testing.T) {
	var buf bytes.Buffer
	p := newProfilerWriter(&buf, nil)
	p.beginFrame()
	p.markSection("tick")
	p.endFrame()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "timestamp,section,delta_ms" {
		t.Fatalf("csv=%q", buf.String())
	}
	if !strings.Contains(lines[1], ",tick,") || !strings.Contains(lines[2], ",frame_total,") {
		t.Fatalf("sections missing: %q", buf.String())
	}
	var nilProf *profiler
	nilProf.beginFrame()
	nilProf.markSection("x")
	nilProf.endFrame()
	if err := nilProf.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func testAnalyser(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	a, err := analyzer.New(analyzer.NewSeededSynth(44100, 1), analyzer.Config{SampleRate: 44100, FFTSize: 2048})
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	return a
}
