package render

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/guidoenr/waterfall/internal/camera"
	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

type fakeAnalyser struct {
	fftSize int
	rate    float64
	freq    func(i int) uint8
	wave    func(i int) uint8
	pulls   int
}

func (f *fakeAnalyser) FFTSize() int           { return f.fftSize }
func (f *fakeAnalyser) FrequencyBinCount() int { return f.fftSize / 2 }
func (f *fakeAnalyser) SampleRate() float64    { return f.rate }

func (f *fakeAnalyser) ByteFrequencyData(dst []uint8) {
	f.pulls++
	for i := range dst {
		if f.freq != nil {
			dst[i] = f.freq(i)
		} else {
			dst[i] = uint8((i*7 + f.pulls) % 256)
		}
	}
}

func (f *fakeAnalyser) ByteTimeDomainData(dst []uint8) {
	f.pulls++
	for i := range dst {
		if f.wave != nil {
			dst[i] = f.wave(i)
		} else {
			dst[i] = uint8(127.5 + 100*math.Sin(2*math.Pi*float64(i)/64))
		}
	}
}

func newContext(fftSize, shapes int) (*Context, *fakeAnalyser) {
	a := &fakeAnalyser{fftSize: fftSize, rate: 44100}
	return &Context{
		Analyser:  a,
		Camera:    camera.New(800, 400),
		Resources: scene.NewResources(),
		Width:     800,
		Height:    400,
		Shapes:    shapes,
	}, a
}

func mustPrepare(t *testing.T, s Strategy, ctx *Context) {
	t.Helper()
	if err := s.Prepare(ctx); err != nil {
		t.Fatalf("%s prepare: %v", s.ID(), err)
	}
}

func TestRegistryCreatesEveryStrategy(t *testing.T) {
	for _, id := range IDs() {
		s, err := New(id)
		if err != nil {
			t.Fatalf("New(%q): %v", id, err)
		}
		if s.ID() != id || s.Desc() != Describe(id) {
			t.Fatalf("id=%q desc=%q want id=%q desc=%q", s.ID(), s.Desc(), id, Describe(id))
		}
	}
	if _, err := New("nope"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
	if Known("nope") || !Known("bar") {
		t.Fatalf("Known mismatch")
	}
}

func TestDecimateBoundsPointCount(t *testing.T) {
	for _, n := range []int{16, 512, 4096, 100000} {
		ax := NewAxis(800, n, true)
		picks := ax.Decimate(func(int) float64 { return 1 })
		if len(picks) > ax.MaxPoints() {
			t.Fatalf("n=%d got=%d points want<=%d", n, len(picks), ax.MaxPoints())
		}
		for i := 1; i < len(picks); i++ {
			if picks[i].X-picks[i-1].X < minStep {
				t.Fatalf("n=%d points %d and %d closer than %v", n, i-1, i, minStep)
			}
		}
	}
}

func TestDecimateEmitsAtCrossingWithLoudestSkipped(t *testing.T) {
	// A linear step of 0.5 emits every second sample; the sample between two
	// emissions is skipped and competes with the next emitted one.
	ax := NewAxis(50, 100, false)
	mags := make([]float64, 100)
	mags[3] = 9
	picks := ax.Decimate(func(i int) float64 { return mags[i] })
	if len(picks) != 50 {
		t.Fatalf("picks=%d want=50", len(picks))
	}
	if picks[1].X != 1 || mags[picks[1].Index] != 0 {
		t.Fatalf("pick 1=%+v want x=1 with magnitude 0", picks[1])
	}
	if picks[2].X != 2 || picks[2].Index != 3 {
		t.Fatalf("pick 2=%+v want index 3 at x=2", picks[2])
	}
}

func TestDecimateFirstSampleAlwaysEmitted(t *testing.T) {
	ax := NewAxis(50, 100, false)
	picks := ax.Decimate(func(i int) float64 { return float64(100 - i) })
	if picks[0].X != 0 || picks[0].Index != 0 {
		t.Fatalf("first pick=%+v", picks[0])
	}
}

func TestDecimateTieKeepsFirst(t *testing.T) {
	ax := NewAxis(50, 100, false)
	picks := ax.Decimate(func(int) float64 { return 3 })
	for i, p := range picks {
		want := max(2*i-1, 0)
		if p.Index != want {
			t.Fatalf("pick %d index=%d want=%d", i, p.Index, want)
		}
	}
}

func TestMaxDrawIndex(t *testing.T) {
	cases := []struct {
		bins, fft int
		rate      float64
		want      int
	}{
		{512, 1024, 44100, 349},
		{512, 1024, 22050, 512},
		{4, 8, 44100, 3},
		{0, 8, 44100, 0},
	}
	for _, c := range cases {
		if got := MaxDrawIndex(c.bins, 15000, c.rate, c.fft); got != c.want {
			t.Fatalf("MaxDrawIndex(%d,%d,%v)=%d want=%d", c.bins, c.fft, c.rate, got, c.want)
		}
	}
}

func TestLineEndToEnd(t *testing.T) {
	ctx, a := newContext(1024, 5)
	s := NewLine()
	mustPrepare(t, s, ctx)

	for tick := 1; tick <= 12; tick++ {
		s.Tick()
		if want := min(tick, 5); s.Live() != want {
			t.Fatalf("tick=%d live=%d want=%d", tick, s.Live(), want)
		}
		if s.Scene().Len() != s.Live() {
			t.Fatalf("scene=%d live=%d", s.Scene().Len(), s.Live())
		}
	}
	if a.pulls != 12 {
		t.Fatalf("pulls=%d want=12", a.pulls)
	}
	children := s.Scene().Children()
	seen := map[*scene.Object]bool{}
	for _, c := range children {
		if seen[c] {
			t.Fatalf("object present twice")
		}
		seen[c] = true
		if c.VertexCount() > s.axis.MaxPoints() {
			t.Fatalf("vertices=%d bound=%d", c.VertexCount(), s.axis.MaxPoints())
		}
	}
	geoms, _ := ctx.Resources.Live()
	if geoms != 5 {
		t.Fatalf("live geometries=%d want=5", geoms)
	}
}

func TestAgingRecolorsPreviousNewest(t *testing.T) {
	ctx, _ := newContext(256, 4)
	s := NewLine()
	mustPrepare(t, s, ctx)

	s.Tick()
	first, _ := s.hist.Newest()
	if first.Material != s.base {
		t.Fatalf("newest object should use the base material")
	}
	s.Tick()
	if first.Material != s.aging[1] {
		t.Fatalf("aged material=%v want palette[1]", first.Material.Color)
	}
	if first.Position.Z() != s.ZStep() {
		t.Fatalf("z=%v want=%v", first.Position.Z(), s.ZStep())
	}
}

func TestCleanUpReleasesEverything(t *testing.T) {
	for _, id := range IDs() {
		ctx, _ := newContext(512, 3)
		s, _ := New(id)
		mustPrepare(t, s, ctx)
		for i := 0; i < 7; i++ {
			s.Tick()
		}
		s.CleanUp()
		s.CleanUp()
		if g, m := ctx.Resources.Live(); g != 0 || m != 0 {
			t.Fatalf("%s: live geometries=%d materials=%d after cleanUp", id, g, m)
		}
		if s.Live() != 0 || s.Scene() != nil {
			t.Fatalf("%s: history not released", id)
		}
	}
}

func TestPrepareTwiceDoesNotLeak(t *testing.T) {
	ctx, _ := newContext(512, 3)
	s := NewBar()
	mustPrepare(t, s, ctx)
	s.Tick()
	_, before := ctx.Resources.Live()
	mustPrepare(t, s, ctx)
	if _, after := ctx.Resources.Live(); after != before {
		t.Fatalf("materials before=%d after=%d", before, after)
	}
	if s.Live() != 0 {
		t.Fatalf("live=%d after re-prepare", s.Live())
	}
}

func TestPrepareRejectsInvalidContext(t *testing.T) {
	ctx, _ := newContext(512, 0)
	if err := NewLine().Prepare(ctx); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
	ctx, a := newContext(512, 3)
	a.fftSize = 0
	if err := NewWave().Prepare(ctx); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
}

func TestFrontMeshFaces(t *testing.T) {
	ctx, _ := newContext(256, 2)
	s := NewFrontMesh()
	mustPrepare(t, s, ctx)
	obj := s.Build(s.Data())
	g := obj.Geometry
	n := len(g.Vertices) / 2
	if len(g.Faces) != 2*(n-1) {
		t.Fatalf("faces=%d want=%d", len(g.Faces), 2*(n-1))
	}
	if g.Vertices[0].Y() != 0 || g.Faces[0] != [3]int{2, 1, 0} || g.Faces[1] != [3]int{3, 1, 2} {
		t.Fatalf("unexpected strip start: %v %v", g.Vertices[:2], g.Faces[:2])
	}
	obj.Dispose()
}

func TestUpMeshJoinsPreviousFrame(t *testing.T) {
	ctx, a := newContext(256, 3)
	a.freq = func(int) uint8 { return 10 }
	s := NewUpMesh()
	mustPrepare(t, s, ctx)

	if first := s.Build(s.Data()); first != nil {
		t.Fatalf("first frame has nothing to join and should build nothing")
	}
	a.freq = func(int) uint8 { return 50 }
	second := s.Build(s.Data())
	v := second.Geometry.Vertices
	if v[0].Y() != 50 || v[1].Y() != 10 || v[1].Z() != s.ZStep() {
		t.Fatalf("front=%v back=%v", v[0], v[1])
	}
}

func TestUpMeshFirstTickLeavesSlotEmpty(t *testing.T) {
	ctx, _ := newContext(256, 3)
	s := NewUpMesh()
	mustPrepare(t, s, ctx)
	s.Tick()
	if s.Live() != 0 {
		t.Fatalf("live=%d after first tick want 0", s.Live())
	}
	s.Tick()
	s.Tick()
	if s.Live() != 2 {
		t.Fatalf("live=%d after three ticks want 2", s.Live())
	}
}

func TestBarBucketsByHeight(t *testing.T) {
	ctx, a := newContext(256, 2)
	a.freq = func(i int) uint8 {
		if i < 10 {
			return 255
		}
		return 7
	}
	s := NewBar()
	mustPrepare(t, s, ctx)
	obj := s.Build(s.Data())
	if obj.Kind != scene.KindGroup {
		t.Fatalf("kind=%v want group", obj.Kind)
	}
	colors := map[*scene.Material]bool{}
	for _, c := range obj.Children {
		colors[c.Material] = true
		if len(c.Geometry.Vertices)%4 != 0 {
			t.Fatalf("bar mesh vertex count %d not a multiple of 4", len(c.Geometry.Vertices))
		}
	}
	if !colors[s.colors[63]] || !colors[s.colors[1]] {
		t.Fatalf("expected buckets 63 and 1 to be used")
	}
	if BarBucket(255) != 63 || BarBucket(7) != 1 || BarBucket(0) != 0 {
		t.Fatalf("BarBucket mismatch")
	}
}

func TestBarDoesNotAge(t *testing.T) {
	ctx, _ := newContext(256, 3)
	s := NewBar()
	mustPrepare(t, s, ctx)
	s.Tick()
	obj, _ := s.hist.Newest()
	before := obj.Children[0].Material
	s.Tick()
	if obj.Children[0].Material != before {
		t.Fatalf("bar material changed on aging")
	}
}

func TestWaveCentersSamples(t *testing.T) {
	ctx, a := newContext(256, 2)
	a.wave = func(int) uint8 { return 128 }
	s := NewWave()
	mustPrepare(t, s, ctx)
	obj := s.Build(s.Data())
	want := 0.5 * ctx.Height / 256
	for _, v := range obj.Geometry.Vertices {
		if math.Abs(v.Y()-want) > 1e-9 {
			t.Fatalf("y=%v want=%v", v.Y(), want)
		}
	}
	if got := ctx.Camera.POI; got.Y() != 0 || got.Z() != -50 {
		t.Fatalf("wave poi=%v", got)
	}
}

func TestComplexModes(t *testing.T) {
	want := map[ComplexMode]int{
		ModeMagnitude:     1,
		ModeMagnitudeImag: 2,
		ModeFull:          3,
		ModeNormal:        1,
	}
	ctx, _ := newContext(1024, 3)
	s := NewComplex()
	mustPrepare(t, s, ctx)
	for mode, lines := range want {
		s.SetMode(mode)
		obj := s.Build(s.Data())
		if obj == nil || len(obj.Children) != lines {
			t.Fatalf("%v: children=%v want=%d", mode, obj, lines)
		}
		obj.Dispose()
	}
}

func TestComplexKeyCyclesModes(t *testing.T) {
	ctx, _ := newContext(1024, 3)
	s := NewComplex()
	mustPrepare(t, s, ctx)
	for i := 1; i <= 4; i++ {
		if !s.Keydown(input.KeyM) {
			t.Fatalf("KeyM not consumed")
		}
		if s.Mode() != ComplexMode(i%4) {
			t.Fatalf("mode=%v want=%v", s.Mode(), ComplexMode(i%4))
		}
	}
}

func TestComplexAgingRecolorsChildren(t *testing.T) {
	ctx, _ := newContext(1024, 3)
	s := NewComplex()
	mustPrepare(t, s, ctx)
	s.SetMode(ModeFull)
	s.Tick()
	obj, _ := s.hist.Newest()
	s.Tick()
	for _, c := range obj.Children {
		if c.Material != s.aging[1] {
			t.Fatalf("child not recolored")
		}
	}
}

type failingForward struct{}

func (failingForward) Forward(dst, src []float64) error {
	return errors.New("boom")
}

func TestComplexFailureStopsBuilding(t *testing.T) {
	ctx, _ := newContext(1024, 3)
	var logs bytes.Buffer
	ctx.Log = log.New(&logs, "", 0)
	s := NewComplex()
	mustPrepare(t, s, ctx)
	s.fft = failingForward{}
	s.Tick()
	s.Tick()
	if s.Live() != 0 {
		t.Fatalf("live=%d after failed transforms", s.Live())
	}
	if strings.Count(logs.String(), "boom") != 1 {
		t.Fatalf("want one logged failure, got %q", logs.String())
	}
}

func TestComplexFailureKeepsExistingScene(t *testing.T) {
	ctx, _ := newContext(1024, 3)
	ctx.Log = log.New(io.Discard, "", 0)
	s := NewComplex()
	mustPrepare(t, s, ctx)
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	if s.Live() != 3 {
		t.Fatalf("live=%d want=3 before failure", s.Live())
	}
	newest, _ := s.hist.Newest()
	z := newest.Position.Z()

	s.fft = failingForward{}
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	if s.Live() != 3 || s.Scene().Len() != 3 {
		t.Fatalf("live=%d scene=%d want 3 after failed ticks", s.Live(), s.Scene().Len())
	}
	if newest.Position.Z() != z {
		t.Fatalf("failed ticks scrolled the history: z=%v want=%v", newest.Position.Z(), z)
	}
}

func TestDownsampleGatesQuietValues(t *testing.T) {
	dst := make([]float64, 2)
	downsample(dst, []uint8{128, 128, 127, 128, 200, 200, 200, 200})
	if dst[0] != 0 {
		t.Fatalf("dst[0]=%v want gated 0", dst[0])
	}
	if dst[1] != 72.5 {
		t.Fatalf("dst[1]=%v want=72.5", dst[1])
	}
}

func TestKeydownDefaults(t *testing.T) {
	ctx, _ := newContext(256, 2)
	s := NewLine()
	if s.Keydown(input.KeyW) {
		t.Fatalf("unprepared strategy consumed a key")
	}
	mustPrepare(t, s, ctx)
	ax := ctx.Camera.State.AngleX
	if !s.Keydown(input.KeyW) || ctx.Camera.State.AngleX <= ax {
		t.Fatalf("KeyW did not rotate")
	}
	z := s.ZStep()
	s.Keydown(input.KeyX)
	if s.ZStep() >= z {
		t.Fatalf("KeyX zStep=%v want more negative than %v", s.ZStep(), z)
	}
	if !s.Keydown(input.Space) || !s.Paused() {
		t.Fatalf("Space did not pause")
	}
	if s.Keydown(input.Tab) {
		t.Fatalf("Tab should fall through")
	}
	for i := 0; i < 100; i++ {
		s.Keydown(input.KeyZ)
	}
	if s.ZStep() != -minZStep {
		t.Fatalf("zStep=%v want=%v", s.ZStep(), -minZStep)
	}
}

func TestAgingPalette(t *testing.T) {
	if got := AgingColor(0, 4); got != (256*125+(1<<24))&0xffffff {
		t.Fatalf("AgingColor(0,4)=%#x", got)
	}
	if got := AgingColor(1, 4); got != 256*125+64 {
		t.Fatalf("AgingColor(1,4)=%#x", got)
	}
	if got := AgingColor(2, 4); got != 256*125+(1<<23) {
		t.Fatalf("AgingColor(2,4)=%#x", got)
	}
	if BarColor(0) != 80 || BarColor(1) != 4*65536+80*256 {
		t.Fatalf("BarColor mismatch")
	}
}
