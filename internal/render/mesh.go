package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/input"
	"github.com/guidoenr/waterfall/internal/scene"
)

// curtainLift keeps zero magnitudes visible as a thin strip.
const curtainLift = 2

// FrontMesh draws a vertical curtain from the floor up to the spectrum.
type FrontMesh struct {
	core
}

func NewFrontMesh() *FrontMesh {
	return &FrontMesh{core: newCore("frontmesh", "Front Mesh", options{
		kind:    scene.KindMesh,
		zStep:   -2,
		logAxis: true,
		aging:   true,
	})}
}

func (m *FrontMesh) Prepare(ctx *Context) error { return m.prepare(ctx) }
func (m *FrontMesh) Data() Frame                { return m.frequencyData() }
func (m *FrontMesh) Tick()                      { m.tick(m.Data, m.Build) }
func (m *FrontMesh) Keydown(k input.Key) bool   { return m.keydown(k) }
func (m *FrontMesh) CleanUp()                   { m.cleanUp() }

func (m *FrontMesh) Build(f Frame) *scene.Object {
	pts := spectrumPoints(&m.core, f)
	if pts == nil {
		return nil
	}
	floor := make([]mgl64.Vec3, len(pts))
	top := make([]mgl64.Vec3, len(pts))
	for i, p := range pts {
		floor[i] = mgl64.Vec3{p.X(), 0, 0}
		top[i] = mgl64.Vec3{p.X(), p.Y() + curtainLift, 0}
	}
	vertices, faces := strip(floor, top)
	return scene.NewMesh(m.ctx.Resources.NewGeometry(vertices, faces), m.base)
}

// UpMesh joins each spectrum to the previous one with a ribbon lying one
// depth step behind.
type UpMesh struct {
	core
	prev []mgl64.Vec3
}

func NewUpMesh() *UpMesh {
	return &UpMesh{core: newCore("upmesh", "Up Mesh", options{
		kind:    scene.KindMesh,
		zStep:   -2,
		logAxis: true,
		aging:   true,
	})}
}

func (m *UpMesh) Prepare(ctx *Context) error {
	m.prev = nil
	return m.prepare(ctx)
}

func (m *UpMesh) Data() Frame              { return m.frequencyData() }
func (m *UpMesh) Tick()                    { m.tick(m.Data, m.Build) }
func (m *UpMesh) Keydown(k input.Key) bool { return m.keydown(k) }

func (m *UpMesh) CleanUp() {
	m.prev = nil
	m.cleanUp()
}

// Build remembers the new points for the next call. The first call has no
// previous frame to join and builds nothing.
func (m *UpMesh) Build(f Frame) *scene.Object {
	pts := spectrumPoints(&m.core, f)
	if pts == nil {
		return nil
	}
	prev := m.prev
	m.prev = pts
	if len(prev) == 0 {
		return nil
	}

	back := make([]mgl64.Vec3, len(pts))
	for i := range pts {
		// Decimation depends only on the axis, so both sets share x.
		src := prev[min(i, len(prev)-1)]
		back[i] = mgl64.Vec3{src.X(), src.Y(), m.zStep}
	}
	vertices, faces := strip(pts, back)
	return scene.NewMesh(m.ctx.Resources.NewGeometry(vertices, faces), m.base)
}

// strip interleaves a and b into a triangle strip with two faces per
// adjacent pair.
func strip(a, b []mgl64.Vec3) ([]mgl64.Vec3, [][3]int) {
	vertices := make([]mgl64.Vec3, 0, 2*len(a))
	faces := make([][3]int, 0, 2*max(len(a)-1, 0))
	for i := range a {
		vertices = append(vertices, a[i], b[i])
		if i > 0 {
			faces = append(faces,
				[3]int{2 * i, 2*i - 1, 2*i - 2},
				[3]int{2*i + 1, 2*i - 1, 2 * i},
			)
		}
	}
	return vertices, faces
}
