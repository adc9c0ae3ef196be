package display

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/guidoenr/waterfall/internal/camera"
)

// Point is a projected vertex in output coordinates. Depth is the
// normalized device depth in [-1, 1], smaller being nearer.
type Point struct {
	X, Y  float64
	Depth float64
}

// Projector maps scene coordinates onto an output of cols x rows units.
type Projector struct {
	vp   mgl64.Mat4
	cols float64
	rows float64
}

// NewProjector combines the pose with the perspective of a plotW x plotH
// plot and scales the result to cols x rows.
func NewProjector(pose camera.Pose, plotW, plotH float64, cols, rows int) Projector {
	return Projector{
		vp:   camera.Projection(plotW, plotH).Mul4(pose.View()),
		cols: float64(cols),
		rows: float64(rows),
	}
}

// Project returns the output position of v. ok is false when v lies behind
// the camera or outside the depth range.
func (p Projector) Project(v mgl64.Vec3) (Point, bool) {
	clip := p.vp.Mul4x1(v.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return Point{}, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return Point{}, false
	}
	return Point{
		X:     (ndc.X() + 1) / 2 * p.cols,
		Y:     (1 - ndc.Y()) / 2 * p.rows,
		Depth: ndc.Z(),
	}, true
}
