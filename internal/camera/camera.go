// Package camera implements a free camera orbiting a point of interest.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the mutable orientation of the camera.
type State struct {
	AngleX   float64
	AngleY   float64
	Distance float64
	Offset   mgl64.Vec3
}

// Limits bounds the orbit.
type Limits struct {
	MinAngleX   float64
	MaxAngleX   float64
	MinAngleY   float64
	MaxAngleY   float64
	MinDistance float64
	MaxDistance float64
}

// Pose is the camera transform produced by Apply.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
}

// Controller holds the orbit state around POI and turns key actions into poses.
type Controller struct {
	POI    mgl64.Vec3
	State  State
	Limits Limits

	AngleStep    float64
	DistanceStep float64
	PanStep      float64

	width float64
	pose  Pose
}

// New creates a Controller for a plot of the given width, positioned at the
// default point of interest for a width x height plot.
func New(width, height float64) *Controller {
	c := &Controller{
		width: width,
		Limits: Limits{
			MinAngleX:   0,
			MaxAngleX:   math.Pi / 2,
			MinAngleY:   -math.Pi / 2,
			MaxAngleY:   math.Pi / 2,
			MinDistance: 0.25 * width,
			MaxDistance: 4 * width,
		},
		AngleStep:    3 * math.Pi / 180,
		DistanceStep: 0.05 * width,
		PanStep:      0.02 * width,
	}
	c.Reset(mgl64.Vec3{width / 2, height / 3, -150})
	return c
}

// Reset moves the orbit to poi and restores the default angles, distance and
// offset.
func (c *Controller) Reset(poi mgl64.Vec3) Pose {
	c.POI = poi
	c.State = State{
		AngleX:   math.Pi / 6,
		AngleY:   0,
		Distance: 2.1 * c.width,
	}
	return c.Apply()
}

// Apply clamps the state and recomputes the pose.
func (c *Controller) Apply() Pose {
	s := &c.State
	l := c.Limits
	s.AngleX = clamp(s.AngleX, l.MinAngleX, l.MaxAngleX)
	s.AngleY = clamp(s.AngleY, l.MinAngleY, l.MaxAngleY)
	if l.MaxDistance > l.MinDistance {
		s.Distance = clamp(s.Distance, l.MinDistance, l.MaxDistance)
	}

	sinX, cosX := math.Sincos(s.AngleX)
	sinY, cosY := math.Sincos(s.AngleY)
	position := mgl64.Vec3{
		c.POI.X() + s.Distance*sinY,
		c.POI.Y() + s.Distance*sinX*cosY,
		c.POI.Z() + s.Distance*cosX*cosY,
	}
	rotation := mgl64.Vec3{-s.AngleX, s.AngleY, 0}

	// offset is expressed in the camera's local axes
	local := mgl64.Rotate3DX(rotation.X()).Mul3(mgl64.Rotate3DY(rotation.Y()))
	position = position.Add(local.Mul3x1(s.Offset))

	c.pose = Pose{Position: position, Rotation: rotation}
	return c.pose
}

// Pose returns the pose computed by the last Apply.
func (c *Controller) Pose() Pose { return c.pose }

func (c *Controller) Up() Pose {
	c.State.AngleX += c.AngleStep
	return c.Apply()
}

func (c *Controller) Down() Pose {
	c.State.AngleX -= c.AngleStep
	return c.Apply()
}

func (c *Controller) Right() Pose {
	c.State.AngleY += c.AngleStep
	return c.Apply()
}

func (c *Controller) Left() Pose {
	c.State.AngleY -= c.AngleStep
	return c.Apply()
}

// Forward moves the camera towards the point of interest.
func (c *Controller) Forward() Pose {
	c.State.Distance -= c.DistanceStep
	return c.Apply()
}

// Backward moves the camera away from the point of interest.
func (c *Controller) Backward() Pose {
	c.State.Distance += c.DistanceStep
	return c.Apply()
}

// Pan shifts the local offset by dx, dy pan steps.
func (c *Controller) Pan(dx, dy float64) Pose {
	c.State.Offset = c.State.Offset.Add(mgl64.Vec3{dx * c.PanStep, dy * c.PanStep, 0})
	return c.Apply()
}

// View returns the world-to-camera matrix of the pose.
func (p Pose) View() mgl64.Mat4 {
	world := mgl64.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).
		Mul4(mgl64.HomogRotate3DX(p.Rotation.X())).
		Mul4(mgl64.HomogRotate3DY(p.Rotation.Y())).
		Mul4(mgl64.HomogRotate3DZ(p.Rotation.Z()))
	return world.Inv()
}

// Projection returns the perspective projection used for a width x height
// plot: 15 degree vertical field of view, far plane at three plot widths.
func Projection(width, height float64) mgl64.Mat4 {
	if height <= 0 {
		height = 1
	}
	return mgl64.Perspective(mgl64.DegToRad(15), width/height, 1, width*3)
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
