// Package camera provides the cameras that produce the initial view
// transform of a render.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// Camera produces a world to camera transform.
type Camera interface {
	ViewMatrix() math.Mat4
}

var up = math.Vec3{X: 0, Y: 1, Z: 0}

// LookAtCamera sits at Eye looking toward Center.
type LookAtCamera struct {
	Eye    math.Vec3
	Center math.Vec3
	Up     math.Vec3
}

// NewLookAt returns a camera at eye looking at center with +y up.
func NewLookAt(eye, center math.Vec3) *LookAtCamera {
	return &LookAtCamera{Eye: eye, Center: center, Up: up}
}

// ViewMatrix returns the view matrix for this camera.
func (c *LookAtCamera) ViewMatrix() math.Mat4 {
	u := c.Up
	if u == (math.Vec3{}) {
		u = up
	}
	return math.LookAt(c.Eye, c.Center, u)
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera looking at the origin from +z.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		MinDistance:     0.1,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * math32.Sin(c.Yaw),
		Y: c.Distance * math32.Sin(c.Pitch),
		Z: c.Distance * cp * math32.Cos(c.Yaw),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleDrag rotates the camera by a pointer delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.clamp()
}

// HandleZoom scales the distance by a wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.clamp()
}

func (c *OrbitCamera) clamp() {
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// FitToBounds centers the camera on a bounding box and backs off far enough
// to see all of it with a vertical field of view of fov radians.
func (c *OrbitCamera) FitToBounds(min, max math.Vec3, fov float32) {
	c.Center = min.Add(max).Scale(0.5)
	radius := max.Sub(min).Length() / 2
	c.Distance = radius / math32.Sin(fov/2)
	c.clamp()
}
