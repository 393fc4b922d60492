// Package raycast provides rays, hit records and closed-form ray intersection
// for the canonical unit primitives.
package raycast

import (
	"github.com/Faultbox/scenetrace/internal/engine/material"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Ray is a half line. Start is a point (w=1), Direction a vector (w=0) that
// need not be normalized: t is measured in multiples of Direction.
type Ray struct {
	Start     math.Vec4
	Direction math.Vec4
}

// NewRay builds a ray from a start point and a direction.
func NewRay(start, dir math.Vec3) Ray {
	return Ray{Start: start.Point(), Direction: dir.Direction()}
}

// At returns the point at parameter t.
func (r Ray) At(t float32) math.Vec3 {
	return r.Start.XYZ().Add(r.Direction.XYZ().Scale(t))
}

// Transform returns r with both start and direction multiplied by m.
func (r Ray) Transform(m math.Mat4) Ray {
	return Ray{Start: m.MulVec4(r.Start), Direction: m.MulVec4(r.Direction)}
}

// HitRecord describes the nearest intersection of a ray with the scene.
type HitRecord struct {
	// Time is the ray parameter of the hit, always >= 0.
	Time     float32
	Point    math.Vec3
	Normal   math.Vec3 // outward facing
	Material material.Material
	// TextureName is empty for untextured surfaces.
	TextureName string
	TexCoord    math.Vec2
	// Incoming is true when the ray enters the solid, false when the ray
	// started inside and the hit is on the way out.
	Incoming bool
}

// Closer reports whether h is a hit nearer than other. A missing other
// always loses.
func (h HitRecord) Closer(other *HitRecord) bool {
	return other == nil || h.Time < other.Time
}

// ToWorld maps a hit computed in a local frame back through the
// local-to-world matrix m. The point uses m, the normal its inverse
// transpose with w dropped, and the result is re-normalized.
func (h HitRecord) ToWorld(m math.Mat4) HitRecord {
	out := h
	out.Point = m.TransformPoint(h.Point)
	n := m.NormalMatrix().MulVec4(h.Normal.Direction())
	out.Normal = n.XYZ().Normalize()
	return out
}
