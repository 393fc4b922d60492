// Package lighting provides light sources for scene shading.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// Kind classifies a light by its position and cutoff.
type Kind int

const (
	Point Kind = iota
	Directional
	Spot
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Directional:
		return "directional"
	case Spot:
		return "spot"
	default:
		return "unknown"
	}
}

// NoCutoff is the spot cutoff of an omnidirectional light.
const NoCutoff = math32.Pi

// Light is a point, directional or spot light.
type Light struct {
	Ambient  math.Vec3
	Diffuse  math.Vec3
	Specular math.Vec3

	// Position is a point (w=1) or, for directional lights, the direction
	// the light travels in (w=0).
	Position      math.Vec4
	SpotDirection math.Vec4
	// SpotCutoff is the half angle of the cone in radians.
	SpotCutoff float32
}

// New returns a black point light at the origin with no cutoff.
func New() Light {
	return Light{
		Position:   math.Vec4{0, 0, 0, 1},
		SpotCutoff: NoCutoff,
	}
}

// SetPosition makes l a positional light at p.
func (l *Light) SetPosition(p math.Vec3) {
	l.Position = p.Point()
}

// SetDirection makes l a directional light travelling along d.
func (l *Light) SetDirection(d math.Vec3) {
	l.Position = d.Direction()
}

// SetSpot sets the spot direction and cutoff (radians).
func (l *Light) SetSpot(dir math.Vec3, cutoff float32) {
	l.SpotDirection = dir.Direction()
	l.SpotCutoff = cutoff
}

// Kind returns the light's classification.
func (l Light) Kind() Kind {
	if l.Position.W() == 0 {
		return Directional
	}
	if l.SpotCutoff < NoCutoff {
		return Spot
	}
	return Point
}

// Transformed returns l expressed in the frame given by m. Points are
// multiplied by the full matrix; directions only pick up the linear part.
func (l Light) Transformed(m math.Mat4) Light {
	out := l
	out.Position = m.MulVec4(l.Position)
	out.SpotDirection = m.MulVec4(l.SpotDirection)
	return out
}

// ToLight returns the direction from p toward the light. For positional
// lights the vector is not normalized, so p + ToLight(p) is the light itself.
func (l Light) ToLight(p math.Vec3) math.Vec3 {
	if l.Position.W() == 0 {
		return l.Position.XYZ().Neg().Normalize()
	}
	return l.Position.XYZ().Sub(p)
}

// InCone reports whether a surface lit along the unit vector toL lies inside
// the spot cone.
func (l Light) InCone(toL math.Vec3) bool {
	if l.SpotCutoff >= NoCutoff {
		return true
	}
	phi := l.SpotDirection.XYZ().Normalize().Dot(toL.Neg())
	return phi > math32.Cos(l.SpotCutoff)
}

// Clone returns a copy of lights that shares no backing array with them.
func Clone(lights []Light) []Light {
	if lights == nil {
		return nil
	}
	return append(make([]Light, 0, len(lights)), lights...)
}
