// Package material defines surface reflectance properties used by the ray tracer.
package material

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/pkg/math"
)

// energyTolerance is how far absorption+reflection+transparency may stray
// from 1 before Validate reports it.
const energyTolerance = 1e-3

// Material holds Phong colors plus the energy split between local shading,
// reflection and refraction.
type Material struct {
	Ambient  math.Vec3
	Diffuse  math.Vec3
	Specular math.Vec3
	Emission math.Vec3

	Shininess float32

	// Absorption, Reflection and Transparency are expected to sum to 1.
	Absorption      float32
	Reflection      float32
	Transparency    float32
	RefractiveIndex float32
}

// Default returns a black, fully absorbing material.
func Default() Material {
	return Material{
		Absorption:      1,
		RefractiveIndex: 1,
	}
}

// FromColor returns a default material whose ambient color is c.
func FromColor(c math.Vec3) Material {
	m := Default()
	m.Ambient = c
	return m
}

// IsReflective reports whether the material spawns reflected rays.
func (m Material) IsReflective() bool {
	return m.Reflection > 0
}

// IsTransparent reports whether the material spawns refracted rays.
func (m Material) IsTransparent() bool {
	return m.Transparency > 0
}

// Validate checks coefficient ranges and the energy split. The split is not
// enforced anywhere else; callers decide whether a violation is fatal.
func (m Material) Validate() error {
	for name, v := range map[string]float32{
		"absorption":   m.Absorption,
		"reflection":   m.Reflection,
		"transparency": m.Transparency,
		"shininess":    m.Shininess,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, v)
		}
	}
	if m.Transparency > 0 && m.RefractiveIndex <= 0 {
		return fmt.Errorf("refractive index must be positive, got %g", m.RefractiveIndex)
	}
	sum := m.Absorption + m.Reflection + m.Transparency
	if math32.Abs(sum-1) > energyTolerance {
		return fmt.Errorf("absorption+reflection+transparency = %g, want 1", sum)
	}
	return nil
}
