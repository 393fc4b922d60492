package raytrace

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/internal/engine/texture"
	"github.com/Faultbox/scenetrace/pkg/math"
)

var white = texture.White()

// shade combines the local Phong term, weighted by absorption, with the
// reflected and refracted contributions.
func (f *frame) shade(r raycast.Ray, hit raycast.HitRecord, stack *scene.MatrixStack, depth int) math.Vec3 {
	mat := hit.Material
	dir := r.Direction.XYZ().Normalize()

	// Light the side the ray arrived from.
	normal := hit.Normal
	if !hit.Incoming {
		normal = normal.Neg()
	}
	view := dir.Neg()

	local := mat.Emission
	for _, l := range f.lights {
		local = local.Add(f.illuminate(l, hit, normal, view, stack))
	}

	tex := white
	if hit.TextureName != "" {
		if t := f.s.graph.Texture(hit.TextureName); t != nil {
			tex = t
		}
	}
	color := local.Mul(tex.Sample(hit.TexCoord)).Scale(mat.Absorption)

	if depth <= 0 {
		return color
	}

	if mat.IsReflective() {
		refl := dir.Reflect(normal)
		color = color.Add(f.secondary(hit.Point, refl, stack, depth).Scale(mat.Reflection))
	}
	if mat.IsTransparent() && f.s.cfg.Refraction {
		color = color.Add(f.refract(dir, hit, stack, depth).Scale(mat.Transparency))
	}
	return color
}

// illuminate returns one light's ambient, diffuse and specular terms at p.
// Lights outside their spot cone contribute nothing; occluded lights keep
// only the ambient term.
func (f *frame) illuminate(l lighting.Light, hit raycast.HitRecord, n, view math.Vec3, stack *scene.MatrixStack) math.Vec3 {
	mat := hit.Material
	toLight := l.ToLight(hit.Point)
	lv := toLight.Normalize()
	if !l.InCone(lv) {
		return math.Vec3{}
	}

	out := mat.Ambient.Mul(l.Ambient)

	nDotL := n.Dot(lv)
	if nDotL <= 0 {
		return out
	}
	if f.occluded(hit.Point, lv, toLight, l, stack) {
		return out
	}

	out = out.Add(mat.Diffuse.Mul(l.Diffuse).Scale(nDotL))

	rDotV := lv.Neg().Reflect(n).Dot(view)
	if rDotV > 0 {
		out = out.Add(mat.Specular.Mul(l.Specular).Scale(math32.Pow(rDotV, mat.Shininess)))
	}
	return out
}

// occluded casts a shadow ray toward the light. Its direction is the
// un-normalized vector to the light, so anything hit with 0 < t < 1 lies
// between the point and the light.
func (f *frame) occluded(p, lv, toLight math.Vec3, l lighting.Light, stack *scene.MatrixStack) bool {
	if l.Kind() == lighting.Directional {
		toLight = lv.Scale(directionalDistance)
	}
	f.shadowRays.Add(1)

	start := p.Add(lv.Scale(f.s.cfg.Bias))
	hit, ok := f.s.graph.RayIntersect(raycast.NewRay(start, toLight), stack)
	return ok && hit.Time > 0 && hit.Time < 1
}

// refract follows a transmitted ray through the surface. Entering rays are
// traced to the far side of the same convex solid and refracted again on the
// way out; rays that started inside refract once. Total internal reflection
// at either interface contributes nothing.
func (f *frame) refract(dir math.Vec3, hit raycast.HitRecord, stack *scene.MatrixStack, depth int) math.Vec3 {
	n := hit.Material.RefractiveIndex
	if n <= 0 {
		n = 1
	}

	if !hit.Incoming {
		t, ok := dir.Refract(hit.Normal.Neg(), n)
		if !ok {
			return math.Vec3{}
		}
		return f.secondary(hit.Point, t, stack, depth)
	}

	t, ok := dir.Refract(hit.Normal, 1/n)
	if !ok {
		return math.Vec3{}
	}
	inside := f.offsetRay(hit.Point, t)
	exit, ok := f.s.graph.RayIntersect(inside, stack)
	if !ok || exit.Incoming {
		// not a closed convex solid: keep tracing the inner ray
		return f.rayCast(inside, stack, depth-1)
	}

	out, ok := t.Refract(exit.Normal.Neg(), n)
	if !ok {
		return math.Vec3{}
	}
	return f.secondary(exit.Point, out, stack, depth)
}
