package raycast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenetrace/pkg/math"
)

const eps = 1e-4

func v3(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

func assertVec(t *testing.T, want, got math.Vec3, msg string) {
	t.Helper()
	assert.True(t, want.ApproxEqual(got, eps), "%s: want %v, got %v", msg, want, got)
}

func TestIntersectBox(t *testing.T) {
	tests := []struct {
		name     string
		ray      Ray
		wantHit  bool
		wantT    float32
		wantN    math.Vec3
		incoming bool
	}{
		{"front face", NewRay(v3(0, 0, 10), v3(0, 0, -1)), true, 9.5, v3(0, 0, 1), true},
		{"from the right", NewRay(v3(3, 0.2, 0.1), v3(-1, 0, 0)), true, 2.5, v3(1, 0, 0), true},
		{"from below", NewRay(v3(0.1, -4, 0), v3(0, 2, 0)), true, 1.75, v3(0, -1, 0), true},
		{"from inside", NewRay(v3(0, 0, 0), v3(0, 0, -1)), true, 0.5, v3(0, 0, -1), false},
		{"miss beside", NewRay(v3(2, 0, 10), v3(0, 0, -1)), false, 0, math.Vec3{}, false},
		{"parallel outside slab", NewRay(v3(0, 0.6, 10), v3(0, 0, -1)), false, 0, math.Vec3{}, false},
		{"behind", NewRay(v3(0, 0, 10), v3(0, 0, 1)), false, 0, math.Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := IntersectBox(tt.ray)
			require.Equal(t, tt.wantHit, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantT, hit.Time, eps)
			assertVec(t, tt.wantN, hit.Normal, "normal")
			assert.Equal(t, tt.incoming, hit.Incoming)
		})
	}
}

func TestBoxTexCoords(t *testing.T) {
	hit, ok := IntersectBox(NewRay(v3(0, 0, 10), v3(0, 0, -1)))
	require.True(t, ok)
	// centre of the +z face is the centre of cell (1,1)
	assert.InDelta(t, 0.375, hit.TexCoord.X, eps)
	assert.InDelta(t, 0.375, hit.TexCoord.Y, eps)

	hit, ok = IntersectBox(NewRay(v3(0, 10, 0), v3(0, -1, 0)))
	require.True(t, ok)
	assert.InDelta(t, 0.375, hit.TexCoord.X, eps)
	assert.InDelta(t, 0.625, hit.TexCoord.Y, eps)
}

func TestIntersectSphere(t *testing.T) {
	hit, ok := IntersectSphere(NewRay(v3(0, 0, 10), v3(0, 0, -1)))
	require.True(t, ok)
	assert.InDelta(t, 9.5, hit.Time, eps)
	assertVec(t, v3(0, 0, 0.5), hit.Point, "point")
	assertVec(t, v3(0, 0, 1), hit.Normal, "normal")
	assert.True(t, hit.Incoming)
	// theta = atan2(-0.5, 0) = -pi/2, phi = 0
	assert.InDelta(t, 0.25, hit.TexCoord.X, eps)
	assert.InDelta(t, 0.5, hit.TexCoord.Y, eps)

	// unnormalized direction: t is in multiples of the direction
	hit, ok = IntersectSphere(NewRay(v3(0, 0, 10), v3(0, 0, -2)))
	require.True(t, ok)
	assert.InDelta(t, 4.75, hit.Time, eps)

	hit, ok = IntersectSphere(NewRay(v3(0, 0, 0), v3(1, 0, 0)))
	require.True(t, ok)
	assert.False(t, hit.Incoming)
	assertVec(t, v3(1, 0, 0), hit.Normal, "exit normal")

	_, ok = IntersectSphere(NewRay(v3(0, 0.6, 10), v3(0, 0, -1)))
	assert.False(t, ok)
	_, ok = IntersectSphere(NewRay(v3(0, 0, 10), v3(0, 0, 1)))
	assert.False(t, ok)
}

func TestIntersectCylinder(t *testing.T) {
	tests := []struct {
		name    string
		ray     Ray
		wantHit bool
		wantT   float32
		wantN   math.Vec3
	}{
		{"top cap from above", NewRay(v3(0, 5, 0), v3(0, -1, 0)), true, 4, v3(0, 1, 0)},
		{"bottom cap from below", NewRay(v3(0.2, -3, 0), v3(0, 1, 0)), true, 3, v3(0, -1, 0)},
		{"side", NewRay(v3(0, 0.5, 5), v3(0, 0, -1)), true, 4.5, v3(0, 0, 1)},
		{"oblique into side", NewRay(v3(-5, 0.5, 0), v3(1, 0.01, 0)), true, 4.5, v3(-1, 0, 0)},
		{"above the top", NewRay(v3(0, 1.5, 5), v3(0, 0, -1)), false, 0, math.Vec3{}},
		{"vertical outside radius", NewRay(v3(0.6, 5, 0), v3(0, -1, 0)), false, 0, math.Vec3{}},
		{"grazes past", NewRay(v3(-5, 0.5, 0.7), v3(1, 0, 0)), false, 0, math.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := IntersectCylinder(tt.ray)
			require.Equal(t, tt.wantHit, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantT, hit.Time, eps)
			assertVec(t, tt.wantN, hit.Normal, "normal")
		})
	}
}

func TestIntersectCylinderFromInside(t *testing.T) {
	hit, ok := IntersectCylinder(NewRay(v3(0, 0.5, 0), v3(0, 1, 0)))
	require.True(t, ok)
	assert.False(t, hit.Incoming)
	assert.InDelta(t, 0.5, hit.Time, eps)
	assertVec(t, v3(0, 1, 0), hit.Normal, "normal")
}

func TestIntersectCone(t *testing.T) {
	tests := []struct {
		name    string
		ray     Ray
		wantHit bool
		wantT   float32
	}{
		{"apex from above", NewRay(v3(0, 5, 0), v3(0, -1, 0)), true, 4},
		// upper nappe at t=3.6 is rejected, the real cone starts at y=0.6
		{"off axis from above", NewRay(v3(0.2, 5, 0), v3(0, -1, 0)), true, 4.4},
		{"base from below", NewRay(v3(0.1, -2, 0), v3(0, 1, 0)), true, 2},
		{"side at mid height", NewRay(v3(5, 0.5, 0), v3(-1, 0, 0)), true, 4.75},
		{"above apex", NewRay(v3(5, 1.5, 0), v3(-1, 0, 0)), false, 0},
		{"outside base radius", NewRay(v3(0.6, 5, 0), v3(0, -1, 0)), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := IntersectCone(tt.ray)
			require.Equal(t, tt.wantHit, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantT, hit.Time, eps)
			assert.InDelta(t, 1, hit.Normal.Length(), eps)
		})
	}
}

func TestConeNormals(t *testing.T) {
	hit, ok := IntersectCone(NewRay(v3(0.1, -2, 0), v3(0, 1, 0)))
	require.True(t, ok)
	assertVec(t, v3(0, -1, 0), hit.Normal, "base")

	hit, ok = IntersectCone(NewRay(v3(5, 0.5, 0), v3(-1, 0, 0)))
	require.True(t, ok)
	// slope 0.5 per unit height: normal (1, 0.5, 0) normalized
	assertVec(t, v3(1, 0.5, 0).Normalize(), hit.Normal, "side")
}

func TestIntersectDispatch(t *testing.T) {
	r := NewRay(v3(0, 0.25, 10), v3(0, 0, -1))
	for _, mesh := range []string{Box, Sphere, Cylinder, Cone} {
		assert.True(t, Supported(mesh))
		_, ok := Intersect(mesh, r)
		assert.True(t, ok, mesh)
	}
	assert.False(t, Supported("teapot"))
	_, ok := Intersect("teapot", r)
	assert.False(t, ok)
}

func TestZeroDirection(t *testing.T) {
	r := NewRay(v3(0, 0.5, 0), math.Vec3{})
	for _, mesh := range []string{Box, Sphere, Cylinder, Cone} {
		_, ok := Intersect(mesh, r)
		assert.False(t, ok, mesh)
	}
}
