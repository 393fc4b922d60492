package raytrace

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/material"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/internal/engine/texture"
	"github.com/Faultbox/scenetrace/pkg/math"
)

const eps = 1e-3

func v3(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

// sceneBuilder assembles small scenes of canonical primitives.
type sceneBuilder struct {
	graph *scene.Scenegraph
	root  *scene.Group
}

func newScene() *sceneBuilder {
	g := scene.New(nil)
	for _, p := range []string{raycast.Box, raycast.Sphere, raycast.Cylinder, raycast.Cone} {
		g.AddPolygonMesh(p, scene.NewMesh(p, p+".obj"))
	}
	return &sceneBuilder{graph: g, root: scene.NewGroup("root")}
}

// add places a primitive scaled by size and centred at pos.
func (b *sceneBuilder) add(name, mesh string, pos, size math.Vec3, mat material.Material) *scene.Leaf {
	leaf := scene.NewLeaf(name, mesh)
	leaf.SetMaterial(mat)
	xf := scene.NewTransform(name + "-xf")
	xf.SetTransform(math.Translate(pos.X, pos.Y, pos.Z).Mul(math.Scale(size.X, size.Y, size.Z)))
	if err := xf.AddChild(leaf); err != nil {
		panic(err)
	}
	b.root.AddChild(xf)
	return leaf
}

func (b *sceneBuilder) light(l lighting.Light) {
	b.root.AddLight(l)
}

func (b *sceneBuilder) build() *scene.Scenegraph {
	b.graph.MakeScenegraph(b.root)
	return b.graph
}

func ambientLight() lighting.Light {
	l := lighting.New()
	l.Ambient = v3(1, 1, 1)
	return l
}

func render(t *testing.T, g *scene.Scenegraph, cfg Config, w, h int) ([][]math.Vec3, *Solver) {
	t.Helper()
	s := NewSolver(g, cfg, nil)
	px, err := s.RayTrace(context.Background(), w, h, scene.NewMatrixStack(math.Identity()))
	require.NoError(t, err)
	require.Len(t, px, h)
	require.Len(t, px[0], w)
	return px, s
}

// centre returns the pixel whose primary ray is exactly -z in a 2x2 image.
func centre(px [][]math.Vec3) math.Vec3 { return px[0][1] }

func TestMissReturnsBackground(t *testing.T) {
	b := newScene()
	b.add("behind", raycast.Box, v3(0, 0, 5), v3(1, 1, 1), material.FromColor(v3(1, 1, 1)))
	b.light(ambientLight())

	cfg := DefaultConfig()
	cfg.Background = v3(0.1, 0.2, 0.3)
	px, s := render(t, b.build(), cfg, 4, 3)
	for _, row := range px {
		for _, c := range row {
			assert.Equal(t, cfg.Background, c)
		}
	}
	assert.Equal(t, int64(12), s.Stats().PrimaryRays)
}

func TestAmbientOnly(t *testing.T) {
	b := newScene()
	b.add("wall", raycast.Box, v3(0, 0, -5), v3(4, 4, 1), material.FromColor(v3(0.5, 0, 0)))
	b.light(ambientLight())

	px, _ := render(t, b.build(), DefaultConfig(), 2, 2)
	assert.True(t, centre(px).ApproxEqual(v3(0.5, 0, 0), eps), "got %v", centre(px))
}

func diffuseWhite() material.Material {
	m := material.Default()
	m.Diffuse = v3(1, 1, 1)
	return m
}

func TestShadow(t *testing.T) {
	lamp := lighting.New()
	lamp.SetPosition(v3(0, 5, -2))
	lamp.Diffuse = v3(1, 1, 1)

	build := func(withOccluder bool) *scene.Scenegraph {
		b := newScene()
		b.add("wall", raycast.Box, v3(0, 0, -10), v3(20, 20, 1), diffuseWhite())
		if withOccluder {
			// on the segment between the lit point and the lamp, off the camera ray
			b.add("blocker", raycast.Box, v3(0, 2.5, -5.75), v3(1, 1, 1), diffuseWhite())
		}
		b.light(lamp)
		return b.build()
	}

	lit, s := render(t, build(false), DefaultConfig(), 2, 2)
	// N.L for the vector (0, 5, 7.5)
	assert.InDelta(t, 0.832, centre(lit).X, eps)
	assert.Positive(t, s.Stats().ShadowRays)

	dark, _ := render(t, build(true), DefaultConfig(), 2, 2)
	assert.Equal(t, math.Vec3{}, centre(dark))
}

func TestFacingMirrorsTerminate(t *testing.T) {
	mirror := material.Default()
	mirror.Absorption = 0
	mirror.Reflection = 1

	b := newScene()
	b.add("front", raycast.Box, v3(0, 0, -5), v3(20, 20, 1), mirror)
	b.add("back", raycast.Box, v3(0, 0, 5), v3(20, 20, 1), mirror)
	b.light(ambientLight())

	cfg := DefaultConfig()
	cfg.MaxBounces = 3
	px, s := render(t, b.build(), cfg, 4, 4)
	assert.Equal(t, 3, s.Stats().MaxDepth)
	assert.Equal(t, math.Vec3{}, px[2][2])
	assert.Positive(t, s.Stats().SecondaryRays)
}

func TestImageIsFlipped(t *testing.T) {
	b := newScene()
	b.add("high", raycast.Box, v3(0, 3, -5), v3(1, 1, 1), material.FromColor(v3(1, 1, 1)))
	b.light(ambientLight())

	px, _ := render(t, b.build(), DefaultConfig(), 8, 8)
	assert.Equal(t, v3(1, 1, 1), px[0][4], "object above the axis shows in the top row")
	assert.Equal(t, v3(1, 1, 1), px[1][4])
	assert.Equal(t, math.Vec3{}, px[7][4])
}

func glass(index float32) material.Material {
	m := material.Default()
	m.Absorption = 0
	m.Transparency = 1
	m.RefractiveIndex = index
	return m
}

func TestRefractionPassesThrough(t *testing.T) {
	build := func() *scene.Scenegraph {
		b := newScene()
		b.add("ball", raycast.Sphere, v3(0, 0, -4), v3(2, 2, 2), glass(1))
		b.add("wall", raycast.Box, v3(0, 0, -10), v3(20, 20, 1), material.FromColor(v3(1, 0, 0)))
		b.light(ambientLight())
		return b.build()
	}

	px, _ := render(t, build(), DefaultConfig(), 2, 2)
	assert.True(t, centre(px).ApproxEqual(v3(1, 0, 0), eps), "got %v", centre(px))

	cfg := DefaultConfig()
	cfg.Refraction = false
	px, _ = render(t, build(), cfg, 2, 2)
	assert.Equal(t, math.Vec3{}, centre(px))

	cfg = DefaultConfig()
	cfg.MaxBounces = 0
	px, _ = render(t, build(), cfg, 2, 2)
	assert.Equal(t, math.Vec3{}, centre(px), "no bounces left, no transmitted light")
}

func TestRefractionThroughDenseSphereCentre(t *testing.T) {
	b := newScene()
	b.add("ball", raycast.Sphere, v3(0, 0, -4), v3(2, 2, 2), glass(1.5))
	b.add("wall", raycast.Box, v3(0, 0, -10), v3(20, 20, 1), material.FromColor(v3(0, 1, 0)))
	b.light(ambientLight())

	// the central ray meets both interfaces head on and is not bent
	px, _ := render(t, b.build(), DefaultConfig(), 2, 2)
	assert.True(t, centre(px).ApproxEqual(v3(0, 1, 0), eps), "got %v", centre(px))
}

func TestSpotCutoff(t *testing.T) {
	spot := lighting.New()
	spot.SetPosition(v3(0, 0, 0))
	spot.Ambient = v3(1, 1, 1)
	spot.SetSpot(v3(0, 0, 1), math.Radians(20)) // pointing away from the wall

	b := newScene()
	b.add("wall", raycast.Box, v3(0, 0, -5), v3(4, 4, 1), material.FromColor(v3(0.5, 0.5, 0.5)))
	b.light(spot)
	px, _ := render(t, b.build(), DefaultConfig(), 2, 2)
	assert.Equal(t, math.Vec3{}, centre(px))
}

func TestTextureModulatesLocalTerm(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	b := newScene()
	leaf := b.add("wall", raycast.Box, v3(0, 0, -5), v3(4, 4, 1), material.FromColor(v3(1, 1, 1)))
	leaf.SetTextureName("blue")
	b.light(ambientLight())
	g := b.build()
	g.SetTexture("blue", texture.New("blue", img))

	px, _ := render(t, g, DefaultConfig(), 2, 2)
	assert.True(t, centre(px).ApproxEqual(v3(0, 0, 1), eps), "got %v", centre(px))
}

func TestRayTraceErrors(t *testing.T) {
	s := NewSolver(newScene().build(), DefaultConfig(), nil)
	_, err := s.RayTrace(context.Background(), 0, 4, scene.NewMatrixStack(math.Identity()))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.RayTrace(ctx, 4, 4, scene.NewMatrixStack(math.Identity()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrimaryRayAndProbe(t *testing.T) {
	r := PrimaryRay(5, 5, 10, 10, DefaultConfig().FOV)
	assert.True(t, r.Direction.XYZ().ApproxEqual(v3(0, 0, -5), eps))

	b := newScene()
	b.add("wall", raycast.Box, v3(0, 0, -5), v3(4, 4, 1), material.FromColor(v3(1, 1, 1)))
	s := NewSolver(b.build(), DefaultConfig(), nil)
	hit, ok := s.Probe(10, 10, 5, 4, scene.NewMatrixStack(math.Identity()))
	require.True(t, ok)
	assert.InDelta(t, 4.5/5, hit.Time, eps)
	assert.True(t, hit.Normal.ApproxEqual(v3(0, 0, 1), eps))
}

func TestCameraTransformMovesScene(t *testing.T) {
	b := newScene()
	b.add("wall", raycast.Box, v3(0, 0, 5), v3(4, 4, 1), material.FromColor(v3(0, 0, 1)))
	b.light(ambientLight())
	s := NewSolver(b.build(), DefaultConfig(), nil)

	// turn around: the wall behind the eye comes into view
	view := math.RotateY(math.Radians(180))
	px, err := s.RayTrace(context.Background(), 2, 2, scene.NewMatrixStack(view))
	require.NoError(t, err)
	assert.True(t, centre(px).ApproxEqual(v3(0, 0, 1), eps), "got %v", centre(px))
}

// trace follows one ray through g with the full recursion depth.
func trace(g *scene.Scenegraph, origin, dir math.Vec3) (math.Vec3, *scene.MatrixStack) {
	s := NewSolver(g, DefaultConfig(), nil)
	stack := scene.NewMatrixStack(math.Identity())
	f := &frame{s: s, lights: g.FindLights(stack.Clone())}
	return f.rayCast(raycast.NewRay(origin, dir), stack, s.cfg.MaxBounces), stack
}

func TestRefractionBendsOffAxisRays(t *testing.T) {
	b := newScene()
	b.add("ball", raycast.Sphere, v3(0, 0, -4), v3(2, 2, 2), glass(1.5))
	b.add("wall", raycast.Box, v3(0, 0, -10), v3(20, 20, 1), material.FromColor(v3(1, 0, 0)))
	b.light(ambientLight())
	g := b.build()

	for _, x := range []float32{0.05, 0.3, 0.6} {
		origin := v3(x, 0, 0)
		entry, ok := g.RayIntersect(raycast.NewRay(origin, v3(0, 0, -1)), scene.NewMatrixStack(math.Identity()))
		require.True(t, ok)
		require.True(t, entry.Incoming)

		// the transmitted ray leaves the ball somewhere other than straight behind
		inner, ok := v3(0, 0, -1).Refract(entry.Normal, 1/1.5)
		require.True(t, ok)
		assert.Greater(t, math.Vec3{X: 0, Y: 0, Z: -1}.Sub(inner).Length(), float32(1e-3), "x=%v not bent", x)

		got, stack := trace(g, origin, v3(0, 0, -1))
		assert.True(t, got.ApproxEqual(v3(1, 0, 0), eps), "x=%v got %v", x, got)
		assert.Equal(t, 1, stack.Len(), "matrix stack left unbalanced")
	}
}

func TestTotalInternalReflectionIsDark(t *testing.T) {
	b := newScene()
	// glass block spanning x in [-2, 2], z in [-7, -3]
	b.add("block", raycast.Box, v3(0, 0, -5), v3(4, 4, 4), glass(1.5))
	b.add("wall", raycast.Box, v3(10, 0, -5), v3(1, 20, 20), material.FromColor(v3(1, 0, 0)))
	b.light(ambientLight())
	g := b.build()

	inside := v3(1, 0, -5)

	// steep enough to cross the +x face: the wall shows through
	got, _ := trace(g, inside, v3(1, 0, 0.2))
	assert.True(t, got.ApproxEqual(v3(1, 0, 0), eps), "got %v", got)

	// 50 degrees from the face normal, past the 41.8 degree critical angle
	got, stack := trace(g, inside, v3(1, 0, 1.2))
	assert.Equal(t, math.Vec3{}, got)
	assert.Equal(t, 1, stack.Len())
}
