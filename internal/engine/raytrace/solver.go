// Package raytrace renders a scene graph with a recursive Whitted style ray
// tracer: Phong local shading, hard shadows, reflection and refraction.
package raytrace

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenetrace/internal/engine/lighting"
	"github.com/Faultbox/scenetrace/internal/engine/raycast"
	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Config controls a render.
type Config struct {
	// MaxBounces is the recursion depth shared by reflection and refraction.
	MaxBounces int
	Background math.Vec3
	// Bias offsets secondary ray origins to avoid self intersection.
	Bias float32
	// Workers bounds the number of rows rendered at once; 0 uses GOMAXPROCS.
	Workers int
	// Refraction enables transmitted rays for transparent materials.
	Refraction bool
	// FOV is the vertical field of view in radians.
	FOV float32
}

// DefaultConfig returns the default render settings.
func DefaultConfig() Config {
	return Config{
		MaxBounces: 5,
		Bias:       1e-3,
		Refraction: true,
		FOV:        math32.Pi / 2,
	}
}

// directionalDistance places directional lights far enough away for shadow rays.
const directionalDistance = 1e4

// Stats summarizes the work of one render.
type Stats struct {
	PrimaryRays   int64
	SecondaryRays int64
	ShadowRays    int64
	// MaxDepth is the deepest recursion level reached.
	MaxDepth int
	Elapsed  time.Duration
}

// Solver ray traces a scene graph. It only reads the graph.
type Solver struct {
	graph *scene.Scenegraph
	cfg   Config
	log   *zap.Logger
	last  Stats
}

// NewSolver returns a solver for g. A nil logger disables logging.
func NewSolver(g *scene.Scenegraph, cfg Config, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FOV <= 0 {
		cfg.FOV = math32.Pi / 2
	}
	if cfg.MaxBounces < 0 {
		cfg.MaxBounces = 0
	}
	return &Solver{graph: g, cfg: cfg, log: log}
}

// Config returns the solver settings.
func (s *Solver) Config() Config { return s.cfg }

// Stats returns the statistics of the last completed render.
func (s *Solver) Stats() Stats { return s.last }

// frame is the state of one render; workers share it read-only apart from
// the atomic counters.
type frame struct {
	s      *Solver
	lights []lighting.Light

	primaryRays   atomic.Int64
	secondaryRays atomic.Int64
	shadowRays    atomic.Int64
	deepest       atomic.Int64
}

// RayTrace renders a width x height image. modelView holds the camera
// transform; it is cloned per row and never modified. The result is indexed
// [row][column] with row 0 at the top, colors clamped to [0,1].
func (s *Solver) RayTrace(ctx context.Context, width, height int, modelView *scene.MatrixStack) ([][]math.Vec3, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	start := time.Now()

	f := &frame{s: s, lights: s.graph.FindLights(modelView.Clone())}

	// Sampling runs bottom-up, so row y lands at height-1-y.
	pixels := make([][]math.Vec3, height)

	g, ctx := errgroup.WithContext(ctx)
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for y := 0; y < height; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stack := modelView.Clone()
			row := make([]math.Vec3, width)
			for x := 0; x < width; x++ {
				f.primaryRays.Add(1)
				row[x] = f.rayCast(PrimaryRay(x, y, width, height, s.cfg.FOV), stack, s.cfg.MaxBounces).Clamp01()
			}
			pixels[height-1-y] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ray trace: %w", err)
	}

	s.last = Stats{
		PrimaryRays:   f.primaryRays.Load(),
		SecondaryRays: f.secondaryRays.Load(),
		ShadowRays:    f.shadowRays.Load(),
		MaxDepth:      int(f.deepest.Load()),
		Elapsed:       time.Since(start),
	}
	s.log.Info("render finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("lights", len(f.lights)),
		zap.Int64("primary_rays", s.last.PrimaryRays),
		zap.Int64("secondary_rays", s.last.SecondaryRays),
		zap.Int64("shadow_rays", s.last.ShadowRays),
		zap.Int("max_depth", s.last.MaxDepth),
		zap.Duration("elapsed", s.last.Elapsed))
	return pixels, nil
}

// PrimaryRay returns the camera space ray through pixel (x, y) of a pinhole
// camera at the origin looking down -z; y counts up from the bottom row.
func PrimaryRay(x, y, width, height int, fov float32) raycast.Ray {
	d := 0.5 * float32(height) / math32.Tan(fov/2)
	dir := math.Vec3{
		X: float32(x) - float32(width)/2,
		Y: float32(y) - float32(height)/2,
		Z: -d,
	}
	return raycast.NewRay(math.Vec3{}, dir)
}

// Probe returns the primary hit for pixel (x, y), with y counted from the
// top as in the rendered image.
func (s *Solver) Probe(width, height, x, y int, modelView *scene.MatrixStack) (raycast.HitRecord, bool) {
	r := PrimaryRay(x, height-1-y, width, height, s.cfg.FOV)
	return s.graph.RayIntersect(r, modelView.Clone())
}

// rayCast returns the color seen along r with depth recursion levels left.
func (f *frame) rayCast(r raycast.Ray, stack *scene.MatrixStack, depth int) math.Vec3 {
	level := int64(f.s.cfg.MaxBounces - depth)
	for {
		cur := f.deepest.Load()
		if level <= cur || f.deepest.CompareAndSwap(cur, level) {
			break
		}
	}

	hit, ok := f.s.graph.RayIntersect(r, stack)
	if !ok {
		return f.s.cfg.Background
	}
	return f.shade(r, hit, stack, depth)
}

// offsetRay starts a secondary ray at origin, nudged along dir by the bias.
func (f *frame) offsetRay(origin, dir math.Vec3) raycast.Ray {
	f.secondaryRays.Add(1)
	return raycast.NewRay(origin.Add(dir.Normalize().Scale(f.s.cfg.Bias)), dir)
}

// secondary casts a reflected or refracted ray one level deeper.
func (f *frame) secondary(origin, dir math.Vec3, stack *scene.MatrixStack, depth int) math.Vec3 {
	return f.rayCast(f.offsetRay(origin, dir), stack, depth-1)
}
