// Package app wires configuration, scene loading, ray tracing and image
// output into one render pipeline.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/scenetrace/internal/assets"
	"github.com/Faultbox/scenetrace/internal/config"
	"github.com/Faultbox/scenetrace/internal/engine/raytrace"
	"github.com/Faultbox/scenetrace/internal/engine/scene"
	"github.com/Faultbox/scenetrace/internal/output"
)

// App renders the configured scene.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	assets *assets.Manager
	writer *output.Writer
}

// Result describes one finished render.
type Result struct {
	Path  string
	Stats raytrace.Stats
}

// New creates an app for cfg. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	// The caller may keep editing its config; renders use this snapshot.
	cfg, err := cfg.Clone()
	if err != nil {
		return nil, err
	}

	writer, err := output.NewWriter(cfg.Output.Dir, cfg.Output.Prefix, cfg.Output.Format, cfg.Output.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create output writer: %w", err)
	}

	// Files next to the scene come first; configured dirs override them.
	dirs := append([]string{filepath.Dir(cfg.Scene.Path)}, cfg.Scene.SearchDirs...)

	log.Info("app initialized",
		zap.String("scene", cfg.Scene.Path),
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
		zap.Strings("search_dirs", dirs))

	return &App{
		cfg:    cfg,
		log:    log,
		assets: assets.NewManager(log.Named("assets"), dirs...),
		writer: writer,
	}, nil
}

// Load imports the scene and resolves its meshes and textures.
func (a *App) Load(ctx context.Context) (*scene.Scenegraph, error) {
	g, err := scene.ImportFile(a.cfg.Scene.Path, a.log.Named("scene"))
	if err != nil {
		return nil, err
	}
	if err := a.assets.Resolve(ctx, g); err != nil {
		return nil, fmt.Errorf("resolving assets: %w", err)
	}
	return g, nil
}

// Render loads the scene, traces it and writes the image.
func (a *App) Render(ctx context.Context) (Result, error) {
	g, err := a.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	view := a.cfg.Camera.Build().ViewMatrix()
	solver := raytrace.NewSolver(g, a.cfg.Render.SolverConfig(), a.log.Named("raytrace"))
	pixels, err := solver.RayTrace(ctx, a.cfg.Render.Width, a.cfg.Render.Height, scene.NewMatrixStack(view))
	if err != nil {
		return Result{}, err
	}

	path, err := a.writer.Write(pixels)
	if err != nil {
		return Result{}, fmt.Errorf("writing image: %w", err)
	}
	a.log.Info("image written", zap.String("path", path))
	return Result{Path: path, Stats: solver.Stats()}, nil
}

// Close releases cached assets.
func (a *App) Close() {
	a.assets.Close()
}
