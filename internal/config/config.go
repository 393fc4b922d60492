// Package config handles render configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/Faultbox/scenetrace/internal/engine/camera"
	"github.com/Faultbox/scenetrace/internal/engine/raytrace"
	"github.com/Faultbox/scenetrace/pkg/math"
)

// Config holds all render settings.
type Config struct {
	Render  RenderConfig  `yaml:"render" toml:"render"`
	Scene   SceneConfig   `yaml:"scene" toml:"scene"`
	Camera  CameraConfig  `yaml:"camera" toml:"camera"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// Triple is an RGB color or a 3D point.
type Triple [3]float32

// Vec3 converts t to a vector.
func (t Triple) Vec3() math.Vec3 {
	return math.Vec3{X: t[0], Y: t[1], Z: t[2]}
}

// RenderConfig holds ray tracer settings.
type RenderConfig struct {
	Width      int     `yaml:"width" toml:"width"`
	Height     int     `yaml:"height" toml:"height"`
	MaxBounces int     `yaml:"max_bounces" toml:"max_bounces"`
	Workers    int     `yaml:"workers" toml:"workers"` // 0 = one per CPU
	Background Triple  `yaml:"background" toml:"background"`
	Bias       float32 `yaml:"bias" toml:"bias"`
	Refraction bool    `yaml:"refraction" toml:"refraction"`
	FOV        float32 `yaml:"fov" toml:"fov"` // degrees
}

// SceneConfig holds scene file locations.
type SceneConfig struct {
	Path       string   `yaml:"path" toml:"path"`
	SearchDirs []string `yaml:"search_dirs" toml:"search_dirs"` // mesh and texture lookup
}

// Camera modes.
const (
	CameraLookAt = "lookat"
	CameraOrbit  = "orbit"
)

// CameraConfig holds the initial view. Angles are in degrees.
type CameraConfig struct {
	Mode     string  `yaml:"mode" toml:"mode"`
	Eye      Triple  `yaml:"eye" toml:"eye"`
	Center   Triple  `yaml:"center" toml:"center"`
	Up       Triple  `yaml:"up" toml:"up"`
	Distance float32 `yaml:"distance" toml:"distance"`
	Yaw      float32 `yaml:"yaw" toml:"yaw"`
	Pitch    float32 `yaml:"pitch" toml:"pitch"`
}

// OutputConfig holds image output settings.
type OutputConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	Prefix  string `yaml:"prefix" toml:"prefix"`
	Format  string `yaml:"format" toml:"format"` // png or jpeg
	Quality int    `yaml:"quality" toml:"quality"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:      640,
			Height:     480,
			MaxBounces: 5,
			Bias:       1e-3,
			Refraction: true,
			FOV:        90,
		},
		Scene: SceneConfig{
			Path: "scene.json",
		},
		Camera: CameraConfig{
			Mode:     CameraLookAt,
			Eye:      Triple{0, 0, 5},
			Up:       Triple{0, 1, 0},
			Distance: 5,
		},
		Output: OutputConfig{
			Dir:     "renders",
			Prefix:  "render",
			Format:  "png",
			Quality: 90,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Clone returns a deep copy of c; slices such as the search dirs are not
// shared with the original.
func (c *Config) Clone() (*Config, error) {
	out := &Config{}
	if err := copier.CopyWithOption(out, c, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	return out, nil
}

// Validate reports settings no render can use.
func (c *Config) Validate() error {
	var errs []error
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height))
	}
	if c.Render.MaxBounces < 0 {
		errs = append(errs, fmt.Errorf("max_bounces %d is negative", c.Render.MaxBounces))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d is negative", c.Render.Workers))
	}
	if c.Render.Bias < 0 {
		errs = append(errs, fmt.Errorf("bias %g is negative", c.Render.Bias))
	}
	if c.Render.FOV <= 0 || c.Render.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %g outside (0, 180)", c.Render.FOV))
	}
	switch strings.ToLower(c.Camera.Mode) {
	case CameraLookAt, CameraOrbit:
	default:
		errs = append(errs, fmt.Errorf("unknown camera mode %q", c.Camera.Mode))
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpeg", "jpg":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}
	if c.Output.Quality < 0 || c.Output.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d outside [0, 100]", c.Output.Quality))
	}
	return errors.Join(errs...)
}

// SolverConfig returns the ray tracer settings.
func (r RenderConfig) SolverConfig() raytrace.Config {
	return raytrace.Config{
		MaxBounces: r.MaxBounces,
		Background: r.Background.Vec3(),
		Bias:       r.Bias,
		Workers:    r.Workers,
		Refraction: r.Refraction,
		FOV:        math.Radians(r.FOV),
	}
}

// Build returns the configured camera.
func (c CameraConfig) Build() camera.Camera {
	if strings.ToLower(c.Mode) == CameraOrbit {
		cam := camera.NewOrbitCamera()
		cam.Center = c.Center.Vec3()
		cam.Distance = c.Distance
		cam.Yaw = math.Radians(c.Yaw)
		cam.Pitch = math.Radians(c.Pitch)
		return cam
	}
	cam := camera.NewLookAt(c.Eye.Vec3(), c.Center.Vec3())
	cam.Up = c.Up.Vec3()
	return cam
}
