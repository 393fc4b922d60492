package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenetrace/internal/engine/camera"
	"github.com/Faultbox/scenetrace/pkg/math"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.Width != 640 {
		t.Errorf("expected width 640, got %d", cfg.Render.Width)
	}
	if cfg.Render.Height != 480 {
		t.Errorf("expected height 480, got %d", cfg.Render.Height)
	}
	if cfg.Render.MaxBounces != 5 {
		t.Errorf("expected 5 bounces, got %d", cfg.Render.MaxBounces)
	}
	if !cfg.Render.Refraction {
		t.Error("expected refraction to be enabled by default")
	}
	if cfg.Render.Background != (Triple{}) {
		t.Errorf("expected black background, got %v", cfg.Render.Background)
	}
	if cfg.Camera.Mode != CameraLookAt {
		t.Errorf("expected lookat camera, got %s", cfg.Camera.Mode)
	}
	if cfg.Output.Format != "png" {
		t.Errorf("expected png output, got %s", cfg.Output.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scenetrace.yaml")

	yamlContent := `
render:
  width: 320
  height: 200
  max_bounces: 2
  background: [0.1, 0.2, 0.3]
  refraction: false

scene:
  path: "scenes/spheres.json"
  search_dirs: ["models", "textures"]

camera:
  mode: orbit
  center: [0, 1, 0]
  distance: 8
  yaw: 30

output:
  format: jpeg
  quality: 75

logging:
  level: "debug"
  log_file: "render.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	assert.Equal(t, 320, cfg.Render.Width)
	assert.Equal(t, 200, cfg.Render.Height)
	assert.Equal(t, 2, cfg.Render.MaxBounces)
	assert.Equal(t, Triple{0.1, 0.2, 0.3}, cfg.Render.Background)
	assert.False(t, cfg.Render.Refraction)
	assert.InDelta(t, 1e-3, cfg.Render.Bias, 1e-9, "untouched keys keep defaults")
	assert.Equal(t, "scenes/spheres.json", cfg.Scene.Path)
	assert.Equal(t, []string{"models", "textures"}, cfg.Scene.SearchDirs)
	assert.Equal(t, CameraOrbit, cfg.Camera.Mode)
	assert.Equal(t, float32(8), cfg.Camera.Distance)
	assert.Equal(t, "jpeg", cfg.Output.Format)
	assert.Equal(t, 75, cfg.Output.Quality)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "render.log", cfg.Logging.LogFile)
}

func TestLoadFromTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "scenetrace.toml")
	tomlContent := `
[render]
width = 100
height = 50
background = [1.0, 0.0, 0.0]

[camera]
mode = "lookat"
eye = [0.0, 2.0, 10.0]
`
	require.NoError(t, os.WriteFile(configPath, []byte(tomlContent), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, configPath))
	assert.Equal(t, 100, cfg.Render.Width)
	assert.Equal(t, 50, cfg.Render.Height)
	assert.Equal(t, Triple{1, 0, 0}, cfg.Render.Background)
	assert.Equal(t, Triple{0, 2, 10}, cfg.Camera.Eye)
	assert.Equal(t, 5, cfg.Render.MaxBounces)
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
render:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Render.Width = 0 }},
		{"negative height", func(c *Config) { c.Render.Height = -1 }},
		{"negative bounces", func(c *Config) { c.Render.MaxBounces = -1 }},
		{"negative workers", func(c *Config) { c.Render.Workers = -2 }},
		{"negative bias", func(c *Config) { c.Render.Bias = -1 }},
		{"flat fov", func(c *Config) { c.Render.FOV = 180 }},
		{"camera mode", func(c *Config) { c.Camera.Mode = "fly" }},
		{"output format", func(c *Config) { c.Output.Format = "gif" }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "scenetrace.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find scenetrace.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "scene flag",
			setup: func() { *flagScene = "other.json" },
			verify: func(cfg *Config) {
				assert.Equal(t, "other.json", cfg.Scene.Path)
			},
			teardown: func() { *flagScene = "" },
		},
		{
			name: "size flags",
			setup: func() {
				*flagWidth = 1920
				*flagHeight = 1080
			},
			verify: func(cfg *Config) {
				assert.Equal(t, 1920, cfg.Render.Width)
				assert.Equal(t, 1080, cfg.Render.Height)
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "zero bounces",
			setup: func() { *flagBounces = 0 },
			verify: func(cfg *Config) {
				assert.Equal(t, 0, cfg.Render.MaxBounces)
			},
			teardown: func() { *flagBounces = -1 },
		},
		{
			name: "render toggles",
			setup: func() {
				*flagNoRefraction = true
				*flagWorkers = 3
			},
			verify: func(cfg *Config) {
				assert.False(t, cfg.Render.Refraction)
				assert.Equal(t, 3, cfg.Render.Workers)
			},
			teardown: func() {
				*flagNoRefraction = false
				*flagWorkers = 0
			},
		},
		{
			name: "output flags",
			setup: func() {
				*flagOut = "/tmp/out"
				*flagFormat = "jpeg"
			},
			verify: func(cfg *Config) {
				assert.Equal(t, "/tmp/out", cfg.Output.Dir)
				assert.Equal(t, "jpeg", cfg.Output.Format)
			},
			teardown: func() {
				*flagOut = ""
				*flagFormat = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
render:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Render.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Render.Width)
	}
	if cfg.Render.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Render.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("render:\n  width: -5\n"), 0644))

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	_, err := Load()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Render.Width = 123
			cfg.Scene.SearchDirs = []string{"a", "b"}
			require.NoError(t, cfg.SaveTo(path))

			got := Default()
			require.NoError(t, loadFromFile(got, path))
			assert.Equal(t, cfg, got)
		})
	}
}

func TestSolverConfig(t *testing.T) {
	r := Default().Render
	r.Background = Triple{0.5, 0.25, 0}
	sc := r.SolverConfig()
	assert.Equal(t, 5, sc.MaxBounces)
	assert.InDelta(t, math32.Pi/2, sc.FOV, 1e-6)
	assert.Equal(t, math.Vec3{X: 0.5, Y: 0.25}, sc.Background)
	assert.True(t, sc.Refraction)
}

func TestCameraBuild(t *testing.T) {
	c := Default().Camera
	look, ok := c.Build().(*camera.LookAtCamera)
	require.True(t, ok)
	assert.Equal(t, math.Vec3{Z: 5}, look.Eye)

	c.Mode = "Orbit"
	c.Yaw = 90
	orbit, ok := c.Build().(*camera.OrbitCamera)
	require.True(t, ok)
	assert.InDelta(t, math32.Pi/2, orbit.Yaw, 1e-6)
	assert.True(t, orbit.Position().ApproxEqual(math.Vec3{X: 5}, 1e-4))
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Default()
	cfg.Scene.SearchDirs = []string{"models", "textures"}
	cfg.Render.Background = Triple{0.1, 0.2, 0.3}

	dup, err := cfg.Clone()
	require.NoError(t, err)
	assert.Equal(t, cfg, dup)

	cfg.Scene.SearchDirs[0] = "elsewhere"
	cfg.Render.Background[0] = 1
	assert.Equal(t, []string{"models", "textures"}, dup.Scene.SearchDirs)
	assert.Equal(t, Triple{0.1, 0.2, 0.3}, dup.Render.Background)
}
