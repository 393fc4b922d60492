package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagScene        = flag.String("scene", "", "Scene description (JSON or YAML)")
	flagWidth        = flag.Int("width", 0, "Image width")
	flagHeight       = flag.Int("height", 0, "Image height")
	flagBounces      = flag.Int("bounces", -1, "Reflection/refraction depth")
	flagWorkers      = flag.Int("workers", 0, "Rows rendered in parallel (0 = one per CPU)")
	flagNoRefraction = flag.Bool("no-refraction", false, "Disable refracted rays")
	flagOut          = flag.String("out", "", "Output directory")
	flagFormat       = flag.String("format", "", "Output format (png, jpeg)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config. A positional argument
// names the scene when -scene is absent.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	} else if flag.NArg() > 0 {
		cfg.Scene.Path = flag.Arg(0)
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagBounces >= 0 {
		cfg.Render.MaxBounces = *flagBounces
	}
	if *flagWorkers > 0 {
		cfg.Render.Workers = *flagWorkers
	}
	if *flagNoRefraction {
		cfg.Render.Refraction = false
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
