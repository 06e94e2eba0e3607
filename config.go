package voxel

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/Swiiz/voxel-renderer/voxelrt/rt/shaders"
)

// Config holds the host settings for a renderer run.
type Config struct {
	Width  int
	Height int
	Title  string

	// ShaderDir, when set, loads WGSL from disk instead of the embedded tree
	// so that a refresh picks up edited sources.
	ShaderDir       string
	ValidateShaders bool

	Debug     bool
	LogPrefix string
}

func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Title:     "Voxel Renderer",
		LogPrefix: "voxel",
	}
}

func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.IntVar(&c.Width, "width", c.Width, "Initial window width in pixels")
	flags.IntVar(&c.Height, "height", c.Height, "Initial window height in pixels")
	flags.StringVar(&c.Title, "title", c.Title, "Window title")
	flags.StringVar(&c.ShaderDir, "shaders", c.ShaderDir, "Load WGSL sources from this directory (empty: embedded)")
	flags.BoolVar(&c.ValidateShaders, "validate-shaders", c.ValidateShaders, "Validate preprocessed WGSL with naga before compiling")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging and frame statistics")
	flags.StringVar(&c.LogPrefix, "log-prefix", c.LogPrefix, "Prefix for log lines")
}

func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.ShaderDir != "" {
		info, err := os.Stat(c.ShaderDir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("shader directory: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("shader directory %q is not a directory", c.ShaderDir))
		}
	}
	return errors.Join(errs...)
}

// ShaderFS returns the file tree shader paths are resolved against.
func (c Config) ShaderFS() fs.FS {
	if c.ShaderDir == "" {
		return shaders.Embedded()
	}
	return os.DirFS(c.ShaderDir)
}
