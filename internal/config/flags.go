package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Parse builds the configuration from command line arguments. A file given
// with --config is loaded first; flags set explicitly override it.
func Parse(name string, args []string) (Config, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	path := fs.StringP("config", "c", "", "TOML configuration file")
	width := fs.Int("width", 0, "window width")
	height := fs.Int("height", 0, "window height")
	presentMode := fs.String("present-mode", "", "preferred present mode: fifo, mailbox, immediate, fifo-relaxed")
	frames := fs.Int("frames-in-flight", 0, "frames recorded ahead of the GPU")
	validation := fs.Bool("validation", false, "enable the Khronos validation layer")
	device := fs.Int("device", AutoDevice, "physical device index, -1 picks the best")
	shaderDir := fs.String("shader-dir", "", "directory holding triangle.vert.spv and triangle.frag.spv")
	level := fs.String("log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *path != "" {
		var err error
		if cfg, err = Load(*path); err != nil {
			return cfg, err
		}
	}

	if fs.Changed("width") {
		cfg.Window.Width = *width
	}
	if fs.Changed("height") {
		cfg.Window.Height = *height
	}
	if fs.Changed("present-mode") {
		cfg.Vulkan.PresentMode = *presentMode
	}
	if fs.Changed("frames-in-flight") {
		cfg.Vulkan.FramesInFlight = *frames
	}
	if fs.Changed("validation") {
		cfg.Vulkan.Validation = *validation
	}
	if fs.Changed("device") {
		cfg.Vulkan.Device = *device
	}
	if fs.Changed("shader-dir") {
		cfg.Render.ShaderDir = *shaderDir
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *level
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
