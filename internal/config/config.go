// Package config holds the settings of the triangle sample. Values come from
// the defaults, then an optional TOML file, then command line flags.
package config

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/geometry"
	"github.com/ibd1279/vks-examples/vertex-triangle/internal/present"
)

const (
	ValidationLayer   = "VK_LAYER_KHRONOS_validation"
	MaxFramesInFlight = 8
	AutoDevice        = -1
)

type Config struct {
	Window Window `toml:"window"`
	Vulkan Vulkan `toml:"vulkan"`
	Render Render `toml:"render"`
	Log    Log    `toml:"log"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Vulkan struct {
	// Validation turns on the instance layers below. Layers the loader
	// doesn't know about are skipped with a warning.
	Validation bool     `toml:"validation"`
	Layers     []string `toml:"layers"`
	// Optional extensions, enabled only when available.
	InstanceExtensions []string `toml:"instance_extensions"`
	DeviceExtensions   []string `toml:"device_extensions"`
	// Device is the physical device index, or AutoDevice to pick the best.
	Device         int    `toml:"device"`
	PresentMode    string `toml:"present_mode"`
	FramesInFlight int    `toml:"frames_in_flight"`
}

type Render struct {
	ShaderDir  string     `toml:"shader_dir"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type Log struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "vks vertex-triangle",
			Width:  800,
			Height: 600,
		},
		Vulkan: Vulkan{
			Validation: true,
			Layers:     []string{ValidationLayer},
			InstanceExtensions: []string{
				"VK_KHR_portability_enumeration",
				"VK_KHR_get_physical_device_properties2",
				"VK_KHR_get_surface_capabilities2",
			},
			DeviceExtensions: []string{
				"VK_KHR_portability_subset",
			},
			Device:         AutoDevice,
			PresentMode:    "fifo",
			FramesInFlight: 2,
		},
		Render: Render{
			ShaderDir:  "shaders",
			ClearColor: [4]float32(geometry.ClearColor),
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a TOML file over the defaults. Keys the file leaves out keep
// their default value; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := Decode(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode %s", path)
	}
	return cfg, nil
}

// Decode unmarshals TOML into cfg, keeping values the document doesn't set.
func Decode(b []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Encode writes cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Vulkan.FramesInFlight < 1 || c.Vulkan.FramesInFlight > MaxFramesInFlight {
		return errors.Errorf("frames_in_flight must be in [1, %d], got %d", MaxFramesInFlight, c.Vulkan.FramesInFlight)
	}
	if c.Vulkan.Device < AutoDevice {
		return errors.Errorf("device must be %d (auto) or an index, got %d", AutoDevice, c.Vulkan.Device)
	}
	if _, err := present.ParseMode(c.Vulkan.PresentMode); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for k, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			return errors.Errorf("clear_color[%d] = %v is outside [0, 1]", k, v)
		}
	}
	return nil
}

// EnabledLayers is the layer list to request from the loader.
func (c Config) EnabledLayers() []string {
	if !c.Vulkan.Validation {
		return nil
	}
	return c.Vulkan.Layers
}

// PresentMode is the parsed preferred present mode. Call after Validate.
func (c Config) PresentMode() present.Mode {
	mode, _ := present.ParseMode(c.Vulkan.PresentMode)
	return mode
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, errors.Wrapf(err, "log level %q", s)
	}
	return level, nil
}
