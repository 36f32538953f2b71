package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/present"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 2, cfg.Vulkan.FramesInFlight)
	assert.Equal(t, AutoDevice, cfg.Vulkan.Device)
	assert.Equal(t, present.ModeFIFO, cfg.PresentMode())
	assert.Equal(t, [4]float32{0, 0, 1, 1}, cfg.Render.ClearColor)
	assert.Equal(t, []string{ValidationLayer}, cfg.EnabledLayers())

	cfg.Vulkan.Validation = false
	assert.Empty(t, cfg.EnabledLayers())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangle.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[window]
width = 1280

[vulkan]
validation = false
layers = ["VK_LAYER_LUNARG_api_dump"]
present_mode = "mailbox"

[render]
clear_color = [0.1, 0.2, 0.3, 1.0]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height, "unset keys keep defaults")
	assert.Equal(t, "vks vertex-triangle", cfg.Window.Title)
	assert.False(t, cfg.Vulkan.Validation)
	assert.Equal(t, []string{"VK_LAYER_LUNARG_api_dump"}, cfg.Vulkan.Layers)
	assert.Equal(t, present.ModeMailbox, cfg.PresentMode())
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, cfg.Render.ClearColor)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "[window]\nwidht = 3\n"))
	assert.ErrorContains(t, err, "decode")

	_, err = Load(writeFile(t, "[window\n"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Window.Title = "round trip"
	b, err := Encode(cfg)
	require.NoError(t, err)

	got := Config{}
	require.NoError(t, Decode(b, &got))
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"negative height", func(c *Config) { c.Window.Height = -1 }, "window size"},
		{"no frames", func(c *Config) { c.Vulkan.FramesInFlight = 0 }, "frames_in_flight"},
		{"too many frames", func(c *Config) { c.Vulkan.FramesInFlight = MaxFramesInFlight + 1 }, "frames_in_flight"},
		{"bad device", func(c *Config) { c.Vulkan.Device = -2 }, "device"},
		{"bad mode", func(c *Config) { c.Vulkan.PresentMode = "vsync" }, "present mode"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad color", func(c *Config) { c.Render.ClearColor[2] = 2 }, "clear_color[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.msg)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse(t *testing.T) {
	path := writeFile(t, "[window]\nwidth = 1024\nheight = 768\n")

	cfg, err := Parse("triangle", []string{
		"--config", path,
		"--height", "400",
		"--present-mode", "immediate",
		"--validation=false",
		"--frames-in-flight", "3",
		"--device", "1",
		"--shader-dir", "/tmp/spv",
		"--log-level", "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 400, cfg.Window.Height)
	assert.Equal(t, present.ModeImmediate, cfg.PresentMode())
	assert.False(t, cfg.Vulkan.Validation)
	assert.Equal(t, 3, cfg.Vulkan.FramesInFlight)
	assert.Equal(t, 1, cfg.Vulkan.Device)
	assert.Equal(t, "/tmp/spv", cfg.Render.ShaderDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse("triangle", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("triangle", []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = Parse("triangle", []string{"--width=-5"})
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = Parse("triangle", []string{"--bogus"})
	assert.Error(t, err)
}
