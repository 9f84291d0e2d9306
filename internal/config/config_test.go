package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/benoitkugler/diagview/preview"
	"github.com/benoitkugler/diagview/svgicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xff, 0xff, 0xff, 0xff}, bg)
	assert.Equal(t, svgicon.WarnErrorMode, cfg.SVGErrorMode())
	codec := cfg.Codec()
	assert.Equal(t, preview.CatmullRom, codec.Filter)
	assert.Equal(t, preview.MaxImageBytes, codec.MaxBytes)
}

func TestOpenTOML(t *testing.T) {
	path := writeFile(t, "diagview.toml", `
zoom = 150
filter = "lanczos"
background = "#202020"
format = "pdf"
watch = true
error_mode = "strict"

[limits]
max_width = 2000
`)
	cfg, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Zoom)
	assert.Equal(t, "pdf", cfg.Format)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "auto", cfg.Mode) // default kept
	assert.Equal(t, svgicon.StrictErrorMode, cfg.SVGErrorMode())

	codec := cfg.Codec()
	assert.Equal(t, preview.Lanczos, codec.Filter)
	assert.Equal(t, 2000, codec.MaxWidth)
	assert.Equal(t, preview.MaxImageHeight, codec.MaxHeight)

	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x20, 0x20, 0x20, 0xff}, bg)
}

func TestOpenYAML(t *testing.T) {
	path := writeFile(t, "diagview.yml", `
mode: raster
zoom: 75
filter: bilinear
limits:
  max_bytes: 1024
`)
	cfg, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "raster", cfg.Mode)
	assert.Equal(t, 75, cfg.Zoom)
	assert.Equal(t, preview.BiLinear, cfg.Codec().Filter)
	assert.Equal(t, 1024, cfg.Limits.MaxBytes)

	empty := writeFile(t, "empty.yaml", "")
	cfg, err = Open(empty)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(writeFile(t, "diagview.json", `{}`))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Open(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(writeFile(t, "unknown.toml", `colour = "red"`))
	assert.Error(t, err)

	_, err = Open(writeFile(t, "unknown.yaml", `colour: red`))
	assert.Error(t, err)

	_, err = Open(writeFile(t, "zoom.toml", `zoom = 1000`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Mode = "bitmap" },
		func(c *Config) { c.Zoom = 24 },
		func(c *Config) { c.Zoom = 901 },
		func(c *Config) { c.Filter = "nearest" },
		func(c *Config) { c.Background = "#12" },
		func(c *Config) { c.Format = "jpeg" },
		func(c *Config) { c.ErrorMode = "loud" },
		func(c *Config) { c.Limits.MaxBytes = -1 },
	} {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "%+v", cfg)
	}
	for _, mode := range []string{"auto", "none", "raster", "vector"} {
		cfg := Default()
		cfg.Mode = mode
		assert.NoError(t, cfg.Validate(), mode)
	}
}
