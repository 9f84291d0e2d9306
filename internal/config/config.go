// Package config holds the settings of the diagview command,
// read from a TOML or YAML file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/diagview/preview"
	"github.com/benoitkugler/diagview/svgicon"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the set of options of a preview session.
// Command line flags override the values read from file.
type Config struct {
	// Mode is "auto", "none", "raster" or "vector".
	// "auto" detects it from the content.
	Mode string `toml:"mode" yaml:"mode"`
	// Zoom is the initial zoom, in percent.
	Zoom int `toml:"zoom" yaml:"zoom"`
	// Filter is the resampling filter of raster images.
	Filter string `toml:"filter" yaml:"filter"`
	// Background is the canvas color, in SVG syntax.
	Background string `toml:"background" yaml:"background"`
	// Format is the output format, "png" or "pdf".
	Format string `toml:"format" yaml:"format"`
	// Watch reloads the input when it changes.
	Watch bool `toml:"watch" yaml:"watch"`
	// ErrorMode is "ignore", "warn" or "strict", applied
	// to the SVG elements not supported.
	ErrorMode string `toml:"error_mode" yaml:"error_mode"`

	Limits Limits `toml:"limits" yaml:"limits"`
}

// Limits bounds the size of the raster images accepted.
type Limits struct {
	MaxWidth  int `toml:"max_width" yaml:"max_width"`
	MaxHeight int `toml:"max_height" yaml:"max_height"`
	MaxBytes  int `toml:"max_bytes" yaml:"max_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:       "auto",
		Zoom:       preview.OriginalZoom,
		Filter:     preview.CatmullRom.String(),
		Background: "white",
		Format:     "png",
		ErrorMode:  svgicon.WarnErrorMode.String(),
		Limits: Limits{
			MaxWidth:  preview.MaxImageWidth,
			MaxHeight: preview.MaxImageHeight,
			MaxBytes:  preview.MaxImageBytes,
		},
	}
}

// ErrUnknownFormat is returned for configuration files
// which are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown configuration file format")

// decoder decodes a configuration, rejecting unknown keys
type decoder func(r io.Reader, v *Config) error

func decodeTOML(r io.Reader, v *Config) error {
	return toml.NewDecoder(r).DisallowUnknownFields().Decode(v)
}

func decodeYAML(r io.Reader, v *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(v)
	if err == io.EOF { // empty file
		return nil
	}
	return err
}

func decoderFor(filename string) (decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return decodeTOML, nil
	case ".yaml", ".yml":
		return decodeYAML, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// Open reads the given file on top of the default values,
// and validates the result.
func Open(filename string) (Config, error) {
	cfg := Default()
	dec, err := decoderFor(filename)
	if err != nil {
		return cfg, err
	}
	f, err := os.Open(filename)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := dec(bufio.NewReader(f), &cfg); err != nil {
		return cfg, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Mode != "auto" {
		if _, err := preview.ParseMode(c.Mode); err != nil {
			return err
		}
	}
	if c.Zoom < preview.MinZoom || c.Zoom > preview.MaxZoom {
		return fmt.Errorf("zoom %d out of range [%d, %d]", c.Zoom, preview.MinZoom, preview.MaxZoom)
	}
	if _, err := preview.ParseFilter(c.Filter); err != nil {
		return err
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if c.Format != "png" && c.Format != "pdf" {
		return fmt.Errorf("unsupported output format %q", c.Format)
	}
	if _, err := svgicon.ParseErrorMode(c.ErrorMode); err != nil {
		return err
	}
	if c.Limits.MaxWidth < 0 || c.Limits.MaxHeight < 0 || c.Limits.MaxBytes < 0 {
		return errors.New("negative image limit")
	}
	return nil
}

// BackgroundColor parses Background.
func (c Config) BackgroundColor() (color.NRGBA, error) {
	col, err := svgicon.ParseColor(c.Background)
	if err != nil {
		return col, fmt.Errorf("invalid background %q: %w", c.Background, err)
	}
	return col, nil
}

// Codec returns the raster codec configured by Filter and Limits.
// The configuration is expected to be valid.
func (c Config) Codec() *preview.ImageCodec {
	filter, _ := preview.ParseFilter(c.Filter)
	codec := preview.NewImageCodec(filter)
	codec.MaxWidth = c.Limits.MaxWidth
	codec.MaxHeight = c.Limits.MaxHeight
	codec.MaxBytes = c.Limits.MaxBytes
	return codec
}

// SVGErrorMode returns the parsed ErrorMode.
// The configuration is expected to be valid.
func (c Config) SVGErrorMode() svgicon.ErrorMode {
	mode, _ := svgicon.ParseErrorMode(c.ErrorMode)
	return mode
}
