package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// Batch error policies.
const (
	// PolicyAbort stops the whole run on the first failing image.
	PolicyAbort = "abort"
	// PolicyContinue logs failing images and keeps going.
	PolicyContinue = "continue"
)

// Config holds the tunable pipeline parameters.
//
// The defaults are tuned for ROS occupancy grids at 5 cm resolution. A
// config file only needs the keys it changes.
type Config struct {
	Edges struct {
		// Low is the hysteresis lower gradient threshold.
		Low int `yaml:"low"`
		// High is the hysteresis upper gradient threshold.
		High int `yaml:"high"`
	} `yaml:"edges"`

	Hough struct {
		// Rho is the distance resolution of the accumulator in pixels.
		Rho float64 `yaml:"rho"`
		// Theta is the angle resolution of the accumulator in radians.
		Theta float64 `yaml:"theta"`
		// Threshold is the minimum number of votes for a candidate line.
		Threshold int `yaml:"threshold"`
		// MinLineLength is the shortest segment kept, in pixels.
		MinLineLength int `yaml:"minLineLength"`
		// MaxLineGap is the largest gap bridged inside one segment, in pixels.
		MaxLineGap int `yaml:"maxLineGap"`
	} `yaml:"hough"`

	Render struct {
		// StrokeWidth is the floor-plan stroke width in pixels.
		StrokeWidth int `yaml:"strokeWidth"`
		// JPEGQuality is used when the raster output format is jpg.
		JPEGQuality int `yaml:"jpegQuality"`
	} `yaml:"render"`

	Export struct {
		// SVGStroke is the stroke colour of exported SVG lines.
		SVGStroke string `yaml:"svgStroke"`
	} `yaml:"export"`

	Batch struct {
		// Workers is the number of images processed concurrently.
		Workers int `yaml:"workers"`
		// OnError is PolicyAbort or PolicyContinue.
		OnError string `yaml:"onError"`
	} `yaml:"batch"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Edges.Low = 100
	cfg.Edges.High = 200

	cfg.Hough.Rho = 1.7
	cfg.Hough.Theta = math.Pi / 900
	cfg.Hough.Threshold = 40
	cfg.Hough.MinLineLength = 40
	cfg.Hough.MaxLineGap = 35

	cfg.Render.StrokeWidth = 2
	cfg.Render.JPEGQuality = 95

	cfg.Export.SVGStroke = "#000000"

	cfg.Batch.Workers = 1
	cfg.Batch.OnError = PolicyAbort

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return readConfig(configPath)
}

// LoadConfigFile loads a configuration file the user named explicitly.
// Unlike LoadConfig, a missing file is an error.
//
// # Errors
//
//   - errs.ErrInputNotFound if configPath does not exist
//   - errs.ErrInvalidFormat if the file does not parse or validate
func LoadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "config file %s", configPath)
	}
	return readConfig(configPath)
}

func readConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "error reading config file %s", configPath)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrInvalidFormat, err, "error parsing config file %s", configPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate rejects values that would make a stage meaningless. Failures
// wrap errs.ErrInvalidFormat.
func (c *Config) Validate() error {
	if c.Hough.Rho <= 0 || c.Hough.Theta <= 0 {
		return fmt.Errorf("hough rho and theta must be positive: %w", errs.ErrInvalidFormat)
	}
	if c.Hough.Threshold <= 0 {
		return fmt.Errorf("hough threshold must be positive: %w", errs.ErrInvalidFormat)
	}
	if c.Render.StrokeWidth <= 0 {
		return fmt.Errorf("render strokeWidth must be positive: %w", errs.ErrInvalidFormat)
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("render jpegQuality must be in [1,100]: %w", errs.ErrInvalidFormat)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch workers must be positive: %w", errs.ErrInvalidFormat)
	}
	if c.Batch.OnError != PolicyAbort && c.Batch.OnError != PolicyContinue {
		return fmt.Errorf("batch onError must be %q or %q: %w", PolicyAbort, PolicyContinue, errs.ErrInvalidFormat)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
