// Package config loads the map calibration metadata and the optional pipeline
// configuration, both stored as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// Calibration is the per-run map metadata written next to an occupancy grid.
//
// It is loaded once per batch and shared read-only by every raster.
type Calibration struct {
	// Image is the raster file named by the metadata. Informational only.
	Image string `yaml:"image,omitempty"`

	// Resolution is the map length per pixel, in metres.
	Resolution float64 `yaml:"resolution"`

	// Origin is the pose of the lower-left pixel (x, y, yaw). Informational only.
	Origin []float64 `yaml:"origin,omitempty"`

	// OccupiedThresh is the fraction of full scale above which a pixel is occupied.
	OccupiedThresh float64 `yaml:"occupied_thresh"`

	// FreeThresh is the fraction of full scale below which a pixel is free.
	FreeThresh float64 `yaml:"free_thresh"`

	// Negate inverts the classified values.
	Negate bool `yaml:"negate"`
}

// rawCalibration mirrors Calibration with pointer fields so missing keys can
// be told apart from zero values.
type rawCalibration struct {
	Image          string    `yaml:"image"`
	Resolution     *float64  `yaml:"resolution"`
	Origin         []float64 `yaml:"origin"`
	OccupiedThresh *float64  `yaml:"occupied_thresh"`
	FreeThresh     *float64  `yaml:"free_thresh"`
	Negate         *flag     `yaml:"negate"`
}

// flag accepts either a YAML boolean or the 0/1 integers map_server writes.
type flag bool

func (f *flag) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		*f = flag(b)
		return nil
	}
	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("negate must be a boolean or 0/1, got %q", value.Value)
	}
	if n != 0 && n != 1 {
		return fmt.Errorf("negate must be a boolean or 0/1, got %d", n)
	}
	*f = n == 1
	return nil
}

// LoadCalibration reads and validates the calibration file at path.
//
// # Errors
//
//   - errs.ErrInputNotFound if path does not exist
//   - errs.ErrInvalidFormat if the extension is not .yaml/.yml, the document
//     is not well-formed YAML, or a required key is missing
func LoadCalibration(path string) (*Calibration, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("calibration file %s: %w", path, errs.ErrInputNotFound)
		}
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "calibration file %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("calibration file %s: expected .yaml, got %q: %w", path, ext, errs.ErrInvalidFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrIOFailure, err, "error reading calibration file %s", path)
	}

	return ParseCalibration(data)
}

// ParseCalibration decodes calibration YAML from memory.
func ParseCalibration(data []byte) (*Calibration, error) {
	var raw rawCalibration
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.ErrInvalidFormat, err, "error parsing calibration")
	}

	var missing []string
	if raw.Resolution == nil {
		missing = append(missing, "resolution")
	}
	if raw.OccupiedThresh == nil {
		missing = append(missing, "occupied_thresh")
	}
	if raw.FreeThresh == nil {
		missing = append(missing, "free_thresh")
	}
	if raw.Negate == nil {
		missing = append(missing, "negate")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("calibration missing required keys %s: %w",
			strings.Join(missing, ", "), errs.ErrInvalidFormat)
	}

	return &Calibration{
		Image:          raw.Image,
		Resolution:     *raw.Resolution,
		Origin:         raw.Origin,
		OccupiedThresh: *raw.OccupiedThresh,
		FreeThresh:     *raw.FreeThresh,
		Negate:         bool(*raw.Negate),
	}, nil
}

// Warnings lists suspicious but accepted calibration values.
//
// Thresholds are never rejected; the classifier result is undefined when
// free_thresh exceeds occupied_thresh.
func (c *Calibration) Warnings() []string {
	var w []string
	if c.FreeThresh > c.OccupiedThresh {
		w = append(w, fmt.Sprintf("free_thresh %.3f exceeds occupied_thresh %.3f", c.FreeThresh, c.OccupiedThresh))
	}
	if c.OccupiedThresh < 0 || c.OccupiedThresh > 1 {
		w = append(w, fmt.Sprintf("occupied_thresh %.3f outside [0,1]", c.OccupiedThresh))
	}
	if c.FreeThresh < 0 || c.FreeThresh > 1 {
		w = append(w, fmt.Sprintf("free_thresh %.3f outside [0,1]", c.FreeThresh))
	}
	if c.Resolution <= 0 {
		w = append(w, fmt.Sprintf("resolution %g is not positive", c.Resolution))
	}
	return w
}
