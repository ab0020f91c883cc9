package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Edges.Low != 100 || cfg.Edges.High != 200 {
		t.Errorf("edge thresholds: got %d/%d, want 100/200", cfg.Edges.Low, cfg.Edges.High)
	}
	if cfg.Hough.Rho != 1.7 {
		t.Errorf("Rho: got %g, want 1.7", cfg.Hough.Rho)
	}
	if cfg.Hough.Theta != math.Pi/900 {
		t.Errorf("Theta: got %g, want pi/900", cfg.Hough.Theta)
	}
	if cfg.Hough.Threshold != 40 || cfg.Hough.MinLineLength != 40 || cfg.Hough.MaxLineGap != 35 {
		t.Errorf("hough ints: got %d/%d/%d, want 40/40/35",
			cfg.Hough.Threshold, cfg.Hough.MinLineLength, cfg.Hough.MaxLineGap)
	}
	if cfg.Render.StrokeWidth != 2 {
		t.Errorf("StrokeWidth: got %d, want 2", cfg.Render.StrokeWidth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Hough.Threshold != 40 {
		t.Errorf("Threshold: got %d, want 40", cfg.Hough.Threshold)
	}
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", "hough:\n  threshold: 25\nbatch:\n  workers: 4\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Hough.Threshold != 25 {
		t.Errorf("Threshold: got %d, want 25", cfg.Hough.Threshold)
	}
	if cfg.Hough.MaxLineGap != 35 {
		t.Errorf("MaxLineGap should keep default, got %d", cfg.Hough.MaxLineGap)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Workers: got %d, want 4", cfg.Batch.Workers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "hough: [\n"},
		{"zero workers", "batch:\n  workers: 0\n"},
		{"bad policy", "batch:\n  onError: retry\n"},
		{"negative rho", "hough:\n  rho: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "pipeline.yaml", tt.content)
			if _, err := LoadConfig(path); !errors.Is(err, errs.ErrInvalidFormat) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.yaml")
	cfg := DefaultConfig()
	cfg.Export.SVGStroke = "#336699"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Export.SVGStroke != "#336699" {
		t.Errorf("SVGStroke: got %q, want #336699", loaded.Export.SVGStroke)
	}
	if loaded.Hough.Theta != cfg.Hough.Theta {
		t.Errorf("Theta: got %g, want %g", loaded.Hough.Theta, cfg.Hough.Theta)
	}
}

func TestLoadConfigFile(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "typo.yaml")); !errors.Is(err, errs.ErrInputNotFound) {
		t.Errorf("missing file: expected ErrInputNotFound, got %v", err)
	}

	path := writeFile(t, "pipeline.yaml", "edges:\n  low: 50\n")
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Edges.Low != 50 || cfg.Edges.High != 200 {
		t.Errorf("edges: got %d/%d, want 50/200", cfg.Edges.Low, cfg.Edges.High)
	}

	bad := writeFile(t, "bad.yaml", "render:\n  strokeWidth: 0\n")
	if _, err := LoadConfigFile(bad); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("invalid file: expected ErrInvalidFormat, got %v", err)
	}
}

func TestValidate_ErrorKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.OnError = "retry"
	if err := cfg.Validate(); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
