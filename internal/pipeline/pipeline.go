// Package pipeline runs the occupancy-grid to floor-plan stages.
//
// Process handles one raster: classify, detect edges, extract lines, render.
// Batch drives Process over a directory of maps and writes the outputs.
package pipeline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/floorplan-vectorizer/internal/config"
	"github.com/ironsheep/floorplan-vectorizer/internal/detection"
	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// Result holds every intermediate and output of one pipeline run.
type Result struct {
	Classified *imaging.Raster
	Edges      *imaging.Raster
	Segments   []imaging.Segment
	Plan       *imaging.Raster
	Summary    Summary
}

// Summary describes the extracted walls of one map.
type Summary struct {
	Segments    int     `json:"segments"`
	TotalPixels float64 `json:"total_length_pixels"`
	MeanPixels  float64 `json:"mean_length_pixels"`
	MaxPixels   float64 `json:"max_length_pixels"`
	TotalMeters float64 `json:"total_length_meters"`
	MeanMeters  float64 `json:"mean_length_meters"`
	MaxMeters   float64 `json:"max_length_meters"`
}

// HoughParams converts the configured Hough section into detector parameters.
func HoughParams(cfg *config.Config) detection.Params {
	return detection.Params{
		Rho:           cfg.Hough.Rho,
		Theta:         cfg.Hough.Theta,
		Threshold:     cfg.Hough.Threshold,
		MinLineLength: cfg.Hough.MinLineLength,
		MaxLineGap:    cfg.Hough.MaxLineGap,
	}
}

// Process runs every stage on src. A nil cfg uses config.DefaultConfig.
//
// src is not modified, so cached rasters can be processed concurrently.
func Process(src *imaging.Raster, cal *config.Calibration, cfg *config.Config) (*Result, error) {
	if src.Empty() {
		return nil, fmt.Errorf("processing empty raster: %w", errs.ErrInvalidInput)
	}
	if cal == nil {
		return nil, fmt.Errorf("processing without calibration: %w", errs.ErrInvalidInput)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	classified := imaging.Classify(src, cal.OccupiedThresh, cal.FreeThresh, cal.Negate)

	edges, err := imaging.DetectEdges(classified, cfg.Edges.Low, cfg.Edges.High)
	if err != nil {
		return nil, err
	}

	lines, err := detection.DetectLines(edges, HoughParams(cfg))
	if err != nil {
		return nil, err
	}

	return &Result{
		Classified: classified,
		Edges:      edges,
		Segments:   lines,
		Plan:       imaging.RenderStroke(lines, src.Width, src.Height, cfg.Render.StrokeWidth),
		Summary:    Summarize(lines, cal.Resolution),
	}, nil
}

// Summarize measures segment lengths in pixels and, scaled by resolution,
// in metres. All lengths of an empty list are zero.
func Summarize(lines []imaging.Segment, resolution float64) Summary {
	s := Summary{Segments: len(lines)}
	if len(lines) == 0 {
		return s
	}

	lengths := make([]float64, len(lines))
	for i, l := range lines {
		lengths[i] = l.Length()
	}

	s.TotalPixels = round(floats.Sum(lengths), 2)
	s.MeanPixels = round(stat.Mean(lengths, nil), 2)
	s.MaxPixels = round(floats.Max(lengths), 2)

	floats.Scale(resolution, lengths)
	s.TotalMeters = round(floats.Sum(lengths), 3)
	s.MeanMeters = round(stat.Mean(lengths, nil), 3)
	s.MaxMeters = round(floats.Max(lengths), 3)

	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
