package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/floorplan-vectorizer/internal/config"
	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/export"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// InputExtension is the file extension of maps picked up from the image directory.
const InputExtension = ".pgm"

// Options describes one batch run.
type Options struct {
	// ImageDir holds the input maps.
	ImageDir string
	// CalibrationPath is the YAML metadata shared by every map.
	CalibrationPath string
	// OutputDir receives the outputs; it is created if missing.
	OutputDir string
	// OutputFormat is the floor-plan raster encoding, png or jpg.
	OutputFormat string
	// VectorFormat selects an optional vector document. Empty means none.
	VectorFormat export.Format
}

// ImageReport records the outputs of one successfully processed map.
type ImageReport struct {
	Name       string  `json:"name"`
	PlanPath   string  `json:"plan_path"`
	VectorPath string  `json:"vector_path,omitempty"`
	Summary    Summary `json:"summary"`
}

// ImageFailure records a map skipped under the continue policy.
type ImageFailure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// Report is the outcome of a batch run. Images are listed in input order.
type Report struct {
	Images   []ImageReport
	Failures []ImageFailure
}

// Batch processes a directory of maps with a shared configuration.
type Batch struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewBatch creates a batch runner. A nil cfg uses config.DefaultConfig.
func NewBatch(cfg *config.Config, log zerolog.Logger) *Batch {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Batch{cfg: cfg, log: log}
}

// Discover lists the maps in dir, sorted by file name.
//
// # Errors
//
//   - errs.ErrInputNotFound if dir does not exist or is not a directory
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "image directory %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image directory %s is not a directory: %w", dir, errs.ErrInputNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "reading image directory %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), InputExtension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type job struct {
	index  int
	name   string
	raster *imaging.Raster
}

// Run processes every map in opts.ImageDir.
//
// Inputs are validated and all maps decoded before anything is written. With
// the abort policy the first failure stops the run and is returned. With the
// continue policy failing maps are logged and listed in Report.Failures, and
// the returned error joins every failure.
func (b *Batch) Run(ctx context.Context, opts Options) (*Report, error) {
	format, err := imaging.ParseOutputFormat(opts.OutputFormat)
	if err != nil {
		return nil, err
	}

	var exporter export.Exporter
	if opts.VectorFormat != "" {
		exporter, err = export.New(opts.VectorFormat, export.Options{Stroke: b.cfg.Export.SVGStroke})
		if err != nil {
			return nil, err
		}
	}

	paths, err := Discover(opts.ImageDir)
	if err != nil {
		return nil, err
	}

	cal, err := config.LoadCalibration(opts.CalibrationPath)
	if err != nil {
		return nil, err
	}
	for _, w := range cal.Warnings() {
		b.log.Warn().Str("calibration", opts.CalibrationPath).Msg(w)
	}

	report := &Report{}
	if len(paths) == 0 {
		b.log.Warn().Str("dir", opts.ImageDir).Msg("no maps found")
		return report, nil
	}

	abort := b.cfg.Batch.OnError != config.PolicyContinue

	jobs := make([]job, 0, len(paths))
	for i, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), InputExtension)
		r, err := imaging.LoadRaster(path)
		if err != nil {
			if abort {
				return nil, err
			}
			b.log.Error().Err(err).Str("image", name).Msg("skipping map")
			report.Failures = append(report.Failures, ImageFailure{Name: name, Err: err})
			continue
		}
		jobs = append(jobs, job{index: i, name: name, raster: r})
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrIOFailure, err, "creating output directory %s", opts.OutputDir)
	}

	results := make([]*ImageReport, len(paths))
	failures := make([]error, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Batch.Workers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rep, err := b.processOne(j, cal, opts.OutputDir, format, exporter)
			if err != nil {
				if abort {
					return err
				}
				b.log.Error().Err(err).Str("image", j.name).Msg("skipping map")
				mu.Lock()
				failures[j.index] = err
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results[j.index] = rep
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, rep := range results {
		if rep != nil {
			report.Images = append(report.Images, *rep)
		} else if failures[i] != nil {
			name := strings.TrimSuffix(filepath.Base(paths[i]), InputExtension)
			report.Failures = append(report.Failures, ImageFailure{Name: name, Err: failures[i]})
		}
	}
	sort.SliceStable(report.Failures, func(a, c int) bool {
		return report.Failures[a].Name < report.Failures[c].Name
	})

	if len(report.Failures) > 0 {
		joined := make([]error, 0, len(report.Failures))
		for _, f := range report.Failures {
			joined = append(joined, f.Err)
		}
		return report, errors.Join(joined...)
	}
	return report, nil
}

// processOne runs the stages for one map and writes its outputs. The vector
// document is encoded before anything is written.
func (b *Batch) processOne(j job, cal *config.Calibration, outDir, format string, exporter export.Exporter) (*ImageReport, error) {
	res, err := Process(j.raster, cal, b.cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", j.name, err)
	}
	b.log.Debug().
		Str("image", j.name).
		Int("edge_pixels", res.Edges.Count(255)).
		Int("segments", len(res.Segments)).
		Msg("lines extracted")

	var doc []byte
	if exporter != nil {
		doc, err = exporter.Encode(res.Segments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", j.name, err)
		}
	}

	rep := &ImageReport{
		Name:     j.name,
		PlanPath: filepath.Join(outDir, j.name+"."+format),
		Summary:  res.Summary,
	}
	if err := imaging.SaveRaster(rep.PlanPath, res.Plan, format, b.cfg.Render.JPEGQuality); err != nil {
		return nil, err
	}

	if exporter != nil {
		rep.VectorPath = filepath.Join(outDir, j.name+exporter.Format().Extension())
		if err := export.WriteFile(rep.VectorPath, doc); err != nil {
			// leave no floor plan without its vector file
			if rmErr := os.Remove(rep.PlanPath); rmErr != nil && !os.IsNotExist(rmErr) {
				b.log.Warn().Err(rmErr).Str("plan", rep.PlanPath).Msg("failed to remove floor plan")
			}
			return nil, err
		}
	}

	b.log.Info().
		Str("image", j.name).
		Int("segments", res.Summary.Segments).
		Float64("total_length_m", res.Summary.TotalMeters).
		Str("plan", rep.PlanPath).
		Msg("floor plan written")

	return rep, nil
}
