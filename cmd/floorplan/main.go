package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/ironsheep/floorplan-vectorizer/internal/config"
	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/export"
	"github.com/ironsheep/floorplan-vectorizer/internal/logger"
	"github.com/ironsheep/floorplan-vectorizer/internal/pipeline"
	"github.com/ironsheep/floorplan-vectorizer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `floorplan - convert occupancy-grid maps into vector floor plans

Usage:
  floorplan --image_dir DIR --yaml_path FILE --output_dir DIR --output_format png|jpg
            [--vector_format yes|no] [--vector_choice svg|json|dxf]
            [--config FILE] [--workers N] [--log-level LEVEL]
  floorplan serve [--config FILE] [--log-level LEVEL]
  floorplan --version | --help

Every *.pgm file in --image_dir is processed with the calibration in
--yaml_path. The floor plan is written as <name>.<output_format> in
--output_dir, plus <name>.<vector_choice> when --vector_format is yes.

serve runs an MCP server over stdin/stdout.

Environment variables:
  FLOORPLAN_LOG_LEVEL=debug    Default log level when --log-level is not set
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "floorplan %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			fmt.Fprint(stdout, usage)
			return 0
		case "serve":
			return runServe(args[1:], stderr)
		}
	}
	return runBatch(args, stderr)
}

type batchFlags struct {
	imageDir     string
	yamlPath     string
	outputDir    string
	outputFormat string
	vectorFormat string
	vectorChoice string
	configPath   string
	workers      int
	logLevel     string
}

func parseBatchFlags(args []string, stderr io.Writer) (*batchFlags, error) {
	f := &batchFlags{}
	fs := flag.NewFlagSet("floorplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	fs.StringVar(&f.imageDir, "image_dir", "", "directory of .pgm maps")
	fs.StringVar(&f.yamlPath, "yaml_path", "", "map calibration YAML")
	fs.StringVar(&f.outputDir, "output_dir", "", "output directory (created if missing)")
	fs.StringVar(&f.outputFormat, "output_format", "", "floor-plan raster format: png or jpg")
	fs.StringVar(&f.vectorFormat, "vector_format", "no", "also write a vector file: yes or no")
	fs.StringVar(&f.vectorChoice, "vector_choice", "", "vector file format: svg, json or dxf")
	fs.StringVar(&f.configPath, "config", "", "pipeline parameter YAML")
	fs.IntVar(&f.workers, "workers", 0, "maps processed concurrently (overrides config)")
	fs.StringVar(&f.logLevel, "log-level", os.Getenv("FLOORPLAN_LOG_LEVEL"), "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %v: %w", fs.Args(), errs.ErrInvalidInput)
	}

	var missing []string
	for name, v := range map[string]string{
		"--image_dir":     f.imageDir,
		"--yaml_path":     f.yamlPath,
		"--output_dir":    f.outputDir,
		"--output_format": f.outputFormat,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required flags %s: %w", strings.Join(missing, ", "), errs.ErrInvalidInput)
	}
	return f, nil
}

// resolveVectorFormat resolves --vector_format and --vector_choice. An empty
// result means no vector file.
func (f *batchFlags) resolveVectorFormat() (export.Format, error) {
	switch strings.ToLower(f.vectorFormat) {
	case "no", "":
		return "", nil
	case "yes":
		if f.vectorChoice == "" {
			return "", fmt.Errorf("--vector_format yes requires --vector_choice: %w", errs.ErrInvalidFormat)
		}
		return export.ParseFormat(f.vectorChoice)
	default:
		return "", fmt.Errorf("--vector_format must be yes or no, got %q: %w", f.vectorFormat, errs.ErrInvalidFormat)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfigFile(path)
}

func runBatch(args []string, stderr io.Writer) int {
	f, err := parseBatchFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "floorplan: %v\n", err)
		return 1
	}

	log := logger.NewConsole(stderr, logger.ParseLevel(f.logLevel))

	vector, err := f.resolveVectorFormat()
	if err != nil {
		fmt.Fprintf(stderr, "floorplan: %v\n", err)
		return 1
	}
	if vector == "" && f.vectorChoice != "" {
		log.Warn().Str("vector_choice", f.vectorChoice).Msg("ignored without --vector_format yes")
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "floorplan: %v\n", err)
		return 1
	}
	if f.workers > 0 {
		cfg.Batch.Workers = f.workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := pipeline.NewBatch(cfg, log).Run(ctx, pipeline.Options{
		ImageDir:        f.imageDir,
		CalibrationPath: f.yamlPath,
		OutputDir:       f.outputDir,
		OutputFormat:    f.outputFormat,
		VectorFormat:    vector,
	})
	if report != nil {
		log.Info().
			Int("processed", len(report.Images)).
			Int("failed", len(report.Failures)).
			Str("output_dir", f.outputDir).
			Msg("batch finished")
	}
	if err != nil {
		fmt.Fprintf(stderr, "floorplan: %v\n", err)
		return 1
	}
	return 0
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("floorplan serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "pipeline parameter YAML")
	logLevel := fs.String("log-level", os.Getenv("FLOORPLAN_LOG_LEVEL"), "log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	log := logger.NewConsole(stderr, logger.ParseLevel(*logLevel))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "floorplan: %v\n", err)
		return 1
	}

	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("starting MCP server")

	if err := server.New(cfg, log).Run(); err != nil {
		log.Error().Err(err).Msg("server error")
		return 1
	}
	return 0
}

