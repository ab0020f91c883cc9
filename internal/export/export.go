// Package export serializes extracted wall segments to vector documents.
//
// Three formats are supported: SVG, JSON and DXF. Each exporter can encode
// to memory or write a file; files are written in one call, so a failed
// encode never leaves a partial document on disk.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// Format names a vector document type.
type Format string

// Supported vector formats. The value doubles as the file extension.
const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatDXF  Format = "dxf"
)

// Formats lists the supported vector formats in presentation order.
var Formats = []Format{FormatSVG, FormatJSON, FormatDXF}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("vector format %q (expected svg, json or dxf): %w", name, errs.ErrInvalidFormat)
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Exporter converts a segment sequence into one vector document.
type Exporter interface {
	// Format reports the document type produced.
	Format() Format

	// Encode returns the serialized document.
	Encode(lines []imaging.Segment) ([]byte, error)

	// Export encodes lines and writes the document to path.
	Export(lines []imaging.Segment, path string) error
}

// Options tune exporters that support styling.
type Options struct {
	// Stroke is the SVG line colour as a hex string.
	Stroke string
}

// New returns the exporter for format.
func New(format Format, opts Options) (Exporter, error) {
	switch format {
	case FormatSVG:
		e, err := NewSVGExporter(opts.Stroke)
		if err != nil {
			return nil, err
		}
		return e, nil
	case FormatJSON:
		return JSONExporter{}, nil
	case FormatDXF:
		return DXFExporter{}, nil
	default:
		return nil, fmt.Errorf("vector format %q: %w", format, errs.ErrInvalidFormat)
	}
}

// WriteFile writes an encoded document to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.Wrap(errs.ErrIOFailure, err, "writing %s", path)
	}
	return nil
}

// writeDocument encodes with enc and writes the bytes to path.
func writeDocument(enc func([]imaging.Segment) ([]byte, error), lines []imaging.Segment, path string) error {
	data, err := enc(lines)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}
