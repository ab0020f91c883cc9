package imaging

import (
	"fmt"
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// Raster output formats.
const (
	FormatPNG = "png"
	FormatJPG = "jpg"
)

// OutputFormats lists the accepted raster output formats.
var OutputFormats = []string{FormatPNG, FormatJPG}

// ParseOutputFormat normalises a raster output format name.
func ParseOutputFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	}
	return "", fmt.Errorf("unsupported raster format %q, expected one of %v: %w", name, OutputFormats, errs.ErrInvalidFormat)
}

// SaveRaster encodes r to path as PNG or JPEG.
//
// jpegQuality is only used for the jpg format.
func SaveRaster(path string, r *Raster, format string, jpegQuality int) error {
	format, err := ParseOutputFormat(format)
	if err != nil {
		return err
	}

	var encoder imgio.Encoder
	switch format {
	case FormatPNG:
		encoder = imgio.PNGEncoder()
	case FormatJPG:
		encoder = imgio.JPEGEncoder(jpegQuality)
	}

	if err := imgio.Save(path, r.ToGray(), encoder); err != nil {
		return errs.Wrap(errs.ErrIOFailure, err, "failed to write %s", path)
	}
	return nil
}
