package export

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// DefaultStroke is the SVG line colour used when none is configured.
const DefaultStroke = "#000000"

// SVGExporter writes segments as <line> elements of an SVG document.
//
// The document is sized to the bounding box of all endpoints and its viewBox
// starts at the box minimum. Coordinates are written unchanged, so they stay
// in raster pixel space.
type SVGExporter struct {
	stroke colorful.Color
}

// NewSVGExporter returns an SVG exporter drawing in the given hex colour.
// An empty stroke selects DefaultStroke.
func NewSVGExporter(stroke string) (*SVGExporter, error) {
	if stroke == "" {
		stroke = DefaultStroke
	}
	c, err := colorful.Hex(stroke)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidInput, err, "svg stroke %q", stroke)
	}
	return &SVGExporter{stroke: c}, nil
}

// Format implements Exporter.
func (e *SVGExporter) Format() Format { return FormatSVG }

// Encode implements Exporter. Empty input is rejected with errs.ErrInvalidInput
// since it has no bounding box.
func (e *SVGExporter) Encode(lines []imaging.Segment) ([]byte, error) {
	bound, ok := imaging.Bounds(lines)
	if !ok {
		return nil, fmt.Errorf("svg export of zero segments: %w", errs.ErrInvalidInput)
	}
	width := bound.Max.X() - bound.Min.X()
	height := bound.Max.Y() - bound.Min.Y()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("baseProfile", "tiny")
	svg.CreateAttr("version", "1.2")
	svg.CreateAttr("width", formatFloat(width))
	svg.CreateAttr("height", formatFloat(height))
	svg.CreateAttr("viewBox", fmt.Sprintf("%s %s %s %s",
		formatFloat(bound.Min.X()), formatFloat(bound.Min.Y()), formatFloat(width), formatFloat(height)))

	stroke := e.stroke.Hex()
	for _, l := range lines {
		line := svg.CreateElement("line")
		line.CreateAttr("x1", strconv.Itoa(l.X1))
		line.CreateAttr("y1", strconv.Itoa(l.Y1))
		line.CreateAttr("x2", strconv.Itoa(l.X2))
		line.CreateAttr("y2", strconv.Itoa(l.Y2))
		line.CreateAttr("stroke", stroke)
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, errs.Wrap(errs.ErrIOFailure, err, "serializing svg")
	}
	return data, nil
}

// Export implements Exporter.
func (e *SVGExporter) Export(lines []imaging.Segment, path string) error {
	return writeDocument(e.Encode, lines, path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
