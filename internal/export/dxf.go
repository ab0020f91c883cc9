package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// DXFVersion is the $ACADVER written in the header (AutoCAD R12).
//
// R12 is the newest version whose documents may consist of a HEADER and an
// ENTITIES section alone; entities in ENTITIES belong to model space.
const DXFVersion = "AC1009"

// DXFExporter writes segments as LINE entities of a minimal R12 ASCII DXF
// drawing: a HEADER with the drawing version and an ENTITIES section.
// Every line lies on layer 0 with z=0.
type DXFExporter struct{}

// Format implements Exporter.
func (DXFExporter) Format() Format { return FormatDXF }

// Encode implements Exporter. Empty input yields a drawing with no entities.
func (DXFExporter) Encode(lines []imaging.Segment) ([]byte, error) {
	var buf bytes.Buffer
	w := dxfWriter{buf: &buf}

	w.pair(0, "SECTION")
	w.pair(2, "HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, DXFVersion)
	w.pair(0, "ENDSEC")

	w.pair(0, "SECTION")
	w.pair(2, "ENTITIES")
	for _, l := range lines {
		w.pair(0, "LINE")
		w.pair(8, "0")
		w.point(10, l.X1, l.Y1)
		w.point(11, l.X2, l.Y2)
	}
	w.pair(0, "ENDSEC")
	w.pair(0, "EOF")

	return buf.Bytes(), nil
}

// Export implements Exporter.
func (e DXFExporter) Export(lines []imaging.Segment, path string) error {
	return writeDocument(e.Encode, lines, path)
}

type dxfWriter struct {
	buf *bytes.Buffer
}

func (w dxfWriter) pair(code int, value string) {
	fmt.Fprintf(w.buf, "%3d\n%s\n", code, value)
}

// point writes x, y and z=0 using the group codes base, base+10, base+20.
func (w dxfWriter) point(base, x, y int) {
	w.pair(base, strconv.FormatFloat(float64(x), 'f', 1, 64))
	w.pair(base+10, strconv.FormatFloat(float64(y), 'f', 1, 64))
	w.pair(base+20, "0.0")
}
