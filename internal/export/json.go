package export

import (
	"encoding/json"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// jsonLine is the on-disk shape of one segment.
type jsonLine struct {
	Start [2]int `json:"start"`
	End   [2]int `json:"end"`
}

// JSONExporter writes segments as a JSON array of {"start", "end"} objects,
// indented with four spaces, in extraction order.
type JSONExporter struct{}

// Format implements Exporter.
func (JSONExporter) Format() Format { return FormatJSON }

// Encode implements Exporter. Empty input yields "[]".
func (JSONExporter) Encode(lines []imaging.Segment) ([]byte, error) {
	out := make([]jsonLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, jsonLine{
			Start: [2]int{l.X1, l.Y1},
			End:   [2]int{l.X2, l.Y2},
		})
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrIOFailure, err, "serializing json")
	}
	return data, nil
}

// Export implements Exporter.
func (e JSONExporter) Export(lines []imaging.Segment, path string) error {
	return writeDocument(e.Encode, lines, path)
}

// DecodeJSON parses a document produced by JSONExporter.
func DecodeJSON(data []byte) ([]imaging.Segment, error) {
	var in []jsonLine
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errs.Wrap(errs.ErrInvalidFormat, err, "parsing segment json")
	}
	lines := make([]imaging.Segment, 0, len(in))
	for _, l := range in {
		lines = append(lines, imaging.Segment{X1: l.Start[0], Y1: l.Start[1], X2: l.End[0], Y2: l.End[1]})
	}
	return lines, nil
}
