package imaging

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point represents a 2D point
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Segment is a straight wall segment between two pixel endpoints.
//
// The endpoints carry no ordering.
type Segment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Start returns the first endpoint.
func (s Segment) Start() Point { return Point{X: s.X1, Y: s.Y1} }

// End returns the second endpoint.
func (s Segment) End() Point { return Point{X: s.X2, Y: s.Y2} }

// LineString returns the segment as an orb geometry.
func (s Segment) LineString() orb.LineString {
	return orb.LineString{
		{float64(s.X1), float64(s.Y1)},
		{float64(s.X2), float64(s.Y2)},
	}
}

// Length returns the Euclidean length in pixels.
func (s Segment) Length() float64 {
	return planar.Distance(
		orb.Point{float64(s.X1), float64(s.Y1)},
		orb.Point{float64(s.X2), float64(s.Y2)},
	)
}

// SegmentMeasure describes a segment in pixel and map units.
type SegmentMeasure struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	LengthPixels float64 `json:"length_pixels"`
	LengthMeters float64 `json:"length_meters"`
	DeltaX       int     `json:"delta_x"`
	DeltaY       int     `json:"delta_y"`
	AngleDegrees float64 `json:"angle_degrees"`
}

// MeasureSegment measures a segment; resolution is the map length per pixel.
//
// The angle is in degrees with 0 pointing right and 90 pointing down, since
// raster Y grows downward.
func MeasureSegment(s Segment, resolution float64) SegmentMeasure {
	deltaX := s.X2 - s.X1
	deltaY := s.Y2 - s.Y1
	length := s.Length()
	angle := math.Atan2(float64(deltaY), float64(deltaX)) * 180 / math.Pi

	return SegmentMeasure{
		Start:        s.Start(),
		End:          s.End(),
		LengthPixels: math.Round(length*100) / 100,
		LengthMeters: math.Round(length*resolution*1000) / 1000,
		DeltaX:       deltaX,
		DeltaY:       deltaY,
		AngleDegrees: math.Round(angle*10) / 10,
	}
}

// Bounds returns the axis-aligned bounding box of all segment endpoints.
// ok is false when segments is empty.
func Bounds(segments []Segment) (b orb.Bound, ok bool) {
	if len(segments) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, 2*len(segments))
	for _, s := range segments {
		mp = append(mp, orb.Point{float64(s.X1), float64(s.Y1)}, orb.Point{float64(s.X2), float64(s.Y2)})
	}
	return mp.Bound(), true
}
