package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

// Params controls the probabilistic Hough line finder.
type Params struct {
	// Rho is the distance resolution of the accumulator, in pixels.
	Rho float64 `json:"rho"`

	// Theta is the angle resolution of the accumulator, in radians.
	Theta float64 `json:"theta"`

	// Threshold is the number of votes a bucket needs before a line is traced.
	Threshold int `json:"threshold"`

	// MinLineLength is the shortest segment kept, measured as the larger of
	// its horizontal and vertical extent.
	MinLineLength int `json:"min_line_length"`

	// MaxLineGap is the longest run of non-edge pixels bridged inside one segment.
	MaxLineGap int `json:"max_line_gap"`
}

// DefaultParams returns the parameters used for floor-plan extraction.
func DefaultParams() Params {
	return Params{
		Rho:           1.7,
		Theta:         math.Pi / 900,
		Threshold:     40,
		MinLineLength: 40,
		MaxLineGap:    35,
	}
}

// Validate rejects parameters that cannot build an accumulator.
func (p Params) Validate() error {
	if p.Rho <= 0 || p.Theta <= 0 || math.IsNaN(p.Rho) || math.IsNaN(p.Theta) {
		return fmt.Errorf("rho and theta must be positive, got %g and %g: %w", p.Rho, p.Theta, errs.ErrInvalidInput)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d: %w", p.Threshold, errs.ErrInvalidInput)
	}
	if int(math.RoundToEven(math.Pi/p.Theta)) < 1 {
		return fmt.Errorf("theta %g leaves no angle buckets: %w", p.Theta, errs.ErrInvalidInput)
	}
	return nil
}

// Fixed-point precision used while walking along a line.
const shift = 16

// DetectLines finds straight segments in a binary edge map using the
// progressive probabilistic Hough transform.
//
// Parameters:
//   - edges: Binary raster; every non-zero pixel is an edge point.
//   - p: Accumulator resolution, vote threshold and segment limits.
//
// Returns the segments in discovery order. An edge map with no qualifying
// line yields an empty, non-nil slice.
//
// # Algorithm
//
// The accumulator is indexed by (angle bucket, distance bucket), with
// round(pi/Theta) angles and round((2*(width+height)+1)/Rho) distances.
// Edge points are visited in a pseudo-random order drawn from a fixed-seed
// multiply-with-carry generator, so the result is deterministic for a given
// input. For each unvisited point:
//
//  1. Vote for every angle bucket; remember the bucket with the most votes.
//  2. If that bucket has fewer than Threshold votes, move on.
//  3. Walk from the point along the bucket's line direction, both ways, in
//     16.16 fixed point. Edge pixels extend the segment; the walk stops after
//     more than MaxLineGap consecutive misses or at the raster border.
//  4. Walk the same path again, removing every edge pixel up to the
//     endpoints from further voting. When the segment is long enough (its
//     x or y extent is at least MinLineLength) the removed pixels also
//     withdraw their votes and the segment is emitted.
//
// # Errors
//
//   - errs.ErrInvalidInput if edges is nil or the parameters are invalid
func DetectLines(edges *imaging.Raster, p Params) ([]imaging.Segment, error) {
	if edges == nil {
		return nil, fmt.Errorf("line detection on nil edge map: %w", errs.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lines := make([]imaging.Segment, 0)
	width := edges.Width
	height := edges.Height
	if width == 0 || height == 0 {
		return lines, nil
	}

	acc := newAccumulator(width, height, p.Rho, p.Theta)

	// Collect edge points in raster order and mark them as available.
	mask := make([]bool, width*height)
	points := make([]imaging.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[y*width+x] != 0 {
				mask[y*width+x] = true
				points = append(points, imaging.Point{X: x, Y: y})
			}
		}
	}

	rng := newMWC()

	for count := len(points); count > 0; count-- {
		// Pick a random remaining point and swap it out of the pool.
		idx := rng.uniform(count)
		pt := points[idx]
		points[idx] = points[count-1]

		if !mask[pt.Y*width+pt.X] {
			continue
		}

		maxVal, maxN := acc.vote(pt.X, pt.Y, p.Threshold)
		if maxVal < p.Threshold {
			continue
		}

		a, b := acc.direction(maxN)
		w := newWalk(pt, a, b)

		var lineEnd [2]imaging.Point
		for k := 0; k < 2; k++ {
			gap := 0
			for x, y := w.start(k); ; x, y = x+w.dx(k), y+w.dy(k) {
				j, i := w.pixel(x, y)
				if j < 0 || j >= width || i < 0 || i >= height {
					break
				}
				if mask[i*width+j] {
					gap = 0
					lineEnd[k] = imaging.Point{X: j, Y: i}
				} else if gap++; gap > p.MaxLineGap {
					break
				}
			}
		}

		goodLine := abs(lineEnd[1].X-lineEnd[0].X) >= p.MinLineLength ||
			abs(lineEnd[1].Y-lineEnd[0].Y) >= p.MinLineLength

		for k := 0; k < 2; k++ {
			for x, y := w.start(k); ; x, y = x+w.dx(k), y+w.dy(k) {
				j, i := w.pixel(x, y)
				if mask[i*width+j] {
					if goodLine {
						acc.unvote(j, i)
					}
					mask[i*width+j] = false
				}
				if i == lineEnd[k].Y && j == lineEnd[k].X {
					break
				}
			}
		}

		if goodLine {
			lines = append(lines, imaging.Segment{
				X1: lineEnd[0].X,
				Y1: lineEnd[0].Y,
				X2: lineEnd[1].X,
				Y2: lineEnd[1].Y,
			})
		}
	}

	return lines, nil
}

// walk steps along a line in 16.16 fixed point. The major axis advances one
// pixel per step; the minor axis advances by a fixed-point fraction.
type walk struct {
	xflag    bool
	x0, y0   int
	dx0, dy0 int
}

func newWalk(pt imaging.Point, a, b float32) walk {
	w := walk{x0: pt.X, y0: pt.Y}
	if abs32(a) > abs32(b) {
		w.xflag = true
		w.dx0 = 1
		if a <= 0 {
			w.dx0 = -1
		}
		w.dy0 = round32(b * (1 << shift) / abs32(a))
		w.y0 = (w.y0 << shift) + (1 << (shift - 1))
	} else {
		w.dy0 = 1
		if b <= 0 {
			w.dy0 = -1
		}
		w.dx0 = round32(a * (1 << shift) / abs32(b))
		w.x0 = (w.x0 << shift) + (1 << (shift - 1))
	}
	return w
}

func (w walk) start(int) (int, int) { return w.x0, w.y0 }

func (w walk) dx(k int) int {
	if k > 0 {
		return -w.dx0
	}
	return w.dx0
}

func (w walk) dy(k int) int {
	if k > 0 {
		return -w.dy0
	}
	return w.dy0
}

// pixel converts a walk position to (column, row).
func (w walk) pixel(x, y int) (int, int) {
	if w.xflag {
		return x, y >> shift
	}
	return x >> shift, y
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// round32 rounds half to even, matching the rounding of the vote buckets.
func round32(v float32) int {
	return int(math.RoundToEven(float64(v)))
}
