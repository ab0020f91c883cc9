package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// Default hysteresis thresholds for DetectEdges.
const (
	DefaultEdgeLow  = 100
	DefaultEdgeHigh = 200
)

// tan(22.5°) in Q15 fixed point, used to bin gradient directions.
const tg22 = 13573

// Edge-tracking states.
const (
	edgeNone = iota
	edgeWeak
	edgeStrong
)

// DetectEdges performs Canny edge detection on a classified raster.
//
// Parameters:
//   - src: The raster to analyse. Its samples are used as-is (no blur).
//   - thresholdLow: Lower hysteresis threshold on the gradient magnitude.
//   - thresholdHigh: Upper hysteresis threshold. If thresholdLow is larger
//     the two are swapped.
//
// Returns a binary raster of the same size: 255 on edges, 0 elsewhere.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators with replicated borders,
//     magnitude = |Gx| + |Gy| on the raw 0-255 samples.
//
//  2. Non-maximum suppression: the gradient direction is binned into
//     horizontal, vertical and the two diagonals. A pixel survives if its
//     magnitude beats both neighbours across the edge. Horizontal and
//     vertical bins compare strictly against the preceding neighbour and
//     non-strictly against the following one, so a plateau two pixels wide
//     yields a single edge line. Magnitudes outside the raster count as 0.
//
//  3. Hysteresis: surviving pixels with magnitude above thresholdHigh are
//     strong edges; those above thresholdLow are weak edges, kept only when
//     8-connected (transitively) to a strong edge.
//
// # Errors
//
//   - errs.ErrInvalidInput if src is nil or has zero width or height
func DetectEdges(src *Raster, thresholdLow, thresholdHigh int) (*Raster, error) {
	if src.Empty() {
		return nil, fmt.Errorf("edge detection on empty raster: %w", errs.ErrInvalidInput)
	}
	if thresholdLow > thresholdHigh {
		thresholdLow, thresholdHigh = thresholdHigh, thresholdLow
	}

	width := src.Width
	height := src.Height

	gradX, gradY, magnitude := sobel(src)

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	// Non-maximum suppression and double threshold
	state := make([]uint8, width*height)
	stack := make([]int, 0, width)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= thresholdLow {
				continue
			}

			gx, gy := gradX[i], gradY[i]
			ax := abs(gx)
			ay := abs(gy) << 15
			tg22x := ax * tg22

			var keep bool
			if ay < tg22x {
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			} else {
				tg67x := tg22x + ax<<16
				if ay > tg67x {
					keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
				} else {
					s := 1
					if (gx < 0) != (gy < 0) {
						s = -1
					}
					keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
				}
			}
			if !keep {
				continue
			}

			if m > thresholdHigh {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	// Edge tracking by hysteresis
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := x+kx, y+ky
				if px < 0 || py < 0 || px >= width || py >= height {
					continue
				}
				j := py*width + px
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	result := NewRaster(width, height)
	for i, s := range state {
		if s == edgeStrong {
			result.Pix[i] = 255
		}
	}
	return result, nil
}

// sobel computes the horizontal and vertical Sobel responses and their L1
// magnitude. Border pixels use clamped (replicated) edge values.
func sobel(src *Raster) (gradX, gradY, magnitude []int) {
	width := src.Width
	height := src.Height

	sobelX := [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	gradX = make([]int, width*height)
	gradY = make([]int, width*height)
	magnitude = make([]int, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := int(src.Pix[py*width+px])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = abs(gx) + abs(gy)
		}
	}
	return gradX, gradY, magnitude
}

// EdgeImageResult is an edge map encoded as base64 PNG.
type EdgeImageResult struct {
	// Width of the edge map in pixels.
	Width int `json:"width"`

	// Height of the edge map in pixels.
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge map as base64 PNG, edges in white (255).
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodeEdgeImage packages an edge map for transport.
func EncodeEdgeImage(edges *Raster) (*EdgeImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, edges.ToGray()); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeImageResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  edges.Count(255),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
