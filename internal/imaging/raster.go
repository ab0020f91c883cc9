package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Raster is a single-channel 8-bit pixel grid stored row-major.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zero-filled raster. Negative dimensions yield an
// empty raster.
func NewRaster(width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width == 0 || r.Height == 0
}

// At returns the sample at (x, y). The caller guarantees the point is in bounds.
func (r *Raster) At(x, y int) uint8 {
	return r.Pix[y*r.Width+x]
}

// Set writes the sample at (x, y), ignoring points outside the raster.
func (r *Raster) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	r.Pix[y*r.Width+x] = v
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := NewRaster(r.Width, r.Height)
	copy(out.Pix, r.Pix)
	return out
}

// Count returns how many samples equal v.
func (r *Raster) Count(v uint8) int {
	n := 0
	for _, p := range r.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// ToGray wraps the samples in an *image.Gray for encoding.
func (r *Raster) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	copy(img.Pix, r.Pix)
	return img
}

// FromImage converts any decoded image to a grayscale raster.
//
// *image.Gray sources are copied directly. Other colour models go through
// imaging.Grayscale, which weights channels with the ITU-R BT.601 luma
// coefficients (0.299, 0.587, 0.114).
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	out := NewRaster(bounds.Dx(), bounds.Dy())

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			row := g.Pix[(y+bounds.Min.Y-g.Rect.Min.Y)*g.Stride+(bounds.Min.X-g.Rect.Min.X):]
			copy(out.Pix[y*out.Width:(y+1)*out.Width], row[:out.Width])
		}
		return out
	}

	gray := imaging.Grayscale(img)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = gray.NRGBAAt(x, y).R
		}
	}
	return out
}
