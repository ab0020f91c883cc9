package imaging

// DefaultStrokeWidth is the floor-plan stroke width in pixels.
const DefaultStrokeWidth = 2

// Render draws segments onto a zero-filled raster of the given size using the
// default stroke width. An empty segment list yields an all-zero raster.
func Render(segments []Segment, width, height int) *Raster {
	return RenderStroke(segments, width, height, DefaultStrokeWidth)
}

// RenderStroke draws segments as 255-valued strokes of the given width.
//
// Each segment is rasterised with Bresenham's algorithm; every centre pixel is
// widened across the minor axis (vertically for shallow lines, horizontally
// for steep ones) to strokeWidth pixels, at offsets starting -(strokeWidth-1)/2.
// Pixels outside the canvas are clipped.
func RenderStroke(segments []Segment, width, height, strokeWidth int) *Raster {
	out := NewRaster(width, height)
	if strokeWidth < 1 {
		strokeWidth = 1
	}
	for _, s := range segments {
		drawLine(out, s, strokeWidth)
	}
	return out
}

func drawLine(r *Raster, s Segment, strokeWidth int) {
	x0, y0, x1, y1 := s.X1, s.Y1, s.X2, s.Y2
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	shallow := dx >= -dy
	first := -(strokeWidth - 1) / 2

	plot := func(x, y int) {
		for t := 0; t < strokeWidth; t++ {
			if shallow {
				r.Set(x, y+first+t, 255)
			} else {
				r.Set(x+first+t, y, 255)
			}
		}
	}

	errAcc := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}
