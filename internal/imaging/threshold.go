package imaging

// Cell states written by Classify.
const (
	Occupied uint8 = 255
	Unknown  uint8 = 127
	Free     uint8 = 0
)

// Classify maps every intensity of an occupancy grid to a cell state.
//
// For a sample v:
//   - v > occupiedThresh*255 -> Occupied
//   - v < freeThresh*255     -> Free
//   - otherwise              -> Unknown
//
// The rules are applied in that order over a zero-initialised output, so when
// freeThresh exceeds occupiedThresh the later rule wins. Thresholds are not
// validated.
//
// With negate set every output value v becomes 255-v. This is arithmetic
// inversion, not a state swap: Occupied and Free trade places but Unknown
// becomes 128, and negating twice does not restore 127 to itself.
func Classify(src *Raster, occupiedThresh, freeThresh float64, negate bool) *Raster {
	out := NewRaster(src.Width, src.Height)
	occ := occupiedThresh * 255
	free := freeThresh * 255

	for i, p := range src.Pix {
		v := float64(p)
		var c uint8
		if v > occ {
			c = Occupied
		}
		if v < free {
			c = Free
		}
		if v >= free && v <= occ {
			c = Unknown
		}
		if negate {
			c = 255 - c
		}
		out.Pix[i] = c
	}
	return out
}
