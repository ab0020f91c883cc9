// Package imaging holds the raster side of the floor-plan pipeline.
//
// It covers loading occupancy-grid rasters (PGM, PNG, JPEG), the tri-state
// threshold classifier, the Canny edge detector, the floor-plan renderer and
// the raster writer. Every stage takes a *Raster and returns a freshly
// allocated *Raster; inputs are never modified.
//
// # Coordinate System
//
// All pixel coordinates are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Pixel Values
//
// Rasters are single channel with 8-bit samples. The classifier writes the
// three cell states OCCUPIED (255), UNKNOWN (127) and FREE (0); edge maps and
// floor plans are binary (0 or 255).
//
// # Thread Safety
//
// RasterCache is safe for concurrent use. The stage functions are pure and can
// run concurrently on different rasters.
//
// # Error Handling
//
// Failures are classified with the kinds in package errs:
//   - Missing files -> errs.ErrInputNotFound
//   - Unsupported extensions or output formats -> errs.ErrInvalidFormat
//   - Undecodable raster bytes -> errs.ErrDecodeFailure
//   - Empty rasters handed to the edge detector -> errs.ErrInvalidInput
//   - Unwritable output paths -> errs.ErrIOFailure
package imaging
