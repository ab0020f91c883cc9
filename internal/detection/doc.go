// Package detection extracts wall segments from edge maps.
//
// The only detector is a progressive probabilistic Hough transform
// (DetectLines). It consumes the binary edge map produced by
// imaging.DetectEdges and returns imaging.Segment values in pixel
// coordinates.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Determinism
//
// Edge points are visited in a pseudo-random order, but the generator is
// seeded with a constant. The same edge map and parameters always produce the
// same segments in the same order.
//
// # Performance Considerations
//
// Every visited point votes once per angle bucket, so the cost is roughly
// edge points x pi/Theta. The default Theta of pi/900 means 900 votes per
// point; coarser angles are proportionally faster.
//
// # Limitations
//
// Curved walls come out as chains of short segments or not at all when no
// chord reaches MinLineLength. A thick wall yields two parallel segments,
// one per boundary.
package detection
