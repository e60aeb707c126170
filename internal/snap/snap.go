// Package snap computes snapped positions and sizes for items being dragged
// or resized, together with the guides that explain each snap.
//
// Everything here is a pure function of its inputs. Callers capture the
// other items once at gesture start and pass them in on every move.
package snap

import "math"

const (
	GridSize  = 8.0
	Threshold = 10.0
	MinSize   = 50.0
)

// Grid rounds v to the nearest grid line.
func Grid(v float64) float64 {
	return math.Round(v/GridSize) * GridSize
}

// within is the neighbor tolerance test. The threshold is exclusive.
func within(a, b float64) bool {
	return math.Abs(a-b) < Threshold
}

const epsilon = 1e-9

func same(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}
