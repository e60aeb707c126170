package snap

import "studio/internal/geom"

// Gaps are the spacings already present between pairs of stationary items.
// Values are kept as a list in discovery order; duplicates are allowed.
type Gaps struct {
	Horizontal []float64
	Vertical   []float64
}

// ObserveGaps collects the positive gaps between every pair of rects. A
// horizontal gap exists when one rect lies strictly left of the other, a
// vertical gap when one lies strictly above.
func ObserveGaps(rects []geom.Rect) Gaps {
	var g Gaps
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			a, b := rects[i], rects[j]

			if a.Right() < b.Left() {
				g.Horizontal = append(g.Horizontal, b.Left()-a.Right())
			} else if b.Right() < a.Left() {
				g.Horizontal = append(g.Horizontal, a.Left()-b.Right())
			}

			if a.Bottom() < b.Top() {
				g.Vertical = append(g.Vertical, b.Top()-a.Bottom())
			} else if b.Bottom() < a.Top() {
				g.Vertical = append(g.Vertical, a.Top()-b.Bottom())
			}
		}
	}
	return g
}
