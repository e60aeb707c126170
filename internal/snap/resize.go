package snap

import (
	"math"

	"studio/internal/domain"
	"studio/internal/geom"
)

// SizeResult is a corrected size plus guides.
type SizeResult struct {
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
	Guides []domain.SnapGuide `json:"guides"`
}

// RawResize turns a pointer delta (canvas units) into an aspect-locked size.
// The dominant axis drives the change; the width never drops below MinSize.
func RawResize(startW, aspect, dx, dy float64) (float64, float64) {
	delta := dy * aspect
	if math.Abs(dx) > math.Abs(dy) {
		delta = dx
	}
	w := math.Max(MinSize, startW+delta)
	return w, w / aspect
}

// Resize snaps the growing right and bottom edges of a top-left anchored
// rectangle. A match on one edge recomputes the other dimension from aspect,
// so the shape never distorts. The smallest edge correction wins.
func Resize(others []geom.Rect, origin geom.Point, rawW, rawH, aspect float64) SizeResult {
	right := origin.X + rawW
	bottom := origin.Y + rawH

	type sizeCand struct {
		w, h, dist float64
		line       float64
		vertical   bool
		other      geom.Rect
	}
	var cands []sizeCand
	for _, o := range others {
		for _, line := range []float64{o.Left(), o.Right()} {
			if within(right, line) {
				w := line - origin.X
				if w >= MinSize {
					cands = append(cands, sizeCand{w: w, h: w / aspect, dist: math.Abs(right - line), line: line, vertical: true, other: o})
				}
			}
		}
		for _, line := range []float64{o.Top(), o.Bottom()} {
			if within(bottom, line) {
				h := line - origin.Y
				w := h * aspect
				if w >= MinSize {
					cands = append(cands, sizeCand{w: w, h: h, dist: math.Abs(bottom - line), line: line, other: o})
				}
			}
		}
	}

	best := -1
	for i, c := range cands {
		if best < 0 || c.dist < cands[best].dist {
			best = i
		}
	}
	if best < 0 {
		return SizeResult{Width: rawW, Height: rawH}
	}

	res := SizeResult{Width: cands[best].w, Height: cands[best].h}
	for _, c := range cands {
		if !same(c.w, res.Width) {
			continue
		}
		if c.vertical {
			res.Guides = append(res.Guides, domain.SnapGuide{
				Kind:       domain.GuideVertical,
				Position:   c.line,
				RangeStart: math.Min(origin.Y, c.other.Y),
				RangeEnd:   math.Max(origin.Y+res.Height, c.other.Bottom()),
			})
		} else {
			res.Guides = append(res.Guides, domain.SnapGuide{
				Kind:       domain.GuideHorizontal,
				Position:   c.line,
				RangeStart: math.Min(origin.X, c.other.X),
				RangeEnd:   math.Max(origin.X+res.Width, c.other.Right()),
			})
		}
	}
	return res
}
