package snap

import (
	"math"

	"studio/internal/domain"
	"studio/internal/geom"
)

// Result is a corrected position plus the guides that justify it.
type Result struct {
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	Guides []domain.SnapGuide `json:"guides"`
}

// candidate is one way of correcting a single axis. guide renders the hint
// once both axes are final.
type candidate struct {
	value float64
	dist  float64
	guide func(x, y float64) domain.SnapGuide
}

// Drag snaps a moving rectangle of size proposed.W x proposed.H whose raw
// top-left is (proposed.X, proposed.Y).
//
// Both coordinates are first rounded to the grid. Every neighbor relation is
// then measured from that grid position; on each axis the candidate needing
// the smallest correction wins, ties going to the earliest in check order.
// Guides are emitted for every candidate that agrees with the winner.
func Drag(others []geom.Rect, gaps Gaps, proposed geom.Rect) Result {
	w, h := proposed.W, proposed.H
	m := geom.Rect{X: Grid(proposed.X), Y: Grid(proposed.Y), W: w, H: h}

	var xs, ys []candidate
	for _, o := range others {
		xs = append(xs, alignX(m, o)...)
		ys = append(ys, alignY(m, o)...)
		xs = append(xs, spacingX(m, o, gaps.Horizontal)...)
		ys = append(ys, spacingY(m, o, gaps.Vertical)...)
	}

	x, xWin := pick(m.X, xs)
	y, yWin := pick(m.Y, ys)

	var guides []domain.SnapGuide
	guides = appendGuides(guides, xWin, x, y)
	guides = appendGuides(guides, yWin, x, y)
	return Result{X: x, Y: y, Guides: guides}
}

// GridOnly snaps a position to the grid with no neighbor relations. Used for
// text items.
func GridOnly(x, y float64) Result {
	return Result{X: Grid(x), Y: Grid(y)}
}

// pick returns the winning coordinate and every candidate that produces it.
func pick(base float64, cands []candidate) (float64, []candidate) {
	best := -1
	for i, c := range cands {
		if best < 0 || c.dist < cands[best].dist {
			best = i
		}
	}
	if best < 0 {
		return base, nil
	}
	v := cands[best].value
	var agree []candidate
	for _, c := range cands {
		if same(c.value, v) {
			agree = append(agree, c)
		}
	}
	return v, agree
}

func appendGuides(dst []domain.SnapGuide, cands []candidate, x, y float64) []domain.SnapGuide {
	for _, c := range cands {
		g := c.guide(x, y)
		dup := false
		for _, e := range dst {
			if e.Kind == g.Kind && same(e.Position, g.Position) &&
				same(e.RangeStart, g.RangeStart) && same(e.RangeEnd, g.RangeEnd) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, g)
		}
	}
	return dst
}

// ── Alignment ──────────────────────────────────────────────

func alignX(m, o geom.Rect) []candidate {
	vertical := func(pos float64) func(x, y float64) domain.SnapGuide {
		return func(_, y float64) domain.SnapGuide {
			return domain.SnapGuide{
				Kind:       domain.GuideVertical,
				Position:   pos,
				RangeStart: math.Min(y, o.Y),
				RangeEnd:   math.Max(y+m.H, o.Bottom()),
			}
		}
	}

	// moving edge, target line, resulting x
	rules := [][3]float64{
		{m.CenterX(), o.CenterX(), o.CenterX() - m.W/2},
		{m.Left(), o.Left(), o.Left()},
		{m.Left(), o.Right(), o.Right()},
		{m.Left(), o.CenterX(), o.CenterX()},
		{m.Right(), o.Left(), o.Left() - m.W},
		{m.Right(), o.Right(), o.Right() - m.W},
		{m.Right(), o.CenterX(), o.CenterX() - m.W},
	}
	var out []candidate
	for _, r := range rules {
		if within(r[0], r[1]) {
			out = append(out, candidate{value: r[2], dist: math.Abs(r[2] - m.X), guide: vertical(r[1])})
		}
	}
	return out
}

func alignY(m, o geom.Rect) []candidate {
	horizontal := func(pos float64) func(x, y float64) domain.SnapGuide {
		return func(x, _ float64) domain.SnapGuide {
			return domain.SnapGuide{
				Kind:       domain.GuideHorizontal,
				Position:   pos,
				RangeStart: math.Min(x, o.X),
				RangeEnd:   math.Max(x+m.W, o.Right()),
			}
		}
	}

	rules := [][3]float64{
		{m.CenterY(), o.CenterY(), o.CenterY() - m.H/2},
		{m.Top(), o.Top(), o.Top()},
		{m.Top(), o.Bottom(), o.Bottom()},
		{m.Top(), o.CenterY(), o.CenterY()},
		{m.Bottom(), o.Top(), o.Top() - m.H},
		{m.Bottom(), o.Bottom(), o.Bottom() - m.H},
		{m.Bottom(), o.CenterY(), o.CenterY() - m.H},
	}
	var out []candidate
	for _, r := range rules {
		if within(r[0], r[1]) {
			out = append(out, candidate{value: r[2], dist: math.Abs(r[2] - m.Y), guide: horizontal(r[1])})
		}
	}
	return out
}

// ── Equal spacing ──────────────────────────────────────────

// spacingX proposes positions that reproduce an observed horizontal gap
// between m and o, on whichever side of o the moving rect currently sits.
// Per side only the first matching gap is considered.
func spacingX(m, o geom.Rect, gaps []float64) []candidate {
	var out []candidate

	if cur := m.Left() - o.Right(); cur > 0 {
		if g, ok := firstGap(cur, gaps); ok {
			target := o.Right() + g
			out = append(out, candidate{
				value: target,
				dist:  math.Abs(target - m.X),
				guide: spacingGuideX(o, m.H, o.Right()+g/2, g),
			})
		}
	}
	if cur := o.Left() - m.Right(); cur > 0 {
		if g, ok := firstGap(cur, gaps); ok {
			target := o.Left() - m.W - g
			out = append(out, candidate{
				value: target,
				dist:  math.Abs(target - m.X),
				guide: spacingGuideX(o, m.H, o.Left()-g/2, g),
			})
		}
	}
	return out
}

func spacingY(m, o geom.Rect, gaps []float64) []candidate {
	var out []candidate

	if cur := m.Top() - o.Bottom(); cur > 0 {
		if g, ok := firstGap(cur, gaps); ok {
			target := o.Bottom() + g
			out = append(out, candidate{
				value: target,
				dist:  math.Abs(target - m.Y),
				guide: spacingGuideY(o, m.W, o.Bottom()+g/2, g),
			})
		}
	}
	if cur := o.Top() - m.Bottom(); cur > 0 {
		if g, ok := firstGap(cur, gaps); ok {
			target := o.Top() - m.H - g
			out = append(out, candidate{
				value: target,
				dist:  math.Abs(target - m.Y),
				guide: spacingGuideY(o, m.W, o.Top()-g/2, g),
			})
		}
	}
	return out
}

func firstGap(cur float64, gaps []float64) (float64, bool) {
	for _, g := range gaps {
		if within(cur, g) {
			return g, true
		}
	}
	return 0, false
}

// spacingGuideX spans the vertical overlap of the two rects. If they do not
// overlap vertically the range covers the space between them instead.
func spacingGuideX(o geom.Rect, h, pos, gap float64) func(x, y float64) domain.SnapGuide {
	return func(_, y float64) domain.SnapGuide {
		start, end := overlap(y, y+h, o.Top(), o.Bottom())
		return domain.SnapGuide{
			Kind:       domain.GuideSpacing,
			Position:   pos,
			RangeStart: start,
			RangeEnd:   end,
			Gap:        gap,
			GapAxis:    domain.AxisHorizontal,
		}
	}
}

func spacingGuideY(o geom.Rect, w, pos, gap float64) func(x, y float64) domain.SnapGuide {
	return func(x, _ float64) domain.SnapGuide {
		start, end := overlap(x, x+w, o.Left(), o.Right())
		return domain.SnapGuide{
			Kind:       domain.GuideSpacing,
			Position:   pos,
			RangeStart: start,
			RangeEnd:   end,
			Gap:        gap,
			GapAxis:    domain.AxisVertical,
		}
	}
}

func overlap(a0, a1, b0, b1 float64) (float64, float64) {
	start := math.Max(a0, b0)
	end := math.Min(a1, b1)
	if start > end {
		start, end = end, start
	}
	return start, end
}
