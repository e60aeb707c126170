package layout

import (
	"math"

	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/snap"
)

const (
	SlotPadding = 24.0
	MaxRowW     = 1800.0
)

// Placer finds free positions for items that arrive without one, such as
// items created by agents. Positions sit on the snapping grid.
type Placer struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewPlacer() *Placer {
	return &Placer{
		gridSize: snap.GridSize,
		padding:  SlotPadding,
		maxRowW:  MaxRowW,
	}
}

func (p *Placer) snap(v float64) float64 {
	return math.Round(v/p.gridSize) * p.gridSize
}

// NextPosition scans rows top-to-bottom and columns left-to-right for the
// first slot of size (w, h) that keeps padding clear of every existing item.
func (p *Placer) NextPosition(existing []domain.Item, w, h float64) geom.Point {
	if len(existing) == 0 {
		return geom.Point{}
	}

	occupied := make([]geom.Rect, len(existing))
	for i, it := range existing {
		occupied[i] = it.Rect().Inflate(p.padding)
	}

	bounds, _ := geom.Bounds(occupied)
	limitY := bounds.Bottom() + h + p.gridSize

	candidate := geom.Rect{W: w, H: h}
	for y := 0.0; y <= limitY; y += p.gridSize {
		for x := 0.0; x == 0 || x+w <= p.maxRowW; x += p.gridSize {
			candidate.X, candidate.Y = p.snap(x), p.snap(y)
			if !overlapsAny(candidate, occupied) {
				return geom.Point{X: candidate.X, Y: candidate.Y}
			}
		}
	}

	// Fallback: below everything.
	maxY := 0.0
	for _, it := range existing {
		maxY = math.Max(maxY, it.Y+it.Height)
	}
	return geom.Point{X: 0, Y: p.snap(maxY + p.padding)}
}

// ArrangeRow lays items left to right from start, wrapping at the row width.
// It returns new positions keyed by id.
func (p *Placer) ArrangeRow(items []domain.Item, start geom.Point) map[string]geom.Point {
	out := make(map[string]geom.Point, len(items))
	x := p.snap(start.X)
	y := p.snap(start.Y)
	rowH := 0.0

	for _, it := range items {
		if x > p.snap(start.X) && x+it.Width > p.snap(start.X)+p.maxRowW {
			x = p.snap(start.X)
			y += p.snap(rowH + p.padding)
			rowH = 0
		}
		out[it.ID] = geom.Point{X: x, Y: y}
		rowH = math.Max(rowH, it.Height)
		x += p.snap(it.Width + p.padding)
	}
	return out
}

func overlapsAny(r geom.Rect, occupied []geom.Rect) bool {
	for _, o := range occupied {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}
