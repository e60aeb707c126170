package layout

import (
	"math"
	"sort"

	"studio/internal/domain"
	"studio/internal/geom"
)

// AutoLayoutGap is the edge-to-edge spacing between packed items.
const AutoLayoutGap = 24.0

// Plan is the outcome of AutoLayout: new top-left positions keyed by id, the
// packed extents, and the transform that fits them.
type Plan struct {
	Columns   int                   `json:"columns"`
	Positions map[string]geom.Point `json:"positions"`
	Width     float64               `json:"width"`
	Height    float64               `json:"height"`
	Scale     float64               `json:"scale"`
	Transform geom.Transform        `json:"transform"`
}

// AutoLayout packs items into rows, oldest first, trying every column count
// from 1 to len(items). The column count whose packing can be shown at the
// largest scale wins; on an exact tie the fewest columns are kept. Rows are
// as tall as their tallest item and items sit at the top of their row.
// ok is false when there is nothing to lay out.
func AutoLayout(items []domain.Item, viewport geom.Size) (Plan, bool) {
	if len(items) == 0 {
		return Plan{}, false
	}
	sorted := make([]domain.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	availW := viewport.W - 2*FitPadding
	availH := viewport.H - 2*FitPadding

	best := pack(sorted, 1, availW, availH)
	for cols := 2; cols <= len(sorted); cols++ {
		p := pack(sorted, cols, availW, availH)
		if p.Scale > best.Scale {
			best = p
		}
	}

	best.Transform = geom.Transform{
		PanX:  viewport.W/2 - best.Width/2*best.Scale,
		PanY:  viewport.H/2 - best.Height/2*best.Scale,
		Scale: best.Scale,
	}
	return best, true
}

func pack(items []domain.Item, cols int, availW, availH float64) Plan {
	rows := (len(items) + cols - 1) / cols
	rowH := make([]float64, rows)
	for i, it := range items {
		r := i / cols
		rowH[r] = math.Max(rowH[r], it.Height)
	}

	p := Plan{Columns: cols, Positions: make(map[string]geom.Point, len(items))}
	y := 0.0
	for r := 0; r < rows; r++ {
		x := 0.0
		end := min((r+1)*cols, len(items))
		for i := r * cols; i < end; i++ {
			p.Positions[items[i].ID] = geom.Point{X: x, Y: y}
			x += items[i].Width + AutoLayoutGap
		}
		p.Width = math.Max(p.Width, x-AutoLayoutGap)
		p.Height += rowH[r]
		y += rowH[r] + AutoLayoutGap
	}
	p.Height += float64(rows-1) * AutoLayoutGap

	if p.Width > 0 && p.Height > 0 {
		p.Scale = geom.ClampScale(math.Min(math.Min(availW/p.Width, availH/p.Height), geom.MaxScale))
	} else {
		p.Scale = 1
	}
	return p
}
