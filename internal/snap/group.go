package snap

import "studio/internal/geom"

// GroupTranslate moves every start rect by the same canvas delta.
func GroupTranslate(starts map[string]geom.Rect, dx, dy float64) map[string]geom.Rect {
	out := make(map[string]geom.Rect, len(starts))
	for id, r := range starts {
		out[id] = r.Translate(dx, dy)
	}
	return out
}

// GroupScale scales every start rect's size by factor, keeping each
// top-left corner where it was.
func GroupScale(starts map[string]geom.Rect, factor float64) map[string]geom.Rect {
	out := make(map[string]geom.Rect, len(starts))
	for id, r := range starts {
		out[id] = geom.Rect{X: r.X, Y: r.Y, W: r.W * factor, H: r.H * factor}
	}
	return out
}
