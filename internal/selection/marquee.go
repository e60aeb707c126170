package selection

import (
	"studio/internal/domain"
	"studio/internal/geom"
)

// Hits returns the ids of items whose bounds overlap the marquee, in item
// order. The marquee is given in screen space and converted through t.
func Hits(items []domain.Item, m domain.MarqueeRect, t geom.Transform) []string {
	area := t.RectToCanvas(m.Rect())
	var ids []string
	for _, it := range items {
		if it.Rect().Overlaps(area) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
