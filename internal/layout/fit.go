package layout

import (
	"math"

	"studio/internal/geom"
)

// FitPadding is the screen-space margin kept around fitted content.
const FitPadding = 60.0

// FitBounds returns the transform that shows bbox as large as possible
// inside the viewport, centered, with padding on every side. The scale is
// capped at geom.MaxScale. A degenerate box or viewport gives the identity.
func FitBounds(bbox geom.Rect, viewport geom.Size, padding float64) geom.Transform {
	if bbox.Empty() || viewport.W <= 0 || viewport.H <= 0 {
		return geom.Identity()
	}
	sx := (viewport.W - 2*padding) / bbox.W
	sy := (viewport.H - 2*padding) / bbox.H
	scale := geom.ClampScale(math.Min(math.Min(sx, sy), geom.MaxScale))
	return CenterAt(bbox.Center(), scale, viewport)
}

// CenterAt places a canvas point at the viewport center at the given scale.
func CenterAt(p geom.Point, scale float64, viewport geom.Size) geom.Transform {
	scale = geom.ClampScale(scale)
	return geom.Transform{
		PanX:  viewport.W/2 - p.X*scale,
		PanY:  viewport.H/2 - p.Y*scale,
		Scale: scale,
	}
}

// ViewportCenter returns the canvas point currently at the viewport center.
func ViewportCenter(t geom.Transform, viewport geom.Size) geom.Point {
	return t.ScreenToCanvas(geom.Point{X: viewport.W / 2, Y: viewport.H / 2})
}
