package geom

const (
	MinScale = 0.1
	MaxScale = 5.0
)

// Transform maps between screen space and canvas space:
//
//	canvas = (screen - pan) / scale
//	screen = canvas * scale + pan
//
// Scale is always kept within [MinScale, MaxScale].
type Transform struct {
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
	Scale float64 `json:"scale"`
}

// Identity returns the reset transform {0, 0, 1}.
func Identity() Transform {
	return Transform{Scale: 1}
}

// ClampScale limits s to the supported zoom range.
func ClampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// ScreenToCanvas converts a screen point to canvas space.
func (t Transform) ScreenToCanvas(p Point) Point {
	return Point{X: (p.X - t.PanX) / t.Scale, Y: (p.Y - t.PanY) / t.Scale}
}

// CanvasToScreen converts a canvas point to screen space.
func (t Transform) CanvasToScreen(p Point) Point {
	return Point{X: p.X*t.Scale + t.PanX, Y: p.Y*t.Scale + t.PanY}
}

// RectToCanvas converts a screen-space rectangle to canvas space.
func (t Transform) RectToCanvas(r Rect) Rect {
	tl := t.ScreenToCanvas(Point{X: r.X, Y: r.Y})
	return Rect{X: tl.X, Y: tl.Y, W: r.W / t.Scale, H: r.H / t.Scale}
}

// ZoomAt scales by (1+delta) keeping the canvas point under screen point p fixed.
func (t Transform) ZoomAt(p Point, delta float64) Transform {
	return t.ScaleAt(p, t.Scale*(1+delta))
}

// ScaleAt sets the scale (clamped) keeping the canvas point under p fixed.
func (t Transform) ScaleAt(p Point, scale float64) Transform {
	ns := ClampScale(scale)
	ratio := ns / t.Scale
	return Transform{
		PanX:  p.X - (p.X-t.PanX)*ratio,
		PanY:  p.Y - (p.Y-t.PanY)*ratio,
		Scale: ns,
	}
}

// Pan shifts the view by a screen-space delta. Scale does not affect panning.
func (t Transform) Pan(dx, dy float64) Transform {
	return Transform{PanX: t.PanX + dx, PanY: t.PanY + dy, Scale: t.Scale}
}

// Normalize repairs a zero or out-of-range scale.
func (t Transform) Normalize() Transform {
	if t.Scale == 0 {
		t.Scale = 1
	}
	t.Scale = ClampScale(t.Scale)
	return t
}
