package editor

import (
	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/layout"
)

const (
	// KeyZoomFactor is the step of the zoom keyboard shortcuts.
	KeyZoomFactor = 1.2
	// ControlZoomFactor is the step of the zoom buttons.
	ControlZoomFactor = 1.25
)

func (s *Session) setTransformLocked(t geom.Transform) Change {
	t = t.Normalize()
	if t == s.transform {
		return 0
	}
	s.transform = t
	return ChangeViewport
}

// ZoomAt applies a wheel delta anchored at a screen point.
func (s *Session) ZoomAt(p geom.Point, delta float64) geom.Transform {
	s.do(func() Change {
		return s.setTransformLocked(s.transform.ZoomAt(p, delta))
	})
	return s.Transform()
}

// ZoomBy multiplies the scale by factor, keeping the visible center fixed.
func (s *Session) ZoomBy(factor float64) geom.Transform {
	s.do(func() Change {
		v := s.viewportLocked()
		c := geom.Point{X: v.W / 2, Y: v.H / 2}
		return s.setTransformLocked(s.transform.ScaleAt(c, s.transform.Scale*factor))
	})
	return s.Transform()
}

// Pan moves the view by a screen delta.
func (s *Session) Pan(dx, dy float64) geom.Transform {
	s.do(func() Change {
		return s.setTransformLocked(s.transform.Pan(dx, dy))
	})
	return s.Transform()
}

// SetTransform replaces the view transform. The scale is clamped.
func (s *Session) SetTransform(t geom.Transform) geom.Transform {
	s.do(func() Change {
		return s.setTransformLocked(t)
	})
	return s.Transform()
}

// ResetView returns to the identity transform.
func (s *Session) ResetView() geom.Transform {
	return s.SetTransform(geom.Identity())
}

// FitAll fits every item into the visible viewport. With no items the
// view resets.
func (s *Session) FitAll() geom.Transform {
	s.do(func() Change {
		bbox, ok := s.board.Bounds()
		if !ok {
			return s.setTransformLocked(geom.Identity())
		}
		return s.setTransformLocked(layout.FitBounds(bbox, s.viewportLocked(), layout.FitPadding))
	})
	return s.Transform()
}

// FitSelection fits the primary selected item. Without a primary it falls
// back to FitAll.
func (s *Session) FitSelection() geom.Transform {
	var fallback bool
	s.do(func() Change {
		it, ok := s.board.Get(s.sel.Primary())
		if !ok {
			fallback = true
			return 0
		}
		return s.setTransformLocked(layout.FitBounds(it.Rect(), s.viewportLocked(), layout.FitPadding))
	})
	if fallback {
		return s.FitAll()
	}
	return s.Transform()
}

// ZoomTo100 centers the primary selection at scale 1. Without a selection
// it centers the content. An empty canvas resets the view.
func (s *Session) ZoomTo100() geom.Transform {
	s.do(func() Change {
		v := s.viewportLocked()
		if it, ok := s.board.Get(s.sel.Primary()); ok {
			return s.setTransformLocked(layout.CenterAt(it.Rect().Center(), 1, v))
		}
		if bbox, ok := s.board.Bounds(); ok {
			return s.setTransformLocked(layout.CenterAt(bbox.Center(), 1, v))
		}
		return s.setTransformLocked(geom.Identity())
	})
	return s.Transform()
}

// ZoomToPercent sets the scale to percent/100 and centers the content. An
// empty canvas gets a zero pan.
func (s *Session) ZoomToPercent(percent float64) geom.Transform {
	s.do(func() Change {
		scale := geom.ClampScale(percent / 100)
		bbox, ok := s.board.Bounds()
		if !ok {
			return s.setTransformLocked(geom.Transform{Scale: scale})
		}
		return s.setTransformLocked(layout.CenterAt(bbox.Center(), scale, s.viewportLocked()))
	})
	return s.Transform()
}

// AutoLayout repacks the images into rows and fits the result. Text items
// keep their positions.
func (s *Session) AutoLayout() (layout.Plan, bool) {
	var (
		plan layout.Plan
		ok   bool
	)
	s.do(func() Change {
		plan, ok = layout.AutoLayout(s.board.OfKind(domain.ItemImage), s.viewportLocked())
		if !ok {
			return 0
		}
		// plan ids come from the board under this lock, so Update cannot miss
		for id, p := range plan.Positions {
			s.board.Update(id, domain.MoveTo(p.X, p.Y))
		}
		return ChangeItems | s.setTransformLocked(plan.Transform)
	})
	return plan, ok
}
