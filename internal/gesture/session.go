// Package gesture models pointer gestures as explicit session values. A
// session captures everything it needs at gesture start; each move is
// recomputed from that snapshot and the current pointer, never from the
// previous frame.
package gesture

import (
	"errors"

	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/snap"
)

type Kind string

const (
	KindDrag    Kind = "drag"
	KindResize  Kind = "resize"
	KindMarquee Kind = "marquee"
	KindPan     Kind = "pan"
)

var (
	ErrUnknownItem  = errors.New("gesture target not found")
	ErrNotResizable = errors.New("item cannot be resized")
)

// Session is the immutable snapshot of one gesture.
type Session struct {
	Kind      Kind
	TargetID  string
	Start     geom.Point // screen space
	Transform geom.Transform

	Group    bool
	GridOnly bool
	Starts   map[string]geom.Rect
	Others   []geom.Rect
	Gaps     snap.Gaps
	Aspect   float64

	ended bool
}

// Update is what a single move produces. Only the fields relevant to the
// session kind are set.
type Update struct {
	Frames    map[string]geom.Rect
	Guides    []domain.SnapGuide
	Marquee   *domain.MarqueeRect
	Transform *geom.Transform
}

// BeginDrag starts moving targetID. When the target is part of a
// multi-selection the whole selection moves as a group and neighbor
// snapping is off. Text items snap to the grid only.
func BeginDrag(items []domain.Item, sel domain.SelectionState, targetID string, pointer geom.Point, t geom.Transform) (*Session, error) {
	return begin(KindDrag, items, sel, targetID, pointer, t)
}

// BeginResize starts an aspect-locked resize of targetID from its
// bottom-right corner.
func BeginResize(items []domain.Item, sel domain.SelectionState, targetID string, pointer geom.Point, t geom.Transform) (*Session, error) {
	return begin(KindResize, items, sel, targetID, pointer, t)
}

// BeginMarquee starts a rubber-band selection at a screen point.
func BeginMarquee(pointer geom.Point, t geom.Transform) *Session {
	return &Session{Kind: KindMarquee, Start: pointer, Transform: t}
}

// BeginPan starts panning the view.
func BeginPan(pointer geom.Point, t geom.Transform) *Session {
	return &Session{Kind: KindPan, Start: pointer, Transform: t}
}

func begin(kind Kind, items []domain.Item, sel domain.SelectionState, targetID string, pointer geom.Point, t geom.Transform) (*Session, error) {
	var target *domain.Item
	for i := range items {
		if items[i].ID == targetID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrUnknownItem
	}

	s := &Session{
		Kind:      kind,
		TargetID:  targetID,
		Start:     pointer,
		Transform: t.Normalize(),
		Starts:    map[string]geom.Rect{targetID: target.Rect()},
	}

	if target.Kind == domain.ItemText {
		if kind == KindResize {
			return nil, ErrNotResizable
		}
		s.GridOnly = true
		return s, nil
	}
	if kind == KindResize {
		if target.Width <= 0 || target.Height <= 0 {
			return nil, ErrNotResizable
		}
		s.Aspect = target.Width / target.Height
	}

	if sel.IsMulti() && sel.Contains(targetID) {
		s.Group = true
		for _, it := range items {
			if sel.Contains(it.ID) {
				s.Starts[it.ID] = it.Rect()
			}
		}
		return s, nil
	}

	for _, it := range items {
		if it.ID != targetID && it.Kind == domain.ItemImage {
			s.Others = append(s.Others, it.Rect())
		}
	}
	if kind == KindDrag {
		s.Gaps = snap.ObserveGaps(s.Others)
	}
	return s, nil
}

// Ended reports whether End has been called.
func (s *Session) Ended() bool {
	return s.ended
}

// End finishes the gesture. Further moves are ignored.
func (s *Session) End() {
	s.ended = true
}

// Move recomputes the gesture for the current screen pointer.
func (s *Session) Move(pointer geom.Point) Update {
	if s.ended {
		return Update{}
	}
	switch s.Kind {
	case KindDrag:
		return s.moveDrag(pointer)
	case KindResize:
		return s.moveResize(pointer)
	case KindMarquee:
		m := domain.MarqueeRect{StartX: s.Start.X, StartY: s.Start.Y, CurrentX: pointer.X, CurrentY: pointer.Y}
		return Update{Marquee: &m}
	case KindPan:
		t := s.Transform.Pan(pointer.X-s.Start.X, pointer.Y-s.Start.Y)
		return Update{Transform: &t}
	}
	return Update{}
}

// canvasDelta converts the screen-space pointer travel through the scale
// captured at gesture start.
func (s *Session) canvasDelta(pointer geom.Point) (float64, float64) {
	return (pointer.X - s.Start.X) / s.Transform.Scale, (pointer.Y - s.Start.Y) / s.Transform.Scale
}

func (s *Session) moveDrag(pointer geom.Point) Update {
	dx, dy := s.canvasDelta(pointer)
	if s.Group {
		return Update{Frames: snap.GroupTranslate(s.Starts, dx, dy)}
	}

	start := s.Starts[s.TargetID]
	raw := start.Translate(dx, dy)
	var res snap.Result
	if s.GridOnly {
		res = snap.GridOnly(raw.X, raw.Y)
	} else {
		res = snap.Drag(s.Others, s.Gaps, raw)
	}
	return Update{
		Frames: map[string]geom.Rect{s.TargetID: {X: res.X, Y: res.Y, W: start.W, H: start.H}},
		Guides: res.Guides,
	}
}

func (s *Session) moveResize(pointer geom.Point) Update {
	dx, dy := s.canvasDelta(pointer)
	start := s.Starts[s.TargetID]
	w, h := snap.RawResize(start.W, s.Aspect, dx, dy)

	if s.Group {
		return Update{Frames: snap.GroupScale(s.Starts, w/start.W)}
	}

	res := snap.Resize(s.Others, geom.Point{X: start.X, Y: start.Y}, w, h, s.Aspect)
	return Update{
		Frames: map[string]geom.Rect{s.TargetID: {X: start.X, Y: start.Y, W: res.Width, H: res.Height}},
		Guides: res.Guides,
	}
}
