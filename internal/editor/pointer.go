package editor

import (
	"fmt"

	"studio/internal/board"
	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/gesture"
	"studio/internal/selection"
)

// TargetKind is what a pointer press landed on.
type TargetKind string

const (
	TargetCanvas       TargetKind = "canvas"
	TargetItem         TargetKind = "item"
	TargetResizeHandle TargetKind = "resize"
)

// Target identifies the hit of a pointer press. ID is empty for the canvas.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// Modifiers are the keys held during a pointer press.
type Modifiers struct {
	Shift bool `json:"shift"`
	Space bool `json:"space"`
}

// ── Selection ───────────────────────────────────────────────

// Select makes id the only selected item.
func (s *Session) Select(id string) error {
	var err error
	s.do(func() Change {
		it, ok := s.board.Get(id)
		if !ok {
			err = fmt.Errorf("select %s: %w", id, board.ErrNotFound)
			return 0
		}
		if it.Kind == domain.ItemText {
			s.sel.SelectText(id)
		} else {
			s.sel.Select(id)
		}
		return ChangeSelection
	})
	return err
}

// SelectMany replaces the selection with the known ids among ids.
func (s *Session) SelectMany(ids []string) domain.SelectionState {
	s.do(func() Change {
		known := make([]string, 0, len(ids))
		for _, id := range ids {
			if s.board.Has(id) {
				known = append(known, id)
			}
		}
		s.sel.SelectMany(known)
		return ChangeSelection
	})
	return s.Selection()
}

// Click applies a press on an item without starting a gesture.
func (s *Session) Click(id string, shift bool) {
	s.do(func() Change {
		return s.clickLocked(id, shift)
	})
}

func (s *Session) clickLocked(id string, shift bool) Change {
	it, ok := s.board.Get(id)
	if !ok {
		return 0
	}
	if it.Kind == domain.ItemText {
		s.sel.SelectText(id)
	} else {
		s.sel.Click(id, shift)
	}
	return ChangeSelection
}

// ClearSelection returns to no selection.
func (s *Session) ClearSelection() {
	s.do(func() Change {
		if s.sel.State().Empty() {
			return 0
		}
		s.sel.Clear()
		return ChangeSelection
	})
}

// ── Gestures ────────────────────────────────────────────────

// PointerDown starts a gesture. A press on the empty canvas clears the
// selection and starts a marquee, or a pan while space is held. A press on
// an item updates the selection and starts a drag. A press on a resize
// handle starts a resize. Any gesture still active is ended first.
func (s *Session) PointerDown(target Target, p geom.Point, mods Modifiers) error {
	var err error
	s.do(func() Change {
		ch := s.endGestureLocked()

		if mods.Space || s.panMode {
			s.active = gesture.BeginPan(p, s.transform)
			return ch
		}

		switch target.Kind {
		case TargetCanvas, "":
			ch |= ChangeSelection
			s.sel.Clear()
			s.active = gesture.BeginMarquee(p, s.transform)
			return ch

		case TargetItem:
			ch |= s.clickLocked(target.ID, mods.Shift)
			if mods.Shift && !s.sel.Contains(target.ID) {
				// toggled out; nothing to drag
				return ch
			}
			s.active, err = gesture.BeginDrag(s.board.Items(), s.sel.State(), target.ID, p, s.transform)

		case TargetResizeHandle:
			if !s.sel.Contains(target.ID) {
				ch |= s.clickLocked(target.ID, false)
			}
			s.active, err = gesture.BeginResize(s.board.Items(), s.sel.State(), target.ID, p, s.transform)

		default:
			err = fmt.Errorf("pointer down: unknown target %q", target.Kind)
		}
		if err != nil {
			s.active = nil
		}
		return ch
	})
	return err
}

// PointerMove feeds the pointer position to the active gesture.
func (s *Session) PointerMove(p geom.Point) {
	s.do(func() Change {
		if s.active == nil {
			return 0
		}
		u := s.active.Move(p)

		var ch Change
		for id, r := range u.Frames {
			if _, err := s.board.Update(id, domain.Frame(r)); err == nil {
				ch |= ChangeItems
			}
		}
		if s.active.Kind == gesture.KindDrag || s.active.Kind == gesture.KindResize {
			if len(u.Guides) > 0 || len(s.guides) > 0 {
				s.guides = u.Guides
				ch |= ChangeGuides
			}
		}
		if u.Marquee != nil {
			s.marquee = u.Marquee
			// text items never join the image selection
			s.sel.SelectMany(selection.Hits(s.board.OfKind(domain.ItemImage), *u.Marquee, s.active.Transform))
			ch |= ChangeSelection | ChangeGuides
		}
		if u.Transform != nil {
			ch |= s.setTransformLocked(*u.Transform)
		}
		return ch
	})
}

// PointerUp ends the active gesture and clears its transient output.
func (s *Session) PointerUp() {
	s.do(s.endGestureLocked)
}

// Interrupt ends the active gesture through the same path as PointerUp,
// e.g. when the window loses focus mid-drag.
func (s *Session) Interrupt() {
	s.do(s.endGestureLocked)
}

// GestureActive reports whether a gesture is in progress.
func (s *Session) GestureActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Session) endGestureLocked() Change {
	var ch Change
	if s.active != nil {
		s.active.End()
		s.active = nil
	}
	if len(s.guides) > 0 || s.marquee != nil {
		s.guides = nil
		s.marquee = nil
		ch |= ChangeGuides
	}
	return ch
}
