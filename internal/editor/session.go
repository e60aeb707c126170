// Package editor holds the explicit application state of one canvas: the
// object model, selection, view transform and transient gesture output. All
// mutations go through Session methods.
package editor

import (
	"slices"
	"sync"

	"studio/internal/board"
	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/gesture"
	"studio/internal/layout"
	"studio/internal/selection"
)

const (
	ChatPanelWidth   = 416.0
	DefaultViewportW = 1280.0
	DefaultViewportH = 800.0
)

// Change flags which parts of the state an operation touched. ChangeGuides
// also covers the marquee rectangle.
type Change uint8

const (
	ChangeItems Change = 1 << iota
	ChangeSelection
	ChangeGuides
	ChangeViewport
	ChangeGrid
)

// Has reports whether c includes f.
func (c Change) Has(f Change) bool {
	return c&f != 0
}

// State is a point-in-time copy of the session.
type State struct {
	Items       []domain.Item         `json:"items"`
	Selection   domain.SelectionState `json:"selection"`
	Transform   geom.Transform        `json:"transform"`
	Guides      []domain.SnapGuide    `json:"guides"`
	Marquee     *domain.MarqueeRect   `json:"marquee,omitempty"`
	Viewport    geom.Size             `json:"viewport"`
	GridVisible bool                  `json:"gridVisible"`
	ChatOpen    bool                  `json:"chatOpen"`
}

// Session is safe for concurrent use. Listeners run after the lock is
// released, so they may call back into the session.
type Session struct {
	mu sync.Mutex

	board     *board.Board
	sel       *selection.Controller
	placer    *layout.Placer
	transform geom.Transform

	viewport    geom.Size
	chatOpen    bool
	gridVisible bool
	textFocused bool
	panMode     bool

	guides  []domain.SnapGuide
	marquee *domain.MarqueeRect
	active  *gesture.Session

	listeners []func(Change)
}

// New creates an empty session with the identity transform.
func New() *Session {
	return &Session{
		board:       board.New(),
		sel:         selection.New(),
		placer:      layout.NewPlacer(),
		transform:   geom.Identity(),
		viewport:    geom.Size{W: DefaultViewportW, H: DefaultViewportH},
		gridVisible: true,
	}
}

// OnChange registers fn to be called after every state change.
func (s *Session) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// do runs fn under the lock and notifies listeners of what it changed.
func (s *Session) do(fn func() Change) Change {
	s.mu.Lock()
	ch := fn()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if ch != 0 {
		for _, l := range listeners {
			l(ch)
		}
	}
	return ch
}

// Snapshot returns a copy of the full state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Items:       s.board.Items(),
		Selection:   s.sel.State(),
		Transform:   s.transform,
		Guides:      append([]domain.SnapGuide(nil), s.guides...),
		Viewport:    s.viewportLocked(),
		GridVisible: s.gridVisible,
		ChatOpen:    s.chatOpen,
	}
	if s.marquee != nil {
		m := *s.marquee
		st.Marquee = &m
	}
	return st
}

// Items returns all items in insertion order.
func (s *Session) Items() []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Items()
}

// Item returns one item.
func (s *Session) Item(id string) (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Get(id)
}

// Selection returns the current selection.
func (s *Session) Selection() domain.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.State()
}

// Transform returns the current view transform.
func (s *Session) Transform() geom.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Guides returns the snap guides of the active gesture.
func (s *Session) Guides() []domain.SnapGuide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SnapGuide(nil), s.guides...)
}

// SetViewport records the size of the canvas container in screen pixels.
func (s *Session) SetViewport(w, h float64) {
	s.do(func() Change {
		if w <= 0 || h <= 0 {
			return 0
		}
		s.viewport = geom.Size{W: w, H: h}
		return ChangeViewport
	})
}

// Viewport returns the visible canvas area, excluding the chat panel.
func (s *Session) Viewport() geom.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportLocked()
}

func (s *Session) viewportLocked() geom.Size {
	v := s.viewport
	if s.chatOpen {
		v.W -= ChatPanelWidth
		if v.W < 1 {
			v.W = 1
		}
	}
	return v
}

// SetChatOpen shows or hides the chat panel, which narrows the viewport.
func (s *Session) SetChatOpen(open bool) {
	s.do(func() Change {
		if s.chatOpen == open {
			return 0
		}
		s.chatOpen = open
		return ChangeViewport
	})
}

// SetGridVisible toggles the visual grid. Snapping is unaffected.
func (s *Session) SetGridVisible(v bool) {
	s.do(func() Change {
		if s.gridVisible == v {
			return 0
		}
		s.gridVisible = v
		return ChangeGrid
	})
}

// GridVisible reports whether the grid is drawn.
func (s *Session) GridVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gridVisible
}

// SetTextFocus records whether a text field has keyboard focus.
func (s *Session) SetTextFocus(focused bool) {
	s.mu.Lock()
	s.textFocused = focused
	s.mu.Unlock()
}

// SetPanMode records whether the pan modifier (space) is held.
func (s *Session) SetPanMode(on bool) {
	s.mu.Lock()
	s.panMode = on
	s.mu.Unlock()
}
