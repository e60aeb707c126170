package editor

import "strings"

// KeyMods are the modifier keys of a keyboard event. Meta and Ctrl are
// treated alike so the bindings work on every platform.
type KeyMods struct {
	Meta  bool `json:"meta"`
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
}

func (m KeyMods) command() bool {
	return m.Meta || m.Ctrl
}

// Command names used by the zoom controls and the HTTP API.
const (
	CmdZoomIn       = "zoom-in"
	CmdZoomOut      = "zoom-out"
	CmdZoomReset    = "zoom-reset"
	CmdZoom100      = "zoom-100"
	CmdFitAll       = "fit-all"
	CmdFitSelection = "fit-selection"
	CmdAutoLayout   = "auto-layout"
	CmdToggleGrid   = "toggle-grid"
	CmdDelete       = "delete"
	CmdDeselect     = "deselect"
)

// HandleKey applies a key-down event and reports whether it was bound.
// Plain letter and delete keys are ignored while a text field has focus.
func (s *Session) HandleKey(key string, mods KeyMods) bool {
	s.mu.Lock()
	typing := s.textFocused
	s.mu.Unlock()

	if mods.command() {
		switch key {
		case "=", "+":
			s.ZoomBy(KeyZoomFactor)
		case "-", "_":
			s.ZoomBy(1 / KeyZoomFactor)
		case "0":
			s.ResetView()
		default:
			return false
		}
		return true
	}

	if mods.Shift {
		switch key {
		case "1", "!":
			s.FitAll()
			return true
		case "2", "@", "\"":
			s.AutoLayout()
			return true
		}
	}

	switch key {
	case "Escape":
		s.ClearSelection()
		return true
	case " ":
		if typing {
			return false
		}
		s.SetPanMode(true)
		return true
	}

	if typing {
		return false
	}
	switch strings.ToLower(key) {
	case "f":
		s.FitSelection()
	case "g":
		s.SetGridVisible(!s.GridVisible())
	case "delete", "backspace":
		s.DeleteSelection()
	default:
		return false
	}
	return true
}

// HandleKeyUp releases held keys. Only space is tracked.
func (s *Session) HandleKeyUp(key string) {
	if key == " " {
		s.SetPanMode(false)
	}
}

// Command runs a named view or selection command. ok is false for unknown
// names.
func (s *Session) Command(name string) bool {
	switch name {
	case CmdZoomIn:
		s.ZoomBy(ControlZoomFactor)
	case CmdZoomOut:
		s.ZoomBy(1 / ControlZoomFactor)
	case CmdZoomReset:
		s.ResetView()
	case CmdZoom100:
		s.ZoomTo100()
	case CmdFitAll:
		s.FitAll()
	case CmdFitSelection:
		s.FitSelection()
	case CmdAutoLayout:
		s.AutoLayout()
	case CmdToggleGrid:
		s.SetGridVisible(!s.GridVisible())
	case CmdDelete:
		s.DeleteSelection()
	case CmdDeselect:
		s.ClearSelection()
	default:
		return false
	}
	return true
}
