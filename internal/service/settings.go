package service

import (
	"fmt"
	"strconv"
	"sync"

	"studio/internal/editor"
	"studio/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Preferences
// ─────────────────────────────────────────────────────────────
//
// Window size, grid visibility and the chat panel state survive restarts
// as key/value rows in app_settings. Canvas contents do not.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsService persists UI preferences.
type SettingsService struct {
	db *storage.DB
}

func NewSettingsService(db *storage.DB) *SettingsService {
	return &SettingsService{db: db}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingGridVisible  = "grid_visible"
	settingChatOpen     = "chat_open"
	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
)

// LoadWindowSize returns the saved window dimensions, or defaults.
func (s *SettingsService) LoadWindowSize() WindowSize {
	if s.db == nil {
		return WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	}
	w := s.db.IntSetting(settingWindowWidth, defaultWindowWidth)
	h := s.db.IntSetting(settingWindowHeight, defaultWindowHeight)
	if w < 800 {
		w = defaultWindowWidth
	}
	if h < 600 {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(width, height int) error {
	if s.db == nil {
		return fmt.Errorf("settings: no db")
	}
	if err := s.db.SetSetting(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.db.SetSetting(settingWindowHeight, strconv.Itoa(height))
}

// Apply restores grid and chat panel preferences into a session.
func (s *SettingsService) Apply(sess *editor.Session) {
	if s.db == nil {
		return
	}
	sess.SetGridVisible(s.db.BoolSetting(settingGridVisible, true))
	sess.SetChatOpen(s.db.BoolSetting(settingChatOpen, false))
}

// Track saves grid and chat panel preferences whenever they change.
func (s *SettingsService) Track(sess *editor.Session) {
	if s.db == nil {
		return
	}
	st := sess.Snapshot()
	grid, chat := st.GridVisible, st.ChatOpen
	var mu sync.Mutex
	sess.OnChange(func(ch editor.Change) {
		if !ch.Has(editor.ChangeGrid) && !ch.Has(editor.ChangeViewport) {
			return
		}
		st := sess.Snapshot()
		mu.Lock()
		defer mu.Unlock()
		if st.GridVisible != grid {
			grid = st.GridVisible
			s.db.SetSetting(settingGridVisible, strconv.FormatBool(grid))
		}
		if st.ChatOpen != chat {
			chat = st.ChatOpen
			s.db.SetSetting(settingChatOpen, strconv.FormatBool(chat))
		}
	})
}
