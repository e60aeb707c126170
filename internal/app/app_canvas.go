package app

import (
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"
	"studio/internal/layout"
)

// ============================================================
// Canvas state
// ============================================================

// GetState returns the full editor state for the initial render. Later
// changes arrive as canvas:*, selection:*, guides:* and viewport:* events.
func (a *App) GetState() editor.State {
	return a.rt.Session.Snapshot()
}

func (a *App) UpdateItem(id string, patch domain.ItemPatch) (domain.Item, error) {
	return a.rt.Session.Update(id, patch)
}

func (a *App) DeleteItems(ids []string) []string {
	return a.rt.Session.Remove(ids...)
}

func (a *App) DeleteSelection() []string {
	return a.rt.Session.DeleteSelection()
}

func (a *App) ClearCanvas() int {
	return a.rt.Session.Clear()
}

// ============================================================
// Text
// ============================================================

// AddText creates a text item at a screen point.
func (a *App) AddText(x, y float64) domain.Item {
	return a.rt.Session.AddTextAtScreen(geom.Point{X: x, Y: y})
}

// CommitText stores edited content. It reports whether the item was
// removed because the content was empty.
func (a *App) CommitText(id, content string) (bool, error) {
	_, removed, err := a.rt.Session.CommitText(id, content)
	return removed, err
}

func (a *App) UpdateTextStyle(id string, style editor.TextStyle) (domain.Item, error) {
	return a.rt.Session.UpdateTextStyle(id, style)
}

func (a *App) SetTextFocus(focused bool) {
	a.rt.Session.SetTextFocus(focused)
}

// ============================================================
// Selection
// ============================================================

func (a *App) SelectItems(ids []string) domain.SelectionState {
	return a.rt.Session.SelectMany(ids)
}

func (a *App) ClearSelection() {
	a.rt.Session.ClearSelection()
}

// ============================================================
// Pointer and keyboard
// ============================================================

func (a *App) PointerDown(target editor.Target, x, y float64, mods editor.Modifiers) error {
	return a.rt.Session.PointerDown(target, geom.Point{X: x, Y: y}, mods)
}

func (a *App) PointerMove(x, y float64) {
	a.rt.Session.PointerMove(geom.Point{X: x, Y: y})
}

func (a *App) PointerUp() {
	a.rt.Session.PointerUp()
}

// PointerCancel ends the active gesture, e.g. when the window loses focus.
func (a *App) PointerCancel() {
	a.rt.Session.Interrupt()
}

// KeyDown reports whether the key was bound so the frontend can prevent
// the browser default.
func (a *App) KeyDown(key string, mods editor.KeyMods) bool {
	return a.rt.Session.HandleKey(key, mods)
}

func (a *App) KeyUp(key string) {
	a.rt.Session.HandleKeyUp(key)
}

// ============================================================
// View
// ============================================================

func (a *App) SetViewport(width, height float64) {
	a.rt.Session.SetViewport(width, height)
}

// Wheel zooms by delta about a screen point.
func (a *App) Wheel(x, y, delta float64) geom.Transform {
	return a.rt.Session.ZoomAt(geom.Point{X: x, Y: y}, delta)
}

func (a *App) Pan(dx, dy float64) geom.Transform {
	return a.rt.Session.Pan(dx, dy)
}

// Command runs a named zoom, fit or selection command.
func (a *App) Command(name string) bool {
	return a.rt.Session.Command(name)
}

func (a *App) ZoomToPercent(percent float64) geom.Transform {
	return a.rt.Session.ZoomToPercent(percent)
}

func (a *App) AutoLayout() layout.Plan {
	plan, _ := a.rt.Session.AutoLayout()
	return plan
}

func (a *App) SetChatOpen(open bool) {
	a.rt.Session.SetChatOpen(open)
}

func (a *App) SetGridVisible(visible bool) {
	a.rt.Session.SetGridVisible(visible)
}
