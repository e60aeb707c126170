package selection

import "studio/internal/domain"

// Controller is the selection state machine: none, single, multi or text.
// The zero value is ready to use and selects nothing.
type Controller struct {
	state domain.SelectionState
}

// New creates an empty Controller.
func New() *Controller {
	return &Controller{}
}

// State returns a copy of the current selection.
func (c *Controller) State() domain.SelectionState {
	s := c.state
	s.SelectedIDs = append([]string(nil), c.state.SelectedIDs...)
	return s
}

// Contains reports whether id is in the image selection.
func (c *Controller) Contains(id string) bool {
	return c.state.Contains(id)
}

// IsMulti reports whether more than one image is selected.
func (c *Controller) IsMulti() bool {
	return c.state.IsMulti()
}

// Primary returns the primary selected id, or "".
func (c *Controller) Primary() string {
	return c.state.PrimaryID
}

// Select makes id the only selected item.
func (c *Controller) Select(id string) {
	c.state = domain.SelectionState{PrimaryID: id, SelectedIDs: []string{id}}
}

// SelectMany replaces the selection; the first id becomes primary.
func (c *Controller) SelectMany(ids []string) {
	if len(ids) == 0 {
		c.Clear()
		return
	}
	c.state = domain.SelectionState{PrimaryID: ids[0], SelectedIDs: dedupe(ids)}
}

// Toggle flips membership of id. An added id becomes primary; removing the
// primary promotes the first remaining id.
func (c *Controller) Toggle(id string) {
	c.state.TextID = ""
	if c.state.Contains(id) {
		c.state.SelectedIDs = without(c.state.SelectedIDs, id)
		if c.state.PrimaryID == id {
			c.state.PrimaryID = first(c.state.SelectedIDs)
		}
		return
	}
	c.state.SelectedIDs = append(c.state.SelectedIDs, id)
	c.state.PrimaryID = id
}

// Click applies a pointer press on an image. Shift toggles. A plain click on
// a member of an existing multi-selection keeps the group so it can be
// dragged together.
func (c *Controller) Click(id string, shift bool) {
	switch {
	case shift:
		c.Toggle(id)
	case c.state.IsMulti() && c.state.Contains(id):
	default:
		c.Select(id)
	}
}

// SelectText selects a text item, clearing any image selection.
func (c *Controller) SelectText(id string) {
	c.state = domain.SelectionState{TextID: id}
}

// Clear returns to the none state.
func (c *Controller) Clear() {
	c.state = domain.SelectionState{}
}

// Forget drops references to removed ids.
func (c *Controller) Forget(ids ...string) {
	for _, id := range ids {
		if c.state.TextID == id {
			c.state.TextID = ""
		}
		if !c.state.Contains(id) {
			continue
		}
		c.state.SelectedIDs = without(c.state.SelectedIDs, id)
		if c.state.PrimaryID == id {
			c.state.PrimaryID = first(c.state.SelectedIDs)
		}
	}
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
