package domain

// SelectionState is the image selection plus the mutually exclusive text slot.
// PrimaryID is empty when nothing is selected and is always a member of
// SelectedIDs otherwise.
type SelectionState struct {
	PrimaryID   string   `json:"primaryId"`
	SelectedIDs []string `json:"selectedIds"`
	TextID      string   `json:"textId"`
}

// Contains reports whether id is part of the image selection.
func (s SelectionState) Contains(id string) bool {
	for _, sid := range s.SelectedIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// IsMulti reports whether more than one item is selected.
func (s SelectionState) IsMulti() bool {
	return len(s.SelectedIDs) > 1
}

// Empty reports whether neither images nor text are selected.
func (s SelectionState) Empty() bool {
	return len(s.SelectedIDs) == 0 && s.TextID == ""
}
