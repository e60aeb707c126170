package editor

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"studio/internal/board"
	"studio/internal/domain"
	"studio/internal/geom"
	"studio/internal/snap"
)

const (
	// Stagger is the offset between consecutive images of one batch.
	Stagger = 40.0

	gridStartOrigin = 100.0
	gridStartStep   = 320.0
	gridStartCols   = 3
)

// Text item defaults.
const (
	DefaultText       = "Double-click to edit"
	DefaultFontSize   = 48.0
	DefaultFontFamily = "Inter"
	DefaultFontWeight = "bold"
	DefaultTextColor  = "#FFFFFF"
)

// Incoming is a decoded image waiting to be placed.
type Incoming struct {
	Src      string
	Name     string
	Width    float64
	Height   float64
	Metadata *domain.ImageMetadata
}

// PlaceMode selects how a batch of incoming images is positioned.
type PlaceMode int

const (
	// PlaceAtDrop staggers from the drop point. The first image dropped on
	// an empty canvas is centered instead.
	PlaceAtDrop PlaceMode = iota
	// PlaceCentered staggers from the visible center (file picker, paste).
	PlaceCentered
	// PlaceGridStart uses the fixed start used outside the canvas, such as
	// chat attachments and the hot folder. Positions are not grid-rounded.
	PlaceGridStart
	// PlaceFreeSlot puts each image into the first free grid slot.
	PlaceFreeSlot
)

func (m PlaceMode) String() string {
	switch m {
	case PlaceAtDrop:
		return "drop"
	case PlaceCentered:
		return "centered"
	case PlaceGridStart:
		return "grid-start"
	case PlaceFreeSlot:
		return "free-slot"
	}
	return fmt.Sprintf("PlaceMode(%d)", int(m))
}

// ParsePlaceMode is the inverse of PlaceMode.String.
func ParsePlaceMode(s string) (PlaceMode, error) {
	for _, m := range []PlaceMode{PlaceAtDrop, PlaceCentered, PlaceGridStart, PlaceFreeSlot} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown placement mode %q", s)
}

// PlaceImages adds a batch of images. drop is a screen point and is only
// used by PlaceAtDrop. The created items are returned in batch order.
func (s *Session) PlaceImages(batch []Incoming, mode PlaceMode, drop geom.Point) []domain.Item {
	var out []domain.Item
	s.do(func() Change {
		if len(batch) == 0 {
			return 0
		}
		emptyCanvas := s.board.Len() == 0
		imageCount := s.board.Count(domain.ItemImage)
		center := s.visibleCenterLocked()
		dropCanvas := s.transform.ScreenToCanvas(drop)

		for i, in := range batch {
			off := Stagger * float64(i)
			var pos geom.Point
			switch mode {
			case PlaceAtDrop:
				if emptyCanvas && i == 0 {
					pos = gridPoint(center.X-in.Width/2, center.Y-in.Height/2)
				} else {
					pos = gridPoint(dropCanvas.X+off, dropCanvas.Y+off)
				}
			case PlaceCentered:
				pos = gridPoint(center.X-in.Width/2+off, center.Y-in.Height/2+off)
			case PlaceGridStart:
				pos = geom.Point{
					X: gridStartOrigin + float64(imageCount%gridStartCols)*gridStartStep + off,
					Y: gridStartOrigin + math.Floor(float64(imageCount)/gridStartCols)*gridStartStep + off,
				}
			case PlaceFreeSlot:
				pos = s.placer.NextPosition(s.board.Items(), in.Width, in.Height)
			}
			out = append(out, s.board.Add(imageItem(in, pos)))
		}
		return ChangeItems
	})
	return out
}

// PlaceAtVisibleCenter centers one image in the visible viewport without
// grid rounding. Used for images generated in chat.
func (s *Session) PlaceAtVisibleCenter(in Incoming) domain.Item {
	var out domain.Item
	s.do(func() Change {
		c := s.visibleCenterLocked()
		out = s.board.Add(imageItem(in, geom.Point{X: c.X - in.Width/2, Y: c.Y - in.Height/2}))
		return ChangeItems
	})
	return out
}

// AddItem inserts a fully specified item, e.g. a generation placeholder.
func (s *Session) AddItem(it domain.Item) domain.Item {
	var out domain.Item
	s.do(func() Change {
		out = s.board.Add(it)
		return ChangeItems
	})
	return out
}

func imageItem(in Incoming, pos geom.Point) domain.Item {
	return domain.Item{
		Kind:     domain.ItemImage,
		X:        pos.X,
		Y:        pos.Y,
		Width:    in.Width,
		Height:   in.Height,
		Src:      in.Src,
		Name:     in.Name,
		Metadata: in.Metadata,
	}
}

func gridPoint(x, y float64) geom.Point {
	return geom.Point{X: snap.Grid(x), Y: snap.Grid(y)}
}

// visibleCenterLocked is the canvas point under the center of the visible
// viewport.
func (s *Session) visibleCenterLocked() geom.Point {
	v := s.viewportLocked()
	return s.transform.ScreenToCanvas(geom.Point{X: v.W / 2, Y: v.H / 2})
}

// ── Text ────────────────────────────────────────────────────

// AddText creates a text item with default styling at a canvas point and
// selects it for editing.
func (s *Session) AddText(at geom.Point) domain.Item {
	var out domain.Item
	s.do(func() Change {
		it := domain.Item{
			Kind:       domain.ItemText,
			X:          snap.Grid(at.X),
			Y:          snap.Grid(at.Y),
			Content:    DefaultText,
			FontSize:   DefaultFontSize,
			FontFamily: DefaultFontFamily,
			FontWeight: DefaultFontWeight,
			Color:      DefaultTextColor,
		}
		it.Width, it.Height = estimateTextSize(it.Content, it.FontSize)
		out = s.board.Add(it)
		s.sel.SelectText(out.ID)
		return ChangeItems | ChangeSelection
	})
	return out
}

// AddTextAtScreen is AddText for a screen point, e.g. a context menu.
func (s *Session) AddTextAtScreen(p geom.Point) domain.Item {
	return s.AddText(s.Transform().ScreenToCanvas(p))
}

// CommitText stores edited content. Empty content removes the item.
func (s *Session) CommitText(id, content string) (domain.Item, bool, error) {
	var (
		out     domain.Item
		removed bool
		err     error
	)
	s.do(func() Change {
		it, ok := s.board.Get(id)
		if !ok || it.Kind != domain.ItemText {
			err = fmt.Errorf("commit text %s: %w", id, board.ErrNotFound)
			return 0
		}
		if strings.TrimSpace(content) == "" {
			s.board.Remove(id)
			s.sel.Forget(id)
			removed = true
			return ChangeItems | ChangeSelection
		}
		w, h := estimateTextSize(content, it.FontSize)
		out, err = s.board.Update(id, domain.ItemPatch{Content: &content, Width: &w, Height: &h})
		return ChangeItems
	})
	return out, removed, err
}

// TextStyle is a partial style change for a text item.
type TextStyle struct {
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontWeight *string  `json:"fontWeight,omitempty"`
	Color      *string  `json:"color,omitempty"`
	Rotation   *float64 `json:"rotation,omitempty"`
}

// UpdateTextStyle changes font attributes or rotation of a text item.
func (s *Session) UpdateTextStyle(id string, style TextStyle) (domain.Item, error) {
	var (
		out domain.Item
		err error
	)
	s.do(func() Change {
		it, ok := s.board.Get(id)
		if !ok || it.Kind != domain.ItemText {
			err = fmt.Errorf("update text style %s: %w", id, board.ErrNotFound)
			return 0
		}
		patch := domain.ItemPatch{
			FontSize:   style.FontSize,
			FontFamily: style.FontFamily,
			FontWeight: style.FontWeight,
			Color:      style.Color,
			Rotation:   style.Rotation,
		}
		if style.FontSize != nil {
			w, h := estimateTextSize(it.Content, *style.FontSize)
			patch.Width, patch.Height = &w, &h
		}
		out, err = s.board.Update(id, patch)
		return ChangeItems
	})
	return out, err
}

// estimateTextSize approximates the rendered box until the UI reports the
// measured one.
func estimateTextSize(content string, fontSize float64) (float64, float64) {
	longest := 0
	lines := strings.Split(content, "\n")
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	w := math.Max(snap.MinSize, float64(longest)*fontSize*0.6) + 8
	h := float64(len(lines))*fontSize*1.2 + 8
	return math.Round(w), math.Round(h)
}

// ── Updates and removal ─────────────────────────────────────

// Update applies a partial change to one item.
func (s *Session) Update(id string, patch domain.ItemPatch) (domain.Item, error) {
	var (
		out domain.Item
		err error
	)
	s.do(func() Change {
		out, err = s.board.Update(id, patch)
		if err != nil {
			return 0
		}
		return ChangeItems
	})
	return out, err
}

// Remove deletes items and drops them from the selection.
func (s *Session) Remove(ids ...string) []string {
	var removed []string
	s.do(func() Change {
		removed = s.board.RemoveMany(ids)
		if len(removed) == 0 {
			return 0
		}
		s.sel.Forget(removed...)
		return ChangeItems | ChangeSelection
	})
	return removed
}

// DeleteSelection removes every selected item.
func (s *Session) DeleteSelection() []string {
	return s.Remove(s.Selection().SelectedIDs...)
}

// Clear removes every item.
func (s *Session) Clear() int {
	var n int
	s.do(func() Change {
		n = s.board.Len()
		if n == 0 {
			return 0
		}
		s.board.Clear()
		s.sel.Clear()
		return ChangeItems | ChangeSelection
	})
	return n
}
