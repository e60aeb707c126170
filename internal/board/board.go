package board

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/geom"
)

// ErrNotFound is returned when an item id is not on the board.
var ErrNotFound = errors.New("item not found")

// Board is the ordered collection of canvas items, keyed by id.
// Iteration follows insertion order. Board is not safe for concurrent use;
// the editor session serializes access.
type Board struct {
	items []domain.Item
	index map[string]int

	newID func() string
	now   func() time.Time
}

// New creates an empty Board.
func New() *Board {
	return &Board{
		index: make(map[string]int),
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

// Add stores a copy of it under a fresh id. CreatedAt is stamped unless the
// caller already set it.
func (b *Board) Add(it domain.Item) domain.Item {
	it.ID = b.newID()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = b.now()
	}
	b.index[it.ID] = len(b.items)
	b.items = append(b.items, it)
	return it
}

// Get returns the item with the given id.
func (b *Board) Get(id string) (domain.Item, bool) {
	i, ok := b.index[id]
	if !ok {
		return domain.Item{}, false
	}
	return b.items[i], true
}

// Has reports whether id is on the board.
func (b *Board) Has(id string) bool {
	_, ok := b.index[id]
	return ok
}

// Items returns a copy of all items in insertion order.
func (b *Board) Items() []domain.Item {
	out := make([]domain.Item, len(b.items))
	copy(out, b.items)
	return out
}

// OfKind returns the items of one kind in insertion order.
func (b *Board) OfKind(kind domain.ItemKind) []domain.Item {
	var out []domain.Item
	for _, it := range b.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of items.
func (b *Board) Len() int {
	return len(b.items)
}

// Count returns the number of items of one kind.
func (b *Board) Count(kind domain.ItemKind) int {
	n := 0
	for _, it := range b.items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

// Update merges patch into the item and returns the result.
func (b *Board) Update(id string, patch domain.ItemPatch) (domain.Item, error) {
	i, ok := b.index[id]
	if !ok {
		return domain.Item{}, ErrNotFound
	}
	patch.Apply(&b.items[i])
	return b.items[i], nil
}

// Remove deletes one item. It reports whether the id existed.
func (b *Board) Remove(id string) bool {
	return len(b.RemoveMany([]string{id})) == 1
}

// RemoveMany deletes every listed id that exists and returns the ones removed.
func (b *Board) RemoveMany(ids []string) []string {
	drop := make(map[string]struct{}, len(ids))
	var removed []string
	for _, id := range ids {
		if _, ok := b.index[id]; !ok {
			continue
		}
		if _, dup := drop[id]; dup {
			continue
		}
		drop[id] = struct{}{}
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil
	}

	kept := b.items[:0]
	for _, it := range b.items {
		if _, gone := drop[it.ID]; !gone {
			kept = append(kept, it)
		}
	}
	// Zero the tail so dropped items are not retained by the backing array.
	for i := len(kept); i < len(b.items); i++ {
		b.items[i] = domain.Item{}
	}
	b.items = kept
	b.reindex()
	return removed
}

// Clear removes every item.
func (b *Board) Clear() {
	b.items = nil
	b.index = make(map[string]int)
}

// Bounds returns the bounding box of all items, or of the listed ids when
// any are given.
func (b *Board) Bounds(ids ...string) (geom.Rect, bool) {
	var rects []geom.Rect
	if len(ids) == 0 {
		for _, it := range b.items {
			rects = append(rects, it.Rect())
		}
	} else {
		for _, id := range ids {
			if it, ok := b.Get(id); ok {
				rects = append(rects, it.Rect())
			}
		}
	}
	return geom.Bounds(rects)
}

func (b *Board) reindex() {
	b.index = make(map[string]int, len(b.items))
	for i, it := range b.items {
		b.index[it.ID] = i
	}
}
