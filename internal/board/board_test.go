package board

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"studio/internal/domain"
)

func newTestBoard() *Board {
	b := New()
	n := 0
	b.newID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	b.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, n, 0, time.UTC) }
	return b
}

func TestAdd_AssignsIDAndCreatedAt(t *testing.T) {
	b := newTestBoard()
	it := b.Add(domain.Item{Kind: domain.ItemImage, Width: 100, Height: 50})

	if it.ID != "item-1" {
		t.Errorf("expected id item-1, got %q", it.ID)
	}
	if it.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	got, ok := b.Get(it.ID)
	if !ok || got.Width != 100 {
		t.Fatalf("Get returned %+v, %v", got, ok)
	}
}

func TestAdd_KeepsProvidedCreatedAt(t *testing.T) {
	b := newTestBoard()
	at := time.Date(2020, 5, 5, 0, 0, 0, 0, time.UTC)
	it := b.Add(domain.Item{CreatedAt: at})
	if !it.CreatedAt.Equal(at) {
		t.Errorf("expected %v, got %v", at, it.CreatedAt)
	}
}

func TestItems_InsertionOrder(t *testing.T) {
	b := newTestBoard()
	for i := 0; i < 4; i++ {
		b.Add(domain.Item{Kind: domain.ItemImage})
	}
	b.Remove("item-2")

	items := b.Items()
	want := []string{"item-1", "item-3", "item-4"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
	// Index must follow the compacted slice.
	if it, ok := b.Get("item-4"); !ok || it.ID != "item-4" {
		t.Errorf("lookup after removal failed: %+v %v", it, ok)
	}
}

func TestUpdate_MergesPartial(t *testing.T) {
	b := newTestBoard()
	it := b.Add(domain.Item{Kind: domain.ItemImage, X: 1, Y: 2, Width: 30, Height: 40, Name: "a.png"})

	name := "b.png"
	got, err := b.Update(it.ID, domain.ItemPatch{Name: &name, X: ptr(9.0)})
	if err != nil {
		t.Fatal(err)
	}
	if got.X != 9 || got.Y != 2 || got.Width != 30 || got.Name != "b.png" {
		t.Errorf("unexpected merge result: %+v", got)
	}
}

func TestUpdate_Missing(t *testing.T) {
	b := newTestBoard()
	if _, err := b.Update("nope", domain.MoveTo(1, 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveMany_IgnoresUnknownAndDuplicates(t *testing.T) {
	b := newTestBoard()
	b.Add(domain.Item{})
	b.Add(domain.Item{})

	removed := b.RemoveMany([]string{"item-1", "item-1", "ghost"})
	if len(removed) != 1 || removed[0] != "item-1" {
		t.Errorf("expected [item-1], got %v", removed)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 item left, got %d", b.Len())
	}
}

func TestBounds(t *testing.T) {
	b := newTestBoard()
	if _, ok := b.Bounds(); ok {
		t.Error("expected no bounds for an empty board")
	}
	b.Add(domain.Item{X: 0, Y: 0, Width: 10, Height: 10})
	b.Add(domain.Item{X: 50, Y: 20, Width: 10, Height: 30})

	r, ok := b.Bounds()
	if !ok || r.W != 60 || r.H != 50 {
		t.Errorf("unexpected bounds %+v", r)
	}
	r, _ = b.Bounds("item-2")
	if r.X != 50 || r.W != 10 {
		t.Errorf("unexpected subset bounds %+v", r)
	}
}

func TestCount(t *testing.T) {
	b := newTestBoard()
	b.Add(domain.Item{Kind: domain.ItemImage})
	b.Add(domain.Item{Kind: domain.ItemText})
	b.Add(domain.Item{Kind: domain.ItemImage})
	if n := b.Count(domain.ItemImage); n != 2 {
		t.Errorf("expected 2 images, got %d", n)
	}
	if n := len(b.OfKind(domain.ItemText)); n != 1 {
		t.Errorf("expected 1 text, got %d", n)
	}
}

func ptr[T any](v T) *T { return &v }
