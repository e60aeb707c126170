package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"

	"github.com/mark3labs/mcp-go/mcp"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Emit(_ context.Context, event string, _ any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T) (*Server, *editor.Session, *recorder) {
	t.Helper()
	sess := editor.New()
	sess.SetViewport(1000, 800)
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, Deps{Session: sess, Emitter: rec}), sess, rec
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textOf(res *mcp.CallToolResult) string {
	if res == nil || len(res.Content) == 0 {
		return ""
	}
	tc, _ := res.Content[0].(mcp.TextContent)
	return tc.Text
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	text := textOf(res)
	if text == "" {
		t.Fatal("empty tool result")
	}
	return text
}

func waitPending(t *testing.T, s *Server) PendingAction {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := s.Pending(); len(p) > 0 {
			return p[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no pending approval")
	return PendingAction{}
}

func addImage(s *editor.Session, x, y, w, h float64) domain.Item {
	return s.AddItem(domain.Item{Kind: domain.ItemImage, X: x, Y: y, Width: w, Height: h, Src: "data:image/png;base64," + strings.Repeat("A", 200)})
}

// ── Approval queue ─────────────────────────────────────────

func TestApprovalQueue_Approve(t *testing.T) {
	rec := &recorder{}
	q := NewApprovalQueue(context.Background(), rec)

	done := make(chan bool)
	go func() {
		ok, _ := q.Request("delete_items", "Delete 1 item", "a")
		done <- ok
	}()

	var id string
	for id == "" {
		if p := q.Pending(); len(p) == 1 {
			id = p[0].ID
			if p[0].Tool != "delete_items" || len(p[0].ItemIDs) != 1 {
				t.Errorf("unexpected pending action %+v", p[0])
			}
		}
		time.Sleep(time.Millisecond)
	}
	if !q.Approve(id) {
		t.Fatal("Approve returned false for a pending id")
	}
	if ok := <-done; !ok {
		t.Error("expected approval")
	}
	if !rec.has(EventApprovalRequired) {
		t.Error("approval-required was not emitted")
	}
	if len(q.Pending()) != 0 {
		t.Error("approved action still pending")
	}
	if q.Approve(id) {
		t.Error("second Approve should report an unknown id")
	}
}

func TestApprovalQueue_Reject(t *testing.T) {
	q := NewApprovalQueue(context.Background(), &recorder{})

	done := make(chan error)
	go func() {
		_, err := q.Request("clear_canvas", "Clear")
		done <- err
	}()
	for len(q.Pending()) == 0 {
		time.Sleep(time.Millisecond)
	}
	q.Reject(q.Pending()[0].ID)
	if err := <-done; err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Errorf("expected rejection error, got %v", err)
	}
}

func TestApprovalQueue_Timeout(t *testing.T) {
	rec := &recorder{}
	q := NewApprovalQueue(context.Background(), rec)
	q.timeout = 10 * time.Millisecond

	ok, err := q.Request("clear_canvas", "Clear")
	if ok || err == nil {
		t.Fatalf("expected timeout, got ok=%v err=%v", ok, err)
	}
	if !rec.has(EventApprovalDismissed) {
		t.Error("approval-dismissed was not emitted")
	}
	if len(q.Pending()) != 0 {
		t.Error("timed out action still pending")
	}
}

func TestApprovalQueue_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewApprovalQueue(ctx, &recorder{})
	cancel()
	if ok, err := q.Request("clear_canvas", "Clear"); ok || err == nil {
		t.Fatalf("expected cancellation, got ok=%v err=%v", ok, err)
	}
}

// ── Tools ──────────────────────────────────────────────────

func TestListItemsShortensSources(t *testing.T) {
	s, sess, _ := newTestServer(t)
	addImage(sess, 0, 0, 100, 100)

	res, err := s.handleListItems(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	src, _ := items[0]["src"].(string)
	if len(src) > srcPreviewLen+len("…") {
		t.Errorf("src not shortened: %d bytes", len(src))
	}
}

func TestMoveAndResizeItem(t *testing.T) {
	s, sess, _ := newTestServer(t)
	it := addImage(sess, 0, 0, 100, 100)
	ctx := context.Background()

	if _, err := s.handleMoveItem(ctx, call(map[string]any{"id": it.ID, "x": 250.0, "y": 40.0})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.handleResizeItem(ctx, call(map[string]any{"id": it.ID, "width": 300.0, "height": 150.0})); err != nil {
		t.Fatal(err)
	}
	got, _ := sess.Item(it.ID)
	if got.X != 250 || got.Y != 40 || got.Width != 300 || got.Height != 150 {
		t.Errorf("unexpected frame %+v", got.Rect())
	}

	if _, err := s.handleMoveItem(ctx, call(map[string]any{"id": "missing", "x": 1.0, "y": 1.0})); err == nil {
		t.Error("expected error for unknown item")
	}
	if _, err := s.handleResizeItem(ctx, call(map[string]any{"id": it.ID, "width": 0.0, "height": 10.0})); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestResizeTextIsRejected(t *testing.T) {
	s, sess, _ := newTestServer(t)
	txt := sess.AddText(geom.Point{})
	if _, err := s.handleResizeItem(context.Background(), call(map[string]any{"id": txt.ID, "width": 10.0, "height": 10.0})); err == nil {
		t.Error("expected text resize to fail")
	}
}

func TestMoveItemsAcceptsArrayOrString(t *testing.T) {
	s, sess, _ := newTestServer(t)
	a := addImage(sess, 0, 0, 10, 10)
	b := addImage(sess, 100, 0, 10, 10)
	ctx := context.Background()

	if _, err := s.handleMoveItems(ctx, call(map[string]any{"ids": a.ID + ", " + b.ID, "dx": 5.0})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.handleMoveItems(ctx, call(map[string]any{"ids": []any{a.ID}, "dy": 7.0})); err != nil {
		t.Fatal(err)
	}
	ga, _ := sess.Item(a.ID)
	gb, _ := sess.Item(b.ID)
	if ga.X != 5 || ga.Y != 7 || gb.X != 105 || gb.Y != 0 {
		t.Errorf("unexpected positions a=(%v,%v) b=(%v,%v)", ga.X, ga.Y, gb.X, gb.Y)
	}
}

func TestArrangeItemsNoOverlaps(t *testing.T) {
	s, sess, _ := newTestServer(t)
	for i := 0; i < 4; i++ {
		addImage(sess, 0, 0, 200, 150)
	}
	if _, err := s.handleArrangeItems(context.Background(), call(nil)); err != nil {
		t.Fatal(err)
	}
	items := sess.Items()
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if items[i].Rect().Intersects(items[j].Rect()) {
				t.Errorf("items %d and %d overlap after arrange", i, j)
			}
		}
	}
}

func TestAddTextWithContentAndStyle(t *testing.T) {
	s, sess, _ := newTestServer(t)
	res, err := s.handleAddText(context.Background(), call(map[string]any{
		"x": 13.0, "y": 27.0, "content": "Hello", "fontSize": 32.0, "color": "#FF0000",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var it domain.Item
	if err := json.Unmarshal([]byte(resultText(t, res)), &it); err != nil {
		t.Fatal(err)
	}
	got, ok := sess.Item(it.ID)
	if !ok {
		t.Fatal("text item not on canvas")
	}
	if got.Content != "Hello" || got.FontSize != 32 || got.Color != "#FF0000" {
		t.Errorf("unexpected text item %+v", got)
	}
	if sess.Selection().TextID != it.ID {
		t.Error("new text should be selected")
	}
}

func TestSelectItems(t *testing.T) {
	s, sess, _ := newTestServer(t)
	a := addImage(sess, 0, 0, 10, 10)
	ctx := context.Background()

	if _, err := s.handleSelectItems(ctx, call(map[string]any{"ids": a.ID + ",ghost"})); err != nil {
		t.Fatal(err)
	}
	sel := sess.Selection()
	if sel.PrimaryID != a.ID || len(sel.SelectedIDs) != 1 {
		t.Errorf("unexpected selection %+v", sel)
	}

	if _, err := s.handleSelectItems(ctx, call(map[string]any{"ids": ""})); err != nil {
		t.Fatal(err)
	}
	if !sess.Selection().Empty() {
		t.Error("empty ids should clear the selection")
	}
}

func TestDeleteItemsWaitsForApproval(t *testing.T) {
	s, sess, rec := newTestServer(t)
	a := addImage(sess, 0, 0, 10, 10)
	b := addImage(sess, 50, 0, 10, 10)

	done := make(chan string)
	go func() {
		res, err := s.handleDeleteItems(context.Background(), call(map[string]any{"ids": a.ID}))
		if err != nil {
			done <- err.Error()
			return
		}
		done <- textOf(res)
	}()

	p := waitPending(t, s)
	if len(sess.Items()) != 2 {
		t.Fatal("item deleted before approval")
	}
	if len(p.ItemIDs) != 1 || p.ItemIDs[0] != a.ID {
		t.Errorf("pending action should name the item, got %v", p.ItemIDs)
	}
	s.Approve(p.ID)

	if msg := <-done; !strings.Contains(msg, "Deleted 1") {
		t.Errorf("unexpected result %q", msg)
	}
	if _, ok := sess.Item(a.ID); ok {
		t.Error("item still present")
	}
	if _, ok := sess.Item(b.ID); !ok {
		t.Error("unrelated item removed")
	}
	if !rec.has(EventApprovalRequired) {
		t.Error("approval-required was not emitted")
	}
}

func TestClearCanvasRejected(t *testing.T) {
	s, sess, _ := newTestServer(t)
	addImage(sess, 0, 0, 10, 10)

	done := make(chan string)
	go func() {
		res, _ := s.handleClearCanvas(context.Background(), call(nil))
		done <- textOf(res)
	}()
	s.Reject(waitPending(t, s).ID)

	if msg := <-done; msg != "Action rejected by user" {
		t.Errorf("unexpected result %q", msg)
	}
	if len(sess.Items()) != 1 {
		t.Error("canvas cleared despite rejection")
	}
}

func TestZoomToAndViewport(t *testing.T) {
	s, sess, _ := newTestServer(t)
	addImage(sess, 0, 0, 200, 200)
	ctx := context.Background()

	if _, err := s.handleZoomTo(ctx, call(map[string]any{"percent": 0.0})); err == nil {
		t.Error("expected error for zero percent")
	}
	res, err := s.handleZoomTo(ctx, call(map[string]any{"percent": 200.0}))
	if err != nil {
		t.Fatal(err)
	}
	var info viewportInfo
	if err := json.Unmarshal([]byte(resultText(t, res)), &info); err != nil {
		t.Fatal(err)
	}
	if info.ZoomLevel != 200 || info.Transform.Scale != 2 {
		t.Errorf("unexpected view %+v", info)
	}
	// content center (100,100) sits at the viewport center (500,400)
	if info.Transform.PanX != 300 || info.Transform.PanY != 200 {
		t.Errorf("unexpected pan (%v, %v)", info.Transform.PanX, info.Transform.PanY)
	}
}

func TestAutoLayoutOnEmptyCanvas(t *testing.T) {
	s, _, _ := newTestServer(t)
	res, err := s.handleAutoLayout(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), "empty") {
		t.Errorf("unexpected result %q", resultText(t, res))
	}
}
