package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"

	"github.com/mark3labs/mcp-go/mcp"
)

// srcPreviewLen caps how much of an image source (usually a data URL) is
// echoed back to agents.
const srcPreviewLen = 64

func (s *Server) registerCanvasTools() {
	// ── list_items ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List all items on the canvas, oldest first, with their canvas-space frames"),
	), s.handleListItems)

	// ── get_item ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Get one canvas item by id"),
		mcp.WithString("id", mcp.Description("Item ID"), mcp.Required()),
	), s.handleGetItem)

	// ── get_selection ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_selection",
		mcp.WithDescription("Get the current selection (selected image ids, primary id, selected text id)"),
	), s.handleGetSelection)

	// ── select_items ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_items",
		mcp.WithDescription("Replace the selection with the given items. An empty list clears it."),
		mcp.WithString("ids", mcp.Description("Comma-separated item IDs")),
	), s.handleSelectItems)

	// ── move_item ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move an item so its top-left corner is at (x, y) in canvas units"),
		mcp.WithString("id", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New left edge"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New top edge"), mcp.Required()),
	), s.handleMoveItem)

	// ── move_items ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_items",
		mcp.WithDescription("Translate several items by (dx, dy) canvas units"),
		mcp.WithString("ids", mcp.Description("Comma-separated item IDs"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset")),
		mcp.WithNumber("dy", mcp.Description("Vertical offset")),
	), s.handleMoveItems)

	// ── resize_item ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_item",
		mcp.WithDescription("Resize an image item, keeping its top-left corner. Text items size to their content."),
		mcp.WithString("id", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeItem)

	// ── arrange_items ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_items",
		mcp.WithDescription("Lay items out in wrapping rows starting at (x, y). Defaults to every item."),
		mcp.WithString("ids", mcp.Description("Comma-separated item IDs (optional)")),
		mcp.WithNumber("x", mcp.Description("Left edge of the first row")),
		mcp.WithNumber("y", mcp.Description("Top edge of the first row")),
	), s.handleArrangeItems)

	// ── add_text ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_text",
		mcp.WithDescription("Add a text item at a canvas point (snapped to the grid)"),
		mcp.WithNumber("x", mcp.Description("Canvas x"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Canvas y"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Text content")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in canvas units")),
		mcp.WithString("color", mcp.Description("CSS color, e.g. #FFFFFF")),
	), s.handleAddText)

	// ── delete_items ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_items",
		mcp.WithDescription("Delete items from the canvas. Requires user approval."),
		mcp.WithString("ids", mcp.Description("Comma-separated item IDs"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteItems)

	// ── clear_canvas ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("Remove every item from the canvas. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCanvas)
}

// itemSummary is an Item with the image source shortened.
type itemSummary struct {
	domain.Item
	Src string `json:"src,omitempty"`
}

func summarize(it domain.Item) itemSummary {
	src := it.Src
	if len(src) > srcPreviewLen {
		src = src[:srcPreviewLen] + "…"
	}
	return itemSummary{Item: it, Src: src}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.session.Items()
	out := make([]itemSummary, 0, len(items))
	for _, it := range items {
		out = append(out, summarize(it))
	}
	return jsonResult(out)
}

func (s *Server) handleGetItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	it, err := s.item(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(summarize(it))
}

func (s *Server) handleGetSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.Selection())
}

func (s *Server) handleSelectItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := getIDs(req.GetArguments(), "ids")
	if len(ids) == 0 {
		s.session.ClearSelection()
		return textResult("Selection cleared"), nil
	}
	return jsonResult(s.session.SelectMany(ids))
}

func (s *Server) handleMoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.item(args)
	if err != nil {
		return nil, err
	}
	x := getFloat(args, "x", it.X)
	y := getFloat(args, "y", it.Y)
	if _, err := s.session.Update(it.ID, domain.MoveTo(x, y)); err != nil {
		return nil, fmt.Errorf("move item: %w", err)
	}
	return textResult(fmt.Sprintf("Item %s moved to (%.0f, %.0f)", it.ID, x, y)), nil
}

func (s *Server) handleMoveItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ids := getIDs(args, "ids")
	if len(ids) == 0 {
		return nil, fmt.Errorf("ids is required")
	}
	dx := getFloat(args, "dx", 0)
	dy := getFloat(args, "dy", 0)

	for _, id := range ids {
		it, ok := s.session.Item(id)
		if !ok {
			return nil, fmt.Errorf("item %s not found", id)
		}
		if _, err := s.session.Update(id, domain.MoveTo(it.X+dx, it.Y+dy)); err != nil {
			return nil, fmt.Errorf("move item %s: %w", id, err)
		}
	}
	return textResult(fmt.Sprintf("Moved %d items by (%.0f, %.0f)", len(ids), dx, dy)), nil
}

func (s *Server) handleResizeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.item(args)
	if err != nil {
		return nil, err
	}
	if it.Kind == domain.ItemText {
		return nil, fmt.Errorf("item %s is text and cannot be resized", it.ID)
	}
	w := getFloat(args, "width", it.Width)
	h := getFloat(args, "height", it.Height)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("width and height must be positive")
	}
	if _, err := s.session.Update(it.ID, domain.ResizeTo(w, h)); err != nil {
		return nil, fmt.Errorf("resize item: %w", err)
	}
	return textResult(fmt.Sprintf("Item %s resized to (%.0f × %.0f)", it.ID, w, h)), nil
}

func (s *Server) handleArrangeItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	items := s.session.Items()
	if ids := getIDs(args, "ids"); len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		var picked []domain.Item
		for _, it := range items {
			if want[it.ID] {
				picked = append(picked, it)
			}
		}
		items = picked
	}
	if len(items) == 0 {
		return textResult("Nothing to arrange"), nil
	}

	start := geom.Point{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0)}
	positions := s.placer.ArrangeRow(items, start)
	for id, p := range positions {
		if _, err := s.session.Update(id, domain.MoveTo(p.X, p.Y)); err != nil {
			return nil, fmt.Errorf("arrange item %s: %w", id, err)
		}
	}
	return jsonResult(positions)
}

func (s *Server) handleAddText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it := s.session.AddText(geom.Point{X: getFloat(args, "x", 0), Y: getFloat(args, "y", 0)})

	if content, _ := args["content"].(string); strings.TrimSpace(content) != "" {
		updated, _, err := s.session.CommitText(it.ID, content)
		if err != nil {
			return nil, fmt.Errorf("set text: %w", err)
		}
		it = updated
	}

	fontSize := getFloat(args, "fontSize", 0)
	color, _ := args["color"].(string)
	if fontSize > 0 || color != "" {
		var style editor.TextStyle
		if fontSize > 0 {
			style.FontSize = &fontSize
		}
		if color != "" {
			style.Color = &color
		}
		updated, err := s.session.UpdateTextStyle(it.ID, style)
		if err != nil {
			return nil, fmt.Errorf("style text: %w", err)
		}
		it = updated
	}
	return jsonResult(it)
}

func (s *Server) handleDeleteItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := getIDs(req.GetArguments(), "ids")
	if len(ids) == 0 {
		return nil, fmt.Errorf("ids is required")
	}
	for _, id := range ids {
		if _, ok := s.session.Item(id); !ok {
			return nil, fmt.Errorf("item %s not found", id)
		}
	}

	approved, err := s.approval.Request("delete_items",
		fmt.Sprintf("Delete %d item(s) from the canvas", len(ids)), ids...)
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	removed := s.session.Remove(ids...)
	return textResult(fmt.Sprintf("Deleted %d item(s)", len(removed))), nil
}

func (s *Server) handleClearCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.session.Items()
	if len(items) == 0 {
		return textResult("Canvas is already empty"), nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	approved, err := s.approval.Request("clear_canvas",
		fmt.Sprintf("Remove all %d items from the canvas", len(items)), ids...)
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	n := s.session.Clear()
	return textResult(fmt.Sprintf("Cleared %d item(s)", n)), nil
}
