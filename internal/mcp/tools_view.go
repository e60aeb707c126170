package mcpserver

import (
	"context"
	"fmt"
	"math"

	"studio/internal/geom"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerViewTools() {
	// ── get_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_viewport",
		mcp.WithDescription("Get the view transform, the visible viewport size and the canvas rectangle currently on screen"),
	), s.handleGetViewport)

	// ── fit_all ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("fit_all",
		mcp.WithDescription("Zoom and pan so every item is visible"),
	), s.handleFitAll)

	// ── fit_selection ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("fit_selection",
		mcp.WithDescription("Zoom and pan to the primary selected item, or everything when nothing is selected"),
	), s.handleFitSelection)

	// ── zoom_to ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("zoom_to",
		mcp.WithDescription("Set the zoom level in percent (10 to 500) and center the content"),
		mcp.WithNumber("percent", mcp.Description("Zoom level, 100 is actual size"), mcp.Required()),
	), s.handleZoomTo)

	// ── reset_view ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reset_view",
		mcp.WithDescription("Reset the view to scale 1 with no pan"),
	), s.handleResetView)

	// ── auto_layout ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("auto_layout",
		mcp.WithDescription("Pack every item into rows that fit the viewport best, then fit the view to them"),
	), s.handleAutoLayout)
}

type viewportInfo struct {
	Transform geom.Transform `json:"transform"`
	Viewport  geom.Size      `json:"viewport"`
	Visible   geom.Rect      `json:"visible"`
	ZoomLevel int            `json:"zoomPercent"`
}

func (s *Server) viewport() viewportInfo {
	t := s.session.Transform()
	v := s.session.Viewport()
	return viewportInfo{
		Transform: t,
		Viewport:  v,
		Visible:   t.RectToCanvas(geom.Rect{W: v.W, H: v.H}),
		ZoomLevel: int(math.Round(t.Scale * 100)),
	}
}

func (s *Server) handleGetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.viewport())
}

func (s *Server) handleFitAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.session.FitAll()
	return jsonResult(s.viewport())
}

func (s *Server) handleFitSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.session.FitSelection()
	return jsonResult(s.viewport())
}

func (s *Server) handleZoomTo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	percent := getFloat(req.GetArguments(), "percent", 0)
	if percent <= 0 {
		return nil, fmt.Errorf("percent must be positive")
	}
	s.session.ZoomToPercent(percent)
	return jsonResult(s.viewport())
}

func (s *Server) handleResetView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.session.ResetView()
	return jsonResult(s.viewport())
}

func (s *Server) handleAutoLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, ok := s.session.AutoLayout()
	if !ok {
		return textResult("Canvas is empty, nothing to lay out"), nil
	}
	return jsonResult(plan)
}
