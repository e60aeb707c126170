package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	canvasURI       = "studio://canvas"
	itemURIPrefix   = "studio://item/"
	itemURITemplate = "studio://item/{id}"
)

func (s *Server) registerResources() {
	// ── studio://canvas ────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		canvasURI,
		"Canvas",
		mcp.WithResourceDescription("Items, selection and view of the open canvas"),
		mcp.WithMIMEType("application/json"),
	), s.handleCanvasResource)

	// ── studio://item/{id} ─────────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(itemURITemplate, "Canvas Item"),
		s.handleItemResource,
	)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_canvas",
		mcp.WithPromptDescription("Tidy up the canvas: inspect the items, group related ones and lay them out"),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the arrangement is for, e.g. a moodboard or a comparison"),
		),
	), s.handleTidyPrompt)
}

type canvasSnapshot struct {
	Items     []itemSummary `json:"items"`
	Selection any           `json:"selection"`
	View      viewportInfo  `json:"view"`
}

func (s *Server) handleCanvasResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items := s.session.Items()
	snap := canvasSnapshot{
		Items:     make([]itemSummary, 0, len(items)),
		Selection: s.session.Selection(),
		View:      s.viewport(),
	}
	for _, it := range items {
		snap.Items = append(snap.Items, summarize(it))
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal canvas: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: canvasURI, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func (s *Server) handleItemResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, itemURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid item uri %q", uri)
	}
	it, ok := s.session.Item(id)
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	data, err := json.MarshalIndent(summarize(it), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func (s *Server) handleTidyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	goal := req.Params.Arguments["goal"]
	if goal == "" {
		goal = "a clean overview"
	}
	text := fmt.Sprintf(`Tidy the canvas for %s.

1. Read studio://canvas (or call list_items) to see every item and its frame.
2. Group items that belong together; use select_items to check a group with fit_selection.
3. Use arrange_items for each group, or auto_layout to pack everything at once.
4. Finish with fit_all so the whole result is visible.

Do not delete anything unless asked; delete_items needs the user's approval.`, goal)

	return &mcp.GetPromptResult{
		Description: "Tidy canvas",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.TextContent{Type: "text", Text: text}},
		},
	}, nil
}
