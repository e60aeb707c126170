package mcpserver

import (
	"context"
	"fmt"

	"studio/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerImageTools() {
	// ── transform_image ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("transform_image",
		mcp.WithDescription("Run an AI transform on an image item and replace its source in place"),
		mcp.WithString("id", mcp.Description("Image item ID"), mcp.Required()),
		mcp.WithString("action",
			mcp.Description("Transform to apply"),
			mcp.Enum(string(domain.ActionRemoveBackground), string(domain.ActionEdit), string(domain.ActionExpand), string(domain.ActionCrop)),
			mcp.Required(),
		),
		mcp.WithString("prompt", mcp.Description("Edit instructions, required for the edit action")),
	), s.handleTransformImage)

	// ── modify_images ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("modify_images",
		mcp.WithDescription("Generate a new image from one or more source items. The result is placed to the right of the first source."),
		mcp.WithString("sourceIds", mcp.Description("Comma-separated source item IDs"), mcp.Required()),
		mcp.WithString("refId", mcp.Description("Optional reference image item ID")),
		mcp.WithString("prompt", mcp.Description("What to change"), mcp.Required()),
		mcp.WithString("model", mcp.Description("Backend model name")),
		mcp.WithString("perspective", mcp.Description("Camera perspective")),
		mcp.WithString("aspectRatio", mcp.Description("Output ratio, e.g. 1:1 or 16:9")),
		mcp.WithString("style", mcp.Description("Styling mode")),
		mcp.WithString("resolution", mcp.Description("Output resolution, e.g. 1K or 2K")),
	), s.handleModifyImages)
}

func (s *Server) handleTransformImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.item(args)
	if err != nil {
		return nil, err
	}
	action := domain.TransformAction(req.GetString("action", ""))
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	out, err := s.gen.Transform(ctx, it.ID, action, req.GetString("prompt", ""))
	if err != nil {
		return nil, fmt.Errorf("transform image: %w", err)
	}
	return jsonResult(summarize(out))
}

func (s *Server) handleModifyImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	mr := domain.ModifierRequest{
		SourceIDs:   getIDs(args, "sourceIds"),
		RefID:       req.GetString("refId", ""),
		Prompt:      req.GetString("prompt", ""),
		Model:       req.GetString("model", ""),
		Perspective: req.GetString("perspective", ""),
		AspectRatio: req.GetString("aspectRatio", ""),
		Style:       req.GetString("style", ""),
		Resolution:  req.GetString("resolution", ""),
	}
	if len(mr.SourceIDs) == 0 {
		return nil, fmt.Errorf("sourceIds is required")
	}
	out, err := s.gen.Modify(ctx, mr)
	if err != nil {
		return nil, fmt.Errorf("modify images: %w", err)
	}
	return jsonResult(summarize(out))
}
