package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/layout"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Generator is the part of the generation service the AI tools call.
type Generator interface {
	Transform(ctx context.Context, id string, action domain.TransformAction, editPrompt string) (domain.Item, error)
	Modify(ctx context.Context, req domain.ModifierRequest) (domain.Item, error)
}

// Server exposes the canvas to MCP agents: tools to inspect and rearrange
// items, drive the viewport and run image jobs.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	placer   *layout.Placer

	session *editor.Session
	gen     Generator
}

// Deps holds everything the server needs from the app layer.
// Generator may be nil, in which case the image tools are not registered.
type Deps struct {
	Session   *editor.Session
	Generator Generator
	Emitter   EventEmitter
}

// New creates and configures the MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	em := deps.Emitter
	if em == nil {
		em = discard{}
	}
	s := &Server{
		emitter:  em,
		approval: NewApprovalQueue(ctx, em),
		placer:   layout.NewPlacer(),
		session:  deps.Session,
		gen:      deps.Generator,
	}

	s.mcp = server.NewMCPServer(
		"studio-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCanvasTools()
	s.registerViewTools()
	if s.gen != nil {
		s.registerImageTools()
	}
	s.registerResources()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Handler returns a streamable HTTP handler for mounting under a router.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) bool {
	return s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) bool {
	return s.approval.Reject(actionID)
}

// Pending lists actions waiting for a decision.
func (s *Server) Pending() []PendingAction {
	return s.approval.Pending()
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// getIDs accepts either a JSON array of strings or a comma separated string.
func getIDs(args map[string]any, key string) []string {
	var ids []string
	switch v := args[key].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				ids = append(ids, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
			}
		}
	}
	return ids
}

func (s *Server) item(args map[string]any) (domain.Item, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return domain.Item{}, fmt.Errorf("id is required")
	}
	it, ok := s.session.Item(id)
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s not found", id)
	}
	return it, nil
}

func boolPtr(v bool) *bool { return &v }

type discard struct{}

func (discard) Emit(context.Context, string, any) {}
