package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mcpserver "studio/internal/mcp"
)

// MCPHandler lets the UI answer approval prompts of destructive MCP tools.
type MCPHandler struct {
	server *mcpserver.Server
}

func NewMCPHandler(server *mcpserver.Server) *MCPHandler {
	return &MCPHandler{server: server}
}

func (h *MCPHandler) HandlePending(c echo.Context) error {
	if h.server == nil {
		return c.JSON(http.StatusOK, []mcpserver.PendingAction{})
	}
	return c.JSON(http.StatusOK, h.server.Pending())
}

func (h *MCPHandler) HandleApprove(c echo.Context) error {
	return h.resolve(c, true)
}

func (h *MCPHandler) HandleReject(c echo.Context) error {
	return h.resolve(c, false)
}

func (h *MCPHandler) resolve(c echo.Context, approve bool) error {
	id := c.Param("id")
	if h.server == nil {
		return NewNotFoundError("approval", id)
	}
	var ok bool
	if approve {
		ok = h.server.Approve(id)
	} else {
		ok = h.server.Reject(id)
	}
	if !ok {
		return NewNotFoundError("approval", id)
	}
	return c.NoContent(http.StatusNoContent)
}
