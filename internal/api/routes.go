package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"studio/internal/editor"
	mcpserver "studio/internal/mcp"
	"studio/internal/service"
)

// Dependencies holds everything the handlers need. Every service except
// Session may be nil; its routes then answer 503.
type Dependencies struct {
	Session    *editor.Session
	Intake     *service.IntakeService
	Generation *service.GenerationService
	Chat       *service.ChatService
	MCP        *mcpserver.Server
	Hub        *Hub
	Version    string
}

// Handlers holds all handler instances.
type Handlers struct {
	Health  *HealthHandler
	Canvas  *CanvasHandler
	View    *ViewHandler
	Pointer *PointerHandler
	AI      *AIHandler
	MCP     *MCPHandler
	Hub     *Hub
	mcpHTTP http.Handler
}

// NewHandlers creates all handler instances.
func NewHandlers(deps *Dependencies) *Handlers {
	h := &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Canvas:  NewCanvasHandler(deps.Session, deps.Intake),
		View:    NewViewHandler(deps.Session),
		Pointer: NewPointerHandler(deps.Session),
		AI:      NewAIHandler(deps.Generation, deps.Chat),
		MCP:     NewMCPHandler(deps.MCP),
		Hub:     deps.Hub,
	}
	if deps.MCP != nil {
		h.mcpHTTP = deps.MCP.Handler()
	}
	return h
}

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/health", h.Health.HandleHealth)

	api := e.Group("/api")

	// Canvas content
	api.GET("/canvas", h.Canvas.HandleGetCanvas)
	api.GET("/canvas/msgpack", h.Canvas.HandleGetCanvasMsgpack)
	api.POST("/items/upload", h.Canvas.HandleUpload)
	api.POST("/items/paste", h.Canvas.HandlePaste)
	api.POST("/items/text", h.Canvas.HandleAddText)
	api.PATCH("/items/:id", h.Canvas.HandlePatchItem)
	api.PUT("/items/:id/text", h.Canvas.HandleCommitText)
	api.PATCH("/items/:id/style", h.Canvas.HandleTextStyle)
	api.DELETE("/items/:id", h.Canvas.HandleDeleteItem)
	api.DELETE("/items", h.Canvas.HandleDeleteItems)

	// Selection
	api.GET("/selection", h.Canvas.HandleGetSelection)
	api.PUT("/selection", h.Canvas.HandleSetSelection)
	api.POST("/selection/click", h.Canvas.HandleClick)
	api.DELETE("/selection", h.Canvas.HandleClearSelection)

	// View
	view := api.Group("/view")
	view.GET("", h.View.HandleGetView)
	view.PUT("/viewport", h.View.HandleSetViewport)
	view.PUT("/transform", h.View.HandleSetTransform)
	view.POST("/zoom", h.View.HandleZoom)
	view.POST("/zoom-percent", h.View.HandleZoomPercent)
	view.POST("/pan", h.View.HandlePan)
	view.POST("/auto-layout", h.View.HandleAutoLayout)
	view.POST("/commands/:name", h.View.HandleCommand)
	view.PUT("/chat", h.View.HandleChatOpen)
	view.PUT("/grid", h.View.HandleGrid)
	view.PUT("/text-focus", h.View.HandleTextFocus)
	api.POST("/keys", h.View.HandleKey)

	// Pointer gestures
	ptr := api.Group("/pointer")
	ptr.POST("/down", h.Pointer.HandleDown)
	ptr.POST("/move", h.Pointer.HandleMove)
	ptr.POST("/up", h.Pointer.HandleUp)
	ptr.POST("/cancel", h.Pointer.HandleCancel)

	// AI
	api.POST("/items/:id/transform", h.AI.HandleTransform)
	api.POST("/modify", h.AI.HandleModify)
	api.GET("/chat", h.AI.HandleChatHistory)
	api.POST("/chat", h.AI.HandleChatSend)
	api.DELETE("/chat", h.AI.HandleChatClear)
	api.POST("/chat/:id/place", h.AI.HandleChatPlace)

	// MCP approvals and transport
	api.GET("/mcp/approvals", h.MCP.HandlePending)
	api.POST("/mcp/approvals/:id/approve", h.MCP.HandleApprove)
	api.POST("/mcp/approvals/:id/reject", h.MCP.HandleReject)
	if h.mcpHTTP != nil {
		e.Any("/mcp", echo.WrapHandler(h.mcpHTTP))
	}

	if h.Hub != nil {
		api.GET("/events", h.Hub.HandleEvents)
	}
}

// SetupMiddleware configures common middleware.
func SetupMiddleware(e *echo.Echo, bodyLimit string) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" ||
				path == "/api/pointer/move" ||
				path == "/api/events"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/events" || strings.HasPrefix(path, "/mcp")
		},
	}))
	if bodyLimit != "" {
		e.Use(middleware.BodyLimit(bodyLimit))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173", "wails://wails"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
}
