package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studio/internal/editor"
	"studio/internal/geom"
)

// PointerHandler turns pointer events from the client into gestures.
type PointerHandler struct {
	session *editor.Session
}

func NewPointerHandler(session *editor.Session) *PointerHandler {
	return &PointerHandler{session: session}
}

type pointerRequest struct {
	Target editor.Target `json:"target"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	editor.Modifiers
}

// pointerResponse is what the client needs to redraw during a gesture.
type pointerResponse struct {
	Active bool         `json:"active"`
	State  editor.State `json:"state"`
}

func (h *PointerHandler) respond(c echo.Context) error {
	return c.JSON(http.StatusOK, pointerResponse{
		Active: h.session.GestureActive(),
		State:  h.session.Snapshot(),
	})
}

// HandleDown starts a gesture at a screen point.
func (h *PointerHandler) HandleDown(c echo.Context) error {
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	switch req.Target.Kind {
	case editor.TargetCanvas:
	case editor.TargetItem, editor.TargetResizeHandle:
		if req.Target.ID == "" {
			return NewValidationError("target.id")
		}
	default:
		return NewValidationError("target.kind")
	}
	if err := h.session.PointerDown(req.Target, geom.Point{X: req.X, Y: req.Y}, req.Modifiers); err != nil {
		return fromError("pointer down failed", err)
	}
	return h.respond(c)
}

func (h *PointerHandler) HandleMove(c echo.Context) error {
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	h.session.PointerMove(geom.Point{X: req.X, Y: req.Y})
	return h.respond(c)
}

func (h *PointerHandler) HandleUp(c echo.Context) error {
	h.session.PointerUp()
	return h.respond(c)
}

// HandleCancel ends a gesture that lost its pointer, e.g. on blur.
func (h *PointerHandler) HandleCancel(c echo.Context) error {
	h.session.Interrupt()
	return h.respond(c)
}
