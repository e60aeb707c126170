package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studio/internal/editor"
	"studio/internal/geom"
)

// ViewHandler drives zoom, pan, panels and keyboard shortcuts.
type ViewHandler struct {
	session *editor.Session
}

func NewViewHandler(session *editor.Session) *ViewHandler {
	return &ViewHandler{session: session}
}

type viewResponse struct {
	Transform   geom.Transform `json:"transform"`
	Viewport    geom.Size      `json:"viewport"`
	GridVisible bool           `json:"gridVisible"`
	ChatOpen    bool           `json:"chatOpen"`
}

func (h *ViewHandler) view() viewResponse {
	st := h.session.Snapshot()
	return viewResponse{
		Transform:   st.Transform,
		Viewport:    st.Viewport,
		GridVisible: st.GridVisible,
		ChatOpen:    st.ChatOpen,
	}
}

func (h *ViewHandler) HandleGetView(c echo.Context) error {
	return c.JSON(http.StatusOK, h.view())
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HandleSetViewport records the size of the canvas element.
func (h *ViewHandler) HandleSetViewport(c echo.Context) error {
	var req viewportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Width <= 0 {
		return NewValidationError("width")
	}
	if req.Height <= 0 {
		return NewValidationError("height")
	}
	h.session.SetViewport(req.Width, req.Height)
	return c.JSON(http.StatusOK, h.view())
}

func (h *ViewHandler) HandleSetTransform(c echo.Context) error {
	var t geom.Transform
	if err := c.Bind(&t); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	h.session.SetTransform(t)
	return c.JSON(http.StatusOK, h.view())
}

type zoomRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
}

// HandleZoom applies a wheel zoom anchored at a screen point.
func (h *ViewHandler) HandleZoom(c echo.Context) error {
	var req zoomRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Delta <= -1 {
		return NewValidationError("delta")
	}
	h.session.ZoomAt(geom.Point{X: req.X, Y: req.Y}, req.Delta)
	return c.JSON(http.StatusOK, h.view())
}

type zoomPercentRequest struct {
	Percent float64 `json:"percent"`
}

func (h *ViewHandler) HandleZoomPercent(c echo.Context) error {
	var req zoomPercentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Percent <= 0 {
		return NewValidationError("percent")
	}
	h.session.ZoomToPercent(req.Percent)
	return c.JSON(http.StatusOK, h.view())
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (h *ViewHandler) HandlePan(c echo.Context) error {
	var req panRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	h.session.Pan(req.DX, req.DY)
	return c.JSON(http.StatusOK, h.view())
}

// HandleAutoLayout repacks every item and returns the plan.
func (h *ViewHandler) HandleAutoLayout(c echo.Context) error {
	plan, ok := h.session.AutoLayout()
	if !ok {
		return NewConflictError("canvas is empty")
	}
	return c.JSON(http.StatusOK, plan)
}

// HandleCommand runs a named command such as fit-all or zoom-in.
func (h *ViewHandler) HandleCommand(c echo.Context) error {
	name := c.Param("name")
	if !h.session.Command(name) {
		return NewNotFoundError("command", name)
	}
	return c.JSON(http.StatusOK, h.view())
}

type toggleRequest struct {
	Value bool `json:"value"`
}

func (h *ViewHandler) bindToggle(c echo.Context) (bool, error) {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return false, NewBadRequestError("invalid request body", err)
	}
	return req.Value, nil
}

func (h *ViewHandler) HandleChatOpen(c echo.Context) error {
	v, err := h.bindToggle(c)
	if err != nil {
		return err
	}
	h.session.SetChatOpen(v)
	return c.JSON(http.StatusOK, h.view())
}

func (h *ViewHandler) HandleGrid(c echo.Context) error {
	v, err := h.bindToggle(c)
	if err != nil {
		return err
	}
	h.session.SetGridVisible(v)
	return c.JSON(http.StatusOK, h.view())
}

// HandleTextFocus tells the session whether a text field has focus, which
// disables the single-key shortcuts.
func (h *ViewHandler) HandleTextFocus(c echo.Context) error {
	v, err := h.bindToggle(c)
	if err != nil {
		return err
	}
	h.session.SetTextFocus(v)
	return c.NoContent(http.StatusNoContent)
}

type keyRequest struct {
	Key string `json:"key"`
	Up  bool   `json:"up"`
	editor.KeyMods
}

type keyResponse struct {
	Handled bool `json:"handled"`
}

// HandleKey forwards a keyboard event. Handled tells the client whether
// to prevent the browser default.
func (h *ViewHandler) HandleKey(c echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Key == "" {
		return NewValidationError("key")
	}
	if req.Up {
		h.session.HandleKeyUp(req.Key)
		return c.JSON(http.StatusOK, keyResponse{})
	}
	return c.JSON(http.StatusOK, keyResponse{Handled: h.session.HandleKey(req.Key, req.KeyMods)})
}
