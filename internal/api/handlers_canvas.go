package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"
	"studio/internal/intake"
	"studio/internal/service"
)

// maxUploadFiles bounds one upload request.
const maxUploadFiles = 50

// CanvasHandler serves items and the selection.
type CanvasHandler struct {
	session *editor.Session
	intake  *service.IntakeService
}

func NewCanvasHandler(session *editor.Session, in *service.IntakeService) *CanvasHandler {
	return &CanvasHandler{session: session, intake: in}
}

// HandleGetCanvas returns the full session state.
func (h *CanvasHandler) HandleGetCanvas(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// HandleGetCanvasMsgpack returns the session state msgpack-encoded, keyed
// like the JSON variant.
func (h *CanvasHandler) HandleGetCanvasMsgpack(c echo.Context) error {
	data, err := encodeMsgpack(h.session.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleUpload places uploaded image files. Form fields: files (repeated),
// mode (drop, centered, grid-start, free-slot) and x/y for the drop point
// in screen space.
func (h *CanvasHandler) HandleUpload(c echo.Context) error {
	if h.intake == nil {
		return NewServiceUnavailableError("image intake is not available")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return NewValidationError("files")
	}
	if len(headers) > maxUploadFiles {
		return NewBadRequestError(fmt.Sprintf("at most %d files per upload", maxUploadFiles), nil)
	}

	mode := editor.PlaceCentered
	if m := c.FormValue("mode"); m != "" {
		if mode, err = editor.ParsePlaceMode(m); err != nil {
			return NewBadRequestError("invalid mode", err)
		}
	}
	drop, err := formPoint(c)
	if err != nil {
		return err
	}

	files := make([]intake.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return NewBadRequestError("failed to open upload", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return NewBadRequestError("failed to read upload", err)
		}
		files = append(files, intake.File{Name: fh.Filename, Data: data})
	}

	placed := h.intake.Files(c.Request().Context(), files, mode, drop)
	if len(placed) == 0 {
		return NewBadRequestError("no images in upload", intake.ErrNotImage)
	}
	return c.JSON(http.StatusCreated, placed)
}

func formPoint(c echo.Context) (geom.Point, error) {
	var p geom.Point
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"x", &p.X}, {"y", &p.Y}} {
		v := c.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, NewValidationError(f.name)
		}
		*f.dst = n
	}
	return p, nil
}

// HandlePaste places the clipboard image at the visible center.
func (h *CanvasHandler) HandlePaste(c echo.Context) error {
	if h.intake == nil {
		return NewServiceUnavailableError("image intake is not available")
	}
	it, err := h.intake.Paste(c.Request().Context())
	if err != nil {
		return fromError("paste failed", err)
	}
	return c.JSON(http.StatusCreated, it)
}

type addTextRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Screen bool    `json:"screen"` // x/y are screen coordinates
}

func (h *CanvasHandler) HandleAddText(c echo.Context) error {
	var req addTextRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	p := geom.Point{X: req.X, Y: req.Y}
	if req.Screen {
		return c.JSON(http.StatusCreated, h.session.AddTextAtScreen(p))
	}
	return c.JSON(http.StatusCreated, h.session.AddText(p))
}

func (h *CanvasHandler) HandlePatchItem(c echo.Context) error {
	id := c.Param("id")
	var patch domain.ItemPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if (patch.Width != nil && *patch.Width <= 0) || (patch.Height != nil && *patch.Height <= 0) {
		return NewBadRequestError("width and height must be positive", nil)
	}
	it, err := h.session.Update(id, patch)
	if err != nil {
		return fromError("update failed", err)
	}
	return c.JSON(http.StatusOK, it)
}

type commitTextRequest struct {
	Content string `json:"content"`
}

type commitTextResponse struct {
	Item    *domain.Item `json:"item,omitempty"`
	Removed bool         `json:"removed"`
}

// HandleCommitText stores edited text. Empty content deletes the item.
func (h *CanvasHandler) HandleCommitText(c echo.Context) error {
	var req commitTextRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	it, removed, err := h.session.CommitText(c.Param("id"), req.Content)
	if err != nil {
		return fromError("commit text failed", err)
	}
	if removed {
		return c.JSON(http.StatusOK, commitTextResponse{Removed: true})
	}
	return c.JSON(http.StatusOK, commitTextResponse{Item: &it})
}

func (h *CanvasHandler) HandleTextStyle(c echo.Context) error {
	var style editor.TextStyle
	if err := c.Bind(&style); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if style.FontSize != nil && *style.FontSize <= 0 {
		return NewValidationError("fontSize")
	}
	it, err := h.session.UpdateTextStyle(c.Param("id"), style)
	if err != nil {
		return fromError("update style failed", err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *CanvasHandler) HandleDeleteItem(c echo.Context) error {
	id := c.Param("id")
	if len(h.session.Remove(id)) == 0 {
		return NewNotFoundError("item", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDeleteItems deletes the selection, or everything with ?all=true.
func (h *CanvasHandler) HandleDeleteItems(c echo.Context) error {
	if c.QueryParam("all") == "true" {
		return c.JSON(http.StatusOK, map[string]int{"removed": h.session.Clear()})
	}
	removed := h.session.DeleteSelection()
	return c.JSON(http.StatusOK, map[string]int{"removed": len(removed)})
}

func (h *CanvasHandler) HandleGetSelection(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Selection())
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

func (h *CanvasHandler) HandleSetSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	return c.JSON(http.StatusOK, h.session.SelectMany(req.IDs))
}

type clickRequest struct {
	ID    string `json:"id"`
	Shift bool   `json:"shift"`
}

// HandleClick applies a click on an item without a drag.
func (h *CanvasHandler) HandleClick(c echo.Context) error {
	var req clickRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if _, ok := h.session.Item(req.ID); !ok {
		return NewNotFoundError("item", req.ID)
	}
	h.session.Click(req.ID, req.Shift)
	return c.JSON(http.StatusOK, h.session.Selection())
}

func (h *CanvasHandler) HandleClearSelection(c echo.Context) error {
	h.session.ClearSelection()
	return c.NoContent(http.StatusNoContent)
}

func encodeMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
