package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/intake"
	"studio/internal/service"
)

type testAPI struct {
	e    *echo.Echo
	sess *editor.Session
	hub  *Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	sess := editor.New()
	sess.SetViewport(1000, 800)
	hub := NewHub()
	in := service.NewIntakeService(sess, intake.NewDecoder(0), nil, hub)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Session: sess,
		Intake:  in,
		Hub:     hub,
		Version: "test",
	}))
	return &testAPI{e: e, sess: sess, hub: hub}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestUploadPlacesImages(t *testing.T) {
	a := newTestAPI(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("files", "photo.png")
	part.Write(pngBytes(t, 200, 100))
	part, _ = writer.CreateFormFile("files", "notes.txt")
	part.Write([]byte("not an image"))
	writer.WriteField("mode", "centered")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/items/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var items []domain.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "photo", items[0].Name)
	assert.Equal(t, 200.0, items[0].Width)
	assert.Len(t, a.sess.Items(), 1)
}

func TestUploadRejectsBadMode(t *testing.T) {
	a := newTestAPI(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("files", "photo.png")
	part.Write(pngBytes(t, 10, 10))
	writer.WriteField("mode", "sideways")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/items/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, a.sess.Items())
}

func TestPasteWithoutClipboard(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPost, "/api/items/paste", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPatchAndDeleteItem(t *testing.T) {
	a := newTestAPI(t)
	it := a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 100, Height: 100})

	rec := a.do(http.MethodPatch, "/api/items/"+it.ID, map[string]any{"x": 40, "width": 250})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := a.sess.Item(it.ID)
	assert.Equal(t, 40.0, got.X)
	assert.Equal(t, 250.0, got.Width)

	rec = a.do(http.MethodPatch, "/api/items/"+it.ID, map[string]any{"height": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodDelete, "/api/items/"+it.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodDelete, "/api/items/"+it.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestPatchUnknownItem(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPatch, "/api/items/nope", map[string]any{"x": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTextLifecycle(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/items/text", map[string]any{"x": 13, "y": 27})
	require.Equal(t, http.StatusCreated, rec.Code)
	var it domain.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it))
	assert.Equal(t, domain.ItemText, it.Kind)

	rec = a.do(http.MethodPatch, "/api/items/"+it.ID+"/style", map[string]any{"color": "#000000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPut, "/api/items/"+it.ID+"/text", map[string]any{"content": "Title"})
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := a.sess.Item(it.ID)
	assert.Equal(t, "Title", got.Content)
	assert.Equal(t, "#000000", got.Color)

	rec = a.do(http.MethodPut, "/api/items/"+it.ID+"/text", map[string]any{"content": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":true`)
	assert.Empty(t, a.sess.Items())
}

func TestSelectionRoutes(t *testing.T) {
	a := newTestAPI(t)
	x := a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 10, Height: 10})
	y := a.sess.AddItem(domain.Item{Kind: domain.ItemImage, X: 50, Width: 10, Height: 10})

	rec := a.do(http.MethodPut, "/api/selection", map[string]any{"ids": []string{x.ID, y.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, a.sess.Selection().SelectedIDs, 2)

	rec = a.do(http.MethodPost, "/api/selection/click", map[string]any{"id": y.ID, "shift": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{x.ID}, a.sess.Selection().SelectedIDs)

	rec = a.do(http.MethodDelete, "/api/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())
	assert.Len(t, a.sess.Items(), 1)

	rec = a.do(http.MethodDelete, "/api/items?all=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, a.sess.Items())
}

func TestViewRoutes(t *testing.T) {
	a := newTestAPI(t)
	a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 200, Height: 200})

	rec := a.do(http.MethodPost, "/api/view/zoom-percent", map[string]any{"percent": 200})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, a.sess.Transform().Scale)

	rec = a.do(http.MethodPost, "/api/view/commands/zoom-reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, a.sess.Transform().Scale)

	rec = a.do(http.MethodPost, "/api/view/commands/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPut, "/api/view/viewport", map[string]any{"width": 0, "height": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/api/view/chat", map[string]any{"value": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chatOpen":true`)
	assert.Equal(t, 1000.0-editor.ChatPanelWidth, a.sess.Viewport().W)

	rec = a.do(http.MethodPost, "/api/view/pan", map[string]any{"dx": 30, "dy": -10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30.0, a.sess.Transform().PanX)
	assert.Equal(t, -10.0, a.sess.Transform().PanY)
}

func TestAutoLayoutEmptyCanvasConflicts(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPost, "/api/view/auto-layout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestKeys(t *testing.T) {
	a := newTestAPI(t)
	it := a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 10, Height: 10})
	a.sess.SelectMany([]string{it.ID})

	rec := a.do(http.MethodPost, "/api/keys", map[string]any{"key": "Escape"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"handled":true}`, rec.Body.String())
	assert.True(t, a.sess.Selection().Empty())

	rec = a.do(http.MethodPost, "/api/keys", map[string]any{"key": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointerDragMovesItem(t *testing.T) {
	a := newTestAPI(t)
	it := a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 100, Height: 100})

	rec := a.do(http.MethodPost, "/api/pointer/down", map[string]any{
		"target": map[string]any{"kind": "item", "id": it.ID}, "x": 50, "y": 50,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"active":true`)

	rec = a.do(http.MethodPost, "/api/pointer/move", map[string]any{"x": 146, "y": 50})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/pointer/up", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":false`)

	got, _ := a.sess.Item(it.ID)
	assert.Equal(t, 96.0, got.X)
	assert.Equal(t, 0.0, got.Y)
	assert.Equal(t, it.ID, a.sess.Selection().PrimaryID)
}

func TestPointerDownValidatesTarget(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/pointer/down", map[string]any{"target": map[string]any{"kind": "wall"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/api/pointer/down", map[string]any{"target": map[string]any{"kind": "item", "id": "ghost"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, a.sess.GestureActive())
}

func TestAIRoutesWithoutBackend(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPost, "/api/modify", map[string]any{"sourceIds": []string{"a"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = a.do(http.MethodPost, "/api/chat", map[string]any{"text": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApprovalsWithoutMCP(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodGet, "/api/mcp/approvals", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/mcp/approvals/x/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCanvasMsgpack(t *testing.T) {
	a := newTestAPI(t)
	a.sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 10, Height: 10, Name: "a"})

	rec := a.do(http.MethodGet, "/api/canvas/msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	items, ok := got["items"].([]any)
	require.True(t, ok, "items key missing: %v", got)
	assert.Len(t, items, 1)
}

func TestHubBroadcasts(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	a.hub.Emit(context.Background(), "canvas:changed", []string{"x"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string   `json:"event"`
		Data  []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "canvas:changed", env.Event)
	assert.Equal(t, []string{"x"}, env.Data)
}
