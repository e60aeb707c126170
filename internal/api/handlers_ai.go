package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studio/internal/domain"
	"studio/internal/service"
)

// AIHandler exposes the image transforms, the modifier and the chat.
type AIHandler struct {
	gen  *service.GenerationService
	chat *service.ChatService
}

func NewAIHandler(gen *service.GenerationService, chat *service.ChatService) *AIHandler {
	return &AIHandler{gen: gen, chat: chat}
}

type transformRequest struct {
	Action domain.TransformAction `json:"action"`
	Prompt string                 `json:"prompt"`
}

// HandleTransform runs remove-bg, edit, expand or crop on an image and
// blocks until the backend answers.
func (h *AIHandler) HandleTransform(c echo.Context) error {
	if h.gen == nil {
		return NewServiceUnavailableError("image backend is not configured")
	}
	var req transformRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !req.Action.Valid() {
		return NewValidationError("action")
	}
	if req.Action == domain.ActionEdit && req.Prompt == "" {
		return NewValidationError("prompt")
	}
	it, err := h.gen.Transform(c.Request().Context(), c.Param("id"), req.Action, req.Prompt)
	if err != nil {
		return fromError("transform failed", err)
	}
	return c.JSON(http.StatusOK, it)
}

// HandleModify runs the AI modifier and returns the filled placeholder.
func (h *AIHandler) HandleModify(c echo.Context) error {
	if h.gen == nil {
		return NewServiceUnavailableError("image backend is not configured")
	}
	var req domain.ModifierRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(req.SourceIDs) == 0 {
		return NewValidationError("sourceIds")
	}
	it, err := h.gen.Modify(c.Request().Context(), req)
	if err != nil {
		return fromError("modify failed", err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *AIHandler) HandleChatHistory(c echo.Context) error {
	if h.chat == nil {
		return NewServiceUnavailableError("chat is not configured")
	}
	return c.JSON(http.StatusOK, h.chat.Messages())
}

type chatRequest struct {
	Text           string `json:"text"`
	AttachSelected bool   `json:"attachSelected"`
}

// HandleChatSend posts a user message and returns the assistant reply.
func (h *AIHandler) HandleChatSend(c echo.Context) error {
	if h.chat == nil {
		return NewServiceUnavailableError("chat is not configured")
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Text == "" {
		return NewValidationError("text")
	}
	msg, err := h.chat.Send(c.Request().Context(), req.Text, req.AttachSelected)
	if err != nil {
		return fromError("chat failed", err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *AIHandler) HandleChatClear(c echo.Context) error {
	if h.chat == nil {
		return NewServiceUnavailableError("chat is not configured")
	}
	h.chat.Clear()
	return c.NoContent(http.StatusNoContent)
}

// HandleChatPlace adds the image generated in a chat message to the canvas.
func (h *AIHandler) HandleChatPlace(c echo.Context) error {
	if h.chat == nil {
		return NewServiceUnavailableError("chat is not configured")
	}
	it, err := h.chat.PlaceImage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fromError("place image failed", err)
	}
	return c.JSON(http.StatusCreated, it)
}
