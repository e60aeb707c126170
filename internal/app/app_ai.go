package app

import (
	"studio/internal/domain"
	mcpserver "studio/internal/mcp"
)

// ============================================================
// AI transforms and modifier
// ============================================================

// TransformImage runs remove-bg, edit, expand or crop on an image item.
// It blocks until the backend answers; progress arrives as events.
func (a *App) TransformImage(id, action, editPrompt string) (domain.Item, error) {
	return a.rt.Generation.Transform(a.ctx, id, domain.TransformAction(action), editPrompt)
}

// ModifyImages runs the AI modifier. The placeholder shows up right away
// through canvas:changed.
func (a *App) ModifyImages(req domain.ModifierRequest) (domain.Item, error) {
	return a.rt.Generation.Modify(a.ctx, req)
}

// ============================================================
// Chat
// ============================================================

func (a *App) ChatHistory() []domain.Message {
	return a.rt.Chat.Messages()
}

func (a *App) SendChat(text string, attachSelected bool) (domain.Message, error) {
	return a.rt.Chat.Send(a.ctx, text, attachSelected)
}

func (a *App) ClearChat() {
	a.rt.Chat.Clear()
}

func (a *App) PlaceChatImage(messageID string) (domain.Item, error) {
	return a.rt.Chat.PlaceImage(a.ctx, messageID)
}

// ============================================================
// MCP approvals
// ============================================================

func (a *App) PendingActions() []mcpserver.PendingAction {
	return a.rt.MCP.Pending()
}

func (a *App) ApproveAction(id string) bool {
	return a.rt.MCP.Approve(id)
}

func (a *App) RejectAction(id string) bool {
	return a.rt.MCP.Reject(id)
}
