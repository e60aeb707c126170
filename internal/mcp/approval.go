package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction is a destructive tool call awaiting user approval.
type PendingAction struct {
	ID          string   `json:"id"`
	Tool        string   `json:"tool"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"createdAt"`
	ItemIDs     []string `json:"itemIds,omitempty"` // highlighted while the prompt is open
}

type actionResult struct {
	approved bool
}

type pendingEntry struct {
	action PendingAction
	ch     chan actionResult
}

// ApprovalQueue holds destructive MCP tool calls until the user approves or
// rejects them in the UI.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]pendingEntry
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]pendingEntry),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
	}
}

// Request announces the action and blocks until it is approved, rejected,
// timed out or the queue context ends.
func (q *ApprovalQueue) Request(tool, description string, itemIDs ...string) (bool, error) {
	action := PendingAction{
		ID:          uuid.New().String(),
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		ItemIDs:     itemIDs,
	}
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[action.ID] = pendingEntry{action: action, ch: ch}
	q.mu.Unlock()

	q.emitter.Emit(q.ctx, EventApprovalRequired, action)

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		q.cleanup(action.ID)
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-timer.C:
		q.cleanup(action.ID)
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		q.cleanup(action.ID)
		return false, fmt.Errorf("approval %s: %w", tool, q.ctx.Err())
	}
}

// Approve resolves a pending action. It reports whether the id was known.
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.resolve(actionID, true)
}

// Reject resolves a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	e, ok := q.pending[actionID]
	if ok {
		delete(q.pending, actionID)
	}
	q.mu.Unlock()
	if ok {
		e.ch <- actionResult{approved: approved}
	}
	return ok
}

// Pending returns the open actions, oldest first.
func (q *ApprovalQueue) Pending() []PendingAction {
	q.mu.Lock()
	out := make([]PendingAction, 0, len(q.pending))
	for _, e := range q.pending {
		out = append(out, e.action)
	}
	q.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
