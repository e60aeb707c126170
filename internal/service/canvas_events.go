package service

import (
	"context"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"
)

// ViewportPayload is sent with viewport:changed.
type ViewportPayload struct {
	Transform   geom.Transform `json:"transform"`
	Viewport    geom.Size      `json:"viewport"`
	GridVisible bool           `json:"gridVisible"`
	ChatOpen    bool           `json:"chatOpen"`
}

// GuidesPayload is sent with guides:changed.
type GuidesPayload struct {
	Guides  []domain.SnapGuide  `json:"guides"`
	Marquee *domain.MarqueeRect `json:"marquee,omitempty"`
}

// BindCanvasEvents forwards session changes to the UI as events. Each event
// carries the current value of the part that changed.
func BindCanvasEvents(ctx context.Context, s *editor.Session, em EventEmitter) {
	s.OnChange(func(ch editor.Change) {
		st := s.Snapshot()
		if ch.Has(editor.ChangeItems) {
			em.Emit(ctx, EventCanvasChanged, st.Items)
		}
		if ch.Has(editor.ChangeSelection) {
			em.Emit(ctx, EventSelectionChanged, st.Selection)
		}
		if ch.Has(editor.ChangeGuides) {
			em.Emit(ctx, EventGuidesChanged, GuidesPayload{Guides: st.Guides, Marquee: st.Marquee})
		}
		if ch.Has(editor.ChangeViewport) || ch.Has(editor.ChangeGrid) {
			em.Emit(ctx, EventViewportChanged, ViewportPayload{
				Transform:   st.Transform,
				Viewport:    st.Viewport,
				GridVisible: st.GridVisible,
				ChatOpen:    st.ChatOpen,
			})
		}
	})
}
