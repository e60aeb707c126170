package service

import (
	"context"
	"fmt"
	"log"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"
	"studio/internal/intake"
)

// ClipboardReader returns the image on the system clipboard.
type ClipboardReader interface {
	ReadImage() (editor.Incoming, error)
}

// IntakeService places images arriving from drops, file pickers, uploads,
// the clipboard and the hot folder.
type IntakeService struct {
	session   *editor.Session
	dec       *intake.Decoder
	clipboard ClipboardReader
	emitter   EventEmitter
}

func NewIntakeService(session *editor.Session, dec *intake.Decoder, clip ClipboardReader, emitter EventEmitter) *IntakeService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &IntakeService{session: session, dec: dec, clipboard: clip, emitter: emitter}
}

// Files decodes raw files, drops the ones that are not images and places
// the rest. drop is a screen point used by editor.PlaceAtDrop.
func (s *IntakeService) Files(ctx context.Context, files []intake.File, mode editor.PlaceMode, drop geom.Point) []domain.Item {
	return s.Place(ctx, s.dec.Filter(files), mode, drop)
}

// Place adds already decoded images.
func (s *IntakeService) Place(ctx context.Context, batch []editor.Incoming, mode editor.PlaceMode, drop geom.Point) []domain.Item {
	if len(batch) == 0 {
		return nil
	}
	items := s.session.PlaceImages(batch, mode, drop)
	log.Printf("[INTAKE] placed %d image(s) (%s)", len(items), mode)
	s.emitter.Emit(ctx, EventIntakeAdded, items)
	return items
}

// Paste places the clipboard image at the visible center.
func (s *IntakeService) Paste(ctx context.Context) (domain.Item, error) {
	if s.clipboard == nil {
		return domain.Item{}, fmt.Errorf("paste: %w", intake.ErrClipboardEmpty)
	}
	in, err := s.clipboard.ReadImage()
	if err != nil {
		return domain.Item{}, err
	}
	items := s.Place(ctx, []editor.Incoming{in}, editor.PlaceCentered, geom.Point{})
	return items[0], nil
}

// HotFolder is the intake.Handler for the watched inbox.
func (s *IntakeService) HotFolder(ctx context.Context, batch []editor.Incoming) {
	s.Place(ctx, batch, editor.PlaceGridStart, geom.Point{})
}
