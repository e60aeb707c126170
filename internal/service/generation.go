package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/backend"
	"studio/internal/board"
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/storage"
)

// PlaceholderGap is the horizontal distance between a source image and
// the placeholder of its modified version.
const PlaceholderGap = 50.0

// ImageBackend is the part of backend.Client the generation service uses.
type ImageBackend interface {
	Transform(ctx context.Context, action domain.TransformAction, imageID string, img backend.Image) (domain.ImageResult, error)
	Edit(ctx context.Context, er backend.EditRequest) (domain.ImageResult, error)
	Modify(ctx context.Context, job backend.ModifierJob) (domain.ImageResult, error)
}

// JobLog records backend calls. *storage.DB implements it.
type JobLog interface {
	StartJob(j storage.Job) error
	FinishJob(id, errMsg string, d time.Duration) error
}

// GenerationService runs AI modifier and transform jobs against the canvas.
type GenerationService struct {
	session *editor.Session
	backend ImageBackend
	emitter EventEmitter
	jobs    JobLog

	inFlight itemJobs
}

func NewGenerationService(session *editor.Session, be ImageBackend, emitter EventEmitter, jobs JobLog) *GenerationService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &GenerationService{session: session, backend: be, emitter: emitter, jobs: jobs}
}

// GenEvent is the payload of gen:* and transform:* events.
type GenEvent struct {
	ItemID   string `json:"itemId"`
	SourceID string `json:"sourceId,omitempty"`
	Action   string `json:"action,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ─────────────────────────────────────────────────────────────
// AI modifier
// ─────────────────────────────────────────────────────────────

// Modify places a generating placeholder next to the primary source image,
// submits the job and fills the placeholder with the result. On failure the
// placeholder is removed. It blocks until the backend answers.
func (s *GenerationService) Modify(ctx context.Context, req domain.ModifierRequest) (domain.Item, error) {
	if len(req.SourceIDs) == 0 {
		return domain.Item{}, fmt.Errorf("modify: no source images")
	}
	primary, ok := s.session.Item(req.SourceIDs[0])
	if !ok || primary.Kind != domain.ItemImage {
		return domain.Item{}, fmt.Errorf("modify %s: %w", req.SourceIDs[0], board.ErrNotFound)
	}

	job := backend.ModifierJob{Params: req}
	for _, id := range req.SourceIDs {
		it, ok := s.session.Item(id)
		if !ok || it.Kind != domain.ItemImage {
			return domain.Item{}, fmt.Errorf("modify %s: %w", id, board.ErrNotFound)
		}
		job.Sources = append(job.Sources, backend.Image{Name: it.Name, Src: it.Src})
	}
	if req.RefID != "" {
		ref, ok := s.session.Item(req.RefID)
		if !ok || ref.Kind != domain.ItemImage {
			return domain.Item{}, fmt.Errorf("modify reference %s: %w", req.RefID, board.ErrNotFound)
		}
		job.Ref = &backend.Image{Name: ref.Name, Src: ref.Src}
	}

	release, err := s.inFlight.Claim(primary.ID, JobModifier)
	if err != nil {
		return domain.Item{}, fmt.Errorf("modify %s: %w", primary.ID, err)
	}
	defer release()

	placeholder := s.session.AddItem(Placeholder(primary, req))
	s.emitter.Emit(ctx, EventGenStarted, GenEvent{ItemID: placeholder.ID, SourceID: primary.ID})
	log.Printf("[GEN] modifier started for %s -> %s", primary.ID, placeholder.ID)

	jobID := s.startJob(JobModifier, primary.ID, req.Prompt, req.Model)
	start := time.Now()
	res, err := s.backend.Modify(ctx, job)
	s.finishJob(jobID, err, time.Since(start))

	if err != nil {
		s.session.Remove(placeholder.ID)
		log.Printf("[GEN] modifier failed for %s: %v", primary.ID, err)
		s.emitter.Emit(ctx, EventGenFailed, GenEvent{ItemID: placeholder.ID, SourceID: primary.ID, Error: err.Error()})
		return domain.Item{}, fmt.Errorf("modify %s: %w", primary.ID, err)
	}

	meta := mergeMetadata(res.Metadata, req)
	generating := false
	filled, err := s.session.Update(placeholder.ID, domain.ItemPatch{
		Src:          &res.ImageURL,
		IsGenerating: &generating,
		Metadata:     meta,
	})
	if err != nil {
		// removed by the user while the job ran
		return domain.Item{}, fmt.Errorf("fill placeholder: %w", err)
	}
	s.emitter.Emit(ctx, EventGenCompleted, GenEvent{ItemID: filled.ID, SourceID: primary.ID, ImageURL: res.ImageURL})
	return filled, nil
}

// Placeholder builds the generating item shown while a modifier job runs:
// to the right of src, sized to the requested aspect ratio.
func Placeholder(src domain.Item, req domain.ModifierRequest) domain.Item {
	w, h := src.Width, src.Height
	if r, ok := ParseRatio(req.AspectRatio); ok {
		if r > 1 {
			h = math.Round(w / r)
		} else {
			w = math.Round(h * r)
		}
	}
	return domain.Item{
		Kind:         domain.ItemImage,
		X:            src.X + src.Width + PlaceholderGap,
		Y:            src.Y,
		Width:        w,
		Height:       h,
		Name:         src.Name + "_modified",
		IsGenerating: true,
		Metadata: &domain.ImageMetadata{
			Prompt:      req.Prompt,
			Model:       req.Model,
			AspectRatio: req.AspectRatio,
			Resolution:  req.Resolution,
		},
	}
}

// ParseRatio reads "w:h" into w/h.
func ParseRatio(s string) (float64, bool) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, false
	}
	return w / h, true
}

func mergeMetadata(got *domain.ImageMetadata, req domain.ModifierRequest) *domain.ImageMetadata {
	m := domain.ImageMetadata{}
	if got != nil {
		m = *got
	}
	if m.Prompt == "" {
		m.Prompt = req.Prompt
	}
	if m.Model == "" {
		m.Model = req.Model
	}
	if m.AspectRatio == "" {
		m.AspectRatio = req.AspectRatio
	}
	if m.Resolution == "" {
		m.Resolution = req.Resolution
	}
	return &m
}

// ─────────────────────────────────────────────────────────────
// Transform actions
// ─────────────────────────────────────────────────────────────

// Transform runs an action on an image and replaces its src in place. On
// failure the image is left as it was. editPrompt is only used by edits.
func (s *GenerationService) Transform(ctx context.Context, id string, action domain.TransformAction, editPrompt string) (domain.Item, error) {
	if !action.Valid() {
		return domain.Item{}, fmt.Errorf("transform: unknown action %q", action)
	}
	it, ok := s.session.Item(id)
	if !ok || it.Kind != domain.ItemImage {
		return domain.Item{}, fmt.Errorf("transform %s: %w", id, board.ErrNotFound)
	}
	if action == domain.ActionEdit && strings.TrimSpace(editPrompt) == "" {
		return domain.Item{}, fmt.Errorf("transform %s: edit prompt is required", id)
	}

	release, err := s.inFlight.Claim(id, string(action))
	if err != nil {
		return domain.Item{}, fmt.Errorf("transform %s: %w", id, err)
	}
	defer release()

	setGenerating := func(v bool) {
		s.session.Update(id, domain.ItemPatch{IsGenerating: &v})
	}
	setGenerating(true)

	img := backend.Image{Name: it.Name, Src: it.Src}
	jobID := s.startJob(string(action), id, editPrompt, "")
	start := time.Now()

	var res domain.ImageResult
	if action == domain.ActionEdit {
		er := backend.EditRequest{Image: img, EditPrompt: editPrompt}
		if it.Metadata != nil {
			er.OriginalPrompt = it.Metadata.Prompt
			er.OriginalModel = it.Metadata.Model
		}
		res, err = s.backend.Edit(ctx, er)
	} else {
		res, err = s.backend.Transform(ctx, action, id, img)
	}
	s.finishJob(jobID, err, time.Since(start))

	if err != nil {
		setGenerating(false)
		log.Printf("[GEN] %s failed for %s: %v", action, id, err)
		s.emitter.Emit(ctx, EventTransformFailed, GenEvent{ItemID: id, Action: string(action), Error: err.Error()})
		return domain.Item{}, fmt.Errorf("transform %s: %w", id, err)
	}

	generating := false
	patch := domain.ItemPatch{Src: &res.ImageURL, IsGenerating: &generating}
	if action == domain.ActionEdit && res.Metadata != nil {
		patch.Metadata = res.Metadata
	}
	updated, err := s.session.Update(id, patch)
	if err != nil {
		return domain.Item{}, fmt.Errorf("apply transform: %w", err)
	}
	s.emitter.Emit(ctx, EventTransformDone, GenEvent{ItemID: id, Action: string(action), ImageURL: res.ImageURL})
	return updated, nil
}

// Running returns the kind of job in flight for item id: JobModifier, a
// transform action, or "" when the item is idle.
func (s *GenerationService) Running(id string) string {
	return s.inFlight.Kind(id)
}

// WaitRunning blocks until all jobs finish or ctx is cancelled.
func (s *GenerationService) WaitRunning(ctx context.Context) {
	s.inFlight.Wait(ctx)
}

func (s *GenerationService) startJob(kind, itemID, prompt, model string) string {
	id := uuid.NewString()
	if s.jobs == nil {
		return id
	}
	if err := s.jobs.StartJob(storage.Job{ID: id, Kind: kind, ItemID: itemID, Prompt: prompt, Model: model}); err != nil {
		log.Printf("[GEN] job log: %v", err)
	}
	return id
}

func (s *GenerationService) finishJob(id string, jobErr error, d time.Duration) {
	if s.jobs == nil {
		return
	}
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	if err := s.jobs.FinishJob(id, msg, d); err != nil {
		log.Printf("[GEN] job log: %v", err)
	}
}
