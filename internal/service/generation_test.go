package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"studio/internal/backend"
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/service"
	"studio/internal/storage"
)

type fakeImageBackend struct {
	result  domain.ImageResult
	err     error
	gate    chan struct{}
	entered chan struct{}

	lastJob  backend.ModifierJob
	lastEdit backend.EditRequest
	actions  []domain.TransformAction
}

func (f *fakeImageBackend) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeImageBackend) Transform(_ context.Context, action domain.TransformAction, _ string, _ backend.Image) (domain.ImageResult, error) {
	f.actions = append(f.actions, action)
	f.wait()
	return f.result, f.err
}

func (f *fakeImageBackend) Edit(_ context.Context, er backend.EditRequest) (domain.ImageResult, error) {
	f.lastEdit = er
	f.wait()
	return f.result, f.err
}

func (f *fakeImageBackend) Modify(_ context.Context, job backend.ModifierJob) (domain.ImageResult, error) {
	f.lastJob = job
	f.wait()
	return f.result, f.err
}

func newSessionWithImage(t *testing.T) (*editor.Session, domain.Item) {
	t.Helper()
	s := editor.New()
	src := s.AddItem(domain.Item{Kind: domain.ItemImage, X: 100, Y: 80, Width: 400, Height: 300, Name: "shoe", Src: "data:image/png;base64,AA=="})
	return s, src
}

func TestPlaceholderSizing(t *testing.T) {
	src := domain.Item{X: 10, Y: 20, Width: 400, Height: 300, Name: "shoe"}

	cases := []struct {
		ratio string
		w, h  float64
	}{
		{"16:9", 400, 225},
		{"9:16", 169, 300},
		{"1:1", 300, 300},
		{"original", 400, 300},
	}
	for _, c := range cases {
		p := service.Placeholder(src, domain.ModifierRequest{AspectRatio: c.ratio})
		if p.Width != c.w || p.Height != c.h {
			t.Errorf("%s: got %vx%v, want %vx%v", c.ratio, p.Width, p.Height, c.w, c.h)
		}
		if p.X != 460 || p.Y != 20 {
			t.Errorf("%s: placeholder at (%v,%v), want (460,20)", c.ratio, p.X, p.Y)
		}
		if p.Name != "shoe_modified" || !p.IsGenerating {
			t.Errorf("%s: unexpected placeholder %+v", c.ratio, p)
		}
	}
}

func TestModify_FillsPlaceholder(t *testing.T) {
	sess, src := newSessionWithImage(t)
	ref := sess.AddItem(domain.Item{Kind: domain.ItemImage, Width: 10, Height: 10, Name: "mood", Src: "data:image/png;base64,AA=="})
	be := &fakeImageBackend{result: domain.ImageResult{
		ImageURL: "https://cdn/out.png",
		Metadata: &domain.ImageMetadata{PredictionID: "p-1"},
	}}
	em := &service.MockEmitter{}
	db, err := storage.New(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	svc := service.NewGenerationService(sess, be, em, db)
	got, err := svc.Modify(context.Background(), domain.ModifierRequest{
		SourceIDs: []string{src.ID}, RefID: ref.ID,
		Prompt: "on sand", Model: "flux-2", AspectRatio: "16:9", Resolution: "2k",
	})
	if err != nil {
		t.Fatalf("Modify: %v", err)
	}

	if got.Src != "https://cdn/out.png" || got.IsGenerating {
		t.Errorf("placeholder not filled: %+v", got)
	}
	if got.X != 550 || got.Y != 80 || got.Height != 225 {
		t.Errorf("placeholder frame = (%v,%v,%vx%v)", got.X, got.Y, got.Width, got.Height)
	}
	if got.Metadata == nil || got.Metadata.Prompt != "on sand" || got.Metadata.PredictionID != "p-1" {
		t.Errorf("metadata = %+v", got.Metadata)
	}
	if be.lastJob.Ref == nil || be.lastJob.Ref.Name != "mood" || len(be.lastJob.Sources) != 1 {
		t.Errorf("job = %+v", be.lastJob)
	}

	names := em.Names()
	if len(names) != 2 || names[0] != service.EventGenStarted || names[1] != service.EventGenCompleted {
		t.Errorf("events = %v", names)
	}

	jobs, err := db.ListJobs(10)
	if err != nil || len(jobs) != 1 || jobs[0].Status != storage.JobSucceeded {
		t.Errorf("job log = %+v, %v", jobs, err)
	}
}

func TestModify_FailureRemovesPlaceholder(t *testing.T) {
	sess, src := newSessionWithImage(t)
	be := &fakeImageBackend{err: errors.New("webhook timeout")}
	em := &service.MockEmitter{}
	svc := service.NewGenerationService(sess, be, em, nil)

	_, err := svc.Modify(context.Background(), domain.ModifierRequest{SourceIDs: []string{src.ID}})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(sess.Items()); n != 1 {
		t.Errorf("expected only the source to remain, got %d items", n)
	}
	if ev, ok := em.Last(service.EventGenFailed); !ok || ev.Data.(service.GenEvent).Error == "" {
		t.Errorf("missing gen:failed event: %+v", em.Events)
	}
}

func TestModify_UnknownSource(t *testing.T) {
	sess, _ := newSessionWithImage(t)
	svc := service.NewGenerationService(sess, &fakeImageBackend{}, nil, nil)
	if _, err := svc.Modify(context.Background(), domain.ModifierRequest{SourceIDs: []string{"nope"}}); err == nil {
		t.Fatal("expected error for unknown source")
	}
	if _, err := svc.Modify(context.Background(), domain.ModifierRequest{}); err == nil {
		t.Fatal("expected error without sources")
	}
}

func TestModify_OneJobPerSource(t *testing.T) {
	sess, src := newSessionWithImage(t)
	be := &fakeImageBackend{
		result:  domain.ImageResult{ImageURL: "https://cdn/x.png"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc := service.NewGenerationService(sess, be, nil, nil)
	req := domain.ModifierRequest{SourceIDs: []string{src.ID}}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Modify(context.Background(), req)
		done <- err
	}()
	<-be.entered

	if kind := svc.Running(src.ID); kind != service.JobModifier {
		t.Errorf("Running = %q, want %q", kind, service.JobModifier)
	}
	if _, err := svc.Modify(context.Background(), req); !errors.Is(err, service.ErrBusy) {
		t.Errorf("second Modify err = %v, want ErrBusy", err)
	}
	_, err := svc.Transform(context.Background(), src.ID, domain.ActionCrop, "")
	if !errors.Is(err, service.ErrBusy) || !strings.Contains(err.Error(), service.JobModifier) {
		t.Errorf("Transform during modifier err = %v, want ErrBusy naming the modifier", err)
	}

	close(be.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Modify: %v", err)
	}
	if kind := svc.Running(src.ID); kind != "" {
		t.Errorf("Running after finish = %q, want idle", kind)
	}
}

func TestTransform_ReplacesSrc(t *testing.T) {
	sess, src := newSessionWithImage(t)
	be := &fakeImageBackend{result: domain.ImageResult{ImageURL: "https://cdn/nobg.png"}}
	em := &service.MockEmitter{}
	svc := service.NewGenerationService(sess, be, em, nil)

	got, err := svc.Transform(context.Background(), src.ID, domain.ActionRemoveBackground, "")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got.Src != "https://cdn/nobg.png" || got.IsGenerating {
		t.Errorf("item = %+v", got)
	}
	if got.X != src.X || got.Width != src.Width {
		t.Error("transform must not move or resize the item")
	}
	if _, ok := em.Last(service.EventTransformDone); !ok {
		t.Error("missing transform:completed")
	}
}

func TestTransform_FailureLeavesItem(t *testing.T) {
	sess, src := newSessionWithImage(t)
	be := &fakeImageBackend{err: errors.New("502")}
	em := &service.MockEmitter{}
	svc := service.NewGenerationService(sess, be, em, nil)

	if _, err := svc.Transform(context.Background(), src.ID, domain.ActionCrop, ""); err == nil {
		t.Fatal("expected error")
	}
	got, _ := sess.Item(src.ID)
	if got.Src != src.Src || got.IsGenerating {
		t.Errorf("item changed on failure: %+v", got)
	}
	if _, ok := em.Last(service.EventTransformFailed); !ok {
		t.Error("missing transform:failed")
	}
}

func TestTransform_EditCarriesOriginalMetadata(t *testing.T) {
	sess := editor.New()
	it := sess.AddItem(domain.Item{
		Kind: domain.ItemImage, Width: 10, Height: 10, Src: "data:image/png;base64,AA==",
		Metadata: &domain.ImageMetadata{Prompt: "red shoe", Model: "flux-2"},
	})
	be := &fakeImageBackend{result: domain.ImageResult{ImageURL: "https://cdn/e.png", Metadata: &domain.ImageMetadata{Prompt: "blue shoe"}}}
	svc := service.NewGenerationService(sess, be, nil, nil)

	if _, err := svc.Transform(context.Background(), it.ID, domain.ActionEdit, ""); err == nil {
		t.Fatal("edit without prompt should fail")
	}
	got, err := svc.Transform(context.Background(), it.ID, domain.ActionEdit, "make it blue")
	if err != nil {
		t.Fatal(err)
	}
	if be.lastEdit.OriginalPrompt != "red shoe" || be.lastEdit.OriginalModel != "flux-2" || be.lastEdit.EditPrompt != "make it blue" {
		t.Errorf("edit request = %+v", be.lastEdit)
	}
	if got.Metadata == nil || got.Metadata.Prompt != "blue shoe" {
		t.Errorf("metadata = %+v", got.Metadata)
	}
}
