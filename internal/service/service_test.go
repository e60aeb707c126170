package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studio/internal/service"
)

// ─────────────────────────────────────────────────────────────
// itemJobs tests
// ─────────────────────────────────────────────────────────────

func TestItemJobs_Claim(t *testing.T) {
	var j service.ExportedItemJobs

	release1, err := j.Claim("item-1", "remove-bg")
	if err != nil {
		t.Fatalf("first Claim: %v", err)
	}
	if _, err := j.Claim("item-1", service.JobModifier); !errors.Is(err, service.ErrBusy) {
		t.Fatalf("second Claim err = %v, want ErrBusy", err)
	} else if !strings.HasPrefix(err.Error(), "remove-bg:") {
		t.Errorf("busy error %q should name the running job", err)
	}
	if got := j.Kind("item-1"); got != "remove-bg" {
		t.Errorf("Kind = %q, want remove-bg", got)
	}
	release2, err := j.Claim("item-2", service.JobModifier)
	if err != nil {
		t.Fatalf("Claim for different item: %v", err)
	}

	release1()
	release1()
	release2()

	if got := j.Kind("item-1"); got != "" {
		t.Errorf("Kind after release = %q, want idle", got)
	}
	release, err := j.Claim("item-1", "crop")
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	release()
}

func TestItemJobs_Wait(t *testing.T) {
	var j service.ExportedItemJobs

	release, err := j.Claim("item-a", "expand")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		j.Wait(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
	if j.Kind("item-a") != "" {
		t.Error("expected item-a to be idle after Wait")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
	if last, ok := m.Last("test:event2"); !ok || last.Data != nil {
		t.Errorf("Last = %+v, %v", last, ok)
	}
	if _, ok := m.Last("missing"); ok {
		t.Error("Last should not find unknown events")
	}
}
