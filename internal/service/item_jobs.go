package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when a backend job already runs for the same item.
var ErrBusy = errors.New("a job is already running for this item")

// JobModifier is the job kind recorded for AI modifier runs. Transforms use
// their action name.
const JobModifier = "modifier"

// ExportedItemJobs is an exported alias so _test packages can reach the registry.
type ExportedItemJobs = itemJobs

// ─────────────────────────────────────────────────────────────
// itemJobs: one backend job per image
// ─────────────────────────────────────────────────────────────

// itemJobs records which image has a backend job in flight and of what
// kind. An image is claimed by the modifier through its primary source and
// by a transform through its target. Shutdown waits on the WaitGroup.
type itemJobs struct {
	mu   sync.Mutex
	jobs map[string]string
	wg   sync.WaitGroup
}

// Claim marks itemID as busy with a job of kind and returns the func that
// frees it. A second claim fails with ErrBusy naming the job that holds it.
func (j *itemJobs) Claim(itemID, kind string) (func(), error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.jobs == nil {
		j.jobs = make(map[string]string)
	}
	if held, ok := j.jobs[itemID]; ok {
		return nil, fmt.Errorf("%s: %w", held, ErrBusy)
	}
	j.jobs[itemID] = kind
	j.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			j.mu.Lock()
			delete(j.jobs, itemID)
			j.mu.Unlock()
			j.wg.Done()
		})
	}, nil
}

// Kind returns the job running on itemID, or "" when it is idle.
func (j *itemJobs) Kind(itemID string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jobs[itemID]
}

// Wait blocks until every claimed job is released or ctx is cancelled.
func (j *itemJobs) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
