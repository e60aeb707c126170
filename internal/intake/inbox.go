package intake

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"studio/internal/editor"
)

const settleDelay = 500 * time.Millisecond

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Handler receives images found in the inbox.
type Handler func(ctx context.Context, batch []editor.Incoming)

// Inbox watches a folder for new image files. fsnotify delivers files as
// they appear; a cron sweep picks up anything the watcher missed, such as
// files copied in while the app was closed.
type Inbox struct {
	dir    string
	sweep  string
	dec    *Decoder
	handle Handler

	mu     sync.Mutex
	seen   map[string]time.Time
	timers map[string]*time.Timer

	watcher *fsnotify.Watcher
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func NewInbox(dir, sweepSpec string, dec *Decoder, handle Handler) *Inbox {
	return &Inbox{
		dir:    dir,
		sweep:  sweepSpec,
		dec:    dec,
		handle: handle,
		seen:   make(map[string]time.Time),
		timers: make(map[string]*time.Timer),
	}
}

// Start sweeps once, then watches the folder until Stop or ctx is done.
func (in *Inbox) Start(ctx context.Context) error {
	if err := os.MkdirAll(in.dir, 0755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(in.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch inbox %q: %w", in.dir, err)
	}
	in.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	in.cancel = cancel

	if in.sweep != "" {
		c := cron.New()
		if _, err := c.AddFunc(in.sweep, func() { in.Sweep(watchCtx) }); err != nil {
			log.Printf("[INTAKE] invalid sweep schedule %q: %v", in.sweep, err)
		} else {
			c.Start()
			in.cron = c
		}
	}

	in.Sweep(watchCtx)
	go in.loop(watchCtx)

	log.Printf("[INTAKE] watching %s", in.dir)
	return nil
}

// Stop tears down the watcher and the sweep schedule.
func (in *Inbox) Stop() {
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
	if in.watcher != nil {
		in.watcher.Close()
		in.watcher = nil
	}
	if in.cron != nil {
		in.cron.Stop()
		in.cron = nil
	}
	in.mu.Lock()
	for _, t := range in.timers {
		t.Stop()
	}
	in.timers = make(map[string]*time.Timer)
	in.mu.Unlock()
}

func (in *Inbox) loop(ctx context.Context) {
	watcher := in.watcher
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isImagePath(event.Name) {
				continue
			}
			in.debounce(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[INTAKE] watcher error: %v", err)
		}
	}
}

// debounce waits for writes to a file to settle before reading it.
func (in *Inbox) debounce(ctx context.Context, path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[path]; ok {
		t.Stop()
	}
	in.timers[path] = time.AfterFunc(settleDelay, func() {
		in.mu.Lock()
		delete(in.timers, path)
		in.mu.Unlock()
		if batch := in.collect([]string{path}); len(batch) > 0 {
			in.handle(ctx, batch)
		}
	})
}

// Sweep scans the folder for image files not delivered yet and returns how
// many were handed to the handler.
func (in *Inbox) Sweep(ctx context.Context) int {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		log.Printf("[INTAKE] sweep %s: %v", in.dir, err)
		return 0
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isImagePath(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(in.dir, e.Name()))
	}
	batch := in.collect(paths)
	if len(batch) > 0 {
		in.handle(ctx, batch)
	}
	return len(batch)
}

// collect reads and decodes files whose modification time changed since
// they were last delivered.
func (in *Inbox) collect(paths []string) []editor.Incoming {
	var files []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		in.mu.Lock()
		prev, done := in.seen[p]
		if done && !info.ModTime().After(prev) {
			in.mu.Unlock()
			continue
		}
		in.seen[p] = info.ModTime()
		in.mu.Unlock()

		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("[INTAKE] read %s: %v", p, err)
			continue
		}
		files = append(files, File{Name: p, Data: data})
	}
	return in.dec.Filter(files)
}

func isImagePath(p string) bool {
	return imageExts[strings.ToLower(filepath.Ext(p))]
}
