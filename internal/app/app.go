package app

import (
	"context"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/config"
	"studio/internal/secret"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	rt  *Runtime
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter forwards service events to the frontend. It always emits on
// the Wails context because callers such as MCP tools run on request
// contexts the runtime does not know.
type wailsEmitter struct {
	ctx context.Context
}

func (w wailsEmitter) Emit(_ context.Context, event string, data any) {
	wailsRuntime.EventsEmit(w.ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load("")
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}

	rt, err := NewRuntime(ctx, cfg, wailsEmitter{ctx: ctx}, Options{Secrets: secret.NewKeychainStore()})
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to start: %v", err)
		return
	}
	a.rt = rt

	size := rt.Settings.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	rt.StartMCP(cfg.MCP.Addr)
	wailsRuntime.LogInfof(ctx, "[APP] ready (backend configured: %t)", cfg.Backend.TransformURL != "" || cfg.Backend.ModifierURL != "")
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.rt == nil {
		return
	}
	w, h := wailsRuntime.WindowGetSize(ctx)
	if err := a.rt.Settings.SaveWindowSize(w, h); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
	}
	if err := a.rt.Close(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to close database: %v", err)
	}
}

// SetAPIKey stores the backend API key in the system keychain and uses it
// from now on.
func (a *App) SetAPIKey(key string) error {
	if err := secret.NewKeychainStore().Set(secret.BackendAPIKey, []byte(key)); err != nil {
		return err
	}
	a.rt.Backend.SetAPIKey(key)
	return nil
}
