package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"studio/internal/backend"
	"studio/internal/config"
	"studio/internal/editor"
	"studio/internal/intake"
	mcpserver "studio/internal/mcp"
	"studio/internal/secret"
	"studio/internal/service"
	"studio/internal/storage"
)

// shutdownGrace bounds how long Close waits for running jobs and servers.
const shutdownGrace = 5 * time.Second

// Runtime is one editor session with every service wired to it. The
// desktop app and the headless server each build one.
type Runtime struct {
	Config     config.Config
	DB         *storage.DB
	Session    *editor.Session
	Settings   *service.SettingsService
	Intake     *service.IntakeService
	Generation *service.GenerationService
	Chat       *service.ChatService
	MCP        *mcpserver.Server
	Backend    *backend.Client

	inbox   *intake.Inbox
	mcpHTTP *http.Server
}

// Options tune NewRuntime. DBPath defaults to studio.db in the data
// directory; ":memory:" keeps preferences in memory.
type Options struct {
	DBPath  string
	Secrets secret.SecretStore
}

// NewRuntime opens storage, builds the services and starts the hot folder
// when one is configured. Events go to em.
func NewRuntime(ctx context.Context, cfg config.Config, em service.EventEmitter, opts Options) (*Runtime, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dataDir, err := config.DataDir()
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		dbPath = filepath.Join(dataDir, "studio.db")
	}
	db, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rt := &Runtime{Config: cfg, DB: db, Session: editor.New()}

	rt.Settings = service.NewSettingsService(db)
	rt.Settings.Apply(rt.Session)
	rt.Settings.Track(rt.Session)
	service.BindCanvasEvents(ctx, rt.Session, em)

	dec := intake.NewDecoder(cfg.Intake.MaxDimension)
	rt.Intake = service.NewIntakeService(rt.Session, dec, intake.NewClipboard(dec), em)

	rt.Backend = backend.New(cfg.Backend)
	rt.Backend.SetAPIKey(secret.ResolveAPIKey(cfg.Backend.APIKey, opts.Secrets))
	rt.Generation = service.NewGenerationService(rt.Session, rt.Backend, em, db)
	rt.Chat = service.NewChatService(rt.Session, rt.Backend, em, dec)

	rt.MCP = mcpserver.New(ctx, mcpserver.Deps{
		Session:   rt.Session,
		Generator: rt.Generation,
		Emitter:   em,
	})

	if cfg.Intake.WatchDir != "" {
		rt.inbox = intake.NewInbox(cfg.Intake.WatchDir, cfg.Intake.Sweep, dec, rt.Intake.HotFolder)
		if err := rt.inbox.Start(ctx); err != nil {
			log.Printf("[INTAKE] hot folder disabled: %v", err)
			rt.inbox = nil
		}
	}
	return rt, nil
}

// StartMCP serves the MCP tools over streamable HTTP on addr.
func (rt *Runtime) StartMCP(addr string) {
	if addr == "" {
		return
	}
	rt.mcpHTTP = &http.Server{Addr: addr, Handler: rt.MCP.Handler()}
	go func() {
		log.Printf("[MCP] listening on %s", addr)
		if err := rt.mcpHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[MCP] server error: %v", err)
		}
	}()
}

// Close stops background work, waits briefly for running jobs and closes
// the database.
func (rt *Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if rt.inbox != nil {
		rt.inbox.Stop()
	}
	if rt.mcpHTTP != nil {
		if err := rt.mcpHTTP.Shutdown(ctx); err != nil {
			log.Printf("[MCP] shutdown: %v", err)
		}
	}
	rt.Generation.WaitRunning(ctx)
	return rt.DB.Close()
}
