package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"studio/internal/api"
	"studio/internal/config"
	"studio/internal/secret"
	"studio/internal/service"
)

// Version is reported by /health.
var Version = "dev"

type serveFlags struct {
	configPath string
	addr       string
	dbPath     string
	watchDir   string
	bodyLimit  string
}

func parseServeFlags(name string, args []string) (serveFlags, error) {
	var f serveFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to config.yaml (default ~/.config/studio/config.yaml)")
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address, overrides server.addr")
	fs.StringVar(&f.dbPath, "db", "", "preferences database path, \":memory:\" to keep nothing")
	fs.StringVar(&f.watchDir, "watch", "", "hot folder to import images from, overrides intake.watchDir")
	fs.StringVar(&f.bodyLimit, "body-limit", "64M", "maximum request body size")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// Serve runs the editor headless: the REST API, the websocket event stream
// and the MCP endpoint share one echo server until SIGINT or SIGTERM.
func Serve(args []string) error {
	f, err := parseServeFlags("serve", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.watchDir != "" {
		cfg.Intake.WatchDir = f.watchDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := api.NewHub()
	rt, err := NewRuntime(ctx, cfg, hub, Options{DBPath: f.dbPath, Secrets: secret.NewKeychainStore()})
	if err != nil {
		return err
	}
	defer rt.Close()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, f.bodyLimit)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Session:    rt.Session,
		Intake:     rt.Intake,
		Generation: rt.Generation,
		Chat:       rt.Chat,
		MCP:        rt.MCP,
		Hub:        hub,
		Version:    Version,
	}))

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API] listening on %s", cfg.Server.Addr)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Println("[API] shutting down...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	return e.Shutdown(shutdownCtx)
}

// ServeMCP runs only the MCP tools on stdin/stdout with no GUI, for
// clients that spawn the server as a subprocess. Events are dropped.
func ServeMCP(args []string) error {
	f, err := parseServeFlags("mcp", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbPath := f.dbPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	rt, err := NewRuntime(ctx, cfg, service.Discard, Options{DBPath: dbPath, Secrets: secret.NewKeychainStore()})
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Println("[MCP] Starting standalone stdio server...")
	if err := rt.MCP.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
