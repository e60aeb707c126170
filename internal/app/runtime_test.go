package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/config"
	"studio/internal/geom"
	"studio/internal/secret"
	"studio/internal/service"
)

func newTestRuntime(t *testing.T, em service.EventEmitter) *Runtime {
	t.Helper()
	rt, err := NewRuntime(context.Background(), config.Default(), em, Options{
		DBPath:  ":memory:",
		Secrets: secret.NewMemoryStore(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestNewRuntime_WiresSessionEvents(t *testing.T) {
	em := &service.MockEmitter{}
	rt := newTestRuntime(t, em)

	rt.Session.SetViewport(800, 600)
	rt.Session.AddTextAtScreen(geom.Point{X: 10, Y: 10})

	assert.Contains(t, em.Names(), service.EventCanvasChanged)
	assert.Len(t, rt.Session.Items(), 1)
	assert.NotNil(t, rt.MCP)
	assert.NotNil(t, rt.Generation)
}

func TestNewRuntime_RestoresPreferences(t *testing.T) {
	rt := newTestRuntime(t, service.Discard)

	rt.Session.SetGridVisible(false)
	assert.False(t, rt.DB.BoolSetting("grid_visible", true))

	rt.Settings.Apply(rt.Session)
	assert.False(t, rt.Session.GridVisible())
}

func TestParseServeFlags(t *testing.T) {
	f, err := parseServeFlags("serve", []string{"-addr", ":9000", "-db", ":memory:", "-watch", "/tmp/in"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", f.addr)
	assert.Equal(t, ":memory:", f.dbPath)
	assert.Equal(t, "/tmp/in", f.watchDir)
	assert.Equal(t, "64M", f.bodyLimit)

	_, err = parseServeFlags("serve", []string{"-nope"})
	assert.Error(t, err)
}
