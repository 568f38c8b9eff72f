package main

import (
	"net"
	"net/http"
	"path/filepath"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, anthropicKey, weatherKey, redisAddr string) {
	t.Helper()
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("PORT", "")
	t.Setenv("ANTHROPIC_API_KEY", anthropicKey)
	t.Setenv("OPENWEATHER_API_KEY", weatherKey)
	t.Setenv("REDIS_ADDR", redisAddr)
}

func Test_run_001(t *testing.T) {
	// configuration errors are returned, not fatal
	setEnv(t, "sk-ant", "", "")
	err := run(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "OPENWEATHER_API_KEY")
}

func Test_run_002(t *testing.T) {
	// an unreachable Redis is returned after the client is closed
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	setEnv(t, "sk-ant", "owm", addr)
	err = run(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "could not connect to Redis")
}

func Test_serve_001(t *testing.T) {
	// a listen failure ends the server loop with an error
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	err = runServerWithGracefulShutdown(srv)
	assert.ErrorContains(t, err, "listen error")
}
