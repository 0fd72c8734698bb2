package main

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tomotachi/backend/internal/config"
	"tomotachi/backend/internal/database/memory"
	"tomotachi/backend/internal/handler"
	"tomotachi/backend/internal/hub"
	"tomotachi/backend/internal/social"
)

func resetFlags(t *testing.T) {
	t.Helper()
	v = config.NewViper()
	cfgFile = ""
	t.Chdir(t.TempDir())
}

func TestRouter_PingAndRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := social.New(memory.NewStore(), nil, social.Options{})
	h := hub.New(nil)
	router := newRouter(&config.Config{}, zap.NewNop(), handler.New(engine, h, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/connect",
		"POST /api/v1/getFriendList",
		"POST /api/v1/getCommonFriendList",
		"POST /api/v1/subscribe",
		"POST /api/v1/block",
		"POST /api/v1/getUpdateRecipients",
		"POST /api/v1/identities",
		"POST /api/v1/updates",
		"GET /api/v1/updates/stream",
		"GET /swagger/*any",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestServerShutdown_ClosesEventStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := social.New(memory.NewStore(), nil, social.Options{})
	h := hub.New(nil)
	router := newRouter(&config.Config{}, zap.NewNop(), handler.New(engine, h, nil, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := newServer(ln.Addr().String(), router, h)
	go func() { _ = srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/updates/stream?email=lisa@example.com")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return h.Connected("lisa@example.com") == 1 },
		time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	// The stream ends cleanly once the handler returns.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
	}
	assert.Equal(t, 0, h.Connected("lisa@example.com"))
}

func TestMigrateCommand_SQLite(t *testing.T) {
	resetFlags(t)
	dbPath := filepath.Join(t.TempDir(), "social.db")
	t.Setenv("DATABASE_URL", "file:"+dbPath)
	t.Setenv("ENV", "production")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--driver", "sqlite"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, dbPath)
}

func TestMigrateCommand_InvalidConfig(t *testing.T) {
	resetFlags(t)
	t.Setenv("DATABASE_URL", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--driver", "postgres"})
	assert.ErrorContains(t, root.Execute(), "DATABASE_URL")
}
