package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-console/internal/config"
	"fraud-console/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(name)) }
}

func newTestServer() *Server {
	store := services.NewSessionStore(nil, "test_provider", time.Hour, services.Options{Logger: testLogger()})
	return NewServer(store, testLogger(), &TemplateHandlers{
		Dashboard:   page("dashboard"),
		Scorer:      page("scorer"),
		Experiments: page("experiments"),
		Ingestion:   page("ingestion"),
	}, Options{UpstreamURL: "http://upstream.test/api", MaxUploadSize: 1 << 20})
}

func TestServer_PageRoutes(t *testing.T) {
	srv := newTestServer()

	for path, want := range map[string]string{
		"/":            "dashboard",
		"/scorer":      "scorer",
		"/experiments": "experiments",
		"/ingestion":   "ingestion",
	} {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, want, w.Body.String(), path)
	}
}

func TestServer_UnknownPathIs404(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MethodMismatch(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/score", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_StaticAssets(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/console.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
}

func TestServer_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestGracefulServer_StopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: 2 * time.Second}}
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, testLogger(), cfg)

	var hookRan, workerStopped atomic.Bool
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hookRan.Store(true)
		return nil
	})
	gs.RegisterWorker(func(ctx context.Context) {
		<-ctx.Done()
		workerStopped.Store(true)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, hookRan.Load())
	assert.True(t, workerStopped.Load())
}
