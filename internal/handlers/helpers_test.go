package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"fraud-console/internal/config"
	"fraud-console/internal/gateway"
	"fraud-console/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// upstream is a fake fraud service answering by "METHOD path".
type upstream struct {
	mu     sync.Mutex
	routes map[string]string
	status map[string]int
	hits   map[string]int
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	u.mu.Lock()
	u.hits[key]++
	body, ok := u.routes[key]
	status := u.status[key]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

type fixture struct {
	upstream *upstream
	store    *services.SessionStore
	session  *services.Session
	sse      *SSEHandlers
	api      *APIHandlers
}

func newFixture(t *testing.T, routes map[string]string) *fixture {
	t.Helper()
	up := &upstream{routes: routes, status: map[string]int{}, hits: map[string]int{}}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := testLogger()
	client := gateway.New(config.UpstreamConfig{
		BaseURL:       srv.URL + "/api",
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		ProviderID:    "test_provider",
		MaxUploadSize: 1 << 20,
	}, logger)

	store := services.NewSessionStore(client, "test_provider", time.Hour, services.Options{Logger: logger})
	sess, _ := store.GetOrCreate("")

	return &fixture{
		upstream: up,
		store:    store,
		session:  sess,
		sse:      NewSSEHandlers(logger, 1<<20),
		api:      NewAPIHandlers(store, srv.URL+"/api", logger),
	}
}

func (f *fixture) withSession(r *http.Request) *http.Request {
	return r.WithContext(services.WithSession(context.Background(), f.session))
}
