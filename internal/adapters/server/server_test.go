package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/gantt/internal/adapters/server/common"
	"github.com/evanschultz/gantt/internal/adapters/storage/sqlite"
	"github.com/evanschultz/gantt/internal/app"
)

func newTaskAdapter(t *testing.T) common.TaskService {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	svc := app.NewService(repo, func() string { return "t1" }, func() time.Time {
		return time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{})
	return common.NewAppServiceAdapter(svc, common.AdapterOptions{DefaultZoom: 1})
}

func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Tasks: newTaskAdapter(t)})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != "127.0.0.1:8080" || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" || cfg.ServerName != "gantt" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timeline?quarter=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("timeline status = %d body = %s", rec.Code, rec.Body.String())
	}
	var view common.Timeline
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if view.Year != 2026 || view.MonthsCount != 5 || view.TodayMarker == nil {
		t.Fatalf("unexpected timeline %#v", view)
	}
}

// unavailableTasks fails every listing, as a store that lost its connection would.
type unavailableTasks struct {
	common.TaskService
}

func (unavailableTasks) ListTasks(context.Context, string) ([]common.Task, error) {
	return nil, errors.New("database is closed")
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	handler, _, err := NewHandler(Config{}, Dependencies{Tasks: unavailableTasks{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"unavailable"`) {
		t.Fatalf("readyz status = %d body = %s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error without task service")
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, Dependencies{Tasks: newTaskAdapter(t)}); err == nil {
		t.Fatal("expected error for colliding endpoints")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":           "/api/v1",
		"/":          "/api/v1",
		"api":        "/api",
		"//api/v2//": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	listening := make(chan Config, 1)
	errCh := make(chan error, 1)
	deps := Dependencies{Tasks: newTaskAdapter(t)}
	go func() {
		errCh <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, deps, func(cfg Config) {
			listening <- cfg
		})
	}()
	select {
	case cfg := <-listening:
		if cfg.HTTPBind == "127.0.0.1:0" || !strings.HasPrefix(cfg.HTTPBind, "127.0.0.1:") {
			t.Fatalf("expected resolved bind address, got %q", cfg.HTTPBind)
		}
		resp, err := http.Get("http://" + cfg.HTTPBind + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz error = %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("healthz status = %d", resp.StatusCode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
