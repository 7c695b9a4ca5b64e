// Package server mounts the REST and MCP task surfaces on one HTTP listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/adapters/server/common"
	"github.com/evanschultz/gantt/internal/adapters/server/httpapi"
	"github.com/evanschultz/gantt/internal/adapters/server/mcpapi"
)

const (
	defaultBindAddress = "127.0.0.1:8080"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"

	readHeaderTimeout = 10 * time.Second
	readyProbeTimeout = 2 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config holds the listen address and mount points for serve mode.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies carries the task surface shared by both transports.
type Dependencies struct {
	Tasks common.TaskService
}

// withDefaults fills blank fields and cleans endpoint paths.
func (c Config) withDefaults() (Config, error) {
	c.HTTPBind = firstNonBlank(c.HTTPBind, defaultBindAddress)
	c.APIEndpoint = normalizeEndpoint(c.APIEndpoint, defaultAPIEndpoint)
	c.MCPEndpoint = normalizeEndpoint(c.MCPEndpoint, defaultMCPEndpoint)
	c.ServerName = firstNonBlank(c.ServerName, "gantt")
	c.ServerVersion = firstNonBlank(c.ServerVersion, "dev")
	if c.APIEndpoint == c.MCPEndpoint {
		return Config{}, fmt.Errorf("api endpoint %s and mcp endpoint %s must differ", c.APIEndpoint, c.MCPEndpoint)
	}
	return c, nil
}

// NewHandler builds the root mux: liveness, store readiness, REST under APIEndpoint and MCP
// under MCPEndpoint.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	if deps.Tasks == nil {
		return nil, Config{}, errors.New("task service is required")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, Config{}, err
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Tasks)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Tasks))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", readyHandler(deps.Tasks))
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)
	return mux, cfg, nil
}

// Run serves until ctx is cancelled. onListen receives the config with HTTPBind set to
// the bound address, so port 0 resolves to the real port.
func Run(ctx context.Context, cfg Config, deps Dependencies, onListen func(Config)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	listener, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	}
	cfg.HTTPBind = listener.Addr().String()
	if onListen != nil {
		onListen(cfg)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(listener)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// readyHandler reports 503 while the task store cannot list tasks.
func readyHandler(tasks common.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()
		if _, err := tasks.ListTasks(ctx, ""); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// normalizeEndpoint returns a rooted, slash-trimmed path, or fallback for "" and "/".
func normalizeEndpoint(endpoint, fallback string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(endpoint))
	if cleaned == "/" {
		return fallback
	}
	return cleaned
}

func firstNonBlank(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
