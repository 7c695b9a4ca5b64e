// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/gantt/internal/adapters/server/common"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the gantt.* task tools.
func NewHandler(cfg Config, tasks common.TaskService) (*Handler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, tasks)
	registerTimelineTools(mcpSrv, tasks)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "gantt"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

func statusNames() []string {
	out := make([]string, 0, len(domain.Statuses()))
	for _, status := range domain.Statuses() {
		out = append(out, string(status))
	}
	return out
}

// registerTaskTools registers list/create/update/delete/complete/seed task tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.list_tasks",
			mcp.WithDescription("List chart tasks ordered by start date."),
			mcp.WithString("query", mcp.Description("Case-insensitive filter over name, details, responsible and status")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := tasks.ListTasks(ctx, req.GetString("query", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_tasks", map[string]any{"tasks": rows})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.create_task",
			mcp.WithDescription("Create one task. Dates use YYYY-MM-DD."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
			mcp.WithString("start_date", mcp.Required(), mcp.Description("First day, YYYY-MM-DD")),
			mcp.WithString("end_date", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD")),
			mcp.WithString("status", mcp.Description("Status key"), mcp.Enum(statusNames()...)),
			mcp.WithBoolean("completed", mcp.Description("Create the task already completed")),
			mcp.WithString("details", mcp.Description("Markdown details")),
			mcp.WithString("responsible", mcp.Description("Owning person or team")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.CreateTaskRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			for field, value := range map[string]string{"name": args.Name, "start_date": args.StartDate, "end_date": args.EndDate} {
				if strings.TrimSpace(value) == "" {
					return mcp.NewToolResultError(fmt.Sprintf("invalid_request: required argument %q not found", field)), nil
				}
			}
			task, err := tasks.CreateTask(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("create_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.update_task",
			mcp.WithDescription("Update one task. Omitted fields are left unchanged."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
			mcp.WithString("name", mcp.Description("Task name")),
			mcp.WithString("start_date", mcp.Description("First day, YYYY-MM-DD")),
			mcp.WithString("end_date", mcp.Description("Last day, YYYY-MM-DD")),
			mcp.WithString("status", mcp.Description("Status key"), mcp.Enum(statusNames()...)),
			mcp.WithBoolean("completed", mcp.Description("Completion flag")),
			mcp.WithString("details", mcp.Description("Markdown details")),
			mcp.WithString("responsible", mcp.Description("Owning person or team")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ID string `json:"id"`
				common.UpdateTaskRequest
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.ID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "id" not found`), nil
			}
			args.UpdateTaskRequest.ID = args.ID
			task, err := tasks.UpdateTask(ctx, args.UpdateTaskRequest)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.delete_task",
			mcp.WithDescription("Delete one task by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := tasks.DeleteTask(ctx, id); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_task", map[string]any{"deleted": id})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.set_task_completed",
			mcp.WithDescription("Mark one task completed or reopen it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
			mcp.WithBoolean("completed", mcp.Description("Defaults to true")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			task, err := tasks.SetTaskCompleted(ctx, id, req.GetBool("completed", true))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("set_task_completed", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.seed",
			mcp.WithDescription("Fill an empty chart with sample tasks. A populated chart is left alone."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := tasks.Seed(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("seed", result)
		},
	)
}

// registerTimelineTools registers the chart layout tool.
func registerTimelineTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.timeline",
			mcp.WithDescription("Lay out tasks for one visible month window and return bar positions as percentages."),
			mcp.WithNumber("zoom", mcp.Description("Zoom level; clamped to 0.5..3")),
			mcp.WithNumber("start_month", mcp.Description("First visible month, 0 = January")),
			mcp.WithNumber("year", mcp.Description("Reference year")),
			mcp.WithNumber("quarter", mcp.Description("Jump to quarter 1-4")),
			mcp.WithString("query", mcp.Description("Task filter")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			in := common.TimelineRequest{
				Zoom:    req.GetFloat("zoom", 0),
				Year:    req.GetInt("year", 0),
				Quarter: req.GetInt("quarter", 0),
				Query:   req.GetString("query", ""),
			}
			if _, ok := req.GetArguments()["start_month"]; ok {
				start := req.GetInt("start_month", 0)
				in.StartMonth = &start
			}
			view, err := tasks.Timeline(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("timeline", view)
		},
	)
}

func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
