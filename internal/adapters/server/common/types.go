// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the wire format for task dates.
const DateLayout = time.DateOnly

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// TaskService is the task surface shared by REST and MCP.
type TaskService interface {
	ListTasks(context.Context, string) ([]Task, error)
	GetTask(context.Context, string) (Task, error)
	CreateTask(context.Context, CreateTaskRequest) (Task, error)
	UpdateTask(context.Context, UpdateTaskRequest) (Task, error)
	DeleteTask(context.Context, string) error
	SetTaskCompleted(context.Context, string, bool) (Task, error)
	Seed(context.Context) (SeedResult, error)
	Timeline(context.Context, TimelineRequest) (Timeline, error)
}

// Task is the wire shape of one task. Blank details and responsible encode as null.
type Task struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Status       string    `json:"status"`
	StatusLabel  string    `json:"status_label"`
	ColorToken   string    `json:"color_token"`
	Completed    bool      `json:"completed"`
	Details      *string   `json:"details"`
	Responsible  *string   `json:"responsible"`
	DurationDays int       `json:"duration_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateTaskRequest carries create input with YYYY-MM-DD dates.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	Details     string `json:"details,omitempty"`
	Responsible string `json:"responsible,omitempty"`
}

// UpdateTaskRequest carries a partial update; nil fields are left unchanged.
type UpdateTaskRequest struct {
	ID          string  `json:"-"`
	Name        *string `json:"name,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Status      *string `json:"status,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Details     *string `json:"details,omitempty"`
	Responsible *string `json:"responsible,omitempty"`
}

type SeedResult struct {
	Created int `json:"created"`
}

// TimelineRequest selects the chart window. Zero values fall back to adapter defaults.
type TimelineRequest struct {
	Zoom       float64
	StartMonth *int
	Year       int
	Quarter    int
	Query      string
}

type Month struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Quarter int    `json:"quarter"`
}

type TimelineRow struct {
	Task         Task    `json:"task"`
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
}

// Timeline is the laid-out chart for one window.
type Timeline struct {
	Year        int           `json:"year"`
	Zoom        float64       `json:"zoom"`
	StartMonth  int           `json:"start_month"`
	MonthsCount int           `json:"months_count"`
	Months      []Month       `json:"months"`
	Rows        []TimelineRow `json:"rows"`
	Hidden      int           `json:"hidden"`
	TodayMarker *float64      `json:"today_marker,omitempty"`
}
