package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// AdapterOptions carries chart defaults applied to timeline requests.
type AdapterOptions struct {
	DefaultZoom     float64
	Year            int
	DayAlignedStart bool
}

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
	opts    AdapterOptions
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service, opts AdapterOptions) *AppServiceAdapter {
	return &AppServiceAdapter{service: service, opts: opts}
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// ListTasks lists tasks, filtered when query is non-empty.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, query string) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	tasks, err := a.service.SearchTasks(ctx, query)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, MapTask(task))
	}
	return out, nil
}

func (a *AppServiceAdapter) GetTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return MapTask(task), nil
}

func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	start, err := parseWireDate("start_date", in.StartDate)
	if err != nil {
		return Task{}, err
	}
	end, err := parseWireDate("end_date", in.EndDate)
	if err != nil {
		return Task{}, err
	}
	status, err := parseWireStatus(in.Status)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTask(ctx, app.CreateTaskInput{
		Name:        in.Name,
		StartDate:   start,
		EndDate:     end,
		Status:      status,
		Completed:   in.Completed,
		Details:     in.Details,
		Responsible: in.Responsible,
	})
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return MapTask(task), nil
}

func (a *AppServiceAdapter) UpdateTask(ctx context.Context, in UpdateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	patch := app.UpdateTaskInput{
		Name:        in.Name,
		Completed:   in.Completed,
		Details:     in.Details,
		Responsible: in.Responsible,
	}
	if in.StartDate != nil {
		start, err := parseWireDate("start_date", *in.StartDate)
		if err != nil {
			return Task{}, err
		}
		patch.StartDate = &start
	}
	if in.EndDate != nil {
		end, err := parseWireDate("end_date", *in.EndDate)
		if err != nil {
			return Task{}, err
		}
		patch.EndDate = &end
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return Task{}, fmt.Errorf("status %q: %w", *in.Status, errors.Join(ErrInvalidRequest, err))
		}
		patch.Status = &status
	}
	task, err := a.service.UpdateTask(ctx, strings.TrimSpace(in.ID), patch)
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	return MapTask(task), nil
}

func (a *AppServiceAdapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.service.DeleteTask(ctx, strings.TrimSpace(id)); err != nil {
		return mapAppError("delete task", err)
	}
	return nil
}

func (a *AppServiceAdapter) SetTaskCompleted(ctx context.Context, id string, completed bool) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.SetTaskCompleted(ctx, strings.TrimSpace(id), completed)
	if err != nil {
		return Task{}, mapAppError("set task completed", err)
	}
	return MapTask(task), nil
}

// Seed fills an empty table with sample tasks.
func (a *AppServiceAdapter) Seed(ctx context.Context) (SeedResult, error) {
	if err := a.ready(); err != nil {
		return SeedResult{}, err
	}
	created, err := a.service.SeedIfEmpty(ctx)
	if err != nil {
		return SeedResult{}, mapAppError("seed tasks", err)
	}
	return SeedResult{Created: created}, nil
}

// Timeline lays out tasks against the requested window.
func (a *AppServiceAdapter) Timeline(ctx context.Context, in TimelineRequest) (Timeline, error) {
	if err := a.ready(); err != nil {
		return Timeline{}, err
	}
	vp, err := a.viewportFor(in)
	if err != nil {
		return Timeline{}, err
	}
	view, err := a.service.Timeline(ctx, app.TimelineRequest{
		Viewport:        vp,
		Query:           in.Query,
		DayAlignedStart: a.opts.DayAlignedStart,
	})
	if err != nil {
		return Timeline{}, mapAppError("timeline", err)
	}
	return MapTimeline(view), nil
}

// viewportFor resolves year, zoom, start month and quarter, in that order. Zoom is clamped
// to [timeline.MinZoom, timeline.MaxZoom].
func (a *AppServiceAdapter) viewportFor(in TimelineRequest) (timeline.ViewportState, error) {
	year := in.Year
	if year == 0 {
		year = a.opts.Year
	}
	if year == 0 {
		year = a.service.Now().Year()
	}
	zoom := in.Zoom
	if zoom == 0 {
		zoom = a.opts.DefaultZoom
	}
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return timeline.ViewportState{}, fmt.Errorf("zoom %v is not a finite number: %w", zoom, ErrInvalidRequest)
	}
	if zoom == 0 {
		zoom = timeline.DefaultZoom
	}
	vp := timeline.NewViewport(year, zoom)
	if in.StartMonth != nil {
		start := *in.StartMonth
		if start < 0 || start >= timeline.MonthsPerYear {
			return timeline.ViewportState{}, fmt.Errorf("start month %d outside [0, 11]: %w", start, ErrInvalidRequest)
		}
		vp.StartMonth = start
	}
	if in.Quarter != 0 {
		if in.Quarter < 1 || in.Quarter > 4 {
			return timeline.ViewportState{}, fmt.Errorf("quarter %d outside [1, 4]: %w", in.Quarter, ErrInvalidRequest)
		}
		vp = timeline.JumpToQuarter(vp, in.Quarter)
	}
	return vp, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// MapTask converts a domain task into its wire shape.
func MapTask(task domain.Task) Task {
	desc := task.Status.Descriptor()
	return Task{
		ID:           task.ID,
		Name:         task.Name,
		StartDate:    task.StartDate.Format(DateLayout),
		EndDate:      task.EndDate.Format(DateLayout),
		Status:       string(task.Status),
		StatusLabel:  desc.Label,
		ColorToken:   desc.ColorToken,
		Completed:    task.Completed,
		Details:      optionalString(task.Details),
		Responsible:  optionalString(task.Responsible),
		DurationDays: task.DurationDays(),
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// MapTimeline converts a laid-out view into its wire shape.
func MapTimeline(view app.TimelineView) Timeline {
	out := Timeline{
		Year:        view.Viewport.Year,
		Zoom:        view.Viewport.Zoom,
		StartMonth:  view.Viewport.StartMonth,
		MonthsCount: view.Viewport.MonthsCount,
		Months:      make([]Month, 0, len(view.Months)),
		Rows:        make([]TimelineRow, 0, len(view.Rows)),
		Hidden:      view.Hidden,
		TodayMarker: view.TodayMarker,
	}
	for _, m := range view.Months {
		out.Months = append(out.Months, Month{Index: m.Index, Name: m.Name, Quarter: m.Quarter})
	}
	for _, row := range view.Rows {
		out.Rows = append(out.Rows, TimelineRow{
			Task:         MapTask(row.Task),
			LeftPercent:  row.Position.LeftPercent,
			WidthPercent: row.Position.WidthPercent,
		})
	}
	return out
}

func parseWireDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required: %w", field, ErrInvalidRequest)
	}
	ts, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not YYYY-MM-DD: %w", field, raw, ErrInvalidRequest)
	}
	return ts, nil
}

// parseWireStatus accepts an empty status, which the domain defaults.
func parseWireStatus(raw string) (domain.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("status %q: %w", raw, errors.Join(ErrInvalidRequest, err))
	}
	return status, nil
}

// mapAppError tags app and domain failures with transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidStartDate),
		errors.Is(err, domain.ErrInvalidEndDate),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, app.ErrInvalidSeedFixture):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
