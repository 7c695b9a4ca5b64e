package app

import (
	"context"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// TimelineRequest selects the window and filter for a timeline view.
type TimelineRequest struct {
	Viewport        timeline.ViewportState
	Query           string
	DayAlignedStart bool
}

// TimelineRow pairs a task with its bar geometry.
type TimelineRow struct {
	Task     domain.Task
	Position timeline.TaskPosition
}

// TimelineView is the laid-out chart for one viewport.
type TimelineView struct {
	Viewport    timeline.ViewportState
	Months      []timeline.Month
	Rows        []TimelineRow
	Hidden      int
	TodayMarker *float64
}

// Timeline loads tasks and lays them out against the requested viewport.
func (s *Service) Timeline(ctx context.Context, req TimelineRequest) (TimelineView, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return TimelineView{}, err
	}
	return BuildTimeline(FilterTasks(tasks, req.Query), req.Viewport, s.clock(), req.DayAlignedStart), nil
}

// BuildTimeline lays out tasks in order. Tasks outside the window are counted, not returned.
func BuildTimeline(tasks []domain.Task, vp timeline.ViewportState, now time.Time, dayAlignedStart bool) TimelineView {
	view := TimelineView{
		Viewport: vp,
		Months:   timeline.VisibleMonths(vp),
		Rows:     make([]TimelineRow, 0, len(tasks)),
	}
	for _, task := range tasks {
		pos := timeline.ComputePosition(task, vp, timeline.WithDayAlignedStart(dayAlignedStart))
		if !pos.Visible {
			view.Hidden++
			continue
		}
		view.Rows = append(view.Rows, TimelineRow{Task: task, Position: pos})
	}
	if marker, ok := timeline.TodayMarker(now, vp); ok {
		view.TodayMarker = &marker
	}
	return view
}
