package timeline

import (
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// TaskPosition is the horizontal geometry of one bar as percentages of the visible area.
type TaskPosition struct {
	LeftPercent  float64
	WidthPercent float64
	Visible      bool
}

type layoutOptions struct {
	dayAlignedStart bool
}

// LayoutOption customizes ComputePosition.
type LayoutOption func(*layoutOptions)

// WithDayAlignedStart shifts the left edge by the start day inside the first visible month.
// Without it the left edge snaps to the month column boundary.
func WithDayAlignedStart(enabled bool) LayoutOption {
	return func(o *layoutOptions) {
		o.dayAlignedStart = enabled
	}
}

// ComputePosition lays out a task against the viewport.
func ComputePosition(task domain.Task, vp ViewportState, opts ...LayoutOption) TaskPosition {
	return PositionFor(task.StartDate, task.EndDate, vp, opts...)
}

// PositionFor lays out the inclusive date range [start, end] against the viewport.
// Ranges wholly outside the window are hidden. An end before start is a caller error and
// yields an unspecified width.
func PositionFor(start, end time.Time, vp ViewportState, opts ...LayoutOption) TaskPosition {
	var cfg layoutOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	year := vp.Year
	if year == 0 {
		year = start.Year()
	}
	start, end, ok := clampToYear(start, end, year)
	if !ok {
		return TaskPosition{}
	}

	count := monthsCount(vp)
	startMonth := int(start.Month()) - 1
	endMonth := int(end.Month()) - 1
	visibleEnd := vp.StartMonth + count - 1
	if endMonth < vp.StartMonth || startMonth > visibleEnd {
		return TaskPosition{}
	}

	adjStartMonth, adjStartDay := startMonth, start.Day()
	if startMonth < vp.StartMonth {
		adjStartMonth, adjStartDay = vp.StartMonth, 1
	}
	adjEndMonth, adjEndDay := endMonth, end.Day()
	if endMonth > visibleEnd {
		adjEndMonth, adjEndDay = visibleEnd, DaysInMonth(year, visibleEnd)
	}

	monthWidth := 100 / float64(count)
	left := float64(adjStartMonth-vp.StartMonth) / float64(count) * 100
	daysInStart := DaysInMonth(year, adjStartMonth)
	if cfg.dayAlignedStart {
		left += float64(adjStartDay-1) / float64(daysInStart) * monthWidth
	}

	var width float64
	if adjStartMonth == adjEndMonth {
		width = float64(adjEndDay-adjStartDay+1) / float64(daysInStart) * monthWidth
	} else {
		daysInEnd := DaysInMonth(year, adjEndMonth)
		first := float64(daysInStart-adjStartDay+1) / float64(daysInStart) * monthWidth
		last := float64(adjEndDay) / float64(daysInEnd) * monthWidth
		span := adjEndMonth - adjStartMonth + 1
		middle := float64(max(0, span-2)) * monthWidth
		width = first + last + middle
	}

	return TaskPosition{
		LeftPercent:  left,
		WidthPercent: width,
		Visible:      true,
	}
}

// clampToYear pins a range into the reference year; ok is false when nothing of it falls inside.
func clampToYear(start, end time.Time, year int) (time.Time, time.Time, bool) {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	start, end = domain.NormalizeDate(start), domain.NormalizeDate(end)
	if end.Before(first) || start.After(last) {
		return start, end, false
	}
	if start.Before(first) {
		start = first
	}
	if end.After(last) {
		end = last
	}
	return start, end, true
}
