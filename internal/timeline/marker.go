package timeline

import (
	"math"
	"time"
)

// TodayMarker returns the position of now as a percentage of the visible window.
// ok is false when now falls outside the window or outside the reference year.
func TodayMarker(now time.Time, vp ViewportState) (percent float64, ok bool) {
	if vp.Year != 0 && now.Year() != vp.Year {
		return 0, false
	}
	month := int(now.Month()) - 1
	if month < vp.StartMonth || month > VisibleEndMonth(vp) {
		return 0, false
	}
	dayOffset := float64(now.Day()-1) / float64(DaysInMonth(now.Year(), month))
	return (float64(month-vp.StartMonth) + dayOffset) / float64(monthsCount(vp)) * 100, true
}

// YearPercent returns the position of ts across the whole year model.
func YearPercent(ts time.Time) float64 {
	month := int(ts.Month()) - 1
	dayOffset := float64(ts.Day()-1) / float64(DaysInMonth(ts.Year(), month))
	return (float64(month) + dayOffset) / MonthsPerYear * 100
}

// MinimapWindow returns the visible window as left/width percentages of the full year.
// The width is cut at December when the window runs past the end of the year.
func MinimapWindow(vp ViewportState) (left, width float64) {
	start := max(0, min(MonthsPerYear, vp.StartMonth))
	end := min(MonthsPerYear, vp.StartMonth+monthsCount(vp))
	return float64(start) / MonthsPerYear * 100, float64(max(0, end-start)) / MonthsPerYear * 100
}

// Columns converts a percentage span into terminal cells of a track width cells wide.
// Visible spans are at least one cell wide.
func Columns(left, width float64, cells int) (start, span int) {
	if cells <= 0 {
		return 0, 0
	}
	start = int(left / 100 * float64(cells))
	end := int(math.Round((left + width) / 100 * float64(cells)))
	start = max(0, min(cells-1, start))
	end = max(start+1, min(cells, end))
	return start, end - start
}
