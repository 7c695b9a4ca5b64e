package timeline

import "math"

const (
	MinZoom     = 0.5
	MaxZoom     = 3.0
	DefaultZoom = 1.0
	// ZoomStep is the increment applied by ZoomIn and ZoomOut.
	ZoomStep = 0.25
	// baseVisibleMonths is the window size at 100% zoom.
	baseVisibleMonths = 5
)

// Direction identifies a pan direction.
type Direction int

const (
	PanLeft Direction = iota
	PanRight
)

// ViewportState is the visible month window over one reference year.
// Year zero means each task is laid out against its own start year.
type ViewportState struct {
	Year        int
	Zoom        float64
	StartMonth  int
	MonthsCount int
}

// NewViewport returns a window at the requested zoom starting at January of year.
func NewViewport(year int, zoom float64) ViewportState {
	return Zoom(ViewportState{Year: year}, zoom)
}

// Zoom clamps level to [MinZoom, MaxZoom] and derives the visible month count from it.
// The start month is kept as is, so the window can run past December until the next pan.
func Zoom(state ViewportState, level float64) ViewportState {
	if math.IsNaN(level) {
		level = DefaultZoom
	}
	level = math.Max(MinZoom, math.Min(MaxZoom, level))
	count := int(math.Round(baseVisibleMonths / level))
	state.Zoom = level
	state.MonthsCount = max(1, min(MonthsPerYear, count))
	return state
}

// ZoomIn zooms one step closer.
func ZoomIn(state ViewportState) ViewportState {
	return Zoom(state, currentZoom(state)+ZoomStep)
}

// ZoomOut zooms one step further out.
func ZoomOut(state ViewportState) ViewportState {
	return Zoom(state, currentZoom(state)-ZoomStep)
}

// CanZoomIn reports whether ZoomIn would change the zoom level.
func CanZoomIn(state ViewportState) bool {
	return currentZoom(state) < MaxZoom
}

// CanZoomOut reports whether ZoomOut would change the zoom level.
func CanZoomOut(state ViewportState) bool {
	return currentZoom(state) > MinZoom
}

// Pan moves the window one month. Left stops at January; right is capped at 12 - MonthsCount.
func Pan(state ViewportState, dir Direction) ViewportState {
	switch dir {
	case PanLeft:
		state.StartMonth = max(0, state.StartMonth-1)
	case PanRight:
		state.StartMonth = max(0, min(MonthsPerYear-monthsCount(state), state.StartMonth+1))
	}
	return state
}

// DragPan converts a horizontal drag distance into at most one pan step.
// Dragging right past threshold reveals earlier months. moved reports whether the
// caller should reset its drag anchor.
func DragPan(state ViewportState, delta, threshold int) (next ViewportState, moved bool) {
	switch {
	case delta > threshold:
		return Pan(state, PanLeft), true
	case delta < -threshold:
		return Pan(state, PanRight), true
	default:
		return state, false
	}
}

// JumpToQuarter starts the window at the first month of quarter q (1..4).
// The month count is not clamped; out-of-range quarters leave the state unchanged.
func JumpToQuarter(state ViewportState, q int) ViewportState {
	if q < 1 || q > 4 {
		return state
	}
	state.StartMonth = (q - 1) * 3
	return state
}

// VisibleMonths returns the months inside the window, fewer near the end of the year.
func VisibleMonths(state ViewportState) []Month {
	start := max(0, min(MonthsPerYear, state.StartMonth))
	end := max(start, min(MonthsPerYear, state.StartMonth+monthsCount(state)))
	return append([]Month(nil), yearModel[start:end]...)
}

// VisibleEndMonth returns the index of the last month of the window.
// It can exceed 11 after a zoom or quarter jump near the end of the year.
func VisibleEndMonth(state ViewportState) int {
	return state.StartMonth + monthsCount(state) - 1
}

// monthsCount guards layout math against an unset window.
func monthsCount(state ViewportState) int {
	if state.MonthsCount < 1 {
		return 1
	}
	return state.MonthsCount
}

func currentZoom(state ViewportState) float64 {
	if state.Zoom == 0 {
		return DefaultZoom
	}
	return state.Zoom
}
