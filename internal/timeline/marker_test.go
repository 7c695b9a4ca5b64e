package timeline

import (
	"testing"
	"time"
)

func TestTodayMarker(t *testing.T) {
	now := time.Date(2025, 4, 16, 9, 30, 0, 0, time.UTC)
	vp := ViewportState{Year: 2025, StartMonth: 3, MonthsCount: 5}
	got, ok := TodayMarker(now, vp)
	if !ok {
		t.Fatal("expected marker inside the window")
	}
	if !approx(got, 15.0/30.0/5*100) {
		t.Fatalf("TodayMarker() = %v, want 10", got)
	}

	if _, ok := TodayMarker(now, ViewportState{Year: 2025, StartMonth: 5, MonthsCount: 5}); ok {
		t.Fatal("expected marker hidden before the window")
	}
	if _, ok := TodayMarker(now, ViewportState{Year: 2026, StartMonth: 0, MonthsCount: 12}); ok {
		t.Fatal("expected marker hidden in another year")
	}
	if _, ok := TodayMarker(now, ViewportState{StartMonth: 0, MonthsCount: 5}); !ok {
		t.Fatal("expected marker visible when year is unset")
	}
}

func TestYearPercent(t *testing.T) {
	if got := YearPercent(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Fatalf("YearPercent(Jan 1) = %v, want 0", got)
	}
	if got := YearPercent(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); !approx(got, 50) {
		t.Fatalf("YearPercent(Jul 1) = %v, want 50", got)
	}
}

func TestMinimapWindow(t *testing.T) {
	left, width := MinimapWindow(ViewportState{StartMonth: 3, MonthsCount: 6})
	if !approx(left, 25) || !approx(width, 50) {
		t.Fatalf("MinimapWindow() = %v, %v; want 25, 50", left, width)
	}
	left, width = MinimapWindow(ViewportState{StartMonth: 9, MonthsCount: 5})
	if !approx(left, 75) || !approx(width, 25) {
		t.Fatalf("MinimapWindow() past december = %v, %v; want 75, 25", left, width)
	}
}

func TestColumns(t *testing.T) {
	cases := []struct {
		name      string
		left      float64
		width     float64
		cells     int
		wantStart int
		wantSpan  int
	}{
		{name: "example bar", left: 0, width: 70, cells: 100, wantStart: 0, wantSpan: 70},
		{name: "tiny bar keeps one cell", left: 50, width: 0.1, cells: 40, wantStart: 20, wantSpan: 1},
		{name: "right edge clipped", left: 95, width: 20, cells: 20, wantStart: 19, wantSpan: 1},
		{name: "no cells", left: 0, width: 50, cells: 0, wantStart: 0, wantSpan: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, span := Columns(tc.left, tc.width, tc.cells)
			if start != tc.wantStart || span != tc.wantSpan {
				t.Fatalf("Columns() = %d, %d; want %d, %d", start, span, tc.wantStart, tc.wantSpan)
			}
		})
	}
}
