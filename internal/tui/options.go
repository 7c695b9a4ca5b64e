package tui

import (
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/timeline"
)

type Option func(*Model)

// WithTitle sets the initial chart title.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.title = title
		}
	}
}

// WithDefaultZoom sets the zoom level the chart opens at.
func WithDefaultZoom(level float64) Option {
	return func(m *Model) {
		m.viewport = timeline.Zoom(m.viewport, level)
	}
}

// WithYear pins the chart to one year. Zero follows the clock.
func WithYear(year int) Option {
	return func(m *Model) {
		if year > 0 {
			m.viewport.Year = year
		}
	}
}

func WithDayAlignedStart(enabled bool) Option {
	return func(m *Model) {
		m.dayAlignedStart = enabled
	}
}

func WithShowToday(enabled bool) Option {
	return func(m *Model) {
		m.showToday = enabled
	}
}

func WithShowMinimap(enabled bool) Option {
	return func(m *Model) {
		m.showMinimap = enabled
	}
}

// WithKeyConfig applies configured key overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClock replaces the wall clock used for the today marker and new-task defaults.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
