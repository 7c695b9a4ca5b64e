package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minDetailWrap keeps narrow panels readable.
const minDetailWrap = 24

// detailRenderer renders task details as markdown and rebuilds the glamour renderer when the panel width changes.
type detailRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns styled details, or the raw text when glamour cannot render it.
func (r *detailRenderer) render(details string, width int) string {
	details = strings.TrimSpace(details)
	if details == "" {
		return ""
	}

	wrapWidth := max(minDetailWrap, width)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return details
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(details)
	if err != nil {
		return details
	}
	return strings.Trim(rendered, "\n")
}
