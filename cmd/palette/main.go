// Package main prints the chart's status palette so color tokens can be checked in a given terminal.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evanschultz/gantt/internal/domain"
)

// sampleWidth is the width of each sample bar.
const sampleWidth = 22

// chromeColors are the non-status ANSI tokens the chart draws with.
var chromeColors = []struct {
	name  string
	token string
}{
	{"Accent", "62"},
	{"Muted text", "241"},
	{"Gridlines", "239"},
	{"Today marker", "203"},
	{"Selected label", "212"},
	{"Completed bar", "237"},
}

func main() {
	fmt.Println("=== STATUS PALETTE ===")
	fmt.Println(renderStatusTable())

	fmt.Println("\n=== CHART CHROME ===")
	fmt.Println(renderChromeTable())

	fmt.Println("\nLipgloss degrades these ANSI256 tokens to the closest color your terminal supports.")
}

func headerStyle(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	}
	return lipgloss.NewStyle().Padding(0, 1)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		StyleFunc(headerStyle)
}

// renderStatusTable lists every status in legend order with an open and a completed bar.
func renderStatusTable() string {
	t := newTable("Status", "Label", "Token", "Bar", "Completed")
	for _, status := range domain.Statuses() {
		desc := status.Descriptor()
		t.Row(
			string(status),
			desc.Label,
			desc.ColorToken,
			statusBar(desc, false),
			statusBar(desc, true),
		)
	}
	return t.Render()
}

// renderChromeTable lists the chart's non-status colors.
func renderChromeTable() string {
	t := newTable("Use", "Token", "Sample")
	for _, c := range chromeColors {
		sample := lipgloss.NewStyle().
			Background(lipgloss.Color(c.token)).
			Foreground(contrastColor(mustAtoi(c.token))).
			Width(10).
			Align(lipgloss.Center).
			Render(c.token)
		t.Row(c.name, c.token, sample)
	}
	return t.Render()
}

// statusBar mirrors how the chart paints a task bar.
func statusBar(desc domain.Descriptor, completed bool) string {
	style := lipgloss.NewStyle().
		Background(lipgloss.Color(desc.ColorToken)).
		Foreground(lipgloss.Color("235")).
		Width(sampleWidth)
	text := " " + desc.Label
	if completed {
		style = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color(desc.ColorToken)).
			Faint(true).
			Width(sampleWidth)
		text = " ✓ " + desc.Label
	}
	return style.Render(truncate(text, sampleWidth))
}

// contrastColor picks white or black text for an ANSI256 background.
func contrastColor(colorIndex int) lipgloss.Color {
	switch {
	case colorIndex < 16:
		if colorIndex == 0 || colorIndex == 1 || colorIndex == 4 || colorIndex == 5 || colorIndex == 8 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	case colorIndex >= 232:
		if colorIndex < 244 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	default:
		return lipgloss.Color("15")
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}

func mustAtoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
