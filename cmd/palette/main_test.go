package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/gantt/internal/domain"
)

func TestRenderStatusTable(t *testing.T) {
	out := ansi.Strip(renderStatusTable())
	for _, status := range domain.Statuses() {
		desc := status.Descriptor()
		if !strings.Contains(out, string(status)) || !strings.Contains(out, desc.Label) {
			t.Fatalf("expected %q / %q in palette:\n%s", status, desc.Label, out)
		}
	}
	if !strings.Contains(out, "✓ Critical path") {
		t.Fatalf("expected completed sample in palette:\n%s", out)
	}
}

func TestRenderChromeTable(t *testing.T) {
	out := ansi.Strip(renderChromeTable())
	for _, want := range []string{"Accent", "Today marker", "203"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in chrome table:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "Planned", max: 10, want: "Planned"},
		{in: " External development", max: 10, want: " External…"},
		{in: "abc", max: 3, want: "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestContrastColor(t *testing.T) {
	if contrastColor(0) != "15" || contrastColor(11) != "0" || contrastColor(240) != "15" || contrastColor(250) != "0" {
		t.Fatal("unexpected contrast colors")
	}
}
