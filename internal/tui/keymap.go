package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig rebinds chart actions; blank entries keep the built-in key.
type KeyConfig struct {
	Search          string
	AddTask         string
	EditTask        string
	ToggleCompleted string
	DeleteTask      string
	CopyTask        string
	EditTitle       string
}

// keyMap holds the chart screen bindings.
type keyMap struct {
	quit         key.Binding
	reload       key.Binding
	toggleHelp   key.Binding
	zoomIn       key.Binding
	zoomOut      key.Binding
	panLeft      key.Binding
	panRight     key.Binding
	quarter      key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	search       key.Binding
	addTask      key.Binding
	editTask     key.Binding
	toggleDone   key.Binding
	deleteTask   key.Binding
	taskInfo     key.Binding
	copyTask     key.Binding
	editTitle    key.Binding
	clearOverlay key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		zoomIn:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		zoomOut:      key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		panLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "earlier month")),
		panRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "later month")),
		quarter:      key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "jump to quarter")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		addTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		toggleDone:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle completed")),
		deleteTask:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		taskInfo:     key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task details")),
		copyTask:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		editTitle:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "edit title")),
		clearOverlay: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.zoomIn, k.zoomOut, k.panLeft, k.panRight, k.addTask, k.taskInfo, k.search, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.zoomIn, k.zoomOut, k.panLeft, k.panRight, k.quarter, k.moveUp, k.moveDown},
		{k.addTask, k.editTask, k.toggleDone, k.deleteTask, k.taskInfo, k.copyTask},
		{k.search, k.clearOverlay, k.editTitle, k.reload, k.toggleHelp, k.quit},
	}
}

// applyConfig rebinds the configurable actions.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.search, cfg.Search, "/", "search")
	configureBinding(&k.addTask, cfg.AddTask, "n", "new task")
	configureBinding(&k.editTask, cfg.EditTask, "e", "edit task")
	configureBinding(&k.toggleDone, cfg.ToggleCompleted, "c", "toggle completed")
	configureBinding(&k.deleteTask, cfg.DeleteTask, "d", "delete task")
	configureBinding(&k.copyTask, cfg.CopyTask, "y", "copy task")
	configureBinding(&k.editTitle, cfg.EditTitle, "t", "edit title")
}

// configureBinding replaces the keys of b with raw, or fallback when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher keys and a help label.
// Uppercase letters also match their shift+ form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	if raw == "" || (strings.TrimSpace(raw) == "" && raw != " ") {
		raw = fallback
	}
	if raw == " " || strings.EqualFold(strings.TrimSpace(raw), "space") {
		return []string{" ", "space"}, "space"
	}
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}
