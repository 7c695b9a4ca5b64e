package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// Service represents service data used by this package.
type Service interface {
	ListTasks(context.Context) ([]domain.Task, error)
	SearchTasks(context.Context, string) ([]domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTask(context.Context, string, app.UpdateTaskInput) (domain.Task, error)
	DeleteTask(context.Context, string) error
	SetTaskCompleted(context.Context, string, bool) (domain.Task, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeSearch
	modeAddTask
	modeEditTask
	modeEditTitle
	modeConfirmDelete
	modeTaskInfo
)

const (
	defaultTitle = "Project roadmap"
	// dragThreshold is the horizontal drag distance, in cells, that pans one month.
	dragThreshold = 4
)

// errNoService is reported when the model was built without a backing service.
var errNoService = errors.New("task service unavailable")

// Model is the Gantt chart screen.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	title           string
	viewport        timeline.ViewportState
	dayAlignedStart bool
	showToday       bool
	showMinimap     bool

	tasks              []domain.Task
	selectedTaskID     string
	pendingFocusTaskID string

	mode        inputMode
	searchInput textinput.Model
	searchQuery string
	titleInput  textinput.Model

	formInputs    []textinput.Model
	formFocus     int
	formStatus    int
	formErr       string
	editingTaskID string

	pendingDelete domain.Task

	dragging    bool
	dragAnchorX int

	details  *detailRenderer
	clock    func() time.Time
	copyText func(string) error
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	tasks []domain.Task
	err   error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	focusTaskID string
	closeForm   bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := newModalInput("/ ", "name, details, owner or status", "", 120)
	titleInput := newModalInput("title: ", defaultTitle, "", 80)
	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		title:       defaultTitle,
		viewport:    timeline.NewViewport(0, timeline.DefaultZoom),
		showToday:   true,
		showMinimap: true,
		searchInput: searchInput,
		titleInput:  titleInput,
		details:     &detailRenderer{},
		clock:       time.Now,
		copyText:    clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if m.viewport.Year == 0 {
		m.viewport.Year = m.now().Year()
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		recovered := m.err != nil
		m.err = nil
		m.tasks = msg.tasks
		if m.pendingFocusTaskID != "" {
			if task, ok := m.taskByID(m.pendingFocusTaskID); ok {
				m.selectedTaskID = task.ID
				m.revealTask(task)
			}
			m.pendingFocusTaskID = ""
		}
		m.retainSelection()
		if recovered || m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			if m.mode == modeAddTask || m.mode == modeEditTask {
				m.formErr = msg.err.Error()
			}
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.closeForm {
			m.closeTaskForm()
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.pendingFocusTaskID = msg.focusTaskID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		m.dragging = false
		return m, nil

	default:
		return m, nil
	}
}

// loadData loads the task list, filtered by the applied search.
func (m Model) loadData() tea.Msg {
	if m.svc == nil {
		return loadedMsg{err: errNoService}
	}
	ctx := context.Background()
	if query := strings.TrimSpace(m.searchQuery); query != "" {
		tasks, err := m.svc.SearchTasks(ctx, query)
		return loadedMsg{tasks: tasks, err: err}
	}
	tasks, err := m.svc.ListTasks(ctx)
	return loadedMsg{tasks: tasks, err: err}
}

// handleNormalModeKey handles keys while no modal is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.clearOverlay):
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
			return m, nil
		}
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.status = "search cleared"
			return m, m.loadData
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.zoomIn):
		if !timeline.CanZoomIn(m.viewport) {
			m.status = "already at maximum zoom"
			return m, nil
		}
		m.viewport = timeline.ZoomIn(m.viewport)
		m.status = zoomLabel(m.viewport)
		return m, nil
	case key.Matches(msg, m.keys.zoomOut):
		if !timeline.CanZoomOut(m.viewport) {
			m.status = "already at minimum zoom"
			return m, nil
		}
		m.viewport = timeline.ZoomOut(m.viewport)
		m.status = zoomLabel(m.viewport)
		return m, nil
	case key.Matches(msg, m.keys.panLeft):
		return m.pan(timeline.PanLeft), nil
	case key.Matches(msg, m.keys.panRight):
		return m.pan(timeline.PanRight), nil
	case key.Matches(msg, m.keys.quarter):
		q, err := strconv.Atoi(msg.String())
		if err != nil {
			return m, nil
		}
		m.viewport = timeline.JumpToQuarter(m.viewport, q)
		m.status = fmt.Sprintf("Q%d · %s", q, windowLabel(m.viewport))
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.moveSelection(1)
		return m, nil
	case key.Matches(msg, m.keys.search):
		return m, m.startSearchMode()
	case key.Matches(msg, m.keys.addTask):
		return m, m.startTaskForm(nil)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.startTaskForm(&task)
	case key.Matches(msg, m.keys.toggleDone):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.setCompleted(task, !task.Completed)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.pendingDelete = task
		m.mode = modeConfirmDelete
		m.status = "confirm delete"
		return m, nil
	case key.Matches(msg, m.keys.taskInfo):
		if _, ok := m.selectedTask(); !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.status = "task details"
		return m, nil
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTask(task)
	case key.Matches(msg, m.keys.editTitle):
		return m, m.startTitleMode()
	default:
		return m, nil
	}
}

// handleInputModeKey routes keys to the open modal.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeAddTask, modeEditTask:
		return m.handleTaskFormKey(msg)
	case modeEditTitle:
		return m.handleTitleKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	case modeTaskInfo:
		return m.handleTaskInfoKey(msg)
	default:
		m.mode = modeNone
		return m, nil
	}
}

// startSearchMode starts search mode.
func (m *Model) startSearchMode() tea.Cmd {
	m.mode = modeSearch
	m.searchInput.SetValue(m.searchQuery)
	m.searchInput.CursorEnd()
	m.status = "search"
	return m.searchInput.Focus()
}

func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.searchInput.Blur()
		m.status = "ready"
		return m, nil
	case "enter":
		m.mode = modeNone
		m.searchInput.Blur()
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		if m.searchQuery == "" {
			m.status = "search cleared"
		} else {
			m.status = "search: " + m.searchQuery
		}
		return m, m.loadData
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleTaskFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeTaskForm()
		m.status = "cancelled"
		return m, nil
	case "tab", "down":
		return m, m.focusTaskFormField((m.formFocus + 1) % len(m.formInputs))
	case "shift+tab", "up":
		return m, m.focusTaskFormField((m.formFocus - 1 + len(m.formInputs)) % len(m.formInputs))
	case "enter":
		return m.submitTaskForm()
	}
	if m.formFocus == taskFieldStatus {
		switch msg.String() {
		case "left", "h":
			m.cycleFormStatus(-1)
		case "right", "l", "space":
			m.cycleFormStatus(1)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	m.formErr = ""
	return m, cmd
}

// submitTaskForm validates the form and issues the create or update.
// The form stays open until the store accepts the change.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	values, err := m.parseTaskForm()
	if err != nil {
		m.formErr = err.Error()
		m.status = "fix the highlighted field"
		return m, nil
	}
	if m.svc == nil {
		m.formErr = errNoService.Error()
		return m, nil
	}
	svc := m.svc
	m.formErr = ""
	m.status = "saving..."
	if m.mode == modeAddTask {
		in := values.createInput()
		return m, func() tea.Msg {
			task, err := svc.CreateTask(context.Background(), in)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "created " + task.Name, reload: true, focusTaskID: task.ID, closeForm: true}
		}
	}
	taskID := m.editingTaskID
	patch := values.updateInput()
	return m, func() tea.Msg {
		task, err := svc.UpdateTask(context.Background(), taskID, patch)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "updated " + task.Name, reload: true, focusTaskID: task.ID, closeForm: true}
	}
}

func (m *Model) closeTaskForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.formErr = ""
	m.editingTaskID = ""
}

// startTitleMode opens the title editor prefilled with the current title.
func (m *Model) startTitleMode() tea.Cmd {
	m.mode = modeEditTitle
	m.titleInput.SetValue(m.title)
	m.titleInput.CursorEnd()
	m.status = "edit title"
	return m.titleInput.Focus()
}

func (m Model) handleTitleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.titleInput.Blur()
		m.status = "ready"
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			m.status = "title cannot be empty"
			return m, nil
		}
		m.title = title
		m.mode = modeNone
		m.titleInput.Blur()
		m.status = "title updated"
		return m, nil
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmDeleteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		task := m.pendingDelete
		m.pendingDelete = domain.Task{}
		m.mode = modeNone
		if m.svc == nil {
			m.status = "error: " + errNoService.Error()
			return m, nil
		}
		svc := m.svc
		m.status = "deleting..."
		return m, func() tea.Msg {
			if err := svc.DeleteTask(context.Background(), task.ID); err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "deleted " + task.Name, reload: true}
		}
	case "n", "esc", "q":
		m.pendingDelete = domain.Task{}
		m.mode = modeNone
		m.status = "delete cancelled"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) handleTaskInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" || key.Matches(msg, m.keys.taskInfo) || key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.copyTask(task)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.startTaskForm(&task)
	case key.Matches(msg, m.keys.moveUp):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.moveSelection(1)
		return m, nil
	default:
		return m, nil
	}
}

// setCompleted returns the command toggling task completion.
func (m Model) setCompleted(task domain.Task, completed bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc == nil {
			return actionMsg{err: errNoService}
		}
		updated, err := svc.SetTaskCompleted(context.Background(), task.ID, completed)
		if err != nil {
			return actionMsg{err: err}
		}
		verb := "reopened "
		if updated.Completed {
			verb = "completed "
		}
		return actionMsg{status: verb + updated.Name, reload: true, focusTaskID: updated.ID}
	}
}

// copyTask returns the command writing the task summary to the clipboard.
func (m Model) copyTask(task domain.Task) tea.Cmd {
	write := m.copyText
	summary := taskSummary(task)
	return func() tea.Msg {
		if err := write(summary); err != nil {
			return actionMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return actionMsg{status: "copied " + task.Name}
	}
}

// pan moves the window one month and reports when it is already at the edge.
func (m Model) pan(dir timeline.Direction) Model {
	before := m.viewport.StartMonth
	m.viewport = timeline.Pan(m.viewport, dir)
	if m.viewport.StartMonth == before {
		if dir == timeline.PanLeft {
			m.status = "already at the start of the year"
		} else {
			m.status = "already at the end of the year"
		}
		return m
	}
	m.status = windowLabel(m.viewport)
	return m
}

// handleMouseWheel pans the timeline.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp, tea.MouseWheelLeft:
		return m.pan(timeline.PanLeft), nil
	case tea.MouseWheelDown, tea.MouseWheelRight:
		return m.pan(timeline.PanRight), nil
	}
	return m, nil
}

// handleMouseClick selects the clicked row and anchors a drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	m.dragging = true
	m.dragAnchorX = msg.X
	view := m.chart()
	if idx, ok := m.rowAt(view, msg.Y); ok {
		m.selectedTaskID = view.Rows[idx].Task.ID
	}
	return m, nil
}

// handleMouseMotion pans once per threshold of horizontal drag.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.dragging || m.mode != modeNone {
		return m, nil
	}
	next, moved := timeline.DragPan(m.viewport, msg.X-m.dragAnchorX, dragThreshold)
	if moved {
		m.viewport = next
		m.dragAnchorX = msg.X
		m.status = windowLabel(m.viewport)
	}
	return m, nil
}

// chart lays out the loaded tasks against the current viewport.
func (m Model) chart() app.TimelineView {
	return app.BuildTimeline(m.tasks, m.viewport, m.now(), m.dayAlignedStart)
}

// selectedIndex returns the row index of the selection, falling back to the first row.
func (m Model) selectedIndex(rows []app.TimelineRow) int {
	for idx, row := range rows {
		if row.Task.ID == m.selectedTaskID {
			return idx
		}
	}
	if len(rows) > 0 {
		return 0
	}
	return -1
}

// selectedTask returns the selected task among the visible rows.
func (m Model) selectedTask() (domain.Task, bool) {
	rows := m.chart().Rows
	idx := m.selectedIndex(rows)
	if idx < 0 {
		return domain.Task{}, false
	}
	return rows[idx].Task, true
}

// moveSelection moves the selection by delta visible rows.
func (m *Model) moveSelection(delta int) {
	rows := m.chart().Rows
	if len(rows) == 0 {
		return
	}
	idx := clamp(m.selectedIndex(rows)+delta, 0, len(rows)-1)
	m.selectedTaskID = rows[idx].Task.ID
}

// retainSelection keeps the selection on a loaded task.
func (m *Model) retainSelection() {
	if _, ok := m.taskByID(m.selectedTaskID); ok {
		return
	}
	m.selectedTaskID = ""
	if rows := m.chart().Rows; len(rows) > 0 {
		m.selectedTaskID = rows[0].Task.ID
	}
}

// revealTask pans to the start of task when it is outside the window but inside the year.
func (m *Model) revealTask(task domain.Task) {
	pos := timeline.ComputePosition(task, m.viewport, timeline.WithDayAlignedStart(m.dayAlignedStart))
	if pos.Visible {
		return
	}
	year := m.viewport.Year
	if task.EndDate.Year() < year || task.StartDate.Year() > year {
		return
	}
	month := 0
	if task.StartDate.Year() == year {
		month = int(task.StartDate.Month()) - 1
	}
	m.viewport.StartMonth = clamp(month, 0, max(0, timeline.MonthsPerYear-m.viewport.MonthsCount))
}

// taskByID finds a loaded task.
func (m Model) taskByID(id string) (domain.Task, bool) {
	if id == "" {
		return domain.Task{}, false
	}
	for _, task := range m.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

func (m Model) now() time.Time {
	if m.clock == nil {
		return time.Now()
	}
	return m.clock()
}

// taskSummary formats the one-line clipboard summary of task.
func taskSummary(task domain.Task) string {
	parts := []string{
		fmt.Sprintf("%s (%s → %s, %d days)", task.Name, task.StartDate.Format(time.DateOnly), task.EndDate.Format(time.DateOnly), task.DurationDays()),
		task.Status.Label(),
	}
	if task.Completed {
		parts = append(parts, "completed")
	}
	if task.Responsible != "" {
		parts = append(parts, task.Responsible)
	}
	return strings.Join(parts, " · ")
}

// zoomLabel describes the zoom level for the status line.
func zoomLabel(vp timeline.ViewportState) string {
	return fmt.Sprintf("zoom %d%% · %d months", int(vp.Zoom*100+0.5), vp.MonthsCount)
}

// windowLabel names the first and last visible months.
func windowLabel(vp timeline.ViewportState) string {
	months := timeline.VisibleMonths(vp)
	if len(months) == 0 {
		return "no months"
	}
	first, last := months[0], months[len(months)-1]
	if first.Index == last.Index {
		return first.Short()
	}
	return first.Short() + " → " + last.Short()
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
