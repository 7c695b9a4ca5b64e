package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
)

// taskFormFields stores task-form field labels in display order.
var taskFormFields = []string{"name", "start", "end", "status", "responsible", "details"}

// task-form field indexes used throughout keyboard/update logic.
const (
	taskFieldName = iota
	taskFieldStart
	taskFieldEnd
	taskFieldStatus
	taskFieldResponsible
	taskFieldDetails
)

// newTaskSpanDays is the default length of a task created from the chart.
const newTaskSpanDays = 14

// taskFormValues is the parsed, validated content of the task form.
type taskFormValues struct {
	Name        string
	Start       time.Time
	End         time.Time
	Status      domain.Status
	Responsible string
	Details     string
}

// newModalInput constructs one unfocused form input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.SetValue(value)
	return in
}

// startTaskForm opens the form for a new task, or for editing task when it is not nil.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	start := m.defaultNewTaskStart()
	m.formInputs = []textinput.Model{
		newModalInput("", "task name (required)", "", 120),
		newModalInput("", "YYYY-MM-DD", start.Format(time.DateOnly), 10),
		newModalInput("", "YYYY-MM-DD", start.AddDate(0, 0, newTaskSpanDays-1).Format(time.DateOnly), 10),
		newModalInput("", "←/→ to change", "", 0),
		newModalInput("", "owner (optional)", "", 120),
		newModalInput("", "markdown notes (optional)", "", 2000),
	}
	m.formStatus = statusIndex(domain.StatusPlanned)
	m.formErr = ""
	if task != nil {
		m.formInputs[taskFieldName].SetValue(task.Name)
		m.formInputs[taskFieldStart].SetValue(task.StartDate.Format(time.DateOnly))
		m.formInputs[taskFieldEnd].SetValue(task.EndDate.Format(time.DateOnly))
		m.formInputs[taskFieldResponsible].SetValue(task.Responsible)
		m.formInputs[taskFieldDetails].SetValue(task.Details)
		m.formStatus = statusIndex(task.Status)
		m.mode = modeEditTask
		m.editingTaskID = task.ID
		m.status = "edit task"
	} else {
		m.mode = modeAddTask
		m.editingTaskID = ""
		m.status = "new task"
	}
	return m.focusTaskFormField(taskFieldName)
}

// defaultNewTaskStart returns today when it is inside the chart year, else January 1 of that year.
func (m Model) defaultNewTaskStart() time.Time {
	today := domain.NormalizeDate(m.now())
	if m.viewport.Year == 0 || today.Year() == m.viewport.Year {
		return today
	}
	return time.Date(m.viewport.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// focusTaskFormField moves focus to idx and blurs the other inputs.
func (m *Model) focusTaskFormField(idx int) tea.Cmd {
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	if idx == taskFieldStatus {
		return nil
	}
	return m.formInputs[idx].Focus()
}

// cycleFormStatus steps the status picker by delta, wrapping at either end.
func (m *Model) cycleFormStatus(delta int) {
	statuses := domain.Statuses()
	m.formStatus = (m.formStatus + delta + len(statuses)) % len(statuses)
}

// formStatusValue returns the status selected in the picker.
func (m Model) formStatusValue() domain.Status {
	statuses := domain.Statuses()
	return statuses[clamp(m.formStatus, 0, len(statuses)-1)]
}

// parseTaskForm validates the form and returns the values to submit.
func (m Model) parseTaskForm() (taskFormValues, error) {
	name := strings.TrimSpace(m.formInputs[taskFieldName].Value())
	if name == "" {
		return taskFormValues{}, errors.New("name is required")
	}
	start, err := parseFormDate("start", m.formInputs[taskFieldStart].Value())
	if err != nil {
		return taskFormValues{}, err
	}
	end, err := parseFormDate("end", m.formInputs[taskFieldEnd].Value())
	if err != nil {
		return taskFormValues{}, err
	}
	if end.Before(start) {
		return taskFormValues{}, errors.New("end date must not be before start date")
	}
	return taskFormValues{
		Name:        name,
		Start:       start,
		End:         end,
		Status:      m.formStatusValue(),
		Responsible: strings.TrimSpace(m.formInputs[taskFieldResponsible].Value()),
		Details:     strings.TrimSpace(m.formInputs[taskFieldDetails].Value()),
	}, nil
}

// parseFormDate parses one YYYY-MM-DD form field.
func parseFormDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s date is required", field)
	}
	ts, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s date must be YYYY-MM-DD", field)
	}
	return ts, nil
}

// createInput converts form values into a create request.
func (v taskFormValues) createInput() app.CreateTaskInput {
	return app.CreateTaskInput{
		Name:        v.Name,
		StartDate:   v.Start,
		EndDate:     v.End,
		Status:      v.Status,
		Details:     v.Details,
		Responsible: v.Responsible,
	}
}

// updateInput converts form values into a full patch.
func (v taskFormValues) updateInput() app.UpdateTaskInput {
	return app.UpdateTaskInput{
		Name:        &v.Name,
		StartDate:   &v.Start,
		EndDate:     &v.End,
		Status:      &v.Status,
		Details:     &v.Details,
		Responsible: &v.Responsible,
	}
}

// statusIndex returns the legend position of status, or 0 when unknown.
func statusIndex(status domain.Status) int {
	for idx, candidate := range domain.Statuses() {
		if candidate == status {
			return idx
		}
	}
	return 0
}
