package domain

import (
	"strings"
	"time"
)

// Task is one bar on the chart.
type Task struct {
	ID          string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Status      Status
	Completed   bool
	Details     string
	Responsible string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Status      Status
	Completed   bool
	Details     string
	Responsible string
}

// TaskPatch carries a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Name        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *Status
	Completed   *bool
	Details     *string
	Responsible *string
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Details = strings.TrimSpace(in.Details)
	in.Responsible = strings.TrimSpace(in.Responsible)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Name == "" {
		return Task{}, ErrInvalidName
	}
	if in.StartDate.IsZero() {
		return Task{}, ErrInvalidStartDate
	}
	if in.EndDate.IsZero() {
		return Task{}, ErrInvalidEndDate
	}
	start, end := NormalizeDate(in.StartDate), NormalizeDate(in.EndDate)
	if end.Before(start) {
		return Task{}, ErrInvalidDateRange
	}
	if in.Status == "" {
		in.Status = StatusPlanned
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidStatus
	}

	return Task{
		ID:          in.ID,
		Name:        in.Name,
		StartDate:   start,
		EndDate:     end,
		Status:      in.Status,
		Completed:   in.Completed,
		Details:     in.Details,
		Responsible: in.Responsible,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Apply validates and applies a partial update.
// The task is left untouched when validation fails.
func (t *Task) Apply(patch TaskPatch, now time.Time) error {
	next := *t
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrInvalidName
		}
		next.Name = name
	}
	if patch.StartDate != nil {
		if patch.StartDate.IsZero() {
			return ErrInvalidStartDate
		}
		next.StartDate = NormalizeDate(*patch.StartDate)
	}
	if patch.EndDate != nil {
		if patch.EndDate.IsZero() {
			return ErrInvalidEndDate
		}
		next.EndDate = NormalizeDate(*patch.EndDate)
	}
	if next.EndDate.Before(next.StartDate) {
		return ErrInvalidDateRange
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return ErrInvalidStatus
		}
		next.Status = *patch.Status
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}
	if patch.Details != nil {
		next.Details = strings.TrimSpace(*patch.Details)
	}
	if patch.Responsible != nil {
		next.Responsible = strings.TrimSpace(*patch.Responsible)
	}
	next.UpdatedAt = now.UTC()
	*t = next
	return nil
}

func (t *Task) SetCompleted(completed bool, now time.Time) {
	t.Completed = completed
	t.UpdatedAt = now.UTC()
}

// Matches reports whether query appears in the name, details, responsible or status label.
// An empty query matches every task.
func (t Task) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{t.Name, t.Details, t.Responsible, t.Status.Label()} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// DurationDays returns the inclusive day count between start and end.
func (t Task) DurationDays() int {
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// NormalizeDate drops the clock component and pins the date to UTC midnight.
func NormalizeDate(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
