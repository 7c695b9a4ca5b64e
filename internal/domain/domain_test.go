package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTaskDefaultsAndTrimming(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{
		ID:          "t1",
		Name:        "  Payments rollout ",
		StartDate:   time.Date(2026, 1, 3, 17, 30, 0, 0, time.FixedZone("x", -5*3600)),
		EndDate:     date(2026, 2, 10),
		Responsible: " Payments team ",
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Name != "Payments rollout" {
		t.Fatalf("unexpected name %q", task.Name)
	}
	if task.Responsible != "Payments team" {
		t.Fatalf("unexpected responsible %q", task.Responsible)
	}
	if task.Status != StatusPlanned {
		t.Fatalf("expected default status planned, got %q", task.Status)
	}
	if !task.StartDate.Equal(date(2026, 1, 3)) {
		t.Fatalf("expected start date normalized to 2026-01-03, got %s", task.StartDate)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %s / %s", task.CreatedAt, task.UpdatedAt)
	}
}

func TestNewTaskValidation(t *testing.T) {
	now := time.Now()
	valid := TaskInput{ID: "t1", Name: "ok", StartDate: date(2026, 1, 1), EndDate: date(2026, 1, 2)}

	cases := []struct {
		name   string
		mutate func(*TaskInput)
		want   error
	}{
		{name: "missing id", mutate: func(in *TaskInput) { in.ID = " " }, want: ErrInvalidID},
		{name: "missing name", mutate: func(in *TaskInput) { in.Name = "   " }, want: ErrInvalidName},
		{name: "missing start", mutate: func(in *TaskInput) { in.StartDate = time.Time{} }, want: ErrInvalidStartDate},
		{name: "missing end", mutate: func(in *TaskInput) { in.EndDate = time.Time{} }, want: ErrInvalidEndDate},
		{name: "end before start", mutate: func(in *TaskInput) { in.EndDate = date(2025, 12, 31) }, want: ErrInvalidDateRange},
		{name: "unknown status", mutate: func(in *TaskInput) { in.Status = "waiting" }, want: ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if _, err := NewTask(in, now); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewTaskAllowsSingleDay(t *testing.T) {
	task, err := NewTask(TaskInput{ID: "t1", Name: "deploy", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 1)}, time.Now())
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.DurationDays() != 1 {
		t.Fatalf("expected 1 day, got %d", task.DurationDays())
	}
}

func TestTaskApplyPartialUpdate(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Name: "a", StartDate: date(2026, 1, 1), EndDate: date(2026, 1, 31), Details: "keep"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	status := StatusBlocked
	end := date(2026, 3, 15)
	later := now.Add(time.Hour)
	if err := task.Apply(TaskPatch{Status: &status, EndDate: &end}, later); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if task.Status != StatusBlocked || !task.EndDate.Equal(end) {
		t.Fatalf("unexpected task after patch %#v", task)
	}
	if task.Details != "keep" || task.Name != "a" {
		t.Fatalf("expected untouched fields to survive, got %#v", task)
	}
	if !task.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %s, got %s", later, task.UpdatedAt)
	}
}

func TestTaskApplyRejectsInvalidPatchWithoutMutation(t *testing.T) {
	now := time.Now()
	task, err := NewTask(TaskInput{ID: "t1", Name: "a", StartDate: date(2026, 5, 1), EndDate: date(2026, 5, 31)}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	before := task
	name := "renamed"
	start := date(2026, 6, 1)
	if err := task.Apply(TaskPatch{Name: &name, StartDate: &start}, now.Add(time.Minute)); err != ErrInvalidDateRange {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if task != before {
		t.Fatalf("expected task unchanged, got %#v", task)
	}
	bad := Status("nope")
	if err := task.Apply(TaskPatch{Status: &bad}, now); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	blank := " "
	if err := task.Apply(TaskPatch{Name: &blank}, now); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestTaskSetCompletedKeepsStatus(t *testing.T) {
	now := time.Now()
	task, err := NewTask(TaskInput{ID: "t1", Name: "a", StartDate: date(2026, 1, 1), EndDate: date(2026, 1, 2), Status: StatusCritical}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	task.SetCompleted(true, now.Add(time.Minute))
	if !task.Completed || task.Status != StatusCritical {
		t.Fatalf("unexpected completion state %#v", task)
	}
}

func TestTaskMatches(t *testing.T) {
	task := Task{Name: "Wallet notifications", Details: "fee alerts", Responsible: "Product", Status: StatusBlocked}
	for _, query := range []string{"", "wallet", "ALERTS", "product", "blocked", "  notif "} {
		if !task.Matches(query) {
			t.Fatalf("expected %q to match", query)
		}
	}
	if task.Matches("security") {
		t.Fatal("expected security not to match")
	}
}

func TestParseStatusAndDescriptors(t *testing.T) {
	got, err := ParseStatus(" In-Development ")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got != StatusInDevelopment {
		t.Fatalf("unexpected status %q", got)
	}
	if _, err := ParseStatus("unknown"); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	statuses := Statuses()
	if len(statuses) != 9 {
		t.Fatalf("expected 9 statuses, got %d", len(statuses))
	}
	seen := map[string]struct{}{}
	for _, status := range statuses {
		desc := status.Descriptor()
		if desc.Label == "" || desc.ColorToken == "" {
			t.Fatalf("missing descriptor for %q", status)
		}
		if _, ok := seen[desc.Label]; ok {
			t.Fatalf("duplicate label %q", desc.Label)
		}
		seen[desc.Label] = struct{}{}
	}
	if Status("custom").Label() != "custom" {
		t.Fatalf("expected unknown status label fallback")
	}
}
