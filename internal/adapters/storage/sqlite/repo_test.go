package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	_ "modernc.org/sqlite"
)

func newTask(t *testing.T, id, name string, start, end time.Time, now time.Time) domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskInput{
		ID:        id,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    domain.StatusInDevelopment,
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	return task
}

func TestRepository_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "gantt.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task := newTask(t, "t1", "Wallet notifications", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), now)
	task.Details = "Fee alerts"
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.Name != "Wallet notifications" || loaded.Details != "Fee alerts" || loaded.Responsible != "" {
		t.Fatalf("unexpected loaded task %#v", loaded)
	}
	if !loaded.StartDate.Equal(task.StartDate) || !loaded.EndDate.Equal(task.EndDate) {
		t.Fatalf("unexpected dates %s..%s", loaded.StartDate, loaded.EndDate)
	}
	if !loaded.CreatedAt.Equal(now) || loaded.Status != domain.StatusInDevelopment {
		t.Fatalf("unexpected metadata %#v", loaded)
	}

	later := now.Add(time.Hour)
	loaded.SetCompleted(true, later)
	loaded.Responsible = "Product team"
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	reloaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if !reloaded.Completed || reloaded.Responsible != "Product team" || !reloaded.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected reloaded task %#v", reloaded)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); err != app.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteTask(ctx, task.ID); err != app.ErrNotFound {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := repo.UpdateTask(ctx, task); err != app.ErrNotFound {
		t.Fatalf("expected ErrNotFound updating missing task, got %v", err)
	}
}

func TestRepository_ListOrderedByStartDate(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	starts := map[string]time.Time{
		"late":   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		"early":  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		"middle": time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range []string{"late", "early", "middle"} {
		start := starts[id]
		if err := repo.CreateTask(ctx, newTask(t, id, id, start, start.AddDate(0, 1, 0), now)); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", id, err)
		}
	}

	count, err := repo.CountTasks(ctx)
	if err != nil {
		t.Fatalf("CountTasks() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 tasks, got %d", count)
	}
	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	want := []string{"early", "middle", "late"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("tasks[%d] = %q, want %q", i, tasks[i].ID, id)
		}
	}
}

func TestRepository_ReadsTimestampDates(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "gantt.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks(id, name, start_date, end_date, status, completed, created_at, updated_at)
		VALUES ('x', 'external row', '2026-01-01T00:00:00.000Z', '2026-04-15T00:00:00.000Z', 'critical', 1, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')
	`)
	if err != nil {
		t.Fatalf("insert external row error = %v", err)
	}

	task, err := repo.GetTask(ctx, "x")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.StartDate.Day() != 1 || task.EndDate.Month() != time.April || task.EndDate.Day() != 15 {
		t.Fatalf("unexpected dates %s..%s", task.StartDate, task.EndDate)
	}
	if !task.Completed || task.Details != "" {
		t.Fatalf("unexpected task %#v", task)
	}
}

func TestRepository_ServiceRoundTrip(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	ids := 0
	svc := app.NewService(repo, func() string {
		ids++
		return "seed-" + string(rune('a'+ids))
	}, func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{})

	created, err := svc.SeedIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	tasks, err := svc.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if created != 15 || len(tasks) != 15 {
		t.Fatalf("expected 15 tasks, got created=%d listed=%d", created, len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].StartDate.Before(tasks[i-1].StartDate) {
			t.Fatalf("tasks out of order at %d: %s before %s", i, tasks[i].StartDate, tasks[i-1].StartDate)
		}
	}
}
