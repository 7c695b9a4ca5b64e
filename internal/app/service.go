package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	// SeedFixture is an optional YAML or JSON file used by SeedIfEmpty instead of the built-in samples.
	SeedFixture string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service exposes the task CRUD surface used by the TUI and server transports.
type Service struct {
	repo        Repository
	idGen       IDGenerator
	clock       Clock
	seedFixture string
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:        repo,
		idGen:       idGen,
		clock:       clock,
		seedFixture: strings.TrimSpace(cfg.SeedFixture),
	}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock()
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Status      domain.Status
	Completed   bool
	Details     string
	Responsible string
}

// UpdateTaskInput holds a partial update; nil fields are left unchanged.
type UpdateTaskInput = domain.TaskPatch

// ListTasks lists every task ordered by start date.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx)
}

// SearchTasks lists the tasks matching query on name, details, responsible or status label.
func (s *Service) SearchTasks(ctx context.Context, query string) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTasks(tasks, query), nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(taskID))
}

// CreateTask creates task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		Name:        in.Name,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
		Completed:   in.Completed,
		Details:     in.Details,
		Responsible: in.Responsible,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *Service) UpdateTask(ctx context.Context, taskID string, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Apply(in, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.DeleteTask(ctx, taskID)
}

// SetTaskCompleted marks a task complete or reopens it.
func (s *Service) SetTaskCompleted(ctx context.Context, taskID string, completed bool) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return domain.Task{}, err
	}
	task.SetCompleted(completed, s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// SeedIfEmpty fills an empty table with sample tasks and returns how many were created.
// A populated table is left alone.
func (s *Service) SeedIfEmpty(ctx context.Context) (int, error) {
	count, err := s.repo.CountTasks(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	now := s.clock()
	inputs := SampleTasks(now.Year())
	if s.seedFixture != "" {
		inputs, err = LoadSeedFixture(s.seedFixture, now.Year())
		if err != nil {
			return 0, err
		}
	}
	created := 0
	for idx, in := range inputs {
		if _, err := s.CreateTask(ctx, in); err != nil {
			return created, fmt.Errorf("seed task %d (%q): %w", idx, in.Name, err)
		}
		created++
	}
	return created, nil
}

// FilterTasks keeps the tasks matching query, preserving order.
func FilterTasks(tasks []domain.Task, query string) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Matches(query) {
			out = append(out, task)
		}
	}
	return out
}
