package app

import (
	"context"

	"github.com/evanschultz/gantt/internal/domain"
)

// Repository is the task table the service reads and writes.
// ListTasks orders rows by start date ascending.
type Repository interface {
	ListTasks(context.Context) ([]domain.Task, error)
	GetTask(context.Context, string) (domain.Task, error)
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	DeleteTask(context.Context, string) error
	CountTasks(context.Context) (int, error)
}
