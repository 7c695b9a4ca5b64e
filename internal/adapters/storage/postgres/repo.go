// Package postgres stores tasks in a hosted PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/lib/pq"
)

// driverName defines a package constant value.
const driverName = "postgres"

// taskColumns lists the selected task columns in scan order.
const taskColumns = `id, name, start_date, end_date, status, completed, details, responsible, created_at, updated_at`

var (
	ErrInvalidDSN          = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials = errors.New("connection string must not contain a password")
)

// Repository is the PostgreSQL task table.
type Repository struct {
	db *sql.DB
}

// ValidateDSN checks that dsn parses as a URL or key=value DSN and carries no password.
func ValidateDSN(dsn string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidDSN)
	}
	if _, err := pq.NewConnector(dsn); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	if isURLDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDSN, err)
		}
		if _, ok := u.User.Password(); ok {
			return ErrEmbeddedCredentials
		}
		return nil
	}
	for _, pair := range strings.Fields(dsn) {
		key, _, ok := strings.Cut(pair, "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), "password") {
			return ErrEmbeddedCredentials
		}
	}
	return nil
}

// WithPassword returns dsn with password attached. An empty password returns dsn unchanged.
func WithPassword(dsn, password string) (string, error) {
	if password == "" {
		return dsn, nil
	}
	if isURLDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDSN, err)
		}
		username := ""
		if u.User != nil {
			username = u.User.Username()
		}
		u.User = url.UserPassword(username, password)
		return u.String(), nil
	}
	quoted := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
	return strings.TrimSpace(dsn) + " password='" + quoted + "'", nil
}

// Open connects, checks the connection and ensures the schema.
// password, when set, is attached to dsn after validation so it never lives in config.
func Open(ctx context.Context, dsn, password string) (*Repository, error) {
	if err := ValidateDSN(dsn); err != nil {
		return nil, err
	}
	connStr, err := WithPassword(dsn, password)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !strings.Contains(strings.ToLower(dsn), "sslmode") {
			return nil, fmt.Errorf("connect postgres: %w (hint: add sslmode=disable to the connection string)", err)
		}
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'planned',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			details TEXT,
			responsible TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_start_date ON tasks(start_date)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

// ListTasks lists tasks ordered by start date.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY start_date ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// GetTask returns the requested task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// CreateTask creates the requested task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(id, name, start_date, end_date, status, completed, details, responsible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		t.ID,
		t.Name,
		t.StartDate.UTC(),
		t.EndDate.UTC(),
		string(t.Status),
		t.Completed,
		nullableText(t.Details),
		nullableText(t.Responsible),
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	return err
}

// UpdateTask updates state for the requested operation.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET name = $1, start_date = $2, end_date = $3, status = $4, completed = $5, details = $6, responsible = $7, updated_at = $8
		WHERE id = $9
	`,
		t.Name,
		t.StartDate.UTC(),
		t.EndDate.UTC(),
		string(t.Status),
		t.Completed,
		nullableText(t.Details),
		nullableText(t.Responsible),
		t.UpdatedAt.UTC(),
		t.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// DeleteTask deletes the requested task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CountTasks returns the number of stored tasks.
func (r *Repository) CountTasks(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tasks`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t           domain.Task
		statusRaw   string
		details     sql.NullString
		responsible sql.NullString
	)
	if err := s.Scan(
		&t.ID,
		&t.Name,
		&t.StartDate,
		&t.EndDate,
		&statusRaw,
		&t.Completed,
		&details,
		&responsible,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.StartDate = domain.NormalizeDate(t.StartDate)
	t.EndDate = domain.NormalizeDate(t.EndDate)
	t.Status = domain.Status(statusRaw)
	t.Details = details.String
	t.Responsible = responsible.String
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func nullableText(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func isURLDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
