// Package store provides the query layer over the sqlite database.
// Methods follow the generated-queries convention used throughout the
// handlers: context-first, Params structs for multi-field arguments.
package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX abstracts *sql.DB and *sql.Tx so queries can run in either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is a registered account.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Project is a collaborative workspace owning tasks and participants.
type Project struct {
	ID        string
	Title     string
	CreatedBy string
	CreatedAt time.Time
}

// Participant is a user's membership in a project. Pending members
// have been invited but not yet accepted.
type Participant struct {
	ProjectID   string
	UserID      string
	Username    string
	DisplayName string
	IsPending   bool
}

// Task is a unit of work within a project.
type Task struct {
	ID        string
	ProjectID string
	Title     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskDetail is one activity note attached to a task.
type TaskDetail struct {
	ID        int64
	TaskID    string
	UserID    string
	Note      string
	CreatedAt time.Time
}
