package store

import (
	"context"
	"database/sql"
	"time"
)

type CreateTaskParams struct {
	ID        string
	ProjectID string
	Title     string
	Status    string
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.ProjectID, arg.Title, arg.Status, now, now)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:        arg.ID,
		ProjectID: arg.ProjectID,
		Title:     arg.Title,
		Status:    arg.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (q *Queries) GetTaskByID(ctx context.Context, id string) (Task, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) ListTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, project_id, title, status, created_at, updated_at
		 FROM tasks WHERE project_id = ?
		 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type UpdateTaskParams struct {
	Title  string
	Status string
	ID     string
}

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, status = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Status, time.Now().UTC(), arg.ID)
	return err
}

func (q *Queries) DeleteTask(ctx context.Context, id string) (sql.Result, error) {
	return q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
}

type CreateTaskDetailParams struct {
	TaskID string
	UserID string
	Note   string
}

func (q *Queries) CreateTaskDetail(ctx context.Context, arg CreateTaskDetailParams) (TaskDetail, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO task_details (task_id, user_id, note, created_at) VALUES (?, ?, ?, ?)`,
		arg.TaskID, arg.UserID, arg.Note, now)
	if err != nil {
		return TaskDetail{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TaskDetail{}, err
	}
	return TaskDetail{ID: id, TaskID: arg.TaskID, UserID: arg.UserID, Note: arg.Note, CreatedAt: now}, nil
}

func (q *Queries) ListTaskDetails(ctx context.Context, taskID string) ([]TaskDetail, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, task_id, user_id, note, created_at
		 FROM task_details WHERE task_id = ?
		 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []TaskDetail
	for rows.Next() {
		var d TaskDetail
		if err := rows.Scan(&d.ID, &d.TaskID, &d.UserID, &d.Note, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
