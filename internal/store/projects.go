package store

import (
	"context"
	"database/sql"
	"time"
)

type CreateProjectParams struct {
	ID        string
	Title     string
	CreatedBy string
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, created_by, created_at) VALUES (?, ?, ?, ?)`,
		arg.ID, arg.Title, arg.CreatedBy, now)
	if err != nil {
		return Project{}, err
	}
	return Project{ID: arg.ID, Title: arg.Title, CreatedBy: arg.CreatedBy, CreatedAt: now}, nil
}

func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, title, created_by, created_at FROM projects WHERE id = ?`, id)
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (q *Queries) ListProjectsByUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.created_by, p.created_at
		 FROM projects p
		 JOIN project_participants pp ON pp.project_id = p.id
		 WHERE pp.user_id = ?
		 ORDER BY p.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type UpdateProjectTitleParams struct {
	Title string
	ID    string
}

func (q *Queries) UpdateProjectTitle(ctx context.Context, arg UpdateProjectTitleParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE projects SET title = ? WHERE id = ?`, arg.Title, arg.ID)
	return err
}

func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

type AddParticipantParams struct {
	ProjectID string
	UserID    string
	IsPending bool
}

func (q *Queries) AddParticipant(ctx context.Context, arg AddParticipantParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO project_participants (project_id, user_id, is_pending, added_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (project_id, user_id) DO UPDATE SET is_pending = excluded.is_pending`,
		arg.ProjectID, arg.UserID, arg.IsPending, time.Now().UTC())
	return err
}

type RemoveParticipantParams struct {
	ProjectID string
	UserID    string
}

func (q *Queries) RemoveParticipant(ctx context.Context, arg RemoveParticipantParams) (sql.Result, error) {
	return q.db.ExecContext(ctx,
		`DELETE FROM project_participants WHERE project_id = ? AND user_id = ?`,
		arg.ProjectID, arg.UserID)
}

type GetParticipantParams struct {
	ProjectID string
	UserID    string
}

// GetParticipant returns the user's membership row, or sql.ErrNoRows
// when the user does not participate in the project.
func (q *Queries) GetParticipant(ctx context.Context, arg GetParticipantParams) (Participant, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT pp.project_id, pp.user_id, u.username, u.display_name, pp.is_pending
		 FROM project_participants pp
		 JOIN users u ON u.id = pp.user_id
		 WHERE pp.project_id = ? AND pp.user_id = ?`,
		arg.ProjectID, arg.UserID)
	var p Participant
	err := row.Scan(&p.ProjectID, &p.UserID, &p.Username, &p.DisplayName, &p.IsPending)
	return p, err
}

func (q *Queries) ListParticipants(ctx context.Context, projectID string) ([]Participant, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT pp.project_id, pp.user_id, u.username, u.display_name, pp.is_pending
		 FROM project_participants pp
		 JOIN users u ON u.id = pp.user_id
		 WHERE pp.project_id = ?
		 ORDER BY u.display_name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ProjectID, &p.UserID, &p.Username, &p.DisplayName, &p.IsPending); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
