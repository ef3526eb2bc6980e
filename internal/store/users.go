package store

import (
	"context"
	"time"
)

type CreateUserParams struct {
	ID           string
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, username, display_name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Username, arg.DisplayName, arg.Email, arg.PasswordHash, now)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           arg.ID,
		Username:     arg.Username,
		DisplayName:  arg.DisplayName,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    now,
	}, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, email, password_hash, created_at
		 FROM users WHERE id = ?`, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, display_name, email, password_hash, created_at
		 FROM users WHERE username = ?`, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

type UpdateUserProfileParams struct {
	DisplayName string
	Email       string
	ID          string
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = ? WHERE id = ?`,
		arg.DisplayName, arg.Email, arg.ID)
	return err
}

// ListContacts returns every distinct user who shares at least one
// project with the given user.
func (q *Queries) ListContacts(ctx context.Context, userID string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.username, u.display_name, u.email, u.password_hash, u.created_at
		 FROM users u
		 JOIN project_participants pp ON pp.user_id = u.id
		 WHERE pp.project_id IN (
		     SELECT project_id FROM project_participants WHERE user_id = ?
		 ) AND u.id != ?
		 ORDER BY u.display_name`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
