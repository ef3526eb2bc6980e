package models

import "time"

// Accounts

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// Projects

type CreateProjectRequest struct {
	Title string `json:"title"`
}

type UpdateProjectRequest struct {
	Title string `json:"title"`
}

type ProjectResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type ParticipantResponse struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	IsPending   bool   `json:"isPending,omitempty"`
}

type AddParticipantRequest struct {
	UserID string `json:"userId"`
}

// Tasks

type CreateTaskRequest struct {
	Title string `json:"title"`
}

type UpdateTaskRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

type TaskResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateTaskDetailRequest struct {
	Note string `json:"note"`
}

type TaskDetailResponse struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task"`
	UserID    string    `json:"user"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// Streams

type StreamTokenResponse struct {
	Token string `json:"token"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
