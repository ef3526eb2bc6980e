package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskgrove/backend/internal/middleware"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

// taskStatuses are the accepted values for a task's status field.
var taskStatuses = map[string]bool{
	"open":    true,
	"pending": true,
	"close":   true,
}

type taskQueries interface {
	CreateTask(ctx context.Context, arg store.CreateTaskParams) (store.Task, error)
	GetTaskByID(ctx context.Context, id string) (store.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]store.Task, error)
	UpdateTask(ctx context.Context, arg store.UpdateTaskParams) error
	DeleteTask(ctx context.Context, id string) (sql.Result, error)
	CreateTaskDetail(ctx context.Context, arg store.CreateTaskDetailParams) (store.TaskDetail, error)
	ListTaskDetails(ctx context.Context, taskID string) ([]store.TaskDetail, error)
}

// TaskHandler serves task CRUD and task activity notes within a
// project. Mutations announce tasks/task/details updates to the
// project's subscribers.
type TaskHandler struct {
	queries    taskQueries
	membership membershipLoader
	hub        announcer
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(queries taskQueries, membership membershipLoader, hub announcer) *TaskHandler {
	return &TaskHandler{queries: queries, membership: membership, hub: hub}
}

// List returns the project's tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	tasks, err := h.queries.ListTasksByProject(r.Context(), project.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch tasks", err)
		return
	}

	response := make([]models.TaskResponse, len(tasks))
	for i, t := range tasks {
		response[i] = taskToResponse(t)
	}
	writeJSON(w, http.StatusOK, response)
}

// Create adds a task to the project.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	task, err := h.queries.CreateTask(r.Context(), store.CreateTaskParams{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Title:     req.Title,
		Status:    "open",
	})
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create task", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectTasks, Project: project.ID}))

	writeJSON(w, http.StatusCreated, taskToResponse(task))
}

// Update changes one task's title or status.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "tid")

	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	task, err := h.loadProjectTask(r.Context(), project.ID, taskID)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	if req.Title == "" {
		req.Title = task.Title
	}
	if req.Status == "" {
		req.Status = task.Status
	} else if !taskStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.queries.UpdateTask(r.Context(), store.UpdateTaskParams{
		Title:  req.Title,
		Status: req.Status,
		ID:     task.ID,
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to update task", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectTask, Project: project.ID}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Delete removes one task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "tid")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	task, err := h.loadProjectTask(r.Context(), project.ID, taskID)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	if _, err := h.queries.DeleteTask(r.Context(), task.ID); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to delete task", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectTasks, Project: project.ID}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// ListDetails returns a task's activity notes.
func (h *TaskHandler) ListDetails(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "tid")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	task, err := h.loadProjectTask(r.Context(), project.ID, taskID)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	details, err := h.queries.ListTaskDetails(r.Context(), task.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch details", err)
		return
	}

	response := make([]models.TaskDetailResponse, len(details))
	for i, d := range details {
		response[i] = models.TaskDetailResponse{
			ID:        d.ID,
			TaskID:    d.TaskID,
			UserID:    d.UserID,
			Note:      d.Note,
			CreatedAt: d.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// AddDetail appends an activity note to a task.
func (h *TaskHandler) AddDetail(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")
	taskID := chi.URLParam(r, "tid")

	var req models.CreateTaskDetailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Note == "" {
		writeError(w, http.StatusBadRequest, "note is required")
		return
	}

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	task, err := h.loadProjectTask(r.Context(), project.ID, taskID)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	detail, err := h.queries.CreateTaskDetail(r.Context(), store.CreateTaskDetailParams{
		TaskID: task.ID,
		UserID: claims.UserID(),
		Note:   req.Note,
	})
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create detail", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectDetails, Project: project.ID}))

	writeJSON(w, http.StatusCreated, models.TaskDetailResponse{
		ID:        detail.ID,
		TaskID:    detail.TaskID,
		UserID:    detail.UserID,
		Note:      detail.Note,
		CreatedAt: detail.CreatedAt,
	})
}

// loadProjectTask fetches a task and confirms it belongs to the
// project named in the route.
func (h *TaskHandler) loadProjectTask(ctx context.Context, projectID, taskID string) (store.Task, error) {
	task, err := h.queries.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Task{}, streamer.ErrNotFound
		}
		return store.Task{}, err
	}
	if task.ProjectID != projectID {
		return store.Task{}, streamer.ErrNotFound
	}
	return task, nil
}

func taskToResponse(t store.Task) models.TaskResponse {
	return models.TaskResponse{
		ID:        t.ID,
		ProjectID: t.ProjectID,
		Title:     t.Title,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
