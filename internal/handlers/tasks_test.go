package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

// mockTaskQueries implements taskQueries.
type mockTaskQueries struct {
	tasksByID      map[string]store.Task
	details        []store.TaskDetail
	updatedTask    *store.UpdateTaskParams
	deletedTaskID  string
	createdDetails []store.CreateTaskDetailParams
}

func (m *mockTaskQueries) CreateTask(ctx context.Context, arg store.CreateTaskParams) (store.Task, error) {
	return store.Task{ID: arg.ID, ProjectID: arg.ProjectID, Title: arg.Title, Status: arg.Status}, nil
}

func (m *mockTaskQueries) GetTaskByID(ctx context.Context, id string) (store.Task, error) {
	task, ok := m.tasksByID[id]
	if !ok {
		return store.Task{}, sql.ErrNoRows
	}
	return task, nil
}

func (m *mockTaskQueries) ListTasksByProject(ctx context.Context, projectID string) ([]store.Task, error) {
	var tasks []store.Task
	for _, t := range m.tasksByID {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *mockTaskQueries) UpdateTask(ctx context.Context, arg store.UpdateTaskParams) error {
	m.updatedTask = &arg
	return nil
}

func (m *mockTaskQueries) DeleteTask(ctx context.Context, id string) (sql.Result, error) {
	m.deletedTaskID = id
	return mockResult{rowsAffected: 1}, nil
}

func (m *mockTaskQueries) CreateTaskDetail(ctx context.Context, arg store.CreateTaskDetailParams) (store.TaskDetail, error) {
	m.createdDetails = append(m.createdDetails, arg)
	return store.TaskDetail{ID: int64(len(m.createdDetails)), TaskID: arg.TaskID, UserID: arg.UserID, Note: arg.Note}, nil
}

func (m *mockTaskQueries) ListTaskDetails(ctx context.Context, taskID string) ([]store.TaskDetail, error) {
	return m.details, nil
}

func newTaskTestHandler(mock *mockTaskQueries, hub *mockHub) *TaskHandler {
	membership := &mockMembership{project: store.Project{ID: "p1", CreatedBy: "user-1"}}
	return NewTaskHandler(mock, membership, hub)
}

func TestCreateTask(t *testing.T) {
	mock := &mockTaskQueries{}
	hub := &mockHub{}
	handler := newTaskTestHandler(mock, hub)

	body := []byte(`{"title":"Water the plants"}`)
	req := createTestRequest(http.MethodPost, "/api/projects/p1/tasks", body, "user-1", map[string]string{"id": "p1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(hub.updates) != 1 || hub.updates[0].Object != streamer.ObjectTasks || hub.updates[0].Project != "p1" {
		t.Errorf("Updates = %+v, want one tasks update for p1", hub.updates)
	}
}

func TestUpdateTask(t *testing.T) {
	existing := store.Task{ID: "t1", ProjectID: "p1", Title: "Old title", Status: "open"}

	tests := []struct {
		name           string
		taskID         string
		body           []byte
		expectedStatus int
		wantTitle      string
		wantStatus     string
	}{
		{
			name:           "update title keeps status",
			taskID:         "t1",
			body:           []byte(`{"title":"New title"}`),
			expectedStatus: http.StatusOK,
			wantTitle:      "New title",
			wantStatus:     "open",
		},
		{
			name:           "update status keeps title",
			taskID:         "t1",
			body:           []byte(`{"status":"close"}`),
			expectedStatus: http.StatusOK,
			wantTitle:      "Old title",
			wantStatus:     "close",
		},
		{
			name:           "invalid status",
			taskID:         "t1",
			body:           []byte(`{"status":"done"}`),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown task",
			taskID:         "ghost",
			body:           []byte(`{"title":"x"}`),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTaskQueries{tasksByID: map[string]store.Task{"t1": existing}}
			hub := &mockHub{}
			handler := newTaskTestHandler(mock, hub)

			req := createTestRequest(http.MethodPut, "/api/projects/p1/tasks/"+tt.taskID, tt.body, "user-1",
				map[string]string{"id": "p1", "tid": tt.taskID})
			rec := httptest.NewRecorder()

			handler.Update(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				if mock.updatedTask == nil {
					t.Fatal("UpdateTask was not called")
				}
				if mock.updatedTask.Title != tt.wantTitle || mock.updatedTask.Status != tt.wantStatus {
					t.Errorf("Updated to %q/%q, want %q/%q",
						mock.updatedTask.Title, mock.updatedTask.Status, tt.wantTitle, tt.wantStatus)
				}
				if len(hub.updates) != 1 || hub.updates[0].Object != streamer.ObjectTask {
					t.Errorf("Updates = %+v, want one task update", hub.updates)
				}
			}
		})
	}
}

func TestTaskProjectMismatch(t *testing.T) {
	// A task fetched through the wrong project's route reads as missing.
	mock := &mockTaskQueries{tasksByID: map[string]store.Task{
		"t1": {ID: "t1", ProjectID: "other-project", Title: "x", Status: "open"},
	}}
	handler := newTaskTestHandler(mock, &mockHub{})

	req := createTestRequest(http.MethodDelete, "/api/projects/p1/tasks/t1", nil, "user-1",
		map[string]string{"id": "p1", "tid": "t1"})
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if mock.deletedTaskID != "" {
		t.Errorf("DeleteTask was called for %s, want no call", mock.deletedTaskID)
	}
}

func TestAddTaskDetail(t *testing.T) {
	mock := &mockTaskQueries{tasksByID: map[string]store.Task{
		"t1": {ID: "t1", ProjectID: "p1", Title: "x", Status: "open"},
	}}
	hub := &mockHub{}
	handler := newTaskTestHandler(mock, hub)

	body := []byte(`{"note":"started on this"}`)
	req := createTestRequest(http.MethodPost, "/api/projects/p1/tasks/t1/details", body, "user-1",
		map[string]string{"id": "p1", "tid": "t1"})
	rec := httptest.NewRecorder()

	handler.AddDetail(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(mock.createdDetails) != 1 || mock.createdDetails[0].UserID != "user-1" {
		t.Errorf("Created details = %+v, want one by user-1", mock.createdDetails)
	}
	if len(hub.updates) != 1 || hub.updates[0].Object != streamer.ObjectDetails || hub.updates[0].Project != "p1" {
		t.Errorf("Updates = %+v, want one details update for p1", hub.updates)
	}
}
