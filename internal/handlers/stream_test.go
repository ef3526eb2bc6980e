package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/streamer"
)

// mockSubscriber implements subscriber.
type mockSubscriber struct {
	subscribeErr   error
	unsubscribeErr error
	gotConnection  string
	gotProject     string
	gotUser        string
}

func (m *mockSubscriber) Subscribe(ctx context.Context, connectionID, projectID, userID string) error {
	m.gotConnection, m.gotProject, m.gotUser = connectionID, projectID, userID
	return m.subscribeErr
}

func (m *mockSubscriber) Unsubscribe(ctx context.Context, connectionID, projectID, userID string) error {
	m.gotConnection, m.gotProject, m.gotUser = connectionID, projectID, userID
	return m.unsubscribeErr
}

func TestSubscribeStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"success", nil, http.StatusOK},
		{"unknown connection", streamer.ErrNotFound, http.StatusNotFound},
		{"uninitialized connection", streamer.ErrBadRequest, http.StatusBadRequest},
		{"foreign connection", streamer.ErrForbidden, http.StatusForbidden},
		{"membership lookup failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSubscriber{subscribeErr: tt.err}
			handler := NewSubscriptionHandler(mock, services.NewAuthService("test-secret", time.Hour))

			req := createTestRequest(http.MethodPost, "/api/streams/conn-1/projects/p1", nil, "user-1",
				map[string]string{"id": "conn-1", "project": "p1"})
			rec := httptest.NewRecorder()

			handler.Subscribe(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if mock.gotConnection != "conn-1" || mock.gotProject != "p1" || mock.gotUser != "user-1" {
				t.Errorf("Subscribe(%s, %s, %s), want (conn-1, p1, user-1)",
					mock.gotConnection, mock.gotProject, mock.gotUser)
			}
		})
	}
}

func TestUnsubscribeStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"success", nil, http.StatusOK},
		{"not subscribed", streamer.ErrNotFound, http.StatusNotFound},
		{"foreign connection", streamer.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSubscriber{unsubscribeErr: tt.err}
			handler := NewSubscriptionHandler(mock, services.NewAuthService("test-secret", time.Hour))

			req := createTestRequest(http.MethodDelete, "/api/streams/conn-1/projects/p1", nil, "user-1",
				map[string]string{"id": "conn-1", "project": "p1"})
			rec := httptest.NewRecorder()

			handler.Unsubscribe(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}
		})
	}
}

func TestStreamTokenIsBoundToConnection(t *testing.T) {
	authService := services.NewAuthService("test-secret", time.Hour)
	handler := NewSubscriptionHandler(&mockSubscriber{}, authService)

	req := createTestRequest(http.MethodPost, "/api/streams/conn-1/token", nil, "user-1",
		map[string]string{"id": "conn-1"})
	rec := httptest.NewRecorder()

	handler.Token(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp models.StreamTokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	userID, err := authService.Validate(context.Background(), "conn-1", resp.Token)
	if err != nil {
		t.Fatalf("Token did not validate for its own connection: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("UserID = %s, want user-1", userID)
	}

	// The same token presented over another connection is rejected.
	if _, err := authService.Validate(context.Background(), "conn-2", resp.Token); err == nil {
		t.Error("Token validated for a different connection")
	}
}
