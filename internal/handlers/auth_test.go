package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskgrove/backend/internal/crypto"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/store"
)

// mockUserQueries implements userQueries over an in-memory map.
type mockUserQueries struct {
	usersByName map[string]store.User
	createErr   error
	created     []store.User
}

func (m *mockUserQueries) CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error) {
	if m.createErr != nil {
		return store.User{}, m.createErr
	}
	user := store.User{
		ID:           arg.ID,
		Username:     arg.Username,
		DisplayName:  arg.DisplayName,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
	}
	m.created = append(m.created, user)
	return user, nil
}

func (m *mockUserQueries) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	user, ok := m.usersByName[username]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func newAuthTestHandler(mock *mockUserQueries) (*AuthHandler, *services.AuthService) {
	authService := services.NewAuthService("test-secret", time.Hour)
	return NewAuthHandler(mock, authService), authService
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		existing       map[string]store.User
		expectedStatus int
	}{
		{
			name:           "successful registration",
			body:           models.RegisterRequest{Username: "alice", DisplayName: "Alice", Password: "hunter22"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "username normalized to lowercase",
			body:           models.RegisterRequest{Username: "  Bob  ", Password: "hunter22"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate username",
			body:           models.RegisterRequest{Username: "alice", Password: "hunter22"},
			existing:       map[string]store.User{"alice": {ID: "u1", Username: "alice"}},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing password",
			body:           models.RegisterRequest{Username: "alice"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing username",
			body:           models.RegisterRequest{Password: "hunter22"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockUserQueries{usersByName: tt.existing}
			handler, authService := newAuthTestHandler(mock)

			body, _ := json.Marshal(tt.body)
			req := createTestRequest(http.MethodPost, "/api/users", body, "", nil)
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusCreated {
				var resp models.LoginResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				claims, err := authService.ValidateToken(resp.Token)
				if err != nil {
					t.Fatalf("Returned token did not validate: %v", err)
				}
				if claims.UserID() != resp.UserID {
					t.Errorf("Token subject = %s, want %s", claims.UserID(), resp.UserID)
				}
			}
		})
	}
}

func TestRegisterLowercasesUsername(t *testing.T) {
	mock := &mockUserQueries{}
	handler, _ := newAuthTestHandler(mock)

	body, _ := json.Marshal(models.RegisterRequest{Username: "  Carol ", Password: "hunter22"})
	req := createTestRequest(http.MethodPost, "/api/users", body, "", nil)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(mock.created) != 1 {
		t.Fatalf("Created %d users, want 1", len(mock.created))
	}
	if mock.created[0].Username != "carol" {
		t.Errorf("Username = %q, want %q", mock.created[0].Username, "carol")
	}
	if mock.created[0].DisplayName != "carol" {
		t.Errorf("DisplayName = %q, want username fallback %q", mock.created[0].DisplayName, "carol")
	}
}

func TestLogin(t *testing.T) {
	passwordHash, err := crypto.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	existing := map[string]store.User{
		"alice": {ID: "u1", Username: "alice", PasswordHash: passwordHash},
	}

	tests := []struct {
		name           string
		body           models.LoginRequest
		expectedStatus int
	}{
		{
			name:           "successful login",
			body:           models.LoginRequest{Username: "alice", Password: "hunter22"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "mixed case username",
			body:           models.LoginRequest{Username: "Alice", Password: "hunter22"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			body:           models.LoginRequest{Username: "alice", Password: "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			body:           models.LoginRequest{Username: "mallory", Password: "hunter22"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockUserQueries{usersByName: existing}
			handler, _ := newAuthTestHandler(mock)

			body, _ := json.Marshal(tt.body)
			req := createTestRequest(http.MethodPost, "/api/login", body, "", nil)
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("Status = %d, want %d", rec.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				var resp models.LoginResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.UserID != "u1" {
					t.Errorf("UserID = %s, want u1", resp.UserID)
				}
			}
		})
	}
}
