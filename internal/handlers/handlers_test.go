package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taskgrove/backend/internal/middleware"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

// mockHub records the updates and drops the handlers announce.
type mockHub struct {
	updates []streamer.Update
	drops   []dropCall
}

type dropCall struct {
	userID    string
	projectID string
}

func (m *mockHub) Enqueue(update streamer.Update) {
	m.updates = append(m.updates, update)
}

func (m *mockHub) Drop(userID, projectID string) {
	m.drops = append(m.drops, dropCall{userID: userID, projectID: projectID})
}

// mockMembership implements membershipLoader.
type mockMembership struct {
	project   store.Project
	err       error
	lastWrite bool
}

func (m *mockMembership) Load(ctx context.Context, projectID, userID string, write bool) (store.Project, error) {
	m.lastWrite = write
	if m.err != nil {
		return store.Project{}, m.err
	}
	return m.project, nil
}

// mockResult implements sql.Result for testing.
type mockResult struct {
	rowsAffected int64
}

func (r mockResult) LastInsertId() (int64, error) { return 0, nil }
func (r mockResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

func testClaims(userID string) *services.Claims {
	return &services.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
			ID:      "credential-12345678",
		},
	}
}

// createTestRequest builds a request carrying claims and chi URL params,
// the way the router middleware would.
func createTestRequest(method, path string, body []byte, userID string, urlParams map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ClaimsKey, testClaims(userID))
	}

	rctx := chi.NewRouteContext()
	for k, v := range urlParams {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}
