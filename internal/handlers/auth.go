// Package handlers implements the HTTP route handlers.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taskgrove/backend/internal/crypto"
	"github.com/taskgrove/backend/internal/logging"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/store"
)

// userQueries is the subset of the store the auth handler needs.
type userQueries interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

// AuthHandler serves account registration and login.
type AuthHandler struct {
	queries userQueries
	auth    *services.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(queries userQueries, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{queries: queries, auth: auth}
}

// Register creates an account and returns a bearer token for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	if _, err := h.queries.GetUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to check username", err)
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		ID:           uuid.NewString(),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create user", err)
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.LoginResponse{UserID: user.ID, Token: token})
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadPassword, "login for unknown user")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to look up user", err)
		return
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadPassword, "login with wrong password")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{UserID: user.ID, Token: token})
}
