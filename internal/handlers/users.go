package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskgrove/backend/internal/middleware"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

type profileQueries interface {
	GetUserByID(ctx context.Context, id string) (store.User, error)
	UpdateUserProfile(ctx context.Context, arg store.UpdateUserProfileParams) error
	ListContacts(ctx context.Context, userID string) ([]store.User, error)
}

// UserHandler serves the authenticated user's profile and contacts.
type UserHandler struct {
	queries profileQueries
	hub     announcer
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(queries profileQueries, hub announcer) *UserHandler {
	return &UserHandler{queries: queries, hub: hub}
}

// Profile returns the caller's account.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	user, err := h.queries.GetUserByID(r.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch profile", err)
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(user))
}

// UpdateProfile changes the caller's display name and email, then
// announces the change to the user's other live connections.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "displayName is required")
		return
	}

	if err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		ID:          claims.UserID(),
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to update profile", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProfile, User: claims.UserID()}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Contacts lists every user sharing a project with the caller.
func (h *UserHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	contacts, err := h.queries.ListContacts(r.Context(), claims.UserID())
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch contacts", err)
		return
	}

	response := make([]models.UserResponse, len(contacts))
	for i, user := range contacts {
		response[i] = userToResponse(user)
	}
	writeJSON(w, http.StatusOK, response)
}

func userToResponse(user store.User) models.UserResponse {
	return models.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		CreatedAt:   user.CreatedAt,
	}
}
