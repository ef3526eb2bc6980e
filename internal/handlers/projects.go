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

type projectQueries interface {
	CreateProject(ctx context.Context, arg store.CreateProjectParams) (store.Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]store.Project, error)
	UpdateProjectTitle(ctx context.Context, arg store.UpdateProjectTitleParams) error
	DeleteProject(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, arg store.AddParticipantParams) error
	RemoveParticipant(ctx context.Context, arg store.RemoveParticipantParams) (sql.Result, error)
	ListParticipants(ctx context.Context, projectID string) ([]store.Participant, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
}

// membershipLoader resolves a project after checking the caller's
// membership, enforcing the pending-invitation write rule.
type membershipLoader interface {
	Load(ctx context.Context, projectID, userID string, write bool) (store.Project, error)
}

// ProjectHandler serves project CRUD and participant management. Every
// mutation announces itself through the hub so watching clients
// refresh within one flush cycle.
type ProjectHandler struct {
	queries    projectQueries
	membership membershipLoader
	hub        announcer
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(queries projectQueries, membership membershipLoader, hub announcer) *ProjectHandler {
	return &ProjectHandler{queries: queries, membership: membership, hub: hub}
}

// List returns every project the caller participates in.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	projects, err := h.queries.ListProjectsByUser(r.Context(), claims.UserID())
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch projects", err)
		return
	}

	response := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		response[i] = projectToResponse(p)
	}
	writeJSON(w, http.StatusOK, response)
}

// Create makes a new project with the caller as its first participant.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	project, err := h.queries.CreateProject(r.Context(), store.CreateProjectParams{
		ID:        uuid.NewString(),
		Title:     req.Title,
		CreatedBy: claims.UserID(),
	})
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create project", err)
		return
	}

	if err := h.queries.AddParticipant(r.Context(), store.AddParticipantParams{
		ProjectID: project.ID,
		UserID:    claims.UserID(),
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to add creator", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: claims.UserID()}))

	writeJSON(w, http.StatusCreated, projectToResponse(project))
}

// Get returns one project the caller is a member of.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(project))
}

// Update renames a project and announces it to subscribers.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	var req models.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	if err := h.queries.UpdateProjectTitle(r.Context(), store.UpdateProjectTitleParams{
		Title: req.Title,
		ID:    project.ID,
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to update project", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProject, Project: project.ID}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Delete removes a project. Only its creator may delete it; every
// participant gets a project-list update and a forced unsubscribe.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}
	if project.CreatedBy != claims.UserID() {
		writeError(w, http.StatusForbidden, "only the project creator can delete it")
		return
	}

	participants, err := h.queries.ListParticipants(r.Context(), project.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch participants", err)
		return
	}

	if err := h.queries.DeleteProject(r.Context(), project.ID); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to delete project", err)
		return
	}

	for _, p := range participants {
		h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: p.UserID}))
		h.hub.Drop(p.UserID, project.ID)
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Participants lists a project's members.
func (h *ProjectHandler) Participants(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	participants, err := h.queries.ListParticipants(r.Context(), project.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to fetch participants", err)
		return
	}

	response := make([]models.ParticipantResponse, len(participants))
	for i, p := range participants {
		response[i] = models.ParticipantResponse{
			UserID:      p.UserID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			IsPending:   p.IsPending,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// AddParticipant invites a user to the project.
func (h *ProjectHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	var req models.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	if _, err := h.queries.GetUserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to look up user", err)
		return
	}

	if err := h.queries.AddParticipant(r.Context(), store.AddParticipantParams{
		ProjectID: project.ID,
		UserID:    req.UserID,
		IsPending: true,
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to add participant", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProject, Project: project.ID}))
	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: req.UserID}))
	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectContacts, User: req.UserID}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// RemoveParticipant uninvites a user. Their live connections are
// force-unsubscribed from the project.
func (h *ProjectHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "user")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), true)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}
	if targetID == project.CreatedBy {
		writeError(w, http.StatusBadRequest, "the project creator cannot be removed")
		return
	}

	res, err := h.queries.RemoveParticipant(r.Context(), store.RemoveParticipantParams{
		ProjectID: project.ID,
		UserID:    targetID,
	})
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to remove participant", err)
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		writeError(w, http.StatusNotFound, "participant not found")
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProject, Project: project.ID}))
	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: targetID}))
	h.hub.Drop(targetID, project.ID)

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Join accepts a pending invitation.
func (h *ProjectHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	// Read access is enough: the caller is the pending member.
	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	if err := h.queries.AddParticipant(r.Context(), store.AddParticipantParams{
		ProjectID: project.ID,
		UserID:    claims.UserID(),
		IsPending: false,
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to join project", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProject, Project: project.ID}))
	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: claims.UserID()}))

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Leave removes the caller from the project and force-unsubscribes
// their connections.
func (h *ProjectHandler) Leave(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	projectID := chi.URLParam(r, "id")

	project, err := h.membership.Load(r.Context(), projectID, claims.UserID(), false)
	if err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}
	if project.CreatedBy == claims.UserID() {
		writeError(w, http.StatusBadRequest, "the project creator cannot leave; delete the project instead")
		return
	}

	if _, err := h.queries.RemoveParticipant(r.Context(), store.RemoveParticipantParams{
		ProjectID: project.ID,
		UserID:    claims.UserID(),
	}); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to leave project", err)
		return
	}

	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProject, Project: project.ID}))
	h.hub.Enqueue(stamp(claims, streamer.Update{Object: streamer.ObjectProjects, User: claims.UserID()}))
	h.hub.Drop(claims.UserID(), project.ID)

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

func projectToResponse(p store.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:        p.ID,
		Title:     p.Title,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}
