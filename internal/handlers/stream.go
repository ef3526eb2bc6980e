package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskgrove/backend/internal/middleware"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/services"
)

// subscriber is the hub's subscription control surface.
type subscriber interface {
	Subscribe(ctx context.Context, connectionID, projectID, userID string) error
	Unsubscribe(ctx context.Context, connectionID, projectID, userID string) error
}

// SubscriptionHandler exposes the hub's subscribe/unsubscribe
// operations to the authenticated request pipeline, plus stream token
// issuance for the socket-side initialize handshake.
type SubscriptionHandler struct {
	hub  subscriber
	auth *services.AuthService
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(hub subscriber, auth *services.AuthService) *SubscriptionHandler {
	return &SubscriptionHandler{hub: hub, auth: auth}
}

// Token issues a short-lived credential bound to the named connection,
// which the client then presents in its initialize message.
func (h *SubscriptionHandler) Token(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	connectionID := chi.URLParam(r, "id")

	token, err := h.auth.GenerateStreamToken(claims.UserID(), connectionID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate stream token", err)
		return
	}

	writeJSON(w, http.StatusOK, models.StreamTokenResponse{Token: token})
}

// Subscribe attaches the caller's stream connection to a project's
// update feed. The hub confirms over the stream as well.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	connectionID := chi.URLParam(r, "id")
	projectID := chi.URLParam(r, "project")

	if err := h.hub.Subscribe(r.Context(), connectionID, projectID, claims.UserID()); err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Unsubscribe detaches the caller's stream connection from a project.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	connectionID := chi.URLParam(r, "id")
	projectID := chi.URLParam(r, "project")

	if err := h.hub.Unsubscribe(r.Context(), connectionID, projectID, claims.UserID()); err != nil {
		writeStreamerError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}
