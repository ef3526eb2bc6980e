package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskgrove/backend/internal/logging"
	"github.com/taskgrove/backend/internal/models"
	"github.com/taskgrove/backend/internal/services"
	"github.com/taskgrove/backend/internal/streamer"
)

// announcer is the slice of the hub the CRUD handlers talk to: queue a
// change notification, or force-drop a user's project subscriptions.
type announcer interface {
	Enqueue(update streamer.Update)
	Drop(userID, projectID string)
}

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a client error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}

// writeErrorWithCause writes an error response and logs the error with stack trace.
// Use this for server errors where you have an underlying error to log.
func writeErrorWithCause(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message)

	// Don't log 401/403 - handled by security event logging
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return
	}

	if status >= 400 && err != nil {
		wrappedErr := logging.WrapError(err, message)
		logging.LogErrorWithStatus(ctx, status, "error response", wrappedErr)
	}
}

// writeStreamerError maps the hub's error taxonomy onto HTTP statuses.
func writeStreamerError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, streamer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, streamer.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, streamer.ErrForbidden):
		logging.LogSecurityEvent(ctx, logging.SecurityEventForbiddenProject, err.Error())
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeErrorWithCause(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// stamp fills the actor fields of an update from the caller's
// credentials so clients can suppress echoes of their own changes.
func stamp(claims *services.Claims, update streamer.Update) streamer.Update {
	if claims != nil {
		update.By = claims.UserID()
		update.MacID = claims.CredentialSuffix()
	}
	return update
}
