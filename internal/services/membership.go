package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskgrove/backend/internal/store"
	"github.com/taskgrove/backend/internal/streamer"
)

// MembershipService answers project access questions against the
// store. It implements streamer.MembershipChecker for the hub and
// backs the same checks in the CRUD handlers.
type MembershipService struct {
	queries *store.Queries
}

// NewMembershipService creates a MembershipService over the given queries.
func NewMembershipService(queries *store.Queries) *MembershipService {
	return &MembershipService{queries: queries}
}

// CheckMember confirms the user may watch the project. Pending
// invitees can watch; they just cannot write. Returns
// streamer.ErrNotFound for a missing project and streamer.ErrForbidden
// for a non-member.
func (s *MembershipService) CheckMember(ctx context.Context, projectID, userID string) error {
	if _, err := s.queries.GetProjectByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %s: %w", projectID, streamer.ErrNotFound)
		}
		return err
	}

	if _, err := s.queries.GetParticipant(ctx, store.GetParticipantParams{
		ProjectID: projectID,
		UserID:    userID,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("not a project member: %w", streamer.ErrForbidden)
		}
		return err
	}
	return nil
}

// Load fetches the project after confirming membership. With write set,
// a pending invitation is rejected: the user must accept before making
// changes.
func (s *MembershipService) Load(ctx context.Context, projectID, userID string, write bool) (store.Project, error) {
	project, err := s.queries.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Project{}, fmt.Errorf("project %s: %w", projectID, streamer.ErrNotFound)
		}
		return store.Project{}, err
	}

	participant, err := s.queries.GetParticipant(ctx, store.GetParticipantParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Project{}, fmt.Errorf("not a project member: %w", streamer.ErrForbidden)
		}
		return store.Project{}, err
	}
	if write && participant.IsPending {
		return store.Project{}, fmt.Errorf("invitation not yet accepted: %w", streamer.ErrForbidden)
	}
	return project, nil
}
