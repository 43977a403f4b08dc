// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/covena/covena/pkg/models"
	"github.com/google/uuid"
)

// CreateTestRequest creates a Request with default values that can be
// overridden.
func CreateTestRequest(overrides ...func(*models.Request)) *models.Request {
	now := time.Now().UTC()

	request := &models.Request{
		ID:                uuid.New().String(),
		HomeownerID:       "homeowner-1",
		CommunityID:       "community-1",
		Type:              models.TypeExteriorModification,
		Title:             "Repaint front door",
		Description:       "Change the front door color to sage green",
		Priority:          models.PriorityMedium,
		Status:            models.StatusSubmitted,
		AssignedNeighbors: []string{"neighbor-1", "neighbor-2", "neighbor-3", "neighbor-4"},
		SubmittedAt:       now,
		UpdatedAt:         now,
	}

	request.AppendEvent(models.NewTimelineEvent(request.HomeownerID, "", models.TimelineSubmitted,
		"request submitted"))

	for _, override := range overrides {
		override(request)
	}

	return request
}

// WithStatus sets the request status.
func WithStatus(status models.RequestStatus) func(*models.Request) {
	return func(r *models.Request) {
		r.Status = status
	}
}

// WithReview attaches a management review in the given state.
func WithReview(status models.ReviewStatus, recommendation models.Recommendation) func(*models.Request) {
	return func(r *models.Request) {
		r.Review = &models.ManagementReview{
			Status:         status,
			Recommendation: recommendation,
			Reviewer:       "manager-1",
		}
	}
}

// WithNeighborApprovals records approvals from the first n assigned neighbors.
func WithNeighborApprovals(n int) func(*models.Request) {
	return func(r *models.Request) {
		for i := 0; i < n && i < len(r.AssignedNeighbors); i++ {
			r.SetNeighborApproval(models.NeighborApproval{
				NeighborID:  r.AssignedNeighbors[i],
				Status:      models.ApprovalApproved,
				SubmittedAt: time.Now().UTC(),
			})
		}
	}
}

// WithBoardVotes records the given votes keyed by board member id.
func WithBoardVotes(votes map[string]models.VoteChoice) func(*models.Request) {
	return func(r *models.Request) {
		for memberID, vote := range votes {
			r.SetBoardVote(models.BoardVote{
				BoardMemberID: memberID,
				Vote:          vote,
				SubmittedAt:   time.Now().UTC(),
			})
		}
	}
}
