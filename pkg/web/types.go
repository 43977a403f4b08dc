package web

import "github.com/covena/covena/pkg/models"

// Request bodies for the inbound boundary. Validation happens here, before
// anything reaches the orchestrator.

type SubmitRequestBody struct {
	HomeownerID       string             `json:"homeowner_id"       validate:"required"`
	CommunityID       string             `json:"community_id"`
	Type              models.RequestType `json:"type"               validate:"required"`
	Title             string             `json:"title"              validate:"required,min=3"`
	Description       string             `json:"description"`
	Priority          models.Priority    `json:"priority"           validate:"omitempty,oneof=low medium high"`
	AssignedNeighbors []string           `json:"assigned_neighbors"`
}

type OpenReviewBody struct {
	Reviewer string `json:"reviewer" validate:"required"`
}

type CompleteReviewBody struct {
	Reviewer       string                `json:"reviewer"        validate:"required"`
	Recommendation models.Recommendation `json:"recommendation"  validate:"required,oneof=approve reject"`
	CCRsReferences []string              `json:"ccrs_references"`
}

type RequestInfoBody struct {
	Reviewer string `json:"reviewer" validate:"required"`
	Message  string `json:"message"`
}

type ReplyBody struct {
	ActorID string `json:"actor_id" validate:"required"`
	Message string `json:"message"`
}

type NeighborApprovalBody struct {
	NeighborID string                `json:"neighbor_id" validate:"required"`
	Status     models.ApprovalStatus `json:"status"      validate:"required,oneof=approved rejected"`
	Comments   string                `json:"comments"`
}

type BoardVoteBody struct {
	BoardMemberID string            `json:"board_member_id" validate:"required"`
	Vote          models.VoteChoice `json:"vote"            validate:"required,oneof=approve reject abstain"`
}

type CompleteWorkBody struct {
	ActorID string `json:"actor_id" validate:"required"`
}

type AppealBody struct {
	ActorID string `json:"actor_id" validate:"required"`
	Reason  string `json:"reason"`
}

type CancelBody struct {
	ActorID string `json:"actor_id" validate:"required"`
}
