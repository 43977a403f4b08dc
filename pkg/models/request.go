// Package models defines the core domain models for the architectural-change
// request approval pipeline.
package models

import "time"

// RequestType classifies what kind of change the homeowner is asking for.
type RequestType string

const (
	TypeExteriorModification RequestType = "exterior_modification"
	TypeLandscaping          RequestType = "landscaping"
	TypeArchitecturalChange  RequestType = "architectural_change"
	TypeADUJADU              RequestType = "adu_jadu"
	TypeMaintenanceRequest   RequestType = "maintenance_request"
	TypeViolationReport      RequestType = "violation_report"
	TypeOther                RequestType = "other"
)

// Priority indicates how urgently management should look at a request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ApprovalStatus is the state of a single neighbor's sign-off.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// VoteChoice is a board member's position on a request.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
	VoteAbstain VoteChoice = "abstain"
)

// ReviewStatus tracks where the management review sits.
type ReviewStatus string

const (
	ReviewInProgress    ReviewStatus = "in_progress"
	ReviewInfoRequested ReviewStatus = "info_requested"
	ReviewCompleted     ReviewStatus = "completed"
)

// Recommendation is management's conclusion after reviewing a request.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReject  Recommendation = "reject"
)

// NeighborApproval records one assigned neighbor's sign-off. Keyed by
// (request, NeighborID); a resubmission replaces the prior record.
type NeighborApproval struct {
	NeighborID  string         `json:"neighbor_id"   validate:"required"`
	Status      ApprovalStatus `json:"status"        validate:"required"`
	Comments    string         `json:"comments,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// BoardVote records one board member's vote. Keyed by (request,
// BoardMemberID); re-voting replaces the prior record.
type BoardVote struct {
	BoardMemberID string     `json:"board_member_id" validate:"required"`
	Vote          VoteChoice `json:"vote"            validate:"required"`
	SubmittedAt   time.Time  `json:"submitted_at"`
}

// ManagementReview is the management company's assessment of a request.
type ManagementReview struct {
	Status         ReviewStatus   `json:"status"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Reviewer       string         `json:"reviewer"`
	CCRsReferences []string       `json:"ccrs_references,omitempty"`
}

// Request is the central entity: a homeowner's change application tracked
// through the approval pipeline. The orchestrator exclusively owns a request
// after submission; no other component writes it directly.
type Request struct {
	ID          string      `json:"id"`
	HomeownerID string      `json:"homeowner_id" validate:"required"`
	CommunityID string      `json:"community_id"`
	Type        RequestType `json:"type"         validate:"required"`
	Title       string      `json:"title"        validate:"required,min=3"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`

	Status RequestStatus `json:"status"`

	AssignedNeighbors []string           `json:"assigned_neighbors,omitempty"`
	NeighborApprovals []NeighborApproval `json:"neighbor_approvals,omitempty"`
	BoardVotes        []BoardVote        `json:"board_votes,omitempty"`
	Review            *ManagementReview  `json:"management_review,omitempty"`

	// WorkCompleted is set by the homeowner once the approved work is done;
	// the engine turns it into the approved -> completed transition.
	WorkCompleted bool `json:"work_completed,omitempty"`

	// AppealRequested is set when the homeowner appeals a rejection; the
	// engine consumes it when firing rejected -> appeal.
	AppealRequested bool `json:"appeal_requested,omitempty"`

	Timeline []TimelineEvent `json:"timeline"`

	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SetNeighborApproval inserts or replaces the approval for the given
// neighbor. Counts are always computed from current distinct-actor state.
func (r *Request) SetNeighborApproval(approval NeighborApproval) {
	for i, existing := range r.NeighborApprovals {
		if existing.NeighborID == approval.NeighborID {
			r.NeighborApprovals[i] = approval

			return
		}
	}

	r.NeighborApprovals = append(r.NeighborApprovals, approval)
}

// SetBoardVote inserts or replaces the vote for the given board member.
func (r *Request) SetBoardVote(vote BoardVote) {
	for i, existing := range r.BoardVotes {
		if existing.BoardMemberID == vote.BoardMemberID {
			r.BoardVotes[i] = vote

			return
		}
	}

	r.BoardVotes = append(r.BoardVotes, vote)
}

// ApprovedNeighborCount returns how many distinct neighbors currently approve.
func (r *Request) ApprovedNeighborCount() int {
	count := 0

	for _, approval := range r.NeighborApprovals {
		if approval.Status == ApprovalApproved {
			count++
		}
	}

	return count
}

// VoteCounts returns the current approve and reject tallies. Abstentions
// count toward neither side.
func (r *Request) VoteCounts() (approve, reject int) {
	for _, vote := range r.BoardVotes {
		switch vote.Vote {
		case VoteApprove:
			approve++
		case VoteReject:
			reject++
		case VoteAbstain:
		}
	}

	return approve, reject
}

// IsAssignedNeighbor reports whether the actor is on this request's neighbor
// approval list.
func (r *Request) IsAssignedNeighbor(actorID string) bool {
	for _, id := range r.AssignedNeighbors {
		if id == actorID {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the request so callers can hand snapshots
// across goroutines without aliasing the stored record.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}

	clone := *r

	clone.AssignedNeighbors = append([]string(nil), r.AssignedNeighbors...)
	clone.NeighborApprovals = append([]NeighborApproval(nil), r.NeighborApprovals...)
	clone.BoardVotes = append([]BoardVote(nil), r.BoardVotes...)
	clone.Timeline = make([]TimelineEvent, len(r.Timeline))

	for i, event := range r.Timeline {
		clone.Timeline[i] = event.clone()
	}

	if r.Review != nil {
		review := *r.Review
		review.CCRsReferences = append([]string(nil), r.Review.CCRsReferences...)
		clone.Review = &review
	}

	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}
