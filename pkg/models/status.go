package models

// RequestStatus represents the lifecycle state of an architectural-change request.
type RequestStatus string

const (
	StatusSubmitted            RequestStatus = "submitted"
	StatusUnderReview          RequestStatus = "under_review"
	StatusHomeownerReplyNeeded RequestStatus = "homeowner_reply_needed"
	StatusNeighborApproval     RequestStatus = "neighbor_approval"
	StatusBoardVoting          RequestStatus = "board_voting"
	StatusApproved             RequestStatus = "approved"
	StatusRejected             RequestStatus = "rejected"
	StatusAppeal               RequestStatus = "appeal"
	StatusCompleted            RequestStatus = "completed"
	StatusCancelled            RequestStatus = "cancelled"
)

// Legacy status values still emitted by older clients. They collapse onto the
// canonical states and never create parallel ones.
const (
	legacyStatusCCRReview   RequestStatus = "cc_r_review"
	legacyStatusBoardReview RequestStatus = "board_review"
)

// NormalizeStatus maps legacy status aliases onto their canonical value.
// Unknown values pass through unchanged and are caught by Valid.
func NormalizeStatus(status RequestStatus) RequestStatus {
	switch status {
	case legacyStatusCCRReview:
		return StatusUnderReview
	case legacyStatusBoardReview:
		return StatusBoardVoting
	default:
		return status
	}
}

// Valid reports whether status is one of the canonical lifecycle states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusHomeownerReplyNeeded,
		StatusNeighborApproval, StatusBoardVoting, StatusApproved,
		StatusRejected, StatusAppeal, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no engine-driven transition leaves this status.
// Approved requests still accept the manual work-completed and rejected
// requests the appeal mutation, but neither is engine-initiated.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
