package orchestrator

import (
	"fmt"
	"time"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/workflow"
)

// Mutation is a caller-supplied partial change to a request. Validate runs
// against the current snapshot before anything is written; Apply mutates the
// record and appends the timeline entry describing the action. The engine
// always re-evaluates the merged record afterwards, in the same commit.
type Mutation interface {
	Name() string
	Validate(request *models.Request, config workflow.Config) error
	Apply(request *models.Request)
}

func transitionError(op string, request *models.Request, err error) error {
	return &TransitionError{
		Op:        op,
		RequestID: request.ID,
		Status:    string(request.Status),
		Err:       err,
	}
}

// OpenReview starts the management review of a submitted request.
type OpenReview struct {
	Reviewer string
}

func (m OpenReview) Name() string { return "open_review" }

func (m OpenReview) Validate(request *models.Request, _ workflow.Config) error {
	if m.Reviewer == "" {
		return NewValidationError("reviewer", "is required")
	}

	if request.Status != models.StatusSubmitted {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m OpenReview) Apply(request *models.Request) {
	request.Review = &models.ManagementReview{
		Status:   models.ReviewInProgress,
		Reviewer: m.Reviewer,
	}
	request.AppendEvent(models.NewTimelineEvent(m.Reviewer, "", models.TimelineReviewOpened,
		"management opened the review"))
}

// CompleteReview closes the management review with a recommendation.
type CompleteReview struct {
	Reviewer       string
	Recommendation models.Recommendation
	CCRsReferences []string
}

func (m CompleteReview) Name() string { return "complete_review" }

func (m CompleteReview) Validate(request *models.Request, _ workflow.Config) error {
	if m.Recommendation != models.RecommendApprove && m.Recommendation != models.RecommendReject {
		return NewValidationError("recommendation", "must be approve or reject")
	}

	if request.Status != models.StatusUnderReview || request.Review == nil {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m CompleteReview) Apply(request *models.Request) {
	request.Review.Status = models.ReviewCompleted
	request.Review.Recommendation = m.Recommendation
	request.Review.CCRsReferences = m.CCRsReferences

	event := models.NewTimelineEvent(m.Reviewer, "", models.TimelineReviewCompleted,
		fmt.Sprintf("management review completed, recommendation: %s", m.Recommendation))
	event.Metadata = map[string]any{"recommendation": string(m.Recommendation)}
	request.AppendEvent(event)
}

// RequestInfo asks the homeowner for more information.
type RequestInfo struct {
	Reviewer string
	Message  string
}

func (m RequestInfo) Name() string { return "request_info" }

func (m RequestInfo) Validate(request *models.Request, _ workflow.Config) error {
	if request.Status != models.StatusUnderReview || request.Review == nil {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m RequestInfo) Apply(request *models.Request) {
	request.Review.Status = models.ReviewInfoRequested

	event := models.NewTimelineEvent(m.Reviewer, "", models.TimelineInfoRequested,
		"management requested more information")
	if m.Message != "" {
		event.Metadata = map[string]any{"message": m.Message}
	}

	request.AppendEvent(event)
}

// HomeownerReply answers an information request and resumes the review.
type HomeownerReply struct {
	ActorID string
	Message string
}

func (m HomeownerReply) Name() string { return "homeowner_reply" }

func (m HomeownerReply) Validate(request *models.Request, _ workflow.Config) error {
	if request.Status != models.StatusHomeownerReplyNeeded || request.Review == nil {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m HomeownerReply) Apply(request *models.Request) {
	request.Review.Status = models.ReviewInProgress

	event := models.NewTimelineEvent(m.ActorID, "", models.TimelineHomeownerReply,
		"homeowner replied to the information request")
	if m.Message != "" {
		event.Metadata = map[string]any{"message": m.Message}
	}

	request.AppendEvent(event)
}

// RegisterNeighborApproval records an assigned neighbor's sign-off. A second
// submission from the same neighbor replaces, never duplicates, their record.
type RegisterNeighborApproval struct {
	NeighborID string
	Status     models.ApprovalStatus
	Comments   string
}

func (m RegisterNeighborApproval) Name() string { return "register_neighbor_approval" }

func (m RegisterNeighborApproval) Validate(request *models.Request, _ workflow.Config) error {
	if m.Status != models.ApprovalApproved && m.Status != models.ApprovalRejected {
		return NewValidationError("status", "must be approved or rejected")
	}

	// Unauthorized actors are rejected at the boundary, not silently dropped.
	if !request.IsAssignedNeighbor(m.NeighborID) {
		return NewValidationError("neighbor_id",
			fmt.Sprintf("%s is not an assigned neighbor for this request", m.NeighborID))
	}

	if request.Status != models.StatusNeighborApproval {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m RegisterNeighborApproval) Apply(request *models.Request) {
	request.SetNeighborApproval(models.NeighborApproval{
		NeighborID:  m.NeighborID,
		Status:      m.Status,
		Comments:    m.Comments,
		SubmittedAt: time.Now().UTC(),
	})

	request.AppendEvent(models.NewTimelineEvent(m.NeighborID, "", models.TimelineNeighborApproval,
		fmt.Sprintf("neighbor recorded approval status: %s", m.Status)))
}

// RegisterBoardVote records a board member's vote. Re-voting overwrites the
// prior vote; tallies always reflect the latest vote per member.
type RegisterBoardVote struct {
	BoardMemberID string
	Vote          models.VoteChoice
}

func (m RegisterBoardVote) Name() string { return "register_board_vote" }

func (m RegisterBoardVote) Validate(request *models.Request, config workflow.Config) error {
	switch m.Vote {
	case models.VoteApprove, models.VoteReject, models.VoteAbstain:
	default:
		return NewValidationError("vote", "must be approve, reject or abstain")
	}

	if !config.IsBoardMember(m.BoardMemberID) {
		return NewValidationError("board_member_id",
			fmt.Sprintf("%s is not a board member", m.BoardMemberID))
	}

	if request.Status != models.StatusBoardVoting && request.Status != models.StatusAppeal {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m RegisterBoardVote) Apply(request *models.Request) {
	request.SetBoardVote(models.BoardVote{
		BoardMemberID: m.BoardMemberID,
		Vote:          m.Vote,
		SubmittedAt:   time.Now().UTC(),
	})

	request.AppendEvent(models.NewTimelineEvent(m.BoardMemberID, "", models.TimelineBoardVote,
		fmt.Sprintf("board member voted: %s", m.Vote)))
}

// MarkWorkCompleted flags the approved work as finished.
type MarkWorkCompleted struct {
	ActorID string
}

func (m MarkWorkCompleted) Name() string { return "mark_work_completed" }

func (m MarkWorkCompleted) Validate(request *models.Request, _ workflow.Config) error {
	if request.Status != models.StatusApproved {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m MarkWorkCompleted) Apply(request *models.Request) {
	request.WorkCompleted = true
	request.AppendEvent(models.NewTimelineEvent(m.ActorID, "", models.TimelineWorkCompleted,
		"homeowner marked the work finished"))
}

// FileAppeal contests a rejection and sends the request back to the board.
type FileAppeal struct {
	ActorID string
	Reason  string
}

func (m FileAppeal) Name() string { return "file_appeal" }

func (m FileAppeal) Validate(request *models.Request, _ workflow.Config) error {
	if request.Status != models.StatusRejected {
		return transitionError(m.Name(), request, ErrInvalidTransition)
	}

	return nil
}

func (m FileAppeal) Apply(request *models.Request) {
	request.AppealRequested = true

	event := models.NewTimelineEvent(m.ActorID, "", models.TimelineAppealFiled,
		"homeowner appealed the rejection")
	if m.Reason != "" {
		event.Metadata = map[string]any{"reason": m.Reason}
	}

	request.AppendEvent(event)
}
