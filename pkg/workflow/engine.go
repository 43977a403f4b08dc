// Package workflow implements the request lifecycle state machine. The engine
// is a pure decision function over an already-validated request snapshot; all
// failure handling lives at the orchestrator boundary.
package workflow

import (
	"fmt"

	"github.com/covena/covena/pkg/models"
)

// SystemActorID identifies engine-driven timeline entries.
const SystemActorID = "system"

// maxAdvanceSteps bounds the evaluate loop; the state graph has no cycles
// without an intervening mutation, so this is never reached in practice.
const maxAdvanceSteps = 10

// Config holds the threshold constants for guard evaluation. Thresholds are
// configuration, never hard-coded per request.
type Config struct {
	// RequiredNeighborApprovals is how many distinct approving neighbors move
	// a request from neighbor_approval to board_voting.
	RequiredNeighborApprovals int `json:"required_neighbor_approvals" validate:"required,min=1"`

	// BoardMembers is the community board roster. Its size determines the
	// majority threshold; membership gates who may vote.
	BoardMembers []string `json:"board_members" validate:"required,min=1"`
}

// BoardMajority returns the strict majority of the board size.
func (c Config) BoardMajority() int {
	return len(c.BoardMembers)/2 + 1
}

// IsBoardMember reports whether the actor sits on the board.
func (c Config) IsBoardMember(actorID string) bool {
	for _, id := range c.BoardMembers {
		if id == actorID {
			return true
		}
	}

	return false
}

// Engine evaluates lifecycle transitions for requests.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given threshold configuration.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Config returns the engine's threshold configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Evaluate decides whether the request should move to a new status. It
// returns nil when no guard holds. Guards are predicates over the request's
// sub-records only, never over wall-clock time, so re-evaluating an unchanged
// request always returns nil after a transition has fired.
func (e *Engine) Evaluate(request *models.Request) *Delta {
	switch request.Status {
	case models.StatusSubmitted:
		if request.Review != nil {
			return newDelta(request.Status, models.StatusUnderReview,
				"management opened review")
		}

	case models.StatusUnderReview:
		if request.Review == nil {
			return nil
		}

		switch {
		case request.Review.Status == models.ReviewCompleted &&
			request.Review.Recommendation == models.RecommendApprove:
			return newDelta(request.Status, models.StatusNeighborApproval,
				"management review completed with recommendation to approve")
		case request.Review.Status == models.ReviewInfoRequested:
			return newDelta(request.Status, models.StatusHomeownerReplyNeeded,
				"management requested more information")
		}

	case models.StatusHomeownerReplyNeeded:
		if request.Review != nil && request.Review.Status == models.ReviewInProgress {
			return newDelta(request.Status, models.StatusUnderReview,
				"homeowner replied, review resumed")
		}

	case models.StatusNeighborApproval:
		approved := request.ApprovedNeighborCount()
		if approved >= e.config.RequiredNeighborApprovals {
			return newDelta(request.Status, models.StatusBoardVoting,
				fmt.Sprintf("neighbor approval threshold reached (%d of %d)",
					approved, e.config.RequiredNeighborApprovals))
		}

	case models.StatusBoardVoting, models.StatusAppeal:
		return e.evaluateBoardDecision(request)

	case models.StatusApproved:
		if request.WorkCompleted {
			return newDelta(request.Status, models.StatusCompleted,
				"homeowner marked the approved work finished")
		}

	case models.StatusRejected:
		if request.AppealRequested {
			delta := newDelta(request.Status, models.StatusAppeal,
				"homeowner appealed the rejection, board will re-vote")
			delta.resetBoardVotes = true
			delta.consumeAppeal = true

			return delta
		}

	case models.StatusCompleted, models.StatusCancelled:
	}

	return nil
}

// evaluateBoardDecision resolves majority voting for board_voting and appeal.
// Approve must strictly exceed reject: on an even-sized board both sides can
// reach the majority threshold, and a tie keeps the request pending a
// tie-breaking vote.
func (e *Engine) evaluateBoardDecision(request *models.Request) *Delta {
	approve, reject := request.VoteCounts()
	majority := e.config.BoardMajority()

	switch {
	case approve >= majority && approve > reject:
		return newDelta(request.Status, models.StatusApproved,
			fmt.Sprintf("board approved (%d approve / %d reject, majority %d)",
				approve, reject, majority))
	case reject >= majority && reject > approve:
		return newDelta(request.Status, models.StatusRejected,
			fmt.Sprintf("board rejected (%d approve / %d reject, majority %d)",
				approve, reject, majority))
	}

	return nil
}

// Advance applies transitions until the request settles, returning every
// delta that fired in order. A single mutation can satisfy more than one
// guard in sequence (a reply that also completes the review), so the
// orchestrator always advances to a fixpoint before committing.
func (e *Engine) Advance(request *models.Request) []Delta {
	var fired []Delta

	for range maxAdvanceSteps {
		delta := e.Evaluate(request)
		if delta == nil {
			break
		}

		delta.Apply(request)
		fired = append(fired, *delta)
	}

	return fired
}
