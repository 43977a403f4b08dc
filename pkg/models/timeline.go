package models

import (
	"time"

	"github.com/google/uuid"
)

// TimelineEventKind categorizes entries in a request's audit timeline.
type TimelineEventKind string

const (
	TimelineSubmitted        TimelineEventKind = "submitted"
	TimelineStatusChanged    TimelineEventKind = "status_changed"
	TimelineReviewOpened     TimelineEventKind = "review_opened"
	TimelineReviewCompleted  TimelineEventKind = "review_completed"
	TimelineInfoRequested    TimelineEventKind = "info_requested"
	TimelineHomeownerReply   TimelineEventKind = "homeowner_reply"
	TimelineNeighborApproval TimelineEventKind = "neighbor_approval"
	TimelineBoardVote        TimelineEventKind = "board_vote"
	TimelineWorkCompleted    TimelineEventKind = "work_completed"
	TimelineAppealFiled      TimelineEventKind = "appeal_filed"
	TimelineCancelled        TimelineEventKind = "cancelled"
	TimelineSystemNotice     TimelineEventKind = "system_notice"
)

// TimelineEvent is one append-only entry in a request's history. Events are
// never rewritten or deleted; every commit adds at least one.
type TimelineEvent struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	ActorID     string            `json:"actor_id"`
	ActorName   string            `json:"actor_name,omitempty"`
	Kind        TimelineEventKind `json:"kind"`
	Description string            `json:"description"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// NewTimelineEvent builds a timeline entry stamped with the current time.
func NewTimelineEvent(actorID, actorName string, kind TimelineEventKind, description string) TimelineEvent {
	return TimelineEvent{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		ActorID:     actorID,
		ActorName:   actorName,
		Kind:        kind,
		Description: description,
	}
}

// AppendEvent adds an event to the request's timeline.
func (r *Request) AppendEvent(event TimelineEvent) {
	r.Timeline = append(r.Timeline, event)
}

func (e TimelineEvent) clone() TimelineEvent {
	clone := e

	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}

	return clone
}
