// Package events defines event types and structures for request lifecycle
// notifications.
package events

import (
	"time"

	"github.com/covena/covena/pkg/models"
)

type EventType string

// Topic carries all request lifecycle events.
const Topic = "covena.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RequestSubmittedEvent         EventType = "request.submitted"
	RequestStatusChangedEvent     EventType = "request.status.changed"
	RequestCancelledEvent         EventType = "request.cancelled"
	NeighborApprovalRecordedEvent EventType = "request.neighbor_approval.recorded"
	BoardVoteRecordedEvent        EventType = "request.board_vote.recorded"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ActorContext identifies who caused an event. Role is a plain string; there
// is no authorization model beyond it.
type ActorContext struct {
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// RequestSubmitted is published once when a homeowner submits a new request.
type RequestSubmitted struct {
	BaseEvent

	HomeownerID string             `json:"homeowner_id"`
	CommunityID string             `json:"community_id,omitempty"`
	RequestType models.RequestType `json:"request_type"`
	Title       string             `json:"title"`
}

func (e RequestSubmitted) GetType() EventType {
	return RequestSubmittedEvent
}

// RequestStatusChanged is published exactly once per committed transition.
type RequestStatusChanged struct {
	BaseEvent

	HomeownerID       string               `json:"homeowner_id"`
	OldStatus         models.RequestStatus `json:"old_status"`
	NewStatus         models.RequestStatus `json:"new_status"`
	Actor             ActorContext         `json:"actor"`
	Reason            string               `json:"reason,omitempty"`
	AssignedNeighbors []string             `json:"assigned_neighbors,omitempty"`
}

func (e RequestStatusChanged) GetType() EventType {
	return RequestStatusChangedEvent
}

// RequestCancelled accompanies the status change to cancelled so management
// gets notified of the withdrawal itself.
type RequestCancelled struct {
	BaseEvent

	HomeownerID string       `json:"homeowner_id"`
	Actor       ActorContext `json:"actor"`
}

func (e RequestCancelled) GetType() EventType {
	return RequestCancelledEvent
}

// NeighborApprovalRecorded is a sub-event for progress notifications; it does
// not imply a status change.
type NeighborApprovalRecorded struct {
	BaseEvent

	HomeownerID    string                `json:"homeowner_id"`
	NeighborID     string                `json:"neighbor_id"`
	ApprovalStatus models.ApprovalStatus `json:"approval_status"`
}

func (e NeighborApprovalRecorded) GetType() EventType {
	return NeighborApprovalRecordedEvent
}

// BoardVoteRecorded is a sub-event for progress notifications.
type BoardVoteRecorded struct {
	BaseEvent

	HomeownerID   string            `json:"homeowner_id"`
	BoardMemberID string            `json:"board_member_id"`
	Vote          models.VoteChoice `json:"vote"`
}

func (e BoardVoteRecorded) GetType() EventType {
	return BoardVoteRecordedEvent
}
