package notification

import (
	"github.com/covena/covena/pkg/events"
	"github.com/covena/covena/pkg/models"
)

// Template identifiers understood by the external sender.
const (
	TemplateRequestSubmitted  = "request_submitted"
	TemplateStatusChanged     = "request_status_changed"
	TemplateStatusCritical    = "request_status_critical"
	TemplateNeighborRequested = "neighbor_approval_requested"
	TemplateBoardVoteCalled   = "board_vote_called"
	TemplateRequestCancelled  = "request_cancelled"
	TemplateProgressRecorded  = "request_progress_recorded"
)

// criticalStatuses additionally get an SMS to the homeowner.
var criticalStatuses = map[models.RequestStatus]bool{
	models.StatusApproved:             true,
	models.StatusRejected:             true,
	models.StatusHomeownerReplyNeeded: true,
}

// Composer turns lifecycle events into addressed payload lists. It is pure
// and total: every known event kind maps to a deterministic payload set, and
// unknown kinds map to none.
type Composer struct {
	// ManagerRecipient receives management-facing notifications.
	ManagerRecipient string

	// BoardMembers receive vote-called notifications when a request enters
	// board voting.
	BoardMembers []string
}

// ComposePayloads maps one event to its payload set.
func (c Composer) ComposePayloads(event any) []Payload {
	switch e := event.(type) {
	case *events.RequestSubmitted:
		return c.composeSubmitted(e)
	case *events.RequestStatusChanged:
		return c.composeStatusChanged(e)
	case *events.RequestCancelled:
		return c.composeCancelled(e)
	case *events.NeighborApprovalRecorded:
		return c.composeProgress(e.RequestID, "neighbor_approval", map[string]any{
			"neighbor_id": e.NeighborID,
			"status":      string(e.ApprovalStatus),
		})
	case *events.BoardVoteRecorded:
		return c.composeProgress(e.RequestID, "board_vote", map[string]any{
			"board_member_id": e.BoardMemberID,
			"vote":            string(e.Vote),
		})
	default:
		return nil
	}
}

func (c Composer) composeSubmitted(event *events.RequestSubmitted) []Payload {
	data := map[string]any{
		"request_id": event.RequestID,
		"title":      event.Title,
		"type":       string(event.RequestType),
	}

	payloads := []Payload{{
		Recipient:  event.HomeownerID,
		Channel:    ChannelEmail,
		TemplateID: TemplateRequestSubmitted,
		Data:       data,
	}}

	if c.ManagerRecipient != "" {
		payloads = append(payloads, Payload{
			Recipient:  c.ManagerRecipient,
			Channel:    ChannelEmail,
			TemplateID: TemplateRequestSubmitted,
			Data:       data,
		})
	}

	return payloads
}

func (c Composer) composeStatusChanged(event *events.RequestStatusChanged) []Payload {
	data := map[string]any{
		"request_id": event.RequestID,
		"old_status": string(event.OldStatus),
		"new_status": string(event.NewStatus),
		"reason":     event.Reason,
	}

	payloads := []Payload{{
		Recipient:  event.HomeownerID,
		Channel:    ChannelEmail,
		TemplateID: TemplateStatusChanged,
		Data:       data,
	}}

	if criticalStatuses[event.NewStatus] {
		payloads = append(payloads, Payload{
			Recipient:  event.HomeownerID,
			Channel:    ChannelSMS,
			TemplateID: TemplateStatusCritical,
			Data:       data,
		})
	}

	switch event.NewStatus {
	case models.StatusNeighborApproval:
		for _, neighborID := range event.AssignedNeighbors {
			payloads = append(payloads, Payload{
				Recipient:  neighborID,
				Channel:    ChannelEmail,
				TemplateID: TemplateNeighborRequested,
				Data:       data,
			})
		}
	case models.StatusBoardVoting, models.StatusAppeal:
		for _, memberID := range c.BoardMembers {
			payloads = append(payloads, Payload{
				Recipient:  memberID,
				Channel:    ChannelEmail,
				TemplateID: TemplateBoardVoteCalled,
				Data:       data,
			})
		}
	}

	return payloads
}

func (c Composer) composeCancelled(event *events.RequestCancelled) []Payload {
	if c.ManagerRecipient == "" {
		return nil
	}

	return []Payload{{
		Recipient:  c.ManagerRecipient,
		Channel:    ChannelEmail,
		TemplateID: TemplateRequestCancelled,
		Data: map[string]any{
			"request_id": event.RequestID,
			"actor_id":   event.Actor.ActorID,
		},
	}}
}

func (c Composer) composeProgress(requestID, kind string, detail map[string]any) []Payload {
	if c.ManagerRecipient == "" {
		return nil
	}

	data := map[string]any{
		"request_id": requestID,
		"kind":       kind,
	}
	for k, v := range detail {
		data[k] = v
	}

	return []Payload{{
		Recipient:  c.ManagerRecipient,
		Channel:    ChannelEmail,
		TemplateID: TemplateProgressRecorded,
		Data:       data,
	}}
}
