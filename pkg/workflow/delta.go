package workflow

import (
	"fmt"
	"time"

	"github.com/covena/covena/pkg/models"
)

// Delta describes a transition the engine decided to fire: the new status,
// the derived field changes that accompany it, and the timeline event
// explaining why.
type Delta struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Event models.TimelineEvent

	// resetBoardVotes clears prior votes so an appeal re-vote counts fresh.
	resetBoardVotes bool

	// consumeAppeal clears the appeal flag so the rejected -> appeal edge
	// cannot re-fire after a second rejection.
	consumeAppeal bool
}

func newDelta(from, to models.RequestStatus, reason string) *Delta {
	event := models.NewTimelineEvent(SystemActorID, "", models.TimelineStatusChanged,
		fmt.Sprintf("status changed from %s to %s: %s", from, to, reason))
	event.Metadata = map[string]any{
		"from": string(from),
		"to":   string(to),
	}

	return &Delta{From: from, To: to, Event: event}
}

// Apply mutates the request with this delta: the status write, the appended
// timeline event, and completedAt on first entry into a terminal status.
// This is the only place a status field write happens.
func (d *Delta) Apply(request *models.Request) {
	request.Status = d.To
	request.AppendEvent(d.Event)

	if d.resetBoardVotes {
		request.BoardVotes = nil
	}

	if d.consumeAppeal {
		// An appeal re-opens the request, so the rejection's completion
		// stamp comes off until the board decides again.
		request.AppealRequested = false
		request.CompletedAt = nil
	}

	if d.To.Terminal() && request.CompletedAt == nil {
		now := time.Now().UTC()
		request.CompletedAt = &now
	}
}
