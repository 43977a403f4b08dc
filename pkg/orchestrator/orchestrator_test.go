package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/covena/covena/pkg/events"
	"github.com/covena/covena/pkg/mocks"
	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/persistence"
	"github.com/covena/covena/pkg/persistence/memory"
	"github.com/covena/covena/pkg/testutil"
	"github.com/covena/covena/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine() *workflow.Engine {
	return workflow.NewEngine(workflow.Config{
		RequiredNeighborApprovals: 3,
		BoardMembers:              []string{"board-1", "board-2", "board-3", "board-4", "board-5"},
	})
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *memory.Persistence, *mocks.CapturingPublisher) {
	t.Helper()

	store := memory.NewPersistence()
	publisher := &mocks.CapturingPublisher{}

	return New(testLogger(), store, testEngine(), publisher), store, publisher
}

func testDraft() Draft {
	return Draft{
		HomeownerID:       "homeowner-1",
		CommunityID:       "community-1",
		Type:              models.TypeExteriorModification,
		Title:             "Repaint front door",
		Description:       "Change the front door color to sage green",
		AssignedNeighbors: []string{"neighbor-1", "neighbor-2", "neighbor-3", "neighbor-4"},
	}
}

func waitForEvents(t *testing.T, publisher *mocks.CapturingPublisher, eventType events.EventType, count int) {
	t.Helper()

	assert.Eventually(t, func() bool {
		return len(publisher.EventsOfType(eventType)) == count
	}, time.Second, 10*time.Millisecond)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, publisher := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.StatusSubmitted, request.Status)
	assert.Equal(t, models.PriorityMedium, request.Priority)
	require.Len(t, request.Timeline, 1)
	assert.Equal(t, models.TimelineSubmitted, request.Timeline[0].Kind)

	stored, err := store.RequestRepository().GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)

	waitForEvents(t, publisher, events.RequestSubmittedEvent, 1)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, publisher := newTestOrchestrator(t)

	draft := testDraft()
	draft.HomeownerID = ""

	_, err := orchestrator.Submit(ctx, draft)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Nothing is committed and nothing is dispatched.
	all, err := store.RequestRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, publisher.Events())
}

func TestUpdateFullLifecycle(t *testing.T) {
	ctx := context.Background()
	orchestrator, _, publisher := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	request, err = orchestrator.Update(ctx, request.ID, OpenReview{Reviewer: "manager-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, request.Status)

	request, err = orchestrator.Update(ctx, request.ID, CompleteReview{
		Reviewer:       "manager-1",
		Recommendation: models.RecommendApprove,
		CCRsReferences: []string{"CC&R 4.2"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeighborApproval, request.Status)

	for _, neighbor := range []string{"neighbor-1", "neighbor-2", "neighbor-3"} {
		request, err = orchestrator.Update(ctx, request.ID, RegisterNeighborApproval{
			NeighborID: neighbor,
			Status:     models.ApprovalApproved,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, models.StatusBoardVoting, request.Status)

	for _, member := range []string{"board-1", "board-2", "board-3"} {
		request, err = orchestrator.Update(ctx, request.ID, RegisterBoardVote{
			BoardMemberID: member,
			Vote:          models.VoteApprove,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, models.StatusApproved, request.Status)
	require.NotNil(t, request.CompletedAt)

	request, err = orchestrator.Update(ctx, request.ID, MarkWorkCompleted{ActorID: "homeowner-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, request.Status)

	// One status-changed dispatch per committed transition: under_review,
	// neighbor_approval, board_voting, approved, completed.
	waitForEvents(t, publisher, events.RequestStatusChangedEvent, 5)
	waitForEvents(t, publisher, events.NeighborApprovalRecordedEvent, 3)
	waitForEvents(t, publisher, events.BoardVoteRecordedEvent, 3)
}

func TestUpdateRejectionAndAppeal(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request := testutil.CreateTestRequest(testutil.WithStatus(models.StatusBoardVoting))
	require.NoError(t, store.RequestRepository().Save(ctx, request))

	var err error

	for _, member := range []string{"board-1", "board-2", "board-3"} {
		request, err = orchestrator.Update(ctx, request.ID, RegisterBoardVote{
			BoardMemberID: member,
			Vote:          models.VoteReject,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, models.StatusRejected, request.Status)
	require.NotNil(t, request.CompletedAt)

	request, err = orchestrator.Update(ctx, request.ID, FileAppeal{ActorID: "homeowner-1", Reason: "new plans"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAppeal, request.Status)
	assert.Empty(t, request.BoardVotes)
	assert.False(t, request.AppealRequested)
	assert.Nil(t, request.CompletedAt)

	// The appeal re-vote counts fresh and can flip the decision.
	for _, member := range []string{"board-1", "board-2", "board-3"} {
		request, err = orchestrator.Update(ctx, request.ID, RegisterBoardVote{
			BoardMemberID: member,
			Vote:          models.VoteApprove,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, models.StatusApproved, request.Status)
}

func TestUpdateInvalidTransitionIsAtomic(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, publisher := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	_, err = orchestrator.Update(ctx, request.ID, RegisterBoardVote{
		BoardMemberID: "board-1",
		Vote:          models.VoteApprove,
	})
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	stored, err := store.RequestRepository().GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
	assert.Empty(t, stored.BoardVotes)

	waitForEvents(t, publisher, events.RequestSubmittedEvent, 1)
	assert.Empty(t, publisher.EventsOfType(events.BoardVoteRecordedEvent))
}

func TestUpdateUnassignedNeighborRejected(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request := testutil.CreateTestRequest(testutil.WithStatus(models.StatusNeighborApproval))
	require.NoError(t, store.RequestRepository().Save(ctx, request))

	_, err := orchestrator.Update(ctx, request.ID, RegisterNeighborApproval{
		NeighborID: "stranger",
		Status:     models.ApprovalApproved,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	stored, err := store.RequestRepository().GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.NeighborApprovals)
}

func TestUpdateNonBoardMemberRejected(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request := testutil.CreateTestRequest(testutil.WithStatus(models.StatusBoardVoting))
	require.NoError(t, store.RequestRepository().Save(ctx, request))

	_, err := orchestrator.Update(ctx, request.ID, RegisterBoardVote{
		BoardMemberID: "stranger",
		Vote:          models.VoteApprove,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	orchestrator, _, _ := newTestOrchestrator(t)

	_, err := orchestrator.Update(ctx, "missing", OpenReview{Reviewer: "manager-1"})
	require.Error(t, err)
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	orchestrator, _, publisher := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	cancelled, err := orchestrator.Cancel(ctx, request.ID, "homeowner-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)

	kinds := make([]models.TimelineEventKind, 0, len(cancelled.Timeline))
	for _, event := range cancelled.Timeline {
		kinds = append(kinds, event.Kind)
	}

	assert.Contains(t, kinds, models.TimelineCancelled)
	assert.Contains(t, kinds, models.TimelineSystemNotice)

	waitForEvents(t, publisher, events.RequestCancelledEvent, 1)
	waitForEvents(t, publisher, events.RequestStatusChangedEvent, 1)
}

func TestCancelTerminalRequest(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request := testutil.CreateTestRequest(testutil.WithStatus(models.StatusCompleted))
	require.NoError(t, store.RequestRepository().Save(ctx, request))

	_, err := orchestrator.Cancel(ctx, request.ID, "homeowner-1")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	require.NoError(t, orchestrator.Delete(ctx, request.ID))

	_, err = store.RequestRepository().GetByID(ctx, request.ID)
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestDeleteAfterReviewBegan(t *testing.T) {
	ctx := context.Background()
	orchestrator, _, _ := newTestOrchestrator(t)

	request, err := orchestrator.Submit(ctx, testDraft())
	require.NoError(t, err)

	_, err = orchestrator.Update(ctx, request.ID, OpenReview{Reviewer: "manager-1"})
	require.NoError(t, err)

	err = orchestrator.Delete(ctx, request.ID)
	require.Error(t, err)
	assert.True(t, IsPreconditionFailed(err))
}

func TestConcurrentBoardVotes(t *testing.T) {
	ctx := context.Background()
	orchestrator, store, _ := newTestOrchestrator(t)

	request := testutil.CreateTestRequest(testutil.WithStatus(models.StatusBoardVoting))
	require.NoError(t, store.RequestRepository().Save(ctx, request))

	// Exactly the majority votes concurrently; the decision fires on the
	// last committed vote and every earlier vote is accepted.
	members := []string{"board-1", "board-2", "board-3"}

	var wg sync.WaitGroup

	for _, member := range members {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := orchestrator.Update(ctx, request.ID, RegisterBoardVote{
				BoardMemberID: member,
				Vote:          models.VoteApprove,
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	stored, err := store.RequestRepository().GetByID(ctx, request.ID)
	require.NoError(t, err)

	// Serialized commits mean every vote landed and the decision fired once.
	assert.Len(t, stored.BoardVotes, len(members))
	assert.Equal(t, models.StatusApproved, stored.Status)
}
