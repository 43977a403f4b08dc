package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/covena/covena/pkg/eventbus"
	"github.com/covena/covena/pkg/events"
	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/otelhelper"
	"github.com/covena/covena/pkg/persistence"
	"github.com/covena/covena/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/covena/covena/pkg/orchestrator"

// Draft is the homeowner submission payload.
type Draft struct {
	HomeownerID       string             `json:"homeowner_id" validate:"required"`
	CommunityID       string             `json:"community_id"`
	Type              models.RequestType `json:"type"         validate:"required"`
	Title             string             `json:"title"        validate:"required,min=3"`
	Description       string             `json:"description"`
	Priority          models.Priority    `json:"priority"`
	AssignedNeighbors []string           `json:"assigned_neighbors"`
}

// Orchestrator owns every request after submission. All mutations serialize
// per request id, the engine re-evaluates on every commit, and each committed
// status change yields exactly one dispatch attempt through the event bus.
type Orchestrator struct {
	logger    *slog.Logger
	store     persistence.Persistence
	engine    *workflow.Engine
	publisher eventbus.EventPublisher
	validate  *validator.Validate
	tracer    trace.Tracer

	locks    sync.Map // request id -> *sync.Mutex
	sweeping atomic.Bool
}

// New creates an orchestrator. Instances are independent; there is no
// process-wide singleton.
func New(
	logger *slog.Logger,
	store persistence.Persistence,
	engine *workflow.Engine,
	publisher eventbus.EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		logger:    logger.With("module", "orchestrator"),
		store:     store,
		engine:    engine,
		publisher: publisher,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer(tracerName),
	}
}

// lock returns the mutex serializing mutations for one request id. Mutations
// on different ids proceed independently.
func (o *Orchestrator) lock(id string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(id, &sync.Mutex{})

	return mu.(*sync.Mutex)
}

// Submit creates a new request in status submitted and commits it.
func (o *Orchestrator) Submit(ctx context.Context, draft Draft) (*models.Request, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.submit")
	defer span.End()

	if err := o.validate.Struct(draft); err != nil {
		return nil, NewValidationError("", err.Error())
	}

	now := time.Now().UTC()
	request := &models.Request{
		ID:                uuid.New().String(),
		HomeownerID:       draft.HomeownerID,
		CommunityID:       draft.CommunityID,
		Type:              draft.Type,
		Title:             draft.Title,
		Description:       draft.Description,
		Priority:          draft.Priority,
		Status:            models.StatusSubmitted,
		AssignedNeighbors: draft.AssignedNeighbors,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}

	if request.Priority == "" {
		request.Priority = models.PriorityMedium
	}

	request.AppendEvent(models.NewTimelineEvent(draft.HomeownerID, "", models.TimelineSubmitted,
		"request submitted"))

	span.SetAttributes(attribute.String(otelhelper.RequestIDKey, request.ID))

	if err := o.store.RequestRepository().Save(ctx, request); err != nil {
		return nil, err
	}

	o.dispatchAsync(ctx, request.ID, &events.RequestSubmitted{
		BaseEvent:   o.newBaseEvent(events.RequestSubmittedEvent, request.ID),
		HomeownerID: request.HomeownerID,
		CommunityID: request.CommunityID,
		RequestType: request.Type,
		Title:       request.Title,
	})

	o.logger.InfoContext(ctx, "Request submitted",
		"request_id", request.ID, "homeowner_id", request.HomeownerID)

	return request, nil
}

// Update applies a mutation to the request, then always re-runs the engine
// against the merged record before committing. The commit is atomic: a
// failed update leaves the request exactly as it was.
func (o *Orchestrator) Update(ctx context.Context, id string, mutation Mutation) (*models.Request, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.update",
		trace.WithAttributes(
			attribute.String(otelhelper.RequestIDKey, id),
			attribute.String(otelhelper.MutationKey, mutation.Name()),
		))
	defer span.End()

	mu := o.lock(id)
	mu.Lock()
	defer mu.Unlock()

	request, err := o.store.RequestRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutation.Validate(request, o.engine.Config()); err != nil {
		return nil, err
	}

	mutation.Apply(request)

	deltas := o.engine.Advance(request)
	request.UpdatedAt = time.Now().UTC()

	if err := o.store.RequestRepository().Save(ctx, request); err != nil {
		return nil, err
	}

	published := o.subEvents(request, mutation)
	published = append(published, o.transitionEvents(request, deltas)...)
	o.dispatchAsync(ctx, request.ID, published...)

	if len(deltas) > 0 {
		o.logger.InfoContext(ctx, "Request transitioned",
			"request_id", request.ID,
			"mutation", mutation.Name(),
			"status", request.Status,
			"transitions", len(deltas))
	}

	return request, nil
}

// Cancel withdraws a request from any non-terminal status. A system entry
// records that management was notified of the withdrawal.
func (o *Orchestrator) Cancel(ctx context.Context, id, actorID string) (*models.Request, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.cancel",
		trace.WithAttributes(attribute.String(otelhelper.RequestIDKey, id)))
	defer span.End()

	mu := o.lock(id)
	mu.Lock()
	defer mu.Unlock()

	request, err := o.store.RequestRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Status.Terminal() {
		return nil, &TransitionError{
			Op:        "cancel",
			RequestID: id,
			Status:    string(request.Status),
			Err:       ErrInvalidTransition,
		}
	}

	oldStatus := request.Status
	now := time.Now().UTC()

	request.Status = models.StatusCancelled
	request.UpdatedAt = now
	request.CompletedAt = &now
	request.AppendEvent(models.NewTimelineEvent(actorID, "", models.TimelineCancelled,
		"homeowner cancelled the request"))
	request.AppendEvent(models.NewTimelineEvent(workflow.SystemActorID, "", models.TimelineSystemNotice,
		"management notified of the cancellation"))

	if err := o.store.RequestRepository().Save(ctx, request); err != nil {
		return nil, err
	}

	actor := events.ActorContext{ActorID: actorID, Role: "homeowner"}
	o.dispatchAsync(ctx, request.ID,
		&events.RequestStatusChanged{
			BaseEvent:   o.newBaseEvent(events.RequestStatusChangedEvent, request.ID),
			HomeownerID: request.HomeownerID,
			OldStatus:   oldStatus,
			NewStatus:   models.StatusCancelled,
			Actor:       actor,
			Reason:      "cancelled by homeowner",
		},
		&events.RequestCancelled{
			BaseEvent:   o.newBaseEvent(events.RequestCancelledEvent, request.ID),
			HomeownerID: request.HomeownerID,
			Actor:       actor,
		},
	)

	return request, nil
}

// Delete removes a request permanently. Permitted only while the request is
// still submitted and no review has begun; otherwise callers must cancel.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	ctx, span := o.tracer.Start(ctx, "orchestrator.delete",
		trace.WithAttributes(attribute.String(otelhelper.RequestIDKey, id)))
	defer span.End()

	mu := o.lock(id)
	mu.Lock()
	defer mu.Unlock()

	request, err := o.store.RequestRepository().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if request.Status != models.StatusSubmitted || request.Review != nil {
		return &TransitionError{
			Op:        "delete",
			RequestID: id,
			Status:    string(request.Status),
			Err:       ErrPreconditionFailed,
		}
	}

	return o.store.RequestRepository().Delete(ctx, id)
}

// Get returns a snapshot of one request.
func (o *Orchestrator) Get(ctx context.Context, id string) (*models.Request, error) {
	return o.store.RequestRepository().GetByID(ctx, id)
}

// ListByHomeowner returns snapshots of all requests for one homeowner.
func (o *Orchestrator) ListByHomeowner(ctx context.Context, homeownerID string) ([]*models.Request, error) {
	return o.store.RequestRepository().ListByHomeowner(ctx, homeownerID)
}

// List returns snapshots of all requests.
func (o *Orchestrator) List(ctx context.Context) ([]*models.Request, error) {
	return o.store.RequestRepository().GetAll(ctx)
}

// newBaseEvent stamps a lifecycle event with id, type and time.
func (o *Orchestrator) newBaseEvent(eventType events.EventType, requestID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// transitionEvents builds one StatusChanged event per committed delta.
func (o *Orchestrator) transitionEvents(request *models.Request, deltas []workflow.Delta) []eventbus.Event {
	published := make([]eventbus.Event, 0, len(deltas))

	for _, delta := range deltas {
		published = append(published, &events.RequestStatusChanged{
			BaseEvent:         o.newBaseEvent(events.RequestStatusChangedEvent, request.ID),
			HomeownerID:       request.HomeownerID,
			OldStatus:         delta.From,
			NewStatus:         delta.To,
			Actor:             events.ActorContext{ActorID: workflow.SystemActorID, Role: "system"},
			Reason:            delta.Event.Description,
			AssignedNeighbors: request.AssignedNeighbors,
		})
	}

	return published
}

// subEvents emits progress notifications for approval and vote mutations.
func (o *Orchestrator) subEvents(request *models.Request, mutation Mutation) []eventbus.Event {
	switch m := mutation.(type) {
	case RegisterNeighborApproval:
		return []eventbus.Event{&events.NeighborApprovalRecorded{
			BaseEvent:      o.newBaseEvent(events.NeighborApprovalRecordedEvent, request.ID),
			HomeownerID:    request.HomeownerID,
			NeighborID:     m.NeighborID,
			ApprovalStatus: m.Status,
		}}
	case RegisterBoardVote:
		return []eventbus.Event{&events.BoardVoteRecorded{
			BaseEvent:     o.newBaseEvent(events.BoardVoteRecordedEvent, request.ID),
			HomeownerID:   request.HomeownerID,
			BoardMemberID: m.BoardMemberID,
			Vote:          m.Vote,
		}}
	default:
		return nil
	}
}

// dispatchAsync publishes events after the store commit succeeded. Publishing
// is fire-and-forget: failures are logged and never roll back or block the
// committed state.
func (o *Orchestrator) dispatchAsync(ctx context.Context, requestID string, published ...eventbus.Event) {
	if o.publisher == nil || len(published) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)

	go func() {
		for _, event := range published {
			if err := o.publisher.Publish(ctx, requestID, event); err != nil {
				o.logger.WarnContext(ctx, "Failed to publish lifecycle event",
					"request_id", requestID,
					"event_type", event.GetType(),
					"error", err)
			}
		}
	}()
}
