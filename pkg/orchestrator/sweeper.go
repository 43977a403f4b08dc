package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweep re-evaluates every non-terminal stored request through the engine so
// that conditions satisfied asynchronously still cause a transition without
// an explicit update call. A running sweep suppresses a new one; the second
// call returns immediately with zero transitions. Re-running a sweep with no
// intervening mutation commits nothing.
func (o *Orchestrator) Sweep(ctx context.Context) (int, error) {
	if !o.sweeping.CompareAndSwap(false, true) {
		o.logger.DebugContext(ctx, "Sweep already running, skipping")

		return 0, nil
	}
	defer o.sweeping.Store(false)

	ctx, span := o.tracer.Start(ctx, "orchestrator.sweep")
	defer span.End()

	requests, err := o.store.RequestRepository().GetAll(ctx)
	if err != nil {
		return 0, err
	}

	transitions := 0

	for _, snapshot := range requests {
		if snapshot.Status.Terminal() {
			continue
		}

		fired, err := o.sweepOne(ctx, snapshot.ID)
		if err != nil {
			o.logger.WarnContext(ctx, "Sweep failed for request",
				"request_id", snapshot.ID, "error", err)

			continue
		}

		transitions += fired
	}

	if transitions > 0 {
		o.logger.InfoContext(ctx, "Sweep committed transitions", "transitions", transitions)
	}

	return transitions, nil
}

// sweepOne re-reads the request under its lock so the sweep never races an
// in-flight update on the same id.
func (o *Orchestrator) sweepOne(ctx context.Context, id string) (int, error) {
	mu := o.lock(id)
	mu.Lock()
	defer mu.Unlock()

	request, err := o.store.RequestRepository().GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	deltas := o.engine.Advance(request)
	if len(deltas) == 0 {
		return 0, nil
	}

	request.UpdatedAt = time.Now().UTC()

	if err := o.store.RequestRepository().Save(ctx, request); err != nil {
		return 0, err
	}

	o.dispatchAsync(ctx, request.ID, o.transitionEvents(request, deltas)...)

	return len(deltas), nil
}

// Sweeper drives periodic sweeps from a 5-field cron expression.
type Sweeper struct {
	orchestrator *Orchestrator
	schedule     cron.Schedule
	logger       *slog.Logger
}

// NewSweeper parses the cron expression (minute hour day month weekday) and
// returns a sweeper bound to the orchestrator.
func NewSweeper(o *Orchestrator, cronExpression string) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	schedule, err := parser.Parse(cronExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep cron expression %q: %w", cronExpression, err)
	}

	return &Sweeper{
		orchestrator: o,
		schedule:     schedule,
		logger:       o.logger.With("module", "sweeper"),
	}, nil
}

// Run sweeps on schedule until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	for {
		next := s.schedule.Next(time.Now())

		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}

		transitions, err := s.orchestrator.Sweep(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Sweep failed", "error", err)

			continue
		}

		if transitions > 0 {
			s.logger.InfoContext(ctx, "Sweep finished", "transitions", transitions)
		}
	}
}
