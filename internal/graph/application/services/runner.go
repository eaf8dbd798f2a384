package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	sharedApplication "github.com/felixgeelhaar/taskgraph/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/taskgraph/internal/shared/domain"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/google/uuid"
)

// writer saves aggregates inside one attempt and collects their events for
// the outbox.
type writer struct {
	store  domain.Store
	events []sharedDomain.DomainEvent
}

func (w *writer) saveTask(ctx context.Context, t *domain.Task) error {
	if err := w.store.SaveTask(ctx, t); err != nil {
		return fmt.Errorf("save task %s: %w", t.ID(), err)
	}
	w.events = append(w.events, t.DomainEvents()...)
	t.ClearDomainEvents()
	return nil
}

func (w *writer) saveEdge(ctx context.Context, e *domain.Edge) error {
	if err := w.store.SaveEdge(ctx, e); err != nil {
		return fmt.Errorf("save dependency %s: %w", e.ID(), err)
	}
	w.events = append(w.events, e.DomainEvents()...)
	e.ClearDomainEvents()
	return nil
}

type mutation func(ctx context.Context, w *writer) error

// runner executes structural mutations for every manager: owner lock, unit
// of work, fresh reads and validation inside fn, outbox, commit. A stale
// write anywhere in fn reruns the whole closure. Stores shared between
// processes also lock the owner inside the transaction, so the locker only
// has to order callers of one process.
type runner struct {
	store   domain.Store
	uow     sharedApplication.UnitOfWork
	outbox  outbox.Repository
	locker  lock.OwnerLocker
	limits  domain.Limits
	logger  *slog.Logger
	metrics observability.Metrics
}

func (r *runner) mutate(ctx context.Context, owner uuid.UUID, op string, fn mutation) error {
	timer := observability.StartTimer(op).WithLogger(r.logger).WithMetrics(r.metrics)
	err := r.locked(ctx, owner, op, fn)
	timer.StopWithError(err)
	return err
}

func (r *runner) locked(ctx context.Context, owner uuid.UUID, op string, fn mutation) error {
	nested := lock.Held(ctx, owner)

	waitStart := time.Now()
	ctx, unlock, err := lock.Acquire(ctx, r.locker, owner)
	if err != nil {
		return fmt.Errorf("%s: lock owner: %w", op, err)
	}
	defer unlock()
	if !nested {
		r.metrics.Timing(observability.MetricLockWait, time.Since(waitStart), observability.T(observability.OperationKey, op))
	}

	attempts := r.limits.ConflictRetries + 1
	if nested {
		// The outer call owns the transaction and the retry loop.
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err = r.attempt(ctx, owner, fn)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= attempts {
			return err
		}
		r.metrics.Counter(observability.MetricOperationRetries, 1, observability.T(observability.OperationKey, op))
		r.logger.Debug("retrying after concurrent modification",
			observability.OperationKey, op,
			observability.OwnerIDKey, owner,
			"attempt", attempt,
		)
	}
}

func (r *runner) attempt(ctx context.Context, owner uuid.UUID, fn mutation) error {
	w := &writer{store: r.store}
	return sharedApplication.WithUnitOfWork(ctx, r.uow, func(txCtx context.Context) error {
		if s, ok := r.store.(domain.OwnerSerializer); ok {
			if err := s.LockOwner(txCtx, owner); err != nil {
				return fmt.Errorf("serialize owner: %w", err)
			}
		}
		if err := fn(txCtx, w); err != nil {
			return err
		}
		return r.appendEvents(txCtx, owner, w.events)
	})
}

func (r *runner) appendEvents(ctx context.Context, owner uuid.UUID, events []sharedDomain.DomainEvent) error {
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(owner, correlationID(ctx)))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := r.outbox.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("append events to outbox: %w", err)
	}
	return nil
}

// query times a read-only operation. Queries neither lock nor retry.
func query[T any](ctx context.Context, r *runner, op string, fn func(context.Context) (T, error)) (T, error) {
	return observability.TimeOperationResult(ctx, r.logger, r.metrics, op, fn)
}

// rejected logs and counts a validation failure, returning err.
func (r *runner) rejected(ctx context.Context, metric, op string, owner uuid.UUID, err error) error {
	kind := domain.Kind(err)
	if kind == nil {
		return err
	}
	if !errors.Is(err, domain.ErrConflict) {
		r.metrics.Counter(metric, 1, observability.T(observability.OperationKey, op), observability.T(observability.KindKey, kind.Error()))
	}
	r.logger.DebugContext(ctx, "mutation rejected",
		observability.OperationKey, op,
		observability.OwnerIDKey, owner,
		observability.KindKey, kind.Error(),
		observability.ErrorKey, err.Error(),
	)
	return err
}

func correlationID(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}
