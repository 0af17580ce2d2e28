package scheduler

import (
	"context"
	"fmt"
	"log/slog"
)

// Enqueuer validates, de-duplicates, and persists requested actions
type Enqueuer struct {
	store  EnqueuerStore
	logger *slog.Logger
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(store EnqueuerStore, opts ...EnqueuerOption) (*Enqueuer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &enqueuerOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		store:  store,
		logger: options.logger,
	}, nil
}

// Enqueue constructs an action from the request and persists it unless
// an equivalent pending action already exists for the same instant, in
// which case the constructed (unpersisted) action is returned together
// with ErrAlreadyScheduled.
//
// The duplicate check is best-effort and non-atomic: a concurrent
// enqueue of the same action can still double-book.
func (e *Enqueuer) Enqueue(ctx context.Context, req ActionRequest) (*Action, error) {
	action, err := Construct(req)
	if err != nil {
		return nil, err
	}

	exists, err := e.store.HasAction(ctx, Filter{
		Endpoint:    action.Endpoint,
		ScheduledAt: action.NextRunAt,
		Status:      StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate check for %q failed: %w", action.Endpoint, err)
	}
	if exists {
		e.logger.DebugContext(ctx, "action already scheduled",
			slog.String("endpoint", action.Endpoint))
		return action, ErrAlreadyScheduled
	}

	if err := e.store.CreateAction(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to create action %q: %w", action.Endpoint, err)
	}

	e.logger.InfoContext(ctx, "action scheduled",
		slog.String("action_id", action.ID),
		slog.String("endpoint", action.Endpoint),
		slog.Int("priority", action.Priority))

	return action, nil
}

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	logger *slog.Logger
}

// WithEnqueuerLogger sets the logger for the enqueuer
func WithEnqueuerLogger(logger *slog.Logger) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
