package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const logActionRescheduled = "Action re-scheduled"

// Rescheduler enqueues the next occurrence of a recurring action once
// the current one reaches a terminal state. The terminal record itself
// is left untouched as history.
type Rescheduler struct {
	store  EnqueuerStore
	logger *slog.Logger
}

// NewRescheduler creates a new Rescheduler
func NewRescheduler(store EnqueuerStore, logger *slog.Logger) (*Rescheduler, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rescheduler{store: store, logger: logger}, nil
}

// Reschedule computes the action's next occurrence strictly after now
// and creates a fresh pending record for it, carrying over endpoint,
// arguments, group, priority, and cron expression. When an equivalent
// pending action already exists at that instant no record is created
// and nil is returned.
func (r *Rescheduler) Reschedule(ctx context.Context, action *Action) (*Action, error) {
	if !action.Recurring() {
		return nil, ErrNotRecurring
	}

	now := time.Now().UTC()
	from := now
	if action.NextRunAt != nil {
		from = *action.NextRunAt
	}

	next, err := NextAfter(action.CronExpression, from, now)
	if err != nil {
		return nil, err
	}

	exists, err := r.store.HasAction(ctx, Filter{
		Endpoint:    action.Endpoint,
		ScheduledAt: &next,
		Status:      StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate check for %q failed: %w", action.Endpoint, err)
	}
	if exists {
		r.logger.DebugContext(ctx, "next occurrence already scheduled",
			slog.String("endpoint", action.Endpoint),
			slog.Time("next_run_at", next))
		return nil, nil
	}

	successor := &Action{
		Endpoint:       action.Endpoint,
		Args:           action.Args,
		Group:          action.Group,
		Priority:       action.Priority,
		CronExpression: action.CronExpression,
		NextRunAt:      &next,
		Status:         StatusPending,
		Log: []LogEntry{
			{Date: now, Message: logActionRescheduled},
		},
		CreatedAt: now,
	}

	if err := r.store.CreateAction(ctx, successor); err != nil {
		return nil, fmt.Errorf("failed to create rescheduled action %q: %w", action.Endpoint, err)
	}

	r.logger.InfoContext(ctx, "action re-scheduled",
		slog.String("action_id", successor.ID),
		slog.String("endpoint", successor.Endpoint),
		slog.Time("next_run_at", next))

	return successor, nil
}
