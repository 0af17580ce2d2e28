package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const logActionStarted = "Action started"

// ErrorHook is invoked for every failure-class outcome with the
// updated action and the terminal message. Hook errors propagate to
// the caller of Record, halting later hooks in the chain.
type ErrorHook func(ctx context.Context, action *Action, message string, code int) error

// Recorder appends the terminal log entry, persists the new status,
// and triggers the rescheduling and error-hook paths.
type Recorder struct {
	store       RecorderStore
	rescheduler *Rescheduler
	hooks       []ErrorHook
	logger      *slog.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(store RecorderStore, rescheduler *Rescheduler, opts ...RecorderOption) (*Recorder, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &recorderOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Recorder{
		store:       store,
		rescheduler: rescheduler,
		hooks:       options.hooks,
		logger:      options.logger,
	}, nil
}

// Record appends a log line for the outcome and persists the action's
// new status. When the immediately preceding log entry is the start
// marker, the elapsed time is appended to the message. Recurring
// actions are handed to the Rescheduler; a rescheduling failure is
// itself logged and hook-notified rather than aborting the recording.
// Failure-class outcomes additionally invoke every error hook in order.
func (r *Recorder) Record(ctx context.Context, action *Action, outcome Outcome) error {
	now := time.Now().UTC()

	message := outcome.Message
	if n := len(action.Log); n > 0 && action.Log[n-1].Message == logActionStarted {
		elapsed := now.Sub(action.Log[n-1].Date)
		message = fmt.Sprintf("%s [%s]", message, FormatDuration(elapsed))
	}

	code := outcome.Code
	action.Status = outcome.Status
	action.Log = append(action.Log, LogEntry{Date: now, Code: &code, Message: message})

	if err := r.store.UpdateAction(ctx, action); err != nil {
		return fmt.Errorf("failed to record outcome for action %s: %w", action.ID, err)
	}

	if action.Recurring() && r.rescheduler != nil {
		if _, err := r.rescheduler.Reschedule(ctx, action); err != nil {
			r.logger.ErrorContext(ctx, "failed to reschedule action",
				slog.String("action_id", action.ID),
				slog.String("endpoint", action.Endpoint),
				slog.String("error", err.Error()))

			if err := r.appendEntry(ctx, action, "Failed to reschedule action", 500); err != nil {
				return err
			}
			if err := r.notifyHooks(ctx, action, "Failed to reschedule action", 500); err != nil {
				return err
			}
		}
	}

	if outcome.Status == StatusFailed || outcome.Status == StatusTimeout {
		if err := r.notifyHooks(ctx, action, message, outcome.Code); err != nil {
			return err
		}
	}

	return nil
}

func (r *Recorder) appendEntry(ctx context.Context, action *Action, message string, code int) error {
	action.Log = append(action.Log, LogEntry{Date: time.Now().UTC(), Code: &code, Message: message})
	if err := r.store.UpdateAction(ctx, action); err != nil {
		return fmt.Errorf("failed to append log for action %s: %w", action.ID, err)
	}
	return nil
}

func (r *Recorder) notifyHooks(ctx context.Context, action *Action, message string, code int) error {
	for _, hook := range r.hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, action, message, code); err != nil {
			return fmt.Errorf("error hook failed for action %s: %w", action.ID, err)
		}
	}
	return nil
}

// RecorderOption is a functional option for configuring a Recorder
type RecorderOption func(*recorderOptions)

type recorderOptions struct {
	hooks  []ErrorHook
	logger *slog.Logger
}

// WithErrorHooks registers hooks invoked on failure-class outcomes
func WithErrorHooks(hooks ...ErrorHook) RecorderOption {
	return func(o *recorderOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithRecorderLogger sets the logger for the recorder
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(o *recorderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
