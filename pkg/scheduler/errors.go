package scheduler

import "errors"

// Common errors
var (
	// ErrStoreNil is returned when a nil store is provided
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrEndpointRequired is returned when an action request has no endpoint
	ErrEndpointRequired = errors.New("endpoint is required")

	// ErrScheduledInPast is returned when a one-shot action is scheduled in the past
	ErrScheduledInPast = errors.New("cannot schedule an action in the past")

	// ErrInvalidCron is returned when a cron expression cannot be parsed
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrInvalidArgs is returned when action arguments are not valid JSON
	ErrInvalidArgs = errors.New("arguments must be valid JSON")

	// ErrAlreadyScheduled is returned when an equivalent pending action already exists
	ErrAlreadyScheduled = errors.New("action is already scheduled")

	// ErrNotRegistered is returned when no handler is registered for a local endpoint
	ErrNotRegistered = errors.New("action is not registered")

	// ErrNotCallable is returned when a registered handler is not invocable
	ErrNotCallable = errors.New("action handler is not callable")

	// ErrNotRecurring is returned when rescheduling an action without a cron expression
	ErrNotRecurring = errors.New("cannot reschedule an action without a cron expression")

	// ErrCycleFailed is returned when the batch orchestration itself fails
	ErrCycleFailed = errors.New("processing cycle failed")
)
