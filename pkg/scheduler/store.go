package scheduler

import (
	"context"
	"time"
)

// EnqueuerStore defines the persistence surface for action creation
type EnqueuerStore interface {
	// CreateAction persists a new action and assigns its ID
	CreateAction(ctx context.Context, action *Action) error

	// HasAction reports whether at least one action matches the filter
	HasAction(ctx context.Context, filter Filter) (bool, error)
}

// RecorderStore defines the persistence surface for outcome recording
type RecorderStore interface {
	// UpdateAction persists the action's status and log
	UpdateAction(ctx context.Context, action *Action) error
}

// ProcessorStore defines the persistence surface for one processing cycle
type ProcessorStore interface {
	// FindDue returns the batch of actions currently eligible to run,
	// sorted by priority descending. Eligible means pending and due,
	// pending with no scheduled time, or running with a claim marker
	// older than the staleness window (or absent).
	FindDue(ctx context.Context, now time.Time, staleAfter time.Duration) ([]*Action, error)

	// ClaimActions conditionally marks the given actions running and
	// stamps their claim marker, returning the IDs actually claimed.
	// An action that no longer satisfies the selection predicate
	// (claimed by a concurrent cycle since selection) is skipped; this
	// narrows, but does not eliminate, the duplicate-execution window.
	ClaimActions(ctx context.Context, ids []string, claimedAt time.Time, staleAfter time.Duration) ([]string, error)

	// UpdateRunSummary overwrites the singleton cycle summary
	UpdateRunSummary(ctx context.Context, summary RunSummary) error
}

// Store combines every persistence surface consumed by the engine.
// Adapters (mongostore, MemoryStore) implement this full interface;
// components depend only on the subset they use.
type Store interface {
	EnqueuerStore
	RecorderStore
	ProcessorStore

	// GetRunSummary returns the last persisted cycle summary, or a zero
	// summary when no cycle has completed yet
	GetRunSummary(ctx context.Context) (RunSummary, error)
}
