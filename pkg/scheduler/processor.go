package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Processor orchestrates one bounded processing cycle: claim the due
// batch, mark it running, dispatch all claimed actions in parallel,
// record outcomes, and overwrite the run summary. It does not run as
// a background daemon; every cycle is triggered from outside.
type Processor struct {
	store      ProcessorStore
	dispatcher *Dispatcher
	recorder   *Recorder

	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// NewProcessor creates a new Processor. The timeout doubles as the
// per-action budget base and the staleness window for reclaiming
// abandoned running actions.
func NewProcessor(store ProcessorStore, dispatcher *Dispatcher, recorder *Recorder, opts ...ProcessorOption) (*Processor, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &processorOptions{
		timeout:       60 * time.Second,
		maxConcurrent: 10,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Processor{
		store:         store,
		dispatcher:    dispatcher,
		recorder:      recorder,
		timeout:       options.timeout,
		maxConcurrent: options.maxConcurrent,
		logger:        options.logger,
	}, nil
}

// Run performs exactly one processing cycle and returns its aggregate
// counters. Individual action failures are isolated and never fail the
// cycle; only orchestration failures (selection or claim errors) do.
// The run summary is updated best-effort even on a failed cycle.
//
// Cycles may overlap under concurrent triggers. The claim step skips
// actions whose status changed since selection, which narrows but does
// not eliminate duplicate execution; the staleness window is the only
// remaining mitigation.
func (p *Processor) Run(ctx context.Context) (CycleResult, error) {
	start := time.Now().UTC()
	cycleID := uuid.New().String()

	var fetched, succeeded int
	defer func() {
		summary := RunSummary{
			LastRun:         start,
			LastRunDuration: time.Since(start).Milliseconds(),
			TotalQueuedDocs: fetched,
			ErrorCount:      fetched - succeeded,
		}
		if err := p.store.UpdateRunSummary(context.WithoutCancel(ctx), summary); err != nil {
			p.logger.ErrorContext(ctx, "failed to update run summary",
				slog.String("cycle_id", cycleID),
				slog.String("error", err.Error()))
		}
	}()

	actions, err := p.store.FindDue(ctx, start, p.timeout)
	if err != nil {
		return CycleResult{StartedAt: start}, fmt.Errorf("%w: selection query failed: %w", ErrCycleFailed, err)
	}
	fetched = len(actions)

	p.logger.DebugContext(ctx, "fetched due batch",
		slog.String("cycle_id", cycleID),
		slog.Int("total", fetched),
		slog.Duration("fetch_time", time.Since(start)))

	if fetched == 0 {
		return p.result(start, 0, 0), nil
	}

	claimed, err := p.claim(ctx, actions, start)
	if err != nil {
		return CycleResult{StartedAt: start, NumberOfActions: fetched},
			fmt.Errorf("%w: claim failed: %w", ErrCycleFailed, err)
	}

	succeeded = p.dispatchAll(ctx, claimed)

	p.logger.InfoContext(ctx, "cycle completed",
		slog.String("cycle_id", cycleID),
		slog.Int("total", fetched),
		slog.Int("succeeded", succeeded),
		slog.Duration("duration", time.Since(start)))

	return p.result(start, fetched, succeeded), nil
}

func (p *Processor) result(start time.Time, fetched, succeeded int) CycleResult {
	return CycleResult{
		StartedAt:       start,
		Duration:        time.Since(start),
		NumberOfActions: fetched,
		SuccessCount:    succeeded,
		ErrorCount:      fetched - succeeded,
	}
}

// claim conditionally marks the batch running and returns the subset
// that was actually claimed
func (p *Processor) claim(ctx context.Context, actions []*Action, now time.Time) ([]*Action, error) {
	ids := make([]string, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}

	claimedIDs, err := p.store.ClaimActions(ctx, ids, now, p.timeout)
	if err != nil {
		return nil, err
	}

	claimedSet := make(map[string]struct{}, len(claimedIDs))
	for _, id := range claimedIDs {
		claimedSet[id] = struct{}{}
	}

	claimed := make([]*Action, 0, len(claimedIDs))
	for _, a := range actions {
		if _, ok := claimedSet[a.ID]; ok {
			a.Status = StatusRunning
			t := now
			a.ClaimedAt = &t
			claimed = append(claimed, a)
		}
	}
	return claimed, nil
}

// dispatchAll fans out over the claimed batch with bounded concurrency
// and records every outcome. Returns the number of completed actions.
func (p *Processor) dispatchAll(ctx context.Context, actions []*Action) int {
	budget := p.timeout - time.Second
	if budget < time.Second {
		budget = time.Second
	}

	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for _, action := range actions {
		wg.Add(1)
		sem <- struct{}{}

		go func(action *Action) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := p.runOne(ctx, action, budget)

			if err := p.recorder.Record(ctx, action, outcome); err != nil {
				p.logger.ErrorContext(ctx, "failed to record outcome",
					slog.String("action_id", action.ID),
					slog.String("endpoint", action.Endpoint),
					slog.String("error", err.Error()))
			}

			if outcome.Status == StatusCompleted {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(action)
	}

	wg.Wait()
	return succeeded
}

// runOne dispatches a single action with panic isolation so one
// misbehaving handler never aborts its siblings
func (p *Processor) runOne(ctx context.Context, action *Action, budget time.Duration) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "handler panicked",
				slog.String("action_id", action.ID),
				slog.String("endpoint", action.Endpoint),
				slog.Any("panic", r))
			outcome = Outcome{
				Status:  StatusFailed,
				Message: fmt.Sprintf("panic in handler: %v", r),
				Code:    http.StatusInternalServerError,
			}
		}
	}()

	action.Log = append(action.Log, LogEntry{Date: time.Now().UTC(), Message: logActionStarted})

	return p.dispatcher.Dispatch(ctx, action, budget)
}

// ProcessorOption is a functional option for configuring a Processor
type ProcessorOption func(*processorOptions)

type processorOptions struct {
	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// WithTimeout sets the per-action timeout budget and staleness window
func WithTimeout(d time.Duration) ProcessorOption {
	return func(o *processorOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxConcurrent bounds the parallel dispatch fan-out per cycle
func WithMaxConcurrent(n int) ProcessorOption {
	return func(o *processorOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithProcessorLogger sets the logger for the processor
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(o *processorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
