package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements the full Store interface for testing and
// local development. All methods are safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	actions map[string]*Action
	order   []string // insertion order, keeps sort ties stable per query
	summary RunSummary
}

// NewMemoryStore creates a new in-memory store implementation
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actions: make(map[string]*Action),
	}
}

// CreateAction implements EnqueuerStore
func (ms *MemoryStore) CreateAction(ctx context.Context, action *Action) error {
	if action == nil {
		return fmt.Errorf("action cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if _, exists := ms.actions[action.ID]; exists {
		return fmt.Errorf("action with ID %s already exists", action.ID)
	}

	now := time.Now().UTC()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now

	clone := cloneAction(action)
	ms.actions[action.ID] = clone
	ms.order = append(ms.order, action.ID)

	return nil
}

// HasAction implements EnqueuerStore
func (ms *MemoryStore) HasAction(ctx context.Context, filter Filter) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, a := range ms.actions {
		if matchesFilter(a, filter) {
			return true, nil
		}
	}
	return false, nil
}

// FindDue implements ProcessorStore
func (ms *MemoryStore) FindDue(ctx context.Context, now time.Time, staleAfter time.Duration) ([]*Action, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	staleBefore := now.Add(-staleAfter)

	var due []*Action
	for _, id := range ms.order {
		a := ms.actions[id]
		switch a.Status {
		case StatusPending:
			if a.NextRunAt == nil || !a.NextRunAt.After(now) {
				due = append(due, cloneAction(a))
			}
		case StatusRunning:
			if a.ClaimedAt == nil || a.ClaimedAt.Before(staleBefore) {
				due = append(due, cloneAction(a))
			}
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Priority > due[j].Priority
	})

	return due, nil
}

// ClaimActions implements ProcessorStore. An action is claimed only if
// it is still pending, or still running with a stale (or absent) claim
// marker; anything claimed by a faster concurrent cycle in the
// meantime is skipped.
func (ms *MemoryStore) ClaimActions(ctx context.Context, ids []string, claimedAt time.Time, staleAfter time.Duration) ([]string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	staleBefore := claimedAt.Add(-staleAfter)

	var claimed []string
	for _, id := range ids {
		a, exists := ms.actions[id]
		if !exists {
			continue
		}

		claimable := a.Status == StatusPending ||
			(a.Status == StatusRunning && (a.ClaimedAt == nil || a.ClaimedAt.Before(staleBefore)))
		if !claimable {
			continue
		}

		a.Status = StatusRunning
		t := claimedAt
		a.ClaimedAt = &t
		a.UpdatedAt = time.Now().UTC()
		claimed = append(claimed, id)
	}

	return claimed, nil
}

// UpdateAction implements RecorderStore
func (ms *MemoryStore) UpdateAction(ctx context.Context, action *Action) error {
	if action == nil {
		return fmt.Errorf("action cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.actions[action.ID]; !exists {
		return fmt.Errorf("action %s not found", action.ID)
	}

	action.UpdatedAt = time.Now().UTC()
	ms.actions[action.ID] = cloneAction(action)

	return nil
}

// UpdateRunSummary implements ProcessorStore
func (ms *MemoryStore) UpdateRunSummary(ctx context.Context, summary RunSummary) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.summary = summary
	return nil
}

// GetRunSummary implements Store
func (ms *MemoryStore) GetRunSummary(ctx context.Context) (RunSummary, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return ms.summary, nil
}

// GetAction returns a copy of the action with the given ID, for tests
// and local inspection
func (ms *MemoryStore) GetAction(id string) (*Action, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	a, ok := ms.actions[id]
	if !ok {
		return nil, false
	}
	return cloneAction(a), true
}

// ListActions returns copies of all stored actions in insertion order
func (ms *MemoryStore) ListActions() []*Action {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*Action, 0, len(ms.order))
	for _, id := range ms.order {
		out = append(out, cloneAction(ms.actions[id]))
	}
	return out
}

func cloneAction(a *Action) *Action {
	clone := *a
	if a.NextRunAt != nil {
		t := *a.NextRunAt
		clone.NextRunAt = &t
	}
	if a.ClaimedAt != nil {
		t := *a.ClaimedAt
		clone.ClaimedAt = &t
	}
	clone.Log = append([]LogEntry(nil), a.Log...)
	clone.Args = append([]byte(nil), a.Args...)
	if a.Args == nil {
		clone.Args = nil
	}
	return &clone
}

func matchesFilter(a *Action, f Filter) bool {
	if f.Endpoint != "" && a.Endpoint != NormalizeEndpoint(f.Endpoint) {
		return false
	}
	if f.Args != nil && !bytes.Equal(a.Args, f.Args) {
		return false
	}
	if f.CronExpression != "" && a.CronExpression != f.CronExpression {
		return false
	}
	if f.ScheduledAt != nil {
		if a.NextRunAt == nil || !a.NextRunAt.Equal(*f.ScheduledAt) {
			return false
		}
	}
	if f.Group != "" && a.Group != f.Group {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Priority != nil && a.Priority != *f.Priority {
		return false
	}
	return true
}
