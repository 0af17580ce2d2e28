package scheduler_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmatic/actionsched/pkg/scheduler"
)

func TestMemoryStoreFindDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	staleClaim := now.Add(-10 * time.Minute)
	freshClaim := now.Add(-time.Second)

	store := scheduler.NewMemoryStore()

	duePending := seedAction(t, store, &scheduler.Action{
		Endpoint: "@due", NextRunAt: &past, Status: scheduler.StatusPending,
	})
	undatedPending := seedAction(t, store, &scheduler.Action{
		Endpoint: "@undated", Status: scheduler.StatusPending,
	})
	staleRunning := seedAction(t, store, &scheduler.Action{
		Endpoint: "@stale", Status: scheduler.StatusRunning, ClaimedAt: &staleClaim,
	})
	unclaimedRunning := seedAction(t, store, &scheduler.Action{
		Endpoint: "@unclaimed", Status: scheduler.StatusRunning,
	})
	seedAction(t, store, &scheduler.Action{
		Endpoint: "@future", NextRunAt: &future, Status: scheduler.StatusPending,
	})
	seedAction(t, store, &scheduler.Action{
		Endpoint: "@fresh", Status: scheduler.StatusRunning, ClaimedAt: &freshClaim,
	})
	seedAction(t, store, &scheduler.Action{
		Endpoint: "@done", NextRunAt: &past, Status: scheduler.StatusCompleted,
	})

	due, err := store.FindDue(ctx, now, time.Minute)
	require.NoError(t, err)

	ids := make(map[string]bool, len(due))
	for _, a := range due {
		ids[a.ID] = true
	}

	assert.Len(t, due, 4)
	assert.True(t, ids[duePending.ID])
	assert.True(t, ids[undatedPending.ID])
	assert.True(t, ids[staleRunning.ID])
	assert.True(t, ids[unclaimedRunning.ID])
}

func TestMemoryStoreFindDueOrdering(t *testing.T) {
	t.Parallel()

	store := scheduler.NewMemoryStore()
	seedAction(t, store, &scheduler.Action{Endpoint: "@low", Priority: 1, Status: scheduler.StatusPending})
	seedAction(t, store, &scheduler.Action{Endpoint: "@high", Priority: 10, Status: scheduler.StatusPending})
	seedAction(t, store, &scheduler.Action{Endpoint: "@mid", Priority: 5, Status: scheduler.StatusPending})

	due, err := store.FindDue(context.Background(), time.Now().UTC(), time.Minute)
	require.NoError(t, err)
	require.Len(t, due, 3)

	assert.Equal(t, "@high", due[0].Endpoint)
	assert.Equal(t, "@mid", due[1].Endpoint)
	assert.Equal(t, "@low", due[2].Endpoint)
}

func TestMemoryStoreClaimActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("claims pending actions", func(t *testing.T) {
		t.Parallel()

		store := scheduler.NewMemoryStore()
		a := seedAction(t, store, &scheduler.Action{Endpoint: "@a", Status: scheduler.StatusPending})

		claimed, err := store.ClaimActions(ctx, []string{a.ID}, now, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, claimed)

		stored, _ := store.GetAction(a.ID)
		assert.Equal(t, scheduler.StatusRunning, stored.Status)
		require.NotNil(t, stored.ClaimedAt)
		assert.True(t, stored.ClaimedAt.Equal(now))
	})

	t.Run("skips freshly claimed running actions", func(t *testing.T) {
		t.Parallel()

		store := scheduler.NewMemoryStore()
		fresh := now.Add(-time.Second)
		a := seedAction(t, store, &scheduler.Action{
			Endpoint: "@a", Status: scheduler.StatusRunning, ClaimedAt: &fresh,
		})

		claimed, err := store.ClaimActions(ctx, []string{a.ID}, now, time.Minute)
		require.NoError(t, err)
		assert.Empty(t, claimed)
	})

	t.Run("reclaims stale running actions", func(t *testing.T) {
		t.Parallel()

		store := scheduler.NewMemoryStore()
		stale := now.Add(-time.Hour)
		a := seedAction(t, store, &scheduler.Action{
			Endpoint: "@a", Status: scheduler.StatusRunning, ClaimedAt: &stale,
		})

		claimed, err := store.ClaimActions(ctx, []string{a.ID}, now, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, claimed)

		stored, _ := store.GetAction(a.ID)
		assert.True(t, stored.ClaimedAt.Equal(now))
	})

	t.Run("ignores missing and terminal actions", func(t *testing.T) {
		t.Parallel()

		store := scheduler.NewMemoryStore()
		a := seedAction(t, store, &scheduler.Action{Endpoint: "@a", Status: scheduler.StatusCompleted})

		claimed, err := store.ClaimActions(ctx, []string{a.ID, "no-such-id"}, now, time.Minute)
		require.NoError(t, err)
		assert.Empty(t, claimed)
	})
}

func TestMemoryStoreHasAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := scheduler.NewMemoryStore()
	seedAction(t, store, &scheduler.Action{
		Endpoint:  "@send-email",
		Args:      json.RawMessage(`{"to":"a@x.com"}`),
		NextRunAt: &at,
		Status:    scheduler.StatusPending,
	})

	tests := []struct {
		name   string
		filter scheduler.Filter
		want   bool
	}{
		{
			name:   "endpoint and instant match",
			filter: scheduler.Filter{Endpoint: "send-email", ScheduledAt: &at, Status: scheduler.StatusPending},
			want:   true,
		},
		{
			name:   "different instant",
			filter: scheduler.Filter{Endpoint: "send-email", ScheduledAt: timePtr(at.Add(time.Minute)), Status: scheduler.StatusPending},
			want:   false,
		},
		{
			name:   "different endpoint",
			filter: scheduler.Filter{Endpoint: "other", ScheduledAt: &at},
			want:   false,
		},
		{
			name:   "omitted fields are not compared",
			filter: scheduler.Filter{Endpoint: "send-email"},
			want:   true,
		},
		{
			name:   "args mismatch",
			filter: scheduler.Filter{Endpoint: "send-email", Args: json.RawMessage(`{"to":"b@x.com"}`)},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.HasAction(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStoreUpdateAction(t *testing.T) {
	t.Parallel()

	store := scheduler.NewMemoryStore()

	err := store.UpdateAction(context.Background(), &scheduler.Action{ID: "missing"})
	assert.Error(t, err)

	a := seedAction(t, store, &scheduler.Action{Endpoint: "@a", Status: scheduler.StatusPending})
	a.Status = scheduler.StatusCancelled
	require.NoError(t, store.UpdateAction(context.Background(), a))

	stored, ok := store.GetAction(a.ID)
	require.True(t, ok)
	assert.Equal(t, scheduler.StatusCancelled, stored.Status)
}

func timePtr(t time.Time) *time.Time { return &t }
