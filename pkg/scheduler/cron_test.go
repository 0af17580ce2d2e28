package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmatic/actionsched/pkg/scheduler"
)

func TestParseCron(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "five fields", expr: "*/5 * * * *"},
		{name: "six fields with seconds", expr: "30 */5 * * * *"},
		{name: "daily at nine", expr: "0 9 * * *"},
		{name: "too few fields", expr: "* * * *", wantErr: true},
		{name: "too many fields", expr: "* * * * * * *", wantErr: true},
		{name: "descriptor rejected", expr: "@daily", wantErr: true},
		{name: "garbage field", expr: "a b c d e", wantErr: true},
		{name: "empty", expr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scheduler.ParseCron(tt.expr)
			if tt.wantErr {
				assert.ErrorIs(t, err, scheduler.ErrInvalidCron)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	next, err := scheduler.NextOccurrence("* * * * *", now)
	require.NoError(t, err)
	assert.True(t, next.After(now), "next occurrence must be strictly after the reference time")
	assert.LessOrEqual(t, next.Sub(now), time.Minute)
}

func TestNextAfter(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("past starting point advances beyond now", func(t *testing.T) {
		t.Parallel()

		from := now.Add(-24 * time.Hour)
		next, err := scheduler.NextAfter("*/10 * * * *", from, now)
		require.NoError(t, err)
		assert.True(t, next.After(now))
	})

	t.Run("future starting point advances from it", func(t *testing.T) {
		t.Parallel()

		from := now.Add(time.Hour)
		next, err := scheduler.NextAfter("0 * * * *", from, now)
		require.NoError(t, err)
		assert.True(t, next.After(from))
	})

	t.Run("invalid expression", func(t *testing.T) {
		t.Parallel()

		_, err := scheduler.NextAfter("bad cron", now, now)
		assert.ErrorIs(t, err, scheduler.ErrInvalidCron)
	})
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "millis only", d: 450 * time.Millisecond, want: "450ms"},
		{name: "seconds and millis", d: 3*time.Second + 25*time.Millisecond, want: "3sec 25ms"},
		{name: "minutes seconds millis", d: 2*time.Minute + 5*time.Second + 1*time.Millisecond, want: "2min 5sec 1ms"},
		{name: "minutes with zero seconds", d: time.Minute, want: "1min 0sec 0ms"},
		{name: "zero", d: 0, want: "0ms"},
		{name: "negative clamps to zero", d: -time.Second, want: "0ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, scheduler.FormatDuration(tt.d))
		})
	}
}
