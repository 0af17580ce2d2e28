package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions plus an optional
// leading seconds field. Descriptors like @daily are rejected by the
// field-count check below.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ParseCron validates and parses a 5- or 6-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) < 5 || len(fields) > 6 {
		return nil, fmt.Errorf("%w: must have 5 or 6 fields, got %d", ErrInvalidCron, len(fields))
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCron, err)
	}
	return sched, nil
}

// NextOccurrence returns the first occurrence of expr strictly after from
func NextOccurrence(expr string, from time.Time) (time.Time, error) {
	sched, err := ParseCron(expr)
	if err != nil {
		return time.Time{}, err
	}

	next := sched.Next(from.UTC())
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: no future occurrence for %q", ErrInvalidCron, expr)
	}
	return next, nil
}

// NextAfter advances from the reference time to the next cron occurrence,
// repeating until a result strictly after now is found. This handles
// human-edited past starting points without trusting the caller's
// reference to be current.
func NextAfter(expr string, from, now time.Time) (time.Time, error) {
	sched, err := ParseCron(expr)
	if err != nil {
		return time.Time{}, err
	}

	next := from.UTC()
	for {
		next = sched.Next(next)
		if next.IsZero() {
			return time.Time{}, fmt.Errorf("%w: no future occurrence for %q", ErrInvalidCron, expr)
		}
		if next.After(now) {
			return next, nil
		}
	}
}
