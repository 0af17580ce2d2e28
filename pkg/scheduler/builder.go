package scheduler

import (
	"strings"
	"time"
)

const logActionScheduled = "Action scheduled"

// NormalizeEndpoint applies the endpoint prefixing rule: a value that
// does not name a URL, an API path, or a registered handler is treated
// as a handler name and prefixed with "@".
func NormalizeEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") ||
		strings.HasPrefix(endpoint, "/") ||
		strings.HasPrefix(endpoint, "@") {
		return endpoint
	}
	return "@" + endpoint
}

// Construct validates and normalizes a requested action into a
// persistable record. It is a pure transform; persistence is the
// caller's responsibility.
//
// One-shot requests scheduled in the past are rejected. Recurring
// requests resolve their cron expression to the first occurrence
// strictly after now, starting from ScheduledAt when provided.
func Construct(req ActionRequest) (*Action, error) {
	return constructAt(req, time.Now().UTC())
}

func constructAt(req ActionRequest, now time.Time) (*Action, error) {
	if req.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	endpoint := NormalizeEndpoint(req.Endpoint)

	args, err := CanonicalizeArgs(req.Args)
	if err != nil {
		return nil, err
	}

	var nextRunAt *time.Time
	if req.ScheduledAt != nil {
		t := req.ScheduledAt.UTC()
		nextRunAt = &t
	}

	if req.CronExpression == "" && nextRunAt != nil && now.After(*nextRunAt) {
		return nil, ErrScheduledInPast
	}

	if req.CronExpression != "" {
		from := now
		if nextRunAt != nil {
			from = *nextRunAt
		}
		next, err := NextAfter(req.CronExpression, from, now)
		if err != nil {
			return nil, err
		}
		nextRunAt = &next
	}

	return &Action{
		Endpoint:       endpoint,
		Args:           args,
		Group:          req.Group,
		Priority:       req.Priority,
		CronExpression: req.CronExpression,
		NextRunAt:      nextRunAt,
		Status:         StatusPending,
		Log: []LogEntry{
			{Date: now, Message: logActionScheduled},
		},
		CreatedAt: now,
	}, nil
}
