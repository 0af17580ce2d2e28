package scheduler

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of a scheduled action
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
)

// Terminal reports whether the status is a final state
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// LogEntry is a single line in an action's append-only history log
type LogEntry struct {
	Date    time.Time `json:"date"`
	Code    *int      `json:"code,omitempty"`
	Message string    `json:"message"`
}

// Action is a persisted unit of work identified by an endpoint string.
//
// NextRunAt holds the execution time for one-shot actions (nil means
// "run as soon as possible") and the next computed occurrence for
// recurring ones. ClaimedAt is set when a processing cycle marks the
// action running; a running action whose claim marker predates the
// staleness window is presumed abandoned and re-offered.
type Action struct {
	ID             string          `json:"id"`
	Endpoint       string          `json:"endpoint"`
	Args           json.RawMessage `json:"args,omitempty"`
	Group          string          `json:"group,omitempty"`
	Priority       int             `json:"priority"`
	CronExpression string          `json:"cronExpression,omitempty"`
	NextRunAt      *time.Time      `json:"nextRunAt,omitempty"`
	ClaimedAt      *time.Time      `json:"claimedAt,omitempty"`
	Status         Status          `json:"status"`
	Log            []LogEntry      `json:"log,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Recurring reports whether the action carries a cron expression
func (a *Action) Recurring() bool {
	return a.CronExpression != ""
}

// ActionRequest is the inbound shape accepted by the enqueue path
type ActionRequest struct {
	Endpoint       string          `json:"endpoint"`
	Args           json.RawMessage `json:"args,omitempty"`
	Group          string          `json:"group,omitempty"`
	Priority       int             `json:"priority,omitempty"`
	ScheduledAt    *time.Time      `json:"scheduledAt,omitempty"`
	CronExpression string          `json:"cronExpression,omitempty"`
}

// Filter selects actions by exact match on the supplied fields only.
// Zero-valued fields are not compared.
type Filter struct {
	Endpoint       string
	Args           json.RawMessage
	CronExpression string
	ScheduledAt    *time.Time
	Group          string
	Status         Status
	Priority       *int
}

// Outcome classifies the result of a single dispatch
type Outcome struct {
	Status  Status
	Message string
	Code    int
}

// RunSummary is the singleton aggregate overwritten at the end of
// every processing cycle. Informational only.
type RunSummary struct {
	LastRun         time.Time `json:"lastRun"`
	LastRunDuration int64     `json:"lastRunDurationMs"`
	TotalQueuedDocs int       `json:"totalQueuedDocs"`
	ErrorCount      int       `json:"errorCount"`
}

// CycleResult reports the aggregate counters of one processing cycle
type CycleResult struct {
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration"`
	NumberOfActions int           `json:"numberOfActions"`
	SuccessCount    int           `json:"successCount"`
	ErrorCount      int           `json:"errorCount"`
}
