// Package scheduler implements a pull-triggered action queue: named
// actions are enqueued for immediate, future, or cron-recurring
// execution, durably stored, and later claimed in priority order by a
// processing cycle invoked from outside (typically an HTTP call from
// an external cron or scheduler process).
//
// The package is organised around five components:
//
//   - Enqueuer    — validates, de-duplicates, and persists requested actions
//   - Dispatcher  — resolves an action to a local handler or remote HTTP
//     endpoint and races the invocation against a timeout budget
//   - Recorder    — appends the outcome to the action's history log and
//     triggers the rescheduling and error-hook paths
//   - Rescheduler — enqueues the next occurrence of recurring actions
//   - Processor   — orchestrates one bounded cycle over the due batch
//
// Components interact only through small store interfaces, keeping the
// engine decoupled from persistence. MemoryStore backs tests and local
// development; the mongostore subpackage provides the MongoDB adapter.
//
// # Execution model
//
// There is no background daemon. Each cycle is triggered synchronously
// and runs to completion: claim the due batch, mark it running,
// dispatch everything in parallel (bounded fan-out), record outcomes,
// overwrite the run summary. Cycles may overlap under concurrent
// triggers; the claim step is a conditional update rather than a
// transaction, so duplicate execution is narrowed but not eliminated.
// Callees must therefore be idempotent or tolerant of late completion,
// since a timed-out dispatch is abandoned rather than cancelled.
//
// # Usage
//
//	store := scheduler.NewMemoryStore()
//	svc, err := scheduler.New(store, cfg,
//	    scheduler.WithAction("@send-email", sendEmail),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// enqueue a recurring action
//	_, err = svc.Enqueue(ctx, scheduler.ActionRequest{
//	    Endpoint:       "send-email",
//	    Args:           json.RawMessage(`{"to":"a@x.com"}`),
//	    CronExpression: "0 9 * * *",
//	})
//
//	// mount the HTTP surface
//	r.Mount("/api/scheduled-actions", scheduler.Router(svc))
//
// An external scheduler then calls GET /api/scheduled-actions/run at
// regular intervals.
package scheduler
