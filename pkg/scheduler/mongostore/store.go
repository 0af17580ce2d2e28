// Package mongostore provides the MongoDB implementation of the
// scheduler store interfaces on top of the official driver.
//
// Actions live in the scheduled_actions collection; the run summary is
// a single document in scheduler_info overwritten after every cycle.
// Argument JSON is stored as its canonical string so that duplicate
// checks compare equal as strings, mirroring the engine's contract.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/flowmatic/actionsched/pkg/scheduler"
)

const (
	actionsCollection = "scheduled_actions"
	summaryCollection = "scheduler_info"

	summaryDocID = "action-scheduler-info"
)

// Store implements scheduler.Store backed by MongoDB
type Store struct {
	actions *mongo.Collection
	summary *mongo.Collection
}

// New creates a new mongo-backed store on the given database
func New(db *mongo.Database) *Store {
	return &Store{
		actions: db.Collection(actionsCollection),
		summary: db.Collection(summaryCollection),
	}
}

type logDoc struct {
	Date    time.Time `bson:"date"`
	Code    *int      `bson:"code,omitempty"`
	Message string    `bson:"message"`
}

type actionDoc struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Endpoint       string        `bson:"endpoint"`
	Args           string        `bson:"args,omitempty"`
	Group          string        `bson:"group,omitempty"`
	Priority       int           `bson:"priority"`
	CronExpression string        `bson:"cronExpression,omitempty"`
	NextRunAt      *time.Time    `bson:"nextRunAt,omitempty"`
	ClaimedAt      *time.Time    `bson:"claimedAt,omitempty"`
	Status         string        `bson:"status"`
	Log            []logDoc      `bson:"log,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt"`
}

type summaryDoc struct {
	ID              string    `bson:"_id"`
	LastRun         time.Time `bson:"lastRun"`
	LastRunDuration int64     `bson:"lastRunDurationMs"`
	TotalQueuedDocs int       `bson:"totalQueuedDocs"`
	ErrorCount      int       `bson:"errorCount"`
}

func toDoc(a *scheduler.Action) (*actionDoc, error) {
	doc := &actionDoc{
		Endpoint:       a.Endpoint,
		Args:           string(a.Args),
		Group:          a.Group,
		Priority:       a.Priority,
		CronExpression: a.CronExpression,
		NextRunAt:      a.NextRunAt,
		ClaimedAt:      a.ClaimedAt,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.ID != "" {
		oid, err := bson.ObjectIDFromHex(a.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid action ID %q: %w", a.ID, err)
		}
		doc.ID = oid
	}
	for _, entry := range a.Log {
		doc.Log = append(doc.Log, logDoc(entry))
	}
	return doc, nil
}

func fromDoc(doc *actionDoc) *scheduler.Action {
	a := &scheduler.Action{
		ID:             doc.ID.Hex(),
		Endpoint:       doc.Endpoint,
		Group:          doc.Group,
		Priority:       doc.Priority,
		CronExpression: doc.CronExpression,
		NextRunAt:      doc.NextRunAt,
		ClaimedAt:      doc.ClaimedAt,
		Status:         scheduler.Status(doc.Status),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.Args != "" {
		a.Args = json.RawMessage(doc.Args)
	}
	for _, entry := range doc.Log {
		a.Log = append(a.Log, scheduler.LogEntry(entry))
	}
	return a
}

// CreateAction implements scheduler.EnqueuerStore
func (s *Store) CreateAction(ctx context.Context, action *scheduler.Action) error {
	now := time.Now().UTC()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	action.UpdatedAt = now
	if action.ID == "" {
		action.ID = bson.NewObjectID().Hex()
	}

	doc, err := toDoc(action)
	if err != nil {
		return err
	}

	if _, err := s.actions.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// HasAction implements scheduler.EnqueuerStore. Only the supplied
// filter fields are compared.
func (s *Store) HasAction(ctx context.Context, filter scheduler.Filter) (bool, error) {
	query := bson.M{}
	if filter.Endpoint != "" {
		query["endpoint"] = scheduler.NormalizeEndpoint(filter.Endpoint)
	}
	if filter.Args != nil {
		query["args"] = string(filter.Args)
	}
	if filter.CronExpression != "" {
		query["cronExpression"] = filter.CronExpression
	}
	if filter.ScheduledAt != nil {
		query["nextRunAt"] = filter.ScheduledAt.UTC().Truncate(time.Millisecond)
	}
	if filter.Group != "" {
		query["group"] = filter.Group
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}

	count, err := s.actions.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count actions: %w", err)
	}
	return count > 0, nil
}

// FindDue implements scheduler.ProcessorStore: the four-clause
// eligibility predicate sorted by priority descending, unpaginated.
func (s *Store) FindDue(ctx context.Context, now time.Time, staleAfter time.Duration) ([]*scheduler.Action, error) {
	staleBefore := now.Add(-staleAfter)

	query := bson.M{"$or": bson.A{
		bson.M{"status": string(scheduler.StatusPending), "nextRunAt": bson.M{"$lte": now}},
		bson.M{"status": string(scheduler.StatusPending), "nextRunAt": nil},
		bson.M{"status": string(scheduler.StatusRunning), "claimedAt": bson.M{"$lt": staleBefore}},
		bson.M{"status": string(scheduler.StatusRunning), "claimedAt": nil},
	}}

	cursor, err := s.actions.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "priority", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query due actions: %w", err)
	}
	defer cursor.Close(ctx)

	var due []*scheduler.Action
	for cursor.Next(ctx) {
		var doc actionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode action: %w", err)
		}
		due = append(due, fromDoc(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return due, nil
}

// ClaimActions implements scheduler.ProcessorStore. Each claim is a
// conditional per-document update: it succeeds only while the document
// still satisfies the selection predicate, so actions grabbed by a
// concurrent cycle in the meantime are skipped.
func (s *Store) ClaimActions(ctx context.Context, ids []string, claimedAt time.Time, staleAfter time.Duration) ([]string, error) {
	staleBefore := claimedAt.Add(-staleAfter)

	var claimed []string
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid action ID %q: %w", id, err)
		}

		filter := bson.M{
			"_id": oid,
			"$or": bson.A{
				bson.M{"status": string(scheduler.StatusPending)},
				bson.M{"status": string(scheduler.StatusRunning), "claimedAt": bson.M{"$lt": staleBefore}},
				bson.M{"status": string(scheduler.StatusRunning), "claimedAt": nil},
			},
		}
		update := bson.M{"$set": bson.M{
			"status":    string(scheduler.StatusRunning),
			"claimedAt": claimedAt,
			"updatedAt": time.Now().UTC(),
		}}

		err = s.actions.FindOneAndUpdate(ctx, filter, update).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to claim action %s: %w", id, err)
		}
		claimed = append(claimed, id)
	}
	return claimed, nil
}

// UpdateAction implements scheduler.RecorderStore
func (s *Store) UpdateAction(ctx context.Context, action *scheduler.Action) error {
	action.UpdatedAt = time.Now().UTC()

	doc, err := toDoc(action)
	if err != nil {
		return err
	}

	result, err := s.actions.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update action %s: %w", action.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("action %s not found", action.ID)
	}
	return nil
}

// UpdateRunSummary implements scheduler.ProcessorStore: last-writer-wins
// upsert of the singleton summary document.
func (s *Store) UpdateRunSummary(ctx context.Context, summary scheduler.RunSummary) error {
	doc := summaryDoc{
		ID:              summaryDocID,
		LastRun:         summary.LastRun,
		LastRunDuration: summary.LastRunDuration,
		TotalQueuedDocs: summary.TotalQueuedDocs,
		ErrorCount:      summary.ErrorCount,
	}

	_, err := s.summary.ReplaceOne(ctx, bson.M{"_id": summaryDocID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update run summary: %w", err)
	}
	return nil
}

// GetRunSummary implements scheduler.Store
func (s *Store) GetRunSummary(ctx context.Context) (scheduler.RunSummary, error) {
	var doc summaryDoc
	err := s.summary.FindOne(ctx, bson.M{"_id": summaryDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return scheduler.RunSummary{}, nil
	}
	if err != nil {
		return scheduler.RunSummary{}, fmt.Errorf("failed to load run summary: %w", err)
	}

	return scheduler.RunSummary{
		LastRun:         doc.LastRun,
		LastRunDuration: doc.LastRunDuration,
		TotalQueuedDocs: doc.TotalQueuedDocs,
		ErrorCount:      doc.ErrorCount,
	}, nil
}
