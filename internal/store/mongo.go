package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

var (
	// ErrNotConfigured means no store connection string was supplied; the
	// JSON snapshot is the run's output.
	ErrNotConfigured = errors.New("no store configured")
	// ErrUnavailable wraps connection or write failures. Recoverable: the
	// pipeline logs it and ends the run, the snapshot already holds the
	// computed output.
	ErrUnavailable = errors.New("store unavailable")
)

// defaultTimeout bounds server selection so an unreachable store fails
// fast instead of hanging the batch.
const defaultTimeout = 10 * time.Second

// Mongo upserts enriched records into a collection keyed by the natural
// unique identifier.
type Mongo struct {
	uri        string
	database   string
	collection string
	timeout    time.Duration
	logger     *zap.Logger
}

// UpsertResult reports the reconciliation outcome of one batch write.
// A rerun against identical input shows zero upserted and zero modified.
type UpsertResult struct {
	Upserted int64
	Modified int64
	Matched  int64
}

// NewMongo creates a writer. An empty uri is allowed and surfaces as
// ErrNotConfigured on Upsert.
func NewMongo(uri, database, collection string, logger *zap.Logger) *Mongo {
	return &Mongo{
		uri:        uri,
		database:   database,
		collection: collection,
		timeout:    defaultTimeout,
		logger:     logger,
	}
}

// Upsert connects, ensures a unique index on the batch's natural key, and
// bulk-writes one $set upsert per record matched on that key. Documents
// are stripped of NaN/blank fields first (see Document). Any connection or
// write failure comes back wrapped in ErrUnavailable.
func (m *Mongo) Upsert(ctx context.Context, invoices []domain.Invoice) (*UpsertResult, error) {
	if m.uri == "" {
		return nil, ErrNotConfigured
	}
	if len(invoices) == 0 {
		return &UpsertResult{}, nil
	}

	opts := options.Client().
		ApplyURI(m.uri).
		SetServerSelectionTimeout(m.timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			m.logger.Warn("failed to disconnect from store", zap.Error(err))
		}
	}()

	coll := client.Database(m.database).Collection(m.collection)
	key := NaturalKey(invoices)

	// Uniqueness constraint on the natural key; CreateOne is a no-op when
	// an identical index already exists.
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: key, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create unique index on %s: %v", ErrUnavailable, key, err)
	}

	models := make([]mongo.WriteModel, 0, len(invoices))
	for i := range invoices {
		doc := Document(&invoices[i])
		value, ok := doc[key]
		if !ok {
			// A record without its natural key cannot be reconciled; skip
			// rather than insert an unmatchable document.
			m.logger.Warn("record missing natural key, skipped",
				zap.String("key", key), zap.String("id", invoices[i].ID))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{key: value}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	if len(models) == 0 {
		return &UpsertResult{}, nil
	}

	res, err := coll.BulkWrite(ctx, models)
	if err != nil {
		return nil, fmt.Errorf("%w: bulk write: %v", ErrUnavailable, err)
	}

	result := &UpsertResult{
		Upserted: res.UpsertedCount,
		Modified: res.ModifiedCount,
		Matched:  res.MatchedCount,
	}
	m.logger.Info("store write complete",
		zap.String("collection", m.collection),
		zap.String("key", key),
		zap.Int64("upserted", result.Upserted),
		zap.Int64("modified", result.Modified))
	return result, nil
}
