// =============================================================================
// Legacy Mongo Migrator - MongoDB Store
// =============================================================================
//
// Production Store implementation on the official MongoDB driver. Connection
// tuning mirrors the legacy migration tooling this replaces: generous socket
// timeouts for large bulk writes, a small pooled connection reused for the
// life of the run, and an explicit ping before any work starts.
//
// =============================================================================

package store

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	connectTimeout         = 30 * time.Second
	socketTimeout          = 60 * time.Second
	serverSelectionTimeout = 30 * time.Second
	maxPoolSize            = 10
)

// Mongo is the MongoDB-backed Store.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Connect dials the target store and verifies it with a ping. Any failure
// here wraps ErrUnavailable so the CLI can exit with the connectivity
// status.
func Connect(ctx context.Context, uri, database string, log *zap.Logger) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(socketTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetMaxPoolSize(maxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "connect %s: %v", uri, err)
	}

	m := &Mongo{
		client: client,
		db:     client.Database(database),
		log:    log,
	}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Info("connected to document store",
		zap.String("uri", uri),
		zap.String("database", database))
	return m, nil
}

// Close releases the pooled connection.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping verifies connectivity against the primary.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrapf(ErrUnavailable, "ping: %v", err)
	}
	return nil
}

// FindID returns the _id of the first document with an exact field match.
func (m *Mongo) FindID(ctx context.Context, collection, field, value string) (any, bool, error) {
	return m.findID(ctx, collection, bson.M{field: value})
}

// FindIDFold returns the _id of the first document matching the field
// case-insensitively. The anchored regex keeps the match an equality test,
// not a substring search.
func (m *Mongo) FindIDFold(ctx context.Context, collection, field, value string) (any, bool, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
	return m.findID(ctx, collection, bson.M{field: pattern})
}

func (m *Mongo) findID(ctx context.Context, collection string, filter bson.M) (any, bool, error) {
	var doc struct {
		ID any `bson:"_id"`
	}
	err := m.db.Collection(collection).
		FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "find in %s", collection)
	}
	return doc.ID, true, nil
}

// EnsureUniqueIndex creates the unique natural-key index. The driver treats
// re-creating an identical index as a no-op, which makes this safe to call
// on every run.
func (m *Mongo) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		return errors.Wrapf(err, "ensure unique index %s.%s", collection, field)
	}
	m.log.Debug("unique index ensured",
		zap.String("collection", collection),
		zap.String("field", field))
	return nil
}

// duplicateKeyCodes are the server error codes raised when a write collides
// with a unique index.
var duplicateKeyCodes = map[int]bool{11000: true, 11001: true, 12582: true}

// BulkWrite flushes one unordered batch. Duplicate-key collisions inside the
// batch are counted, logged, and tolerated; the rest of the batch proceeds.
func (m *Mongo) BulkWrite(ctx context.Context, collection string, ops []WriteOp) (BulkResult, error) {
	if len(ops) == 0 {
		return BulkResult{}, nil
	}

	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			models = append(models, mongo.NewInsertOneModel().SetDocument(op.Document))
		case OpUpdate:
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(op.Filter).
				SetUpdate(bson.M{"$set": op.Document}))
		case OpUpsert:
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(op.Filter).
				SetUpdate(bson.M{"$set": op.Document}).
				SetUpsert(true))
		}
	}

	res, err := m.db.Collection(collection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	var result BulkResult
	if res != nil {
		result.Inserted = res.InsertedCount
		result.Matched = res.MatchedCount
		result.Upserted = res.UpsertedCount
	}

	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) {
			return result, errors.Wrapf(err, "bulk write to %s", collection)
		}
		for _, we := range bwe.WriteErrors {
			key := ""
			if we.Index >= 0 && we.Index < len(ops) {
				key = ops[we.Index].NaturalKey
			}
			if duplicateKeyCodes[we.Code] {
				result.Duplicates++
				m.log.Warn("duplicate key during flush; operation skipped",
					zap.String("collection", collection),
					zap.String("natural_key", key))
			} else {
				result.Failed++
				m.log.Warn("write failed during flush",
					zap.String("collection", collection),
					zap.String("natural_key", key),
					zap.Int("code", we.Code),
					zap.String("message", we.Message))
			}
		}
	}
	return result, nil
}
