package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountersCollection is the MongoDB collection holding one document per counter.
const CountersCollection = "counters"

type counterDocument struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// MongoCounterRepository keeps named counters in MongoDB using single-document
// atomic updates.
type MongoCounterRepository struct {
	coll *mongo.Collection
}

// NewMongoCounterRepository creates a counter store on db.counters.
func NewMongoCounterRepository(db *mongo.Database) *MongoCounterRepository {
	return &MongoCounterRepository{coll: db.Collection(CountersCollection)}
}

// Increment atomically adds one to name with an upserting $inc.
func (r *MongoCounterRepository) Increment(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return doc.Seq, nil
}

// SetFloor raises name to value with $max; it never lowers the counter.
func (r *MongoCounterRepository) SetFloor(ctx context.Context, name string, value int64) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set floor of counter %s: %w", name, err)
	}
	return nil
}

// Current returns the last value handed out for name, or 0. It is a
// read-only diagnostic and not part of sequence.CounterStore; allocation
// goes through Increment only.
func (r *MongoCounterRepository) Current(ctx context.Context, name string) (int64, error) {
	var doc counterDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", name, err)
	}
	return doc.Seq, nil
}
