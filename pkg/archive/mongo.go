package archive

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink upserts records into a MongoDB collection keyed by url
type MongoSink struct {
	uri            string
	databaseName   string
	collectionName string

	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewMongoSink creates a sink; call Connect before Save.
func NewMongoSink(connectionString, databaseName, collectionName string) *MongoSink {
	return &MongoSink{
		uri:            connectionString,
		databaseName:   databaseName,
		collectionName: collectionName,
	}
}

// Name implements Sink
func (s *MongoSink) Name() string {
	return "mongo"
}

// Connect establishes the connection and verifies it with a ping
func (s *MongoSink) Connect(ctx context.Context) error {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return fmt.Errorf("ping mongo: %w", err)
	}

	s.mongoClient = mongoClient
	s.collection = mongoClient.Database(s.databaseName).Collection(s.collectionName)
	return nil
}

// Save upserts every record in a single unordered bulk write
func (s *MongoSink) Save(ctx context.Context, records []Record) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"url": r.URL}).
			SetUpdate(bson.M{"$set": r}).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *MongoSink) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}
