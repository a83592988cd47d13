package store

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommandStore defines the interface for command record persistence.
type CommandStore interface {
	Create(ctx context.Context, record *models.CommandRecord) error
	GetByID(ctx context.Context, id string) (*models.CommandRecord, error)
	GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.CommandRecord, error)
	Update(ctx context.Context, record *models.CommandRecord) error
}

// MongoCommandStore is an implementation of CommandStore using MongoDB.
type MongoCommandStore struct {
	collection *mongo.Collection
}

// NewMongoCommandStore creates a new MongoCommandStore.
func NewMongoCommandStore(db *mongo.Database, collectionName string) *MongoCommandStore {
	return &MongoCommandStore{
		collection: db.Collection(collectionName),
	}
}

// Create inserts a new command record into the database.
func (s *MongoCommandStore) Create(ctx context.Context, record *models.CommandRecord) error {
	_, err := s.collection.InsertOne(ctx, record)
	return err
}

// GetByID retrieves a command record by its ID.
func (s *MongoCommandStore) GetByID(ctx context.Context, id string) (*models.CommandRecord, error) {
	var record models.CommandRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByUserID retrieves a paginated list of command records for a user,
// most recent first.
func (s *MongoCommandStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.CommandRecord, error) {
	var records []*models.CommandRecord
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	opts.SetSkip(int64((page - 1) * limit))
	opts.SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Update overwrites the mutable fields of an existing command record.
func (s *MongoCommandStore) Update(ctx context.Context, record *models.CommandRecord) error {
	filter := bson.M{"_id": record.ID}
	update := bson.M{
		"$set": bson.M{
			"status":       record.Status,
			"outcome":      record.Outcome,
			"booking":      record.Booking,
			"error":        record.Error,
			"completed_at": record.CompletedAt,
		},
	}
	_, err := s.collection.UpdateOne(ctx, filter, update)
	return err
}
