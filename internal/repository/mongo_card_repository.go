package repository

import (
	"context"
	"errors"
	"fmt"

	"seven-oz-loyalty/internal/model"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCardRepository implements CardRepository using MongoDB. The
// collection is expected to carry a unique index on user_id.
type MongoCardRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

// NewMongoCardRepository creates a new MongoDB-backed card repository.
func NewMongoCardRepository(collection *mongo.Collection, logger zerolog.Logger) *MongoCardRepository {
	return &MongoCardRepository{
		collection: collection,
		logger:     logger.With().Str("repository", "card-mongo").Logger(),
	}
}

// FindByUserID retrieves a card by user id.
func (r *MongoCardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	var doc cardDocument
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.StampCard{}, ErrCardNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to find card")
		return model.StampCard{}, fmt.Errorf("failed to find card: %w", err)
	}

	return doc.toCard(), nil
}

// Insert creates a card, relying on the unique index to reject duplicates.
func (r *MongoCardRepository) Insert(ctx context.Context, card model.StampCard) error {
	if _, err := r.collection.InsertOne(ctx, newCardDocument(card)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCardExists
		}
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to insert card")
		return fmt.Errorf("failed to insert card: %w", err)
	}

	r.logger.Debug().Str("user_id", card.UserID.String()).Msg("card inserted")
	return nil
}

// Replace overwrites the card document, inserting it if absent.
func (r *MongoCardRepository) Replace(ctx context.Context, card model.StampCard) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"user_id": card.UserID.String()},
		newCardDocument(card),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", card.UserID.String()).Msg("failed to replace card")
		return fmt.Errorf("failed to replace card: %w", err)
	}

	return nil
}

// IncrementStamps adds a stamp with a single pipeline upsert. The second
// stage reads the capacity resolved by the first, so new and existing
// cards clamp the same way.
func (r *MongoCardRepository) IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "user_id", Value: userID.String()},
			{Key: "capacity", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$capacity", capacity}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "stamps", Value: bson.D{{Key: "$min", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{"$stamps", 0}}},
					1,
				}}},
				"$capacity",
			}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc cardDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID.String()}, update, opts).Decode(&doc)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to increment stamps")
		return model.StampCard{}, fmt.Errorf("failed to increment stamps: %w", err)
	}

	return doc.toCard(), nil
}
