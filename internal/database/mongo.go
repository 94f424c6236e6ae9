package database

import (
	"context"
	"fmt"
	"time"

	"seven-oz-loyalty/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoConnectTimeout bounds connect, ping and index creation.
const mongoConnectTimeout = 10 * time.Second

// Mongo wraps the MongoDB client and the card collection.
type Mongo struct {
	Client *mongo.Client
	Cards  *mongo.Collection
}

// ConnectMongo connects to MongoDB and ensures the unique user_id index on
// the card collection exists.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	logger.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &Mongo{
		Client: client,
		Cards:  client.Database(cfg.Database).Collection(cfg.Collection),
	}

	if err := m.CreateIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Info().Msg("MongoDB connection established")

	return m, nil
}

// CreateIndexes creates the unique user_id index that makes card inserts
// conflict instead of duplicating.
func (m *Mongo) CreateIndexes(ctx context.Context) error {
	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("card_user_id_unique"),
	}
	if _, err := m.Cards.Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("failed to create card user_id index: %w", err)
	}
	return nil
}

// Disconnect closes the MongoDB connection.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
