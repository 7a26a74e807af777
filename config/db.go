// config/db.go
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HSouheill/barrim_commission/logger"
	"github.com/HSouheill/barrim_commission/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB and makes sure the commission indexes exist.
func ConnectDB(ctx context.Context, cfg *Config) (*mongo.Client, error) {
	log := logger.FromContext(ctx)
	log.Info("Connecting to MongoDB", "uri", maskMongoURI(cfg.MongoURI))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connection error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}
	log.Info("Connected to MongoDB")

	if err := setupCollections(ctx, client.Database(cfg.DBName)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// setupCollections creates the indexes the commission worker relies on.
func setupCollections(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		repositories.CommissionRecordsCollection: {
			{
				Keys:    bson.D{{Key: "transactionId", Value: 1}, {Key: "agentId", Value: 1}, {Key: "level", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "status", Value: 1}, {Key: "currency", Value: 1}},
			},
		},
		repositories.TransactionsCollection: {
			{
				Keys: bson.D{{Key: "commissionStatus", Value: 1}, {Key: "createdAt", Value: 1}},
			},
		},
	}

	for collName, idx := range indexes {
		if _, err := db.Collection(collName).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes for %s: %w", collName, err)
		}
	}

	logger.FromContext(ctx).Info("Database collections and indexes setup complete")
	return nil
}

// maskMongoURI replaces the password in a MongoDB URI with ***.
func maskMongoURI(uri string) string {
	if idx := strings.LastIndex(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > strings.Index(uri, "://")+2 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
