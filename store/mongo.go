package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used across the portal.
const (
	ColDonations = "donations"
	ColCampaigns = "campaigns"
	ColUsers     = "users"
)

// Connect opens and pings a mongo client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes provisions the indexes the portal depends on. The unique
// partial index on transaction_id is what makes webhook reconciliation
// idempotent under concurrent redelivery: the second insert hits a
// duplicate-key error instead of racing a read-then-write check.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	donationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"transaction_id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "campaign_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := s.col(ColDonations).Indexes().CreateMany(ctx, donationIndexes); err != nil {
		return fmt.Errorf("donation indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := s.col(ColUsers).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}
