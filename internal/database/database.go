package database

import (
	"context"
	"fmt"
	"time"

	"github.com/project-delta/newsletter/internal/config"
	"github.com/project-delta/newsletter/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// pendingTTL is how long an unverified subscriber record survives before the
// store purges it. Matches the verification link validity advertised in mail.
const pendingTTL = time.Hour

// Connect opens a Mongo client, verifies connectivity and ensures indexes.
func Connect(ctx context.Context, cfg *config.AppConfig) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.MongoDB)
	if err := ensureIndexes(connectCtx, db); err != nil {
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return client, db, nil
}

// ensureIndexes creates the subscriber indexes: the unique address key the
// lifecycle relies on, a token lookup index, and a TTL purge restricted to
// unverified records so confirmed subscribers are never evicted. The TTL keys
// on secretIssuedAt, which is rewritten on every re-subscribe, so issuing a
// fresh secret restarts the expiry window.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(models.SubscriberCollection)

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "address", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "secretIssuedAt", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(pendingTTL.Seconds())).
				SetPartialFilterExpression(bson.D{{Key: "verified", Value: false}}),
		},
	})
	return err
}
