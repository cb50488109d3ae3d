package subscribe

import (
	"context"
	"errors"
	"time"

	"github.com/project-delta/newsletter/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on the subscribers collection. Every transition
// is a single find-and-modify with the expected state in the filter, so the
// unique index plus Mongo's document-level atomicity are the only concurrency
// control needed.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(models.SubscriberCollection)}
}

func (m *MongoStore) FindByAddress(ctx context.Context, address string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := m.coll.FindOne(ctx, bson.M{"address": address}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (m *MongoStore) UpsertPending(ctx context.Context, address, token, code string, issuedAt time.Time) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"address": address, "verified": false},
		bson.M{
			"$set": bson.M{
				"verified":       false,
				"token":          token,
				"code":           code,
				"secretIssuedAt": issuedAt,
				"updatedAt":      issuedAt,
			},
			"$setOnInsert": bson.M{
				"address":   address,
				"createdAt": issuedAt,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) MarkVerifiedByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	if token == "" {
		return nil, nil
	}
	var sub models.Subscriber
	err := m.coll.FindOneAndUpdate(ctx,
		bson.M{"token": token, "verified": false},
		bson.M{
			"$set":   bson.M{"verified": true, "updatedAt": time.Now()},
			"$unset": bson.M{"token": "", "code": "", "secretIssuedAt": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (m *MongoStore) MarkVerifiedByCode(ctx context.Context, address, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	res, err := m.coll.UpdateOne(ctx,
		bson.M{"address": address, "code": code, "verified": false},
		bson.M{
			"$set":   bson.M{"verified": true, "updatedAt": time.Now()},
			"$unset": bson.M{"token": "", "code": "", "secretIssuedAt": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (m *MongoStore) SetUnsubscribeCode(ctx context.Context, address, code string, issuedAt time.Time) (bool, error) {
	res, err := m.coll.UpdateOne(ctx,
		bson.M{"address": address, "verified": true},
		bson.M{"$set": bson.M{
			"unsubscribeCode": code,
			"secretIssuedAt":  issuedAt,
			"updatedAt":       issuedAt,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (m *MongoStore) DeleteByAddress(ctx context.Context, address string) (bool, error) {
	res, err := m.coll.DeleteOne(ctx, bson.M{"address": address})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoStore) DeleteByUnsubscribeCode(ctx context.Context, address, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	res, err := m.coll.DeleteOne(ctx, bson.M{"address": address, "unsubscribeCode": code})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoStore) ListVerified(ctx context.Context) ([]models.Subscriber, error) {
	cur, err := m.coll.Find(ctx, bson.M{"verified": true})
	if err != nil {
		return nil, err
	}
	var subs []models.Subscriber
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
