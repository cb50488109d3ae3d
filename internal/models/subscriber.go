package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriberCollection is the Mongo collection backing all subscriber records.
const SubscriberCollection = "subscribers"

// Subscriber is one email address in the newsletter audience. The same record
// carries the whole lifecycle: it is created unverified with a live secret,
// flipped to verified when the secret is consumed, and deleted on unsubscribe.
type Subscriber struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"     json:"id"`
	Address  string             `bson:"address"           json:"address"`
	Verified bool               `bson:"verified"          json:"verified"`

	// Token is the hex secret embedded in the confirmation link; Code is the
	// short numeric secret for manual entry. Both are issued together and
	// cleared together when either is consumed.
	Token string `bson:"token,omitempty" json:"-"`
	Code  string `bson:"code,omitempty"  json:"-"`

	// UnsubscribeCode is set only while an unsubscribe request is pending.
	UnsubscribeCode string `bson:"unsubscribeCode,omitempty" json:"-"`

	// SecretIssuedAt is when the currently live secret was issued. On
	// unverified records it also drives the store's TTL purge, so every
	// re-subscribe restarts the expiry window.
	SecretIssuedAt time.Time `bson:"secretIssuedAt,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"created"`
	UpdatedAt time.Time `bson:"updatedAt" json:"modified"`
}
