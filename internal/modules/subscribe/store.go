package subscribe

import (
	"context"
	"time"

	"github.com/project-delta/newsletter/internal/models"
)

// Store is the persistence contract for subscriber records. State transitions
// that consume a secret must be atomic read-modify-write operations with the
// expected secret in the match condition; the lifecycle service holds no locks
// and relies on that contract under concurrent requests.
type Store interface {
	// FindByAddress returns (nil, nil) when no record exists.
	FindByAddress(ctx context.Context, address string) (*models.Subscriber, error)

	// UpsertPending creates or replaces the unverified record for address with
	// a fresh secret pair, superseding any prior unconsumed secret.
	UpsertPending(ctx context.Context, address, token, code string, issuedAt time.Time) error

	// MarkVerifiedByToken atomically flips an unverified record with this live
	// token to verified and clears its secrets. Returns (nil, nil) on no match.
	MarkVerifiedByToken(ctx context.Context, token string) (*models.Subscriber, error)

	// MarkVerifiedByCode is the (address, code) shape of the same transition.
	// Returns false when no unverified record matched both.
	MarkVerifiedByCode(ctx context.Context, address, code string) (bool, error)

	// SetUnsubscribeCode attaches a pending unsubscribe code to a verified
	// record. Returns false when no verified record exists for address.
	SetUnsubscribeCode(ctx context.Context, address, code string, issuedAt time.Time) (bool, error)

	// DeleteByAddress removes the record regardless of state.
	DeleteByAddress(ctx context.Context, address string) (bool, error)

	// DeleteByUnsubscribeCode removes the record only if the pending
	// unsubscribe code matches.
	DeleteByUnsubscribeCode(ctx context.Context, address, code string) (bool, error)

	// ListVerified returns all verified subscribers.
	ListVerified(ctx context.Context) ([]models.Subscriber, error)
}
