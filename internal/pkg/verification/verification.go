package verification

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// CodeTTL is how long a numeric code stays valid after it is issued. The
// store-level TTL purge of unverified records is separate and longer; this
// bound also covers unsubscribe codes on verified records, which the store
// never expires on its own.
const CodeTTL = 15 * time.Minute

// Token returns a 32-character hex token for link-based confirmation.
func Token() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Code returns a 6-digit numeric code for manual entry. Deliberately short;
// single-use consumption plus CodeTTL bound the collision window.
func Code() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Expired reports whether a code issued at the given time is past its TTL.
func Expired(issuedAt, now time.Time) bool {
	if issuedAt.IsZero() {
		return true
	}
	return now.Sub(issuedAt) > CodeTTL
}
