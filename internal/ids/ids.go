// Package ids mints the identifiers every persisted record carries: users,
// refresh and activation token records, budgets and transactions. ULIDs are
// URL-safe and sort by creation time, which the stores lean on when listing
// newest-first.
package ids

import (
	mrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// source serializes access to the monotonic entropy so concurrent mints
// within the same millisecond still sort in mint order.
type source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var global = source{
	entropy: ulid.Monotonic(mrand.New(mrand.NewSource(time.Now().UnixNano())), 0),
}

// New mints one identifier.
func New() string {
	global.mu.Lock()
	defer global.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), global.entropy).String()
}
