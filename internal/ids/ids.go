package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewOrdered returns a lexicographically sortable identifier. Identifiers
// produced by one process are strictly increasing, so sorting by them
// reproduces insertion order.
func NewOrdered() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// New returns a random identifier for rows with no ordering requirement.
func New() string {
	return uuid.New().String()
}
