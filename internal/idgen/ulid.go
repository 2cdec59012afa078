// Package idgen generates the time-sortable event identifiers stored
// alongside each envelope.
package idgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is shared and mutex-guarded rather than recreated per call: a
// fresh math/rand source seeded from the wall clock on every
// MustGenerateSortableID call can collide when called in a tight loop on
// fast machines, since time.Now().UnixNano() doesn't advance between calls.
var (
	mu      sync.Mutex
	entropy = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// MustGenerateSortableID returns a new ULID string, lexically sortable by
// creation time. Panics only if the underlying entropy source errors, which
// math/rand's Source never does.
func MustGenerateSortableID() string {
	mu.Lock()
	defer mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		panic(err)
	}
	return id.String()
}
