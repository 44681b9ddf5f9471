package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces identifiers for newly created records.
type Generator func() string

// NewGenerator returns ULIDs stamped from now. Services pass their own clock
// so that id order agrees with createdAt, which sorting uses as tie-breaker.
func NewGenerator(now func() time.Time) Generator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(now()), entropy).String()
	}
}
