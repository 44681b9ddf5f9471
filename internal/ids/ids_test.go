package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestGeneratorIsSortableAndUnique(t *testing.T) {
	gen := NewGenerator(time.Now)
	prev := gen()
	seen := map[string]struct{}{prev: {}}
	for i := 0; i < 1000; i++ {
		next := gen()
		if next <= prev {
			t.Fatalf("ids not monotonic: %s <= %s", next, prev)
		}
		if _, dup := seen[next]; dup {
			t.Fatalf("duplicate id %s", next)
		}
		if _, err := ulid.ParseStrict(next); err != nil {
			t.Fatalf("id %s is not a ULID: %v", next, err)
		}
		seen[next] = struct{}{}
		prev = next
	}
}

func TestNewGeneratorUsesClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(func() time.Time { return at })

	first, second := gen(), gen()
	if second <= first {
		t.Fatalf("ids within one millisecond must still increase: %s <= %s", second, first)
	}
	id, err := ulid.ParseStrict(first)
	if err != nil {
		t.Fatalf("ParseStrict: %v", err)
	}
	if got := ulid.Time(id.Time()); !got.Equal(at) {
		t.Fatalf("id time %s, want %s", got, at)
	}

	later := NewGenerator(func() time.Time { return at.Add(time.Second) })()
	if later <= second {
		t.Fatalf("later clock must sort after: %s <= %s", later, second)
	}
}
