package firestore

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestOrderItemIDsSortInInsertionOrder(t *testing.T) {
	at := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	repo := &OrderRepository{
		now:     func() time.Time { return at },
		entropy: ulid.Monotonic(rand.Reader, 0),
	}

	prev := ""
	for i := 0; i < 20000; i++ {
		id := repo.newItemID()
		if len(id) != 26 {
			t.Fatalf("expected a 26-character id, got %q", id)
		}
		if id <= prev {
			t.Fatalf("ids must be strictly increasing: got %q after %q", id, prev)
		}
		prev = id
	}
}
