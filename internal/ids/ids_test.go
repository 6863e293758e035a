package ids

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewMintsValidDistinctIDs(t *testing.T) {
	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 100; i++ {
		id := New()
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("invalid id %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if prev != "" && id <= prev {
			t.Fatalf("ids not monotonic: %q after %q", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestNewIsSafeForConcurrentUse(t *testing.T) {
	const perWorker = 50
	var (
		mu  sync.Mutex
		all = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := New()
				mu.Lock()
				all[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(all) != 8*perWorker {
		t.Fatalf("expected %d distinct ids, got %d", 8*perWorker, len(all))
	}
}
