package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderedIsMonotonic(t *testing.T) {
	prev := NewOrdered()
	for i := 0; i < 1000; i++ {
		next := NewOrdered()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestNewOrderedConcurrentUnique(t *testing.T) {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewOrdered()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}
