package analyzer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	current, total int
	path           string
}

func TestTracker_AddAndTick(t *testing.T) {
	var calls []progressCall
	var mu sync.Mutex

	tracker := NewTracker(func(current, total int, path string) {
		mu.Lock()
		calls = append(calls, progressCall{current, total, path})
		mu.Unlock()
	})

	tracker.Add(3)
	tracker.Tick("a.ts")
	tracker.Tick("b.ts")
	tracker.Tick("c.ts")

	assert.Equal(t, 3, tracker.Total())
	assert.Equal(t, 3, tracker.Current())
	require.Len(t, calls, 3)
	assert.Equal(t, progressCall{1, 3, "a.ts"}, calls[0])
	assert.Equal(t, progressCall{3, 3, "c.ts"}, calls[2])
}

func TestTracker_GrowingTotal(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(1)
	tracker.Tick("a.ts")
	tracker.Add(1)
	tracker.Add(1)

	assert.Equal(t, 1, tracker.Current())
	assert.Equal(t, 3, tracker.Total())

	tracker.SetTotal(10)
	assert.Equal(t, 10, tracker.Total())
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.SetTotal(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick("f.ts")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tracker.Current())
}

func TestTrackerContext(t *testing.T) {
	assert.Nil(t, TrackerFromContext(context.Background()))

	tracker := NewTracker(nil)
	ctx := WithTracker(context.Background(), tracker)
	assert.Same(t, tracker, TrackerFromContext(ctx))
}
