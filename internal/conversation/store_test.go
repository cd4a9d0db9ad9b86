package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEmptyForUnknownCaller(t *testing.T) {
	t.Parallel()

	store := NewStore()
	assert.Empty(t, store.History(42))
}

func TestAppendAndHistoryOrder(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Append(1, "user", "hello")
	store.Append(1, "assistant", "hi there")

	history := store.History(1)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestHistoryCapDropsOldestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore(WithMaxMessages(20))
	for i := 0; i < 25; i++ {
		store.Append(1, "user", fmt.Sprintf("message %d", i))
	}

	history := store.History(1)
	require.Len(t, history, 20)
	assert.Equal(t, "message 5", history[0].Content)
	assert.Equal(t, "message 24", history[19].Content)
}

func TestStaleSessionComesBackEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	store := NewStore(WithTimeout(30*time.Minute), WithClock(clock))

	store.Append(1, "user", "hello")
	require.Len(t, store.History(1), 1)

	now = now.Add(29 * time.Minute)
	assert.Len(t, store.History(1), 1)

	now = now.Add(2 * time.Minute)
	assert.Empty(t, store.History(1))

	// The evicted session reappears fresh, not as an error.
	store.Append(1, "user", "again")
	assert.Len(t, store.History(1), 1)
}

func TestAppendRefreshesExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	store := NewStore(WithTimeout(30*time.Minute), WithClock(clock))

	store.Append(1, "user", "first")
	now = now.Add(20 * time.Minute)
	store.Append(1, "user", "second")
	now = now.Add(20 * time.Minute)

	// 40 minutes since the first message, 20 since the last one.
	assert.Len(t, store.History(1), 2)
}

func TestClear(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Append(1, "user", "hello")
	store.Clear(1)
	assert.Empty(t, store.History(1))
	assert.Zero(t, store.Len())
}

func TestCallersAreIndependent(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Append(1, "user", "caller one")
	store.Append(2, "user", "caller two")
	store.Clear(1)

	assert.Empty(t, store.History(1))
	require.Len(t, store.History(2), 1)
	assert.Equal(t, "caller two", store.History(2)[0].Content)
}

func TestConcurrentAppendsStayBounded(t *testing.T) {
	t.Parallel()

	store := NewStore(WithMaxMessages(20))
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.Append(1, "user", fmt.Sprintf("w%d-%d", worker, i))
			}
		}(worker)
	}
	wg.Wait()

	assert.Len(t, store.History(1), 20)
}
