package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *atomic.Int32, score int) Loader {
	return func(_ context.Context, _ *Snapshot) (*Snapshot, error) {
		calls.Add(1)
		return &Snapshot{Score: score}, nil
	}
}

func TestCache_GetPopulatesLazily(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls, 88))

	assert.Nil(t, c.Peek())
	assert.Equal(t, int32(0), calls.Load())

	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 88, snap.Score)

	again, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int32(1), calls.Load())

	entry := c.Peek()
	require.NotNil(t, entry)
	assert.False(t, entry.ComputedAt.IsZero())
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls, 50))

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	c.Invalidate()
	assert.Nil(t, c.Peek())
	assert.NotNil(t, c.LastGood())

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_LoaderReceivesLastGood(t *testing.T) {
	var seen []*Snapshot
	first := &Snapshot{Score: 10}
	c := NewCache(func(_ context.Context, prev *Snapshot) (*Snapshot, error) {
		seen = append(seen, prev)
		return first, nil
	})

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Same(t, first, seen[1])
}

func TestCache_LoaderErrorLeavesSlotEmpty(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(func(context.Context, *Snapshot) (*Snapshot, error) { return nil, boom })

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c.Peek())
}

func TestCache_StoreLastWriterWins(t *testing.T) {
	c := NewCache(func(context.Context, *Snapshot) (*Snapshot, error) { return &Snapshot{}, nil })

	c.Store(&Snapshot{Score: 1})
	c.Store(&Snapshot{Score: 2})
	c.Store(nil)

	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Score)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(countingLoader(&calls, 70))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				c.Invalidate()
			}
			snap, err := c.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 70, snap.Score)
		}(i)
	}
	wg.Wait()
}
