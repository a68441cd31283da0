package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedEvictsOldestQuarter(t *testing.T) {
	c := New[int](8)
	for i := 0; i < 8; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	require.Equal(t, 8, c.Len())

	// 9 entries -> floor(9/4) = 2 oldest dropped.
	c.Put("k8", 8)
	assert.Equal(t, 7, c.Len())
	for _, gone := range []string{"k0", "k1"} {
		_, ok := c.Get(gone)
		assert.False(t, ok, gone)
	}
	for _, kept := range []string{"k2", "k7", "k8"} {
		_, ok := c.Get(kept)
		assert.True(t, ok, kept)
	}
	assert.Equal(t, uint64(2), c.Stats().Evictions)
}

func TestBoundedNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 4, 10, 50} {
		t.Run(fmt.Sprintf("capacity=%d", capacity), func(t *testing.T) {
			c := New[string](capacity)
			for i := 0; i < capacity*5; i++ {
				c.Put(fmt.Sprintf("k%d", i), "v")
				assert.LessOrEqual(t, c.Len(), capacity)
			}
		})
	}
}

func TestBoundedOverwriteKeepsPosition(t *testing.T) {
	c := New[int](4)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4)
	c.Put("a", 10)
	assert.Equal(t, 4, c.Len())

	// "a" is still the oldest and goes first.
	c.Put("e", 5)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestBoundedClearAndStats(t *testing.T) {
	c := New[int](3)
	c.Put("a", 1)
	_, _ = c.Get("a")
	_, _ = c.Get("missing")
	c.Clear()

	assert.Equal(t, 0, c.Len())
	s := c.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, 3, s.Capacity)
}

func TestBoundedGetOrLoad(t *testing.T) {
	c := New[string](10)
	var calls int32
	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(16))
	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		t.Fatal("loader called on a cached key")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestBoundedGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New[int](2)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key("labels", Params{"ids": []string{"Q2", "Q1"}, "lang": "en"})
	b := Key("labels", Params{"lang": "en", "ids": []string{"Q1", "Q2"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "labels|ids:Q1,Q2|lang:en", a)

	assert.Equal(t, Key("q", Params{"a": []int{2, 1}}), Key("q", Params{"a": []int{1, 2}}))
	assert.Equal(t, "q|limit:10", Key("q", Params{"limit": 10}))
	assert.NotEqual(t, Key("q", Params{"a": "1"}), Key("p", Params{"a": "1"}))
}
