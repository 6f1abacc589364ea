package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMemory(WithMemoryTTL(time.Minute), WithClock(clk.now))

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache misses")

	in := []byte("reply")
	require.NoError(t, m.Set(ctx, "k", in))
	in[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "reply", string(got), "stored value is a copy")

	clk.advance(59 * time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.True(t, ok)

	clk.advance(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entry expires at ttl")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_MaxEntries(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMemory(WithMemoryTTL(time.Minute), WithMaxEntries(2), WithClock(clk.now))

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	clk.advance(time.Second)
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	clk.advance(time.Second)

	t.Run("overwrite does not evict", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "b", []byte("2b")))
		assert.Equal(t, 2, m.Len())
	})

	t.Run("evicts the entry expiring soonest", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "c", []byte("3")))
		assert.Equal(t, 2, m.Len())

		_, ok, _ := m.Get(ctx, "a")
		assert.False(t, ok)
		_, ok, _ = m.Get(ctx, "b")
		assert.True(t, ok)
		_, ok, _ = m.Get(ctx, "c")
		assert.True(t, ok)
	})

	t.Run("expired entries are dropped first", func(t *testing.T) {
		clk.advance(2 * time.Minute)
		require.NoError(t, m.Set(ctx, "d", []byte("4")))
		assert.Equal(t, 1, m.Len())
	})
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "k", []byte("v")))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
