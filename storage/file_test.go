package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	root := t.TempDir()
	store := NewFile(root)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		data []byte
	}{
		{
			name: "schedule document",
			key:  "users/42/schedule.json",
			data: []byte(`{"workouts":[{"name":"Legs","date":"2026-01-02"}]}`),
		},
		{
			name: "empty document",
			key:  "users/42/measurements.json",
			data: []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, tt.key, tt.data))

			loaded, err := store.Load(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)

			_, err = os.Stat(filepath.Join(root, tt.key))
			assert.NoError(t, err)
		})
	}

	t.Run("overwrite replaces content", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "users/7/fasting.json", []byte(`{"a":1}`)))
		require.NoError(t, store.Save(ctx, "users/7/fasting.json", []byte(`{"a":2}`)))

		loaded, err := store.Load(ctx, "users/7/fasting.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":2}`), loaded)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Load(ctx, "users/404/schedule.json")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		err := store.Save(ctx, "../escape.json", []byte(`{}`))
		assert.Error(t, err)

		_, err = store.Load(ctx, "")
		assert.Error(t, err)
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("load seeded and saved documents", func(t *testing.T) {
		store := NewMemory(map[string][]byte{"a.json": []byte(`1`)})

		got, err := store.Load(ctx, "a.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`1`), got)

		require.NoError(t, store.Save(ctx, "b.json", []byte(`2`)))
		got, err = store.Load(ctx, "b.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`2`), got)
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		store := NewMemory(nil)
		data := []byte(`abc`)
		require.NoError(t, store.Save(ctx, "k", data))
		data[0] = 'x'

		got, err := store.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte(`abc`), got)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewMemory(nil).Load(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("configured error", func(t *testing.T) {
		store := NewMemoryWithError(assert.AnError)
		_, err := store.Load(ctx, "k")
		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorIs(t, store.Save(ctx, "k", nil), assert.AnError)
	})
}
