package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Get", func(t *testing.T) {
		runGetTests(t, newStore)
	})
	t.Run("Put", func(t *testing.T) {
		runPutTests(t, newStore)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newStore)
	})
	t.Run("Close", func(t *testing.T) {
		runCloseTests(t, newStore)
	})
	t.Run("Concurrent", func(t *testing.T) {
		runConcurrentTests(t, newStore)
	})
}

func runGetTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "favorites")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "favorites", []byte(`["bitcoin"]`)))

		got, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.Equal(t, `["bitcoin"]`, string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "a", []byte("1")))
		require.NoError(t, store.Put(ctx, "b", []byte("2")))

		a, err := store.Get(ctx, "a")
		require.NoError(t, err)
		b, err := store.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "1", string(a))
		assert.Equal(t, "2", string(b))
	})
}

func runPutTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("replaces previous value", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "favorites", []byte(`["bitcoin","ethereum"]`)))
		require.NoError(t, store.Put(ctx, "favorites", []byte(`[]`)))

		got, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(got))
	})

	t.Run("stores empty value", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "empty", []byte{}))

		got, err := store.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("caller may reuse the buffer", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		buf := []byte("abc")
		require.NoError(t, store.Put(ctx, "k", buf))
		buf[0] = 'z'

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}

func runDeleteTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("removes key", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "k", []byte("v")))
		require.NoError(t, store.Delete(ctx, "k"))

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		assert.NoError(t, store.Delete(context.Background(), "nope"))
	})
}

func runCloseTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("operations fail after close", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Close())

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, store.Put(ctx, "k", []byte("v")), ErrStoreClosed)
		assert.ErrorIs(t, store.Delete(ctx, "k"), ErrStoreClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		require.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

func runConcurrentTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("concurrent puts leave one complete value", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		values := []string{`["a"]`, `["a","b"]`, `["a","b","c"]`, `[]`}
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(v string) {
				defer wg.Done()
				_ = store.Put(ctx, "favorites", []byte(v))
			}(values[i%len(values)])
		}
		wg.Wait()

		got, err := store.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.Contains(t, values, string(got))
	})
}
