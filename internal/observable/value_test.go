package observable

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		require.True(t, ok, "subscription channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertNoValue[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	default:
	}
}

func TestValue_Get(t *testing.T) {
	v := New(1)
	assert.Equal(t, 1, v.Get())

	v.Set(2)
	assert.Equal(t, 2, v.Get())
}

func TestValue_Subscribe(t *testing.T) {
	t.Run("receives current value immediately", func(t *testing.T) {
		v := New("a")
		sub := v.Subscribe()
		defer sub.Close()

		assert.Equal(t, "a", receive(t, sub))
		assertNoValue(t, sub)
	})

	t.Run("late subscriber sees latest value", func(t *testing.T) {
		v := New(0)
		for i := 1; i <= 5; i++ {
			v.Set(i)
		}

		sub := v.Subscribe()
		defer sub.Close()
		assert.Equal(t, 5, receive(t, sub))
	})

	t.Run("receives every change when draining", func(t *testing.T) {
		v := New(0)
		sub := v.Subscribe()
		defer sub.Close()
		assert.Equal(t, 0, receive(t, sub))

		v.Set(1)
		assert.Equal(t, 1, receive(t, sub))
		v.Set(2)
		assert.Equal(t, 2, receive(t, sub))
	})

	t.Run("slow subscriber is conflated to latest", func(t *testing.T) {
		v := New(0)
		sub := v.Subscribe()
		defer sub.Close()

		v.Set(1)
		v.Set(2)
		v.Set(3)

		assert.Equal(t, 3, receive(t, sub))
		assertNoValue(t, sub)
	})

	t.Run("multiple subscribers each get the value", func(t *testing.T) {
		v := New(0)
		a := v.Subscribe()
		b := v.Subscribe()
		defer a.Close()
		defer b.Close()
		receive(t, a)
		receive(t, b)

		v.Set(7)
		assert.Equal(t, 7, receive(t, a))
		assert.Equal(t, 7, receive(t, b))
	})
}

func TestValue_Update(t *testing.T) {
	v := New(10)
	sub := v.Subscribe()
	defer sub.Close()
	receive(t, sub)

	got := v.Update(func(n int) int { return n + 5 })
	assert.Equal(t, 15, got)
	assert.Equal(t, 15, receive(t, sub))
}

func TestSubscription_Close(t *testing.T) {
	t.Run("closes channel and detaches", func(t *testing.T) {
		v := New(0)
		sub := v.Subscribe()
		assert.Equal(t, 1, v.Subscribers())

		sub.Close()
		assert.Equal(t, 0, v.Subscribers())

		_, ok := <-sub.C()
		assert.False(t, ok)

		assert.NotPanics(t, func() { v.Set(1) })
	})

	t.Run("is idempotent", func(t *testing.T) {
		v := New(0)
		sub := v.Subscribe()
		sub.Close()
		assert.NotPanics(t, sub.Close)
	})
}

func TestValue_Close(t *testing.T) {
	v := New(0)
	sub := v.Subscribe()
	v.Close()

	<-sub.C()
	_, ok := <-sub.C()
	assert.False(t, ok)

	v.Set(4)
	assert.Equal(t, 4, v.Get())
	assert.NotPanics(t, sub.Close)

	late := v.Subscribe()
	assert.Equal(t, 4, <-late.C())
	_, ok = <-late.C()
	assert.False(t, ok)
}

func TestValue_ConcurrentSetIsMonotonic(t *testing.T) {
	v := New(0)
	sub := v.Subscribe()
	defer sub.Close()

	const writers = 4
	const perWriter = 250

	next := 0 // guarded by v's lock inside Update
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				v.Update(func(int) int {
					next++
					return next
				})
			}
		}()
	}

	done := make(chan struct{})
	var seen []int
	go func() {
		defer close(done)
		for n := range sub.C() {
			seen = append(seen, n)
			if n == writers*perWriter {
				return
			}
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never observed final value")
	}

	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}
