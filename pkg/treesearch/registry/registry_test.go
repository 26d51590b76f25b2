package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func greater(a, b int) bool { return a > b }

func TestRegistry_InitSeedsState(t *testing.T) {
	r := New[string, int](greater)
	r.Init("space", 3, 4)

	assert.Equal(t, "space", r.Space())
	assert.Equal(t, 3, r.LocalBound())
	assert.False(t, r.StopRequested())
	assert.Equal(t, []uint64{0, 0, 0, 0, 0}, r.Counts())
}

func TestRegistry_UpdateBoundIsMonotone(t *testing.T) {
	r := New[string, int](greater)
	r.Init("space", 0, 0)

	r.UpdateBound(5)
	assert.Equal(t, 5, r.LocalBound())

	r.UpdateBound(2) // worse, rejected
	assert.Equal(t, 5, r.LocalBound())

	r.UpdateBound(10)
	assert.Equal(t, 10, r.LocalBound())
}

func TestRegistry_UpdateBoundConcurrentMonotone(t *testing.T) {
	r := New[string, int](greater)
	r.Init("space", 0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			r.UpdateBound(v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 99, r.LocalBound())
}

func TestRegistry_SetStopIdempotent(t *testing.T) {
	r := New[string, int](greater)
	r.Init("space", 0, 0)

	assert.False(t, r.StopRequested())
	r.SetStop()
	r.SetStop()
	r.SetStop()
	assert.True(t, r.StopRequested())
}

func TestRegistry_UpdateCountsCommutative(t *testing.T) {
	r := New[string, int](greater)
	r.Init("space", 0, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.UpdateCounts([]uint64{1, 2, 3})
		}()
	}
	wg.Wait()

	assert.Equal(t, []uint64{10, 20, 30}, r.Counts())
}

func TestRegistry_MethodsBeforeInitPanic(t *testing.T) {
	r := New[string, int](greater)
	assert.Panics(t, func() { r.LocalBound() })
}
