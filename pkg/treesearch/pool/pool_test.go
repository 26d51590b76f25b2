package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkpool_LIFO_GetLocal(t *testing.T) {
	w := NewWorkpool[int]()
	w.AddWork(NewTask(1, 1), 1)
	w.AddWork(NewTask(2, 1), 1)
	w.AddWork(NewTask(3, 1), 1)

	got, ok := w.GetLocal()
	assert.True(t, ok)
	assert.Equal(t, 3, got.Root)
}

func TestWorkpool_FIFO_Steal(t *testing.T) {
	w := NewWorkpool[int]()
	w.AddWork(NewTask(1, 1), 1)
	w.AddWork(NewTask(2, 1), 1)
	w.AddWork(NewTask(3, 1), 1)

	got, ok := w.Steal()
	assert.True(t, ok)
	assert.Equal(t, 1, got.Root)
}

func TestWorkpool_EmptyReturnsFalse(t *testing.T) {
	w := NewWorkpool[int]()
	_, ok := w.GetLocal()
	assert.False(t, ok)
	_, ok = w.Steal()
	assert.False(t, ok)
}

func TestWorkpool_Len(t *testing.T) {
	w := NewWorkpool[int]()
	assert.Equal(t, 0, w.Len())
	w.AddWork(NewTask(1, 1), 1)
	assert.Equal(t, 1, w.Len())
}

func TestDepthPool_GetLocalPrefersDeepest(t *testing.T) {
	d := NewDepthPool[int](4)
	d.AddWork(NewTask(10, 1), 1)
	d.AddWork(NewTask(20, 3), 3)

	got, ok := d.GetLocal()
	assert.True(t, ok)
	assert.Equal(t, 20, got.Root)
}

func TestDepthPool_StealPrefersShallowest(t *testing.T) {
	d := NewDepthPool[int](4)
	d.AddWork(NewTask(10, 1), 1)
	d.AddWork(NewTask(20, 3), 3)

	got, ok := d.Steal()
	assert.True(t, ok)
	assert.Equal(t, 10, got.Root)
}

func TestDepthPool_LenSumsBuckets(t *testing.T) {
	d := NewDepthPool[int](4)
	d.AddWork(NewTask(10, 1), 1)
	d.AddWork(NewTask(20, 2), 2)
	assert.Equal(t, 2, d.Len())
}

func TestDepthPool_DepthHintClamped(t *testing.T) {
	d := NewDepthPool[int](2)
	// depthHint beyond maxDepth should clamp into the last bucket rather
	// than panic.
	d.AddWork(NewTask(99, 50), 50)
	got, ok := d.GetLocal()
	assert.True(t, ok)
	assert.Equal(t, 99, got.Root)
}
