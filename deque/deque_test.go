package deque

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func implementations() map[string]func(int) Deque[int] {
	return map[string]func(int) Deque[int]{
		"arr":  func(c int) Deque[int] { return NewArrDeque[int](c) },
		"list": func(c int) Deque[int] { return NewListDeque[int](c) },
	}
}

func TestDeque_AddRemove(t *testing.T) {
	for name, newDeque := range implementations() {
		t.Run(name, func(t *testing.T) {
			d := newDeque(4)
			assert.True(t, d.IsEmpty())
			d.AddLast(2)
			d.AddLast(3)
			d.AddFirst(1)
			d.AddFirst(0)
			assert.True(t, d.IsFull())
			assert.Equal(t, 0, d.First())
			assert.Equal(t, 3, d.Last())
			assert.Equal(t, 2, d.Get(2))

			assert.Equal(t, 3, d.RemoveLast())
			assert.Equal(t, 0, d.RemoveFirst())
			assert.Equal(t, 2, d.Size())

			d.Set(1, 9)
			var got []int
			d.Traverse(func(_ int, v int) { got = append(got, v) })
			assert.Equal(t, []int{1, 9}, got)
		})
	}
}

func TestDeque_Panics(t *testing.T) {
	for name, newDeque := range implementations() {
		t.Run(name, func(t *testing.T) {
			d := newDeque(1)
			assert.Panics(t, func() { d.RemoveFirst() })
			d.AddLast(1)
			assert.Panics(t, func() { d.AddLast(2) })
			assert.Panics(t, func() { d.Get(1) })
		})
	}
}

func TestPushWindow(t *testing.T) {
	d := NewArrDeque[int](3)
	for i := 1; i <= 5; i++ {
		PushWindow[int](d, i)
	}
	require.Equal(t, 3, d.Size())
	assert.Equal(t, 3, d.First())
	assert.Equal(t, 5, d.Last())

	assert.True(t, All[int](d, func(v int) bool { return v >= 3 }))
	assert.False(t, All[int](d, func(v int) bool { return v > 3 }))

	d.Clear()
	assert.False(t, All[int](d, func(int) bool { return true }))
}

func BenchmarkArrDeque_PushWindow(b *testing.B) {
	d := NewArrDeque[float64](64)
	for i := 0; i < b.N; i++ {
		PushWindow[float64](d, float64(i))
	}
}
