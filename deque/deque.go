// Package deque holds bounded double-ended queues used for sliding windows
// (pump start/stop hysteresis) and snapshot backlogs.
package deque

type Deque[T any] interface {
	// number of stored elements
	Size() int

	// element at index i counted from the head
	Get(i int) T

	Set(i int, v T)

	// visit elements head to tail
	Traverse(f func(i int, v T))

	AddLast(v T)

	RemoveLast() T

	AddFirst(v T)

	RemoveFirst() T

	First() T

	Last() T

	IsFull() bool

	IsEmpty() bool
}

// PushWindow appends v and drops the oldest element when d is full, so d
// always holds the most recent Capacity samples.
func PushWindow[T any](d Deque[T], v T) {
	if d.IsFull() {
		d.RemoveFirst()
	}
	d.AddLast(v)
}

// All reports whether d is full and every element satisfies pred.
func All[T any](d Deque[T], pred func(T) bool) bool {
	if !d.IsFull() {
		return false
	}
	ok := true
	d.Traverse(func(_ int, v T) {
		if !pred(v) {
			ok = false
		}
	})
	return ok
}
