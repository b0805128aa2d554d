package deque

// ArrDeque is a fixed-capacity ring buffer.
type ArrDeque[T any] struct {
	arr []T

	// index of the head element
	start int

	size     int
	capacity int
}

func NewArrDeque[T any](capacity int) *ArrDeque[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ArrDeque[T]{
		arr:      make([]T, capacity),
		capacity: capacity,
	}
}

func (ad *ArrDeque[T]) index(i int) int {
	if i < 0 || i >= ad.size {
		panic("index out of length")
	}
	return (ad.start + i) % ad.capacity
}

func (ad *ArrDeque[T]) Size() int {
	return ad.size
}

func (ad *ArrDeque[T]) Capacity() int {
	return ad.capacity
}

func (ad *ArrDeque[T]) Get(i int) T {
	return ad.arr[ad.index(i)]
}

func (ad *ArrDeque[T]) Set(i int, v T) {
	ad.arr[ad.index(i)] = v
}

func (ad *ArrDeque[T]) Traverse(f func(i int, v T)) {
	for k := 0; k < ad.size; k++ {
		f(k, ad.arr[(ad.start+k)%ad.capacity])
	}
}

func (ad *ArrDeque[T]) AddLast(v T) {
	if ad.IsFull() {
		panic("deque is full")
	}
	ad.arr[(ad.start+ad.size)%ad.capacity] = v
	ad.size++
}

func (ad *ArrDeque[T]) RemoveLast() T {
	if ad.IsEmpty() {
		panic("deque is empty")
	}
	k := (ad.start + ad.size - 1) % ad.capacity
	v := ad.arr[k]
	var zero T
	ad.arr[k] = zero
	ad.size--
	return v
}

func (ad *ArrDeque[T]) AddFirst(v T) {
	if ad.IsFull() {
		panic("deque is full")
	}
	ad.start = (ad.start - 1 + ad.capacity) % ad.capacity
	ad.arr[ad.start] = v
	ad.size++
}

func (ad *ArrDeque[T]) RemoveFirst() T {
	if ad.IsEmpty() {
		panic("deque is empty")
	}
	v := ad.arr[ad.start]
	var zero T
	ad.arr[ad.start] = zero
	ad.start = (ad.start + 1) % ad.capacity
	ad.size--
	return v
}

func (ad *ArrDeque[T]) First() T {
	return ad.Get(0)
}

func (ad *ArrDeque[T]) Last() T {
	return ad.Get(ad.size - 1)
}

// Clear empties the deque without releasing the backing array.
func (ad *ArrDeque[T]) Clear() {
	var zero T
	for i := range ad.arr {
		ad.arr[i] = zero
	}
	ad.start, ad.size = 0, 0
}

func (ad *ArrDeque[T]) IsFull() bool {
	return ad.size == ad.capacity
}

func (ad *ArrDeque[T]) IsEmpty() bool {
	return ad.size == 0
}
