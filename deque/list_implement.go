package deque

// ListDeque is a doubly linked deque with sentinel head and tail nodes.
type ListDeque[T any] struct {
	head *node[T]
	tail *node[T]

	size     int
	capacity int
}

type node[T any] struct {
	val  T
	pre  *node[T]
	next *node[T]
}

func NewListDeque[T any](capacity int) *ListDeque[T] {
	head := &node[T]{}
	tail := &node[T]{}
	head.next = tail
	tail.pre = head

	return &ListDeque[T]{
		head:     head,
		tail:     tail,
		capacity: capacity,
	}
}

func (ld *ListDeque[T]) Size() int {
	return ld.size
}

func (ld *ListDeque[T]) at(i int) *node[T] {
	if i < 0 || i >= ld.size {
		panic("index out of length")
	}
	if i < ld.size/2 {
		n := ld.head.next
		for ; i > 0; i-- {
			n = n.next
		}
		return n
	}
	n := ld.tail.pre
	for k := ld.size - 1; k > i; k-- {
		n = n.pre
	}
	return n
}

func (ld *ListDeque[T]) Get(i int) T {
	return ld.at(i).val
}

func (ld *ListDeque[T]) Set(i int, v T) {
	ld.at(i).val = v
}

func (ld *ListDeque[T]) Traverse(f func(i int, v T)) {
	k := 0
	for n := ld.head.next; n != ld.tail; n = n.next {
		f(k, n.val)
		k++
	}
}

func (ld *ListDeque[T]) insertAfter(p *node[T], v T) {
	if ld.IsFull() {
		panic("deque is full")
	}
	n := &node[T]{val: v, pre: p, next: p.next}
	p.next.pre = n
	p.next = n
	ld.size++
}

func (ld *ListDeque[T]) unlink(n *node[T]) T {
	if ld.IsEmpty() {
		panic("deque is empty")
	}
	n.pre.next = n.next
	n.next.pre = n.pre
	ld.size--
	return n.val
}

func (ld *ListDeque[T]) AddLast(v T) {
	ld.insertAfter(ld.tail.pre, v)
}

func (ld *ListDeque[T]) RemoveLast() T {
	return ld.unlink(ld.tail.pre)
}

func (ld *ListDeque[T]) AddFirst(v T) {
	ld.insertAfter(ld.head, v)
}

func (ld *ListDeque[T]) RemoveFirst() T {
	return ld.unlink(ld.head.next)
}

func (ld *ListDeque[T]) First() T {
	return ld.Get(0)
}

func (ld *ListDeque[T]) Last() T {
	return ld.Get(ld.size - 1)
}

func (ld *ListDeque[T]) IsFull() bool {
	return ld.capacity > 0 && ld.size >= ld.capacity
}

func (ld *ListDeque[T]) IsEmpty() bool {
	return ld.size == 0
}
