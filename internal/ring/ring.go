// Package ring provides a bounded FIFO collection. Pushing onto a full
// buffer evicts the oldest element.
package ring

import "encoding/json"

type Buffer[T any] struct {
	cap   int
	items []T
}

func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{cap: capacity, items: make([]T, 0, capacity)}
}

// Push appends v and reports the evicted element, if any.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	b.init()
	if len(b.items) >= b.cap {
		evicted, ok = b.items[0], true
		b.items = append(b.items[:0], b.items[1:]...)
	}
	b.items = append(b.items, v)
	return evicted, ok
}

func (b *Buffer[T]) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

func (b *Buffer[T]) Cap() int {
	if b == nil {
		return 0
	}
	return b.cap
}

// Items returns a copy, oldest first.
func (b *Buffer[T]) Items() []T {
	if b == nil {
		return nil
	}
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Last returns the most recently pushed element.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.Len() == 0 {
		return zero, false
	}
	return b.items[len(b.items)-1], true
}

// RemoveFirst drops up to n of the oldest elements and returns how many went.
func (b *Buffer[T]) RemoveFirst(n int) int {
	if n <= 0 || b.Len() == 0 {
		return 0
	}
	if n > len(b.items) {
		n = len(b.items)
	}
	b.items = append(b.items[:0], b.items[n:]...)
	return n
}

// Resize changes capacity, dropping the oldest elements that no longer fit.
func (b *Buffer[T]) Resize(capacity int) {
	b.init()
	if capacity < 1 {
		capacity = 1
	}
	b.cap = capacity
	if over := len(b.items) - capacity; over > 0 {
		b.items = append(b.items[:0], b.items[over:]...)
	}
}

// Clone returns an independent copy. Elements are copied by value.
func (b *Buffer[T]) Clone() *Buffer[T] {
	if b == nil {
		return nil
	}
	c := New[T](b.cap)
	c.items = append(c.items, b.items...)
	return c
}

func (b *Buffer[T]) init() {
	if b.cap < 1 {
		b.cap = len(b.items)
		if b.cap < 1 {
			b.cap = 1
		}
	}
}

// MarshalJSON encodes the elements as a plain array, oldest first.
func (b *Buffer[T]) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	items := b.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON keeps an already configured capacity; an unconfigured buffer
// sizes itself to the decoded array.
func (b *Buffer[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if b.cap < 1 {
		b.cap = len(items)
		if b.cap < 1 {
			b.cap = 1
		}
	}
	if over := len(items) - b.cap; over > 0 {
		items = items[over:]
	}
	b.items = append(make([]T, 0, b.cap), items...)
	return nil
}
