package fdtable

import (
	"sync"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

// Table is a fixed capacity arena of descriptors. Indexes handed out by Alloc
// stay valid until Free. The table never grows; a full table fails Alloc with
// SYS_OUT_OF_FILE_DESC.
type Table[T any] struct {
	mu    sync.Mutex
	slots []slot[T]
	free  []int
}

type slot[T any] struct {
	inUse bool
	value T
}

func New[T any](capacity int) *Table[T] {
	t := &Table[T]{
		slots: make([]slot[T], capacity),
		free:  make([]int, 0, capacity),
	}

	// Lowest index is handed out first.
	for i := capacity - 1; i >= 0; i-- {
		t.free = append(t.free, i)
	}

	return t
}

func (t *Table[T]) Alloc(value T) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.free) == 0 {
		return -1, rerr.New(rerr.SysOutOfFileDesc, "all %d descriptors in use", len(t.slots))
	}

	idx := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	t.slots[idx] = slot[T]{inUse: true, value: value}

	return idx, nil
}

func (t *Table[T]) Get(idx int) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if idx < 0 || idx >= len(t.slots) || !t.slots[idx].inUse {
		return zero, false
	}

	return t.slots[idx].value, true
}

// Free releases a slot. Freeing a slot that is not in use returns false.
func (t *Table[T]) Free(idx int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || idx >= len(t.slots) || !t.slots[idx].inUse {
		return false
	}

	var zero T
	t.slots[idx] = slot[T]{value: zero}
	t.free = append(t.free, idx)

	return true
}

// Find returns the first in-use slot whose value matches.
func (t *Table[T]) Find(match func(T) bool) (int, T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].inUse && match(t.slots[i].value) {
			return i, t.slots[i].value, true
		}
	}

	var zero T
	return -1, zero, false
}

func (t *Table[T]) InUse() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots) - len(t.free)
}

func (t *Table[T]) Cap() int {
	return len(t.slots)
}
