package engine

// History is a bounded list, newest first. Callers synchronize access.
type History[T any] struct {
	items []T
	limit int
}

func NewHistory[T any](limit int) *History[T] {
	return &History[T]{limit: limit}
}

// Add prepends item and drops the oldest entries beyond the limit
func (h *History[T]) Add(item T) {
	h.items = append(h.items, item)
	copy(h.items[1:], h.items[:len(h.items)-1])
	h.items[0] = item
	if h.limit > 0 && len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
}

// Items returns a copy, newest first
func (h *History[T]) Items() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History[T]) Len() int {
	return len(h.items)
}
