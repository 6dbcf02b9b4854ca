package stream

import "sync"

// handlers is an ordered callback registry with copy-before-notify
// semantics, shared by the state, message, and error channels.
type handlers[T any] struct {
	mu   sync.Mutex
	next uint64
	list []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id uint64
	fn func(T)
}

func (h *handlers[T]) add(fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.next++
	id := h.next
	h.list = append(h.list, handlerEntry[T]{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, e := range h.list {
			if e.id == id {
				h.list = append(h.list[:i], h.list[i+1:]...)
				return
			}
		}
	}
}

func (h *handlers[T]) emit(v T) {
	h.mu.Lock()
	list := make([]handlerEntry[T], len(h.list))
	copy(list, h.list)
	h.mu.Unlock()

	for _, e := range list {
		e.fn(v)
	}
}
