package urlstate

import (
	"net/url"
	"sync"
)

// History is the page address as seen by the synchronizer: the current query
// string, a way to push a new entry and notification of back/forward moves.
type History interface {
	Query() url.Values
	Push(query url.Values)
	Listen(fn func()) (remove func())
}

// MemoryHistory is a browser-like history stack. Push drops forward entries,
// Back and Forward move the cursor and notify listeners.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]func()
	nextID    int
}

func NewMemoryHistory(initial url.Values) *MemoryHistory {
	return &MemoryHistory{
		entries:   []string{initial.Encode()},
		listeners: make(map[int]func()),
	}
}

func (h *MemoryHistory) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return parse(h.entries[h.index])
}

func (h *MemoryHistory) Push(query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], query.Encode())
	h.index = len(h.entries) - 1
}

func (h *MemoryHistory) Listen(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Back moves to the previous entry. It reports false at the start of history.
func (h *MemoryHistory) Back() bool {
	return h.move(-1)
}

func (h *MemoryHistory) Forward() bool {
	return h.move(1)
}

func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *MemoryHistory) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

func (h *MemoryHistory) move(delta int) bool {
	h.mu.Lock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = target

	listeners := make([]func(), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

func parse(raw string) url.Values {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return values
}
