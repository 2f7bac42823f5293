package urlstate

import (
	"github.com/stretchr/testify/assert"
	"net/url"
	"testing"
)

func q(raw string) url.Values {
	v, _ := url.ParseQuery(raw)
	return v
}

func TestMemoryHistoryNavigation(t *testing.T) {
	h := NewMemoryHistory(q("a=1"))
	h.Push(q("a=2"))
	h.Push(q("a=3"))
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "3", h.Query().Get("a"))

	calls := 0
	remove := h.Listen(func() { calls++ })

	assert.True(t, h.Back())
	assert.Equal(t, "2", h.Query().Get("a"))
	assert.True(t, h.Back())
	assert.False(t, h.Back())
	assert.Equal(t, "1", h.Query().Get("a"))
	assert.Equal(t, 2, calls)

	assert.True(t, h.Forward())
	assert.Equal(t, "2", h.Query().Get("a"))

	// pushing from the middle drops the forward entries
	h.Push(q("a=9"))
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.Forward())

	remove()
	h.Back()
	assert.Equal(t, 3, calls)
}
