package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue(10)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.Equal(t, 2, q.Size())

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, items)
	assert.Equal(t, 0, q.Size())

	items, err = q.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryQueueFull(t *testing.T) {
	q := NewInMemoryQueue(2)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.Error(t, q.Enqueue(3), "a full queue must reject instead of blocking")

	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
	assert.NoError(t, q.Enqueue(4))
}
