package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	assert := assert.New(t)

	t.Run("Empty Queue", func(t *testing.T) {
		q := New[[]byte](1)

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())

		_, ok := q.Dequeue()
		assert.False(ok)

		_, ok = q.Peek()
		assert.False(ok)
	})

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		q := New[[]byte](1)

		item1 := []byte("data1")
		q.Enqueue(item1)
		assert.False(q.IsEmpty())
		assert.Equal(1, q.Length())

		item2 := []byte("data2")
		q.Enqueue(item2)
		assert.Equal(2, q.Length())

		dequeued, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal(item1, dequeued)
		assert.Equal(1, q.Length())

		dequeued, ok = q.Dequeue()
		assert.True(ok)
		assert.Equal(item2, dequeued)
		assert.True(q.IsEmpty())

		_, ok = q.Dequeue()
		assert.False(ok)
	})

	t.Run("Peek", func(t *testing.T) {
		q := New[int](1)

		q.Enqueue(1)

		head, ok := q.Peek()
		assert.True(ok)
		assert.Equal(1, head)
		assert.Equal(1, q.Length()) // Length should not change after peek

		q.Enqueue(2)

		head, ok = q.Peek()
		assert.True(ok)
		assert.Equal(1, head)
	})

	t.Run("Reset", func(t *testing.T) {
		q := New[int](4)

		q.Enqueue(1)
		q.Enqueue(2)
		q.Reset()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())

		q.Enqueue(3)

		head, ok := q.Dequeue()
		assert.True(ok)
		assert.Equal(3, head)
	})
}
