package tts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(text string) Request {
	return Request{Text: text, Voice: "default", Speed: 1.0, Volume: 0.8}
}

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Enqueue(testRequest("hello")))
	require.NoError(t, q.Enqueue(testRequest("world")))
	assert.Equal(t, 2, q.Len())

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "hello", first.Text)

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "world", second.Text)

	assert.True(t, q.Empty())
	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestQueueFull(t *testing.T) {
	q := NewQueue()
	for i := 0; i < maxQueueSize; i++ {
		require.NoError(t, q.Enqueue(testRequest(fmt.Sprintf("message %d", i))))
	}
	err := q.Enqueue(testRequest("overflow"))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(testRequest("x")))
	}
	q.Clear()
	assert.True(t, q.Empty())

	// clearing does not touch the in-flight request
	require.NoError(t, q.Enqueue(testRequest("current")))
	_, ok := q.Dequeue()
	require.True(t, ok)
	q.Clear()
	assert.NotNil(t, q.Status().Current)
}

func TestQueueStatus(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Enqueue(testRequest("pending")))

	status := q.Status()
	assert.Equal(t, 1, status.Length)
	assert.False(t, status.Playing)
	assert.Nil(t, status.Current)

	req, ok := q.Dequeue()
	require.True(t, ok)
	q.SetPlaying(true)

	status = q.Status()
	require.NotNil(t, status.Current)
	assert.Equal(t, req.Text, status.Current.Text)
	assert.True(t, status.Playing)
	assert.Equal(t, 0, status.Length)

	q.CompleteCurrent()
	status = q.Status()
	assert.Nil(t, status.Current)
	assert.False(t, status.Playing)
}
