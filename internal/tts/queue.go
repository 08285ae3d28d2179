package tts

import (
	"errors"
	"sync"
)

// maxQueueSize bounds pending speech requests so a chatty agent cannot
// grow the backlog without limit.
const maxQueueSize = 50

var ErrQueueFull = errors.New("tts queue is full")

// Request is one utterance waiting to be spoken.
type Request struct {
	Text   string
	Voice  string
	Speed  float64
	Volume float64
}

// QueueStatus is a snapshot of the queue for UI display.
type QueueStatus struct {
	Current *Request
	Length  int
	Playing bool
}

// Queue is a bounded FIFO of speech requests. The worker dequeues,
// everything else only enqueues or inspects.
type Queue struct {
	mu      sync.Mutex
	items   []Request
	current *Request
	playing bool
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= maxQueueSize {
		return ErrQueueFull
	}
	q.items = append(q.items, req)
	return nil
}

// Dequeue pops the oldest request and marks it current. Returns false
// when the queue is empty.
func (q *Queue) Dequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Request{}, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	cur := req
	q.current = &cur
	return req, true
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

func (q *Queue) SetPlaying(playing bool) {
	q.mu.Lock()
	q.playing = playing
	q.mu.Unlock()
}

// CompleteCurrent clears the current request and the playing flag.
func (q *Queue) CompleteCurrent() {
	q.mu.Lock()
	q.current = nil
	q.playing = false
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Empty() bool {
	return q.Len() == 0
}

func (q *Queue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	status := QueueStatus{Length: len(q.items), Playing: q.playing}
	if q.current != nil {
		cur := *q.current
		status.Current = &cur
	}
	return status
}
