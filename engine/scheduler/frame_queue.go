package scheduler

import (
	"sync"
	"time"
)

// FrameHandle identifies one outstanding frame request. Zero is never a valid handle.
type FrameHandle uint64

// FrameCallback is invoked once when a requested frame fires.
type FrameCallback func(now time.Time)

// FrameRequester is the animation-frame primitive the scheduler runs on:
// each request fires its callback exactly once on the next frame unless cancelled first.
type FrameRequester interface {
	// RequestFrame schedules cb for the next frame.
	//
	// Parameters:
	//   - cb: the callback to run
	//
	// Returns:
	//   - FrameHandle: handle for CancelFrame
	RequestFrame(cb FrameCallback) FrameHandle

	// CancelFrame cancels a pending request. Unknown or already-fired handles are ignored.
	//
	// Parameters:
	//   - h: the handle returned by RequestFrame
	CancelFrame(h FrameHandle)
}

// FrameQueue is a FrameRequester pumped explicitly by the main loop.
type FrameQueue interface {
	FrameRequester

	// Run fires every callback requested before this call, in request order.
	// Callbacks requested while running fire on the next Run.
	//
	// Parameters:
	//   - now: the frame timestamp passed to callbacks
	//
	// Returns:
	//   - int: the number of callbacks fired
	Run(now time.Time) int

	// Pending returns the number of requests waiting for the next Run.
	//
	// Returns:
	//   - int: outstanding request count
	Pending() int
}

type frameRequest struct {
	handle FrameHandle
	cb     FrameCallback
}

type frameQueueImpl struct {
	mu      *sync.Mutex
	next    FrameHandle
	pending []frameRequest
	// batch holds the requests of the Run in progress so they can still be cancelled.
	batch []frameRequest
}

var _ FrameQueue = &frameQueueImpl{}

// NewFrameQueue creates an empty FrameQueue.
//
// Returns:
//   - FrameQueue: the queue
func NewFrameQueue() FrameQueue {
	return &frameQueueImpl{mu: &sync.Mutex{}}
}

func (q *frameQueueImpl) RequestFrame(cb FrameCallback) FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, frameRequest{handle: q.next, cb: cb})
	return q.next
}

func (q *frameQueueImpl) CancelFrame(h FrameHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.pending {
		if r.handle == h {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	for i := range q.batch {
		if q.batch[i].handle == h {
			q.batch[i].cb = nil
			return
		}
	}
}

func (q *frameQueueImpl) Run(now time.Time) int {
	q.mu.Lock()
	q.batch, q.pending = q.pending, nil
	q.mu.Unlock()

	fired := 0
	for i := 0; ; i++ {
		q.mu.Lock()
		if i >= len(q.batch) {
			q.batch = nil
			q.mu.Unlock()
			return fired
		}
		cb := q.batch[i].cb
		q.batch[i].cb = nil
		q.mu.Unlock()

		if cb != nil {
			cb(now)
			fired++
		}
	}
}

func (q *frameQueueImpl) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
