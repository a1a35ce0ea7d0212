package toc

// FrameQueue is a FrameScheduler for hosts without a native animation-frame
// primitive. The host calls Flush once per rendered frame and arms its next
// tick while Pending reports queued work.
type FrameQueue struct {
	next    FrameID
	order   []FrameID
	pending map[FrameID]func()
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{pending: map[FrameID]func(){}}
}

func (q *FrameQueue) RequestFrame(fn func()) FrameID {
	q.next++
	id := q.next
	q.pending[id] = fn
	q.order = append(q.order, id)
	return id
}

func (q *FrameQueue) CancelFrame(id FrameID) {
	delete(q.pending, id)
}

// Pending reports whether any callback is waiting for the next frame.
func (q *FrameQueue) Pending() bool {
	return len(q.pending) > 0
}

// Flush runs the callbacks queued before the call, in request order.
// Callbacks requested while flushing wait for the next frame. It returns the
// number of callbacks run.
func (q *FrameQueue) Flush() int {
	batch := q.order
	q.order = nil
	ran := 0
	for _, id := range batch {
		fn, ok := q.pending[id]
		if !ok {
			continue
		}
		delete(q.pending, id)
		fn()
		ran++
	}
	return ran
}
