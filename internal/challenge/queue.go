package challenge

// HeadFunc is called whenever a different announcement becomes the head of
// a Queue, or with nil when the queue drains.
type HeadFunc func(head *Announcement)

// Queue is the FIFO of pending challenge announcements.
//
// Queue is not safe for concurrent use on its own; the Coordinator
// serializes every access behind its mutex.
type Queue struct {
	items  []*Announcement
	onHead HeadFunc
}

// NewQueue creates an empty queue. onHead may be nil.
func NewQueue(onHead HeadFunc) *Queue {
	return &Queue{onHead: onHead}
}

// Enqueue appends a to the tail. It never deduplicates: one publication may
// legitimately receive a second round after failing the first.
func (q *Queue) Enqueue(a *Announcement) {
	q.items = append(q.items, a)
	if len(q.items) == 1 {
		q.notify()
	}
}

// PeekHead returns the head without removing it.
func (q *Queue) PeekHead() (*Announcement, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// DequeueHead removes and returns the head. It is a no-op on an empty queue.
// The next element, if any, becomes head.
func (q *Queue) DequeueHead() (*Announcement, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	q.notify()
	return head, true
}

// Size returns the number of pending announcements.
func (q *Queue) Size() int { return len(q.items) }

// IsEmpty reports whether no announcements are pending.
func (q *Queue) IsEmpty() bool { return len(q.items) == 0 }

// Snapshot returns the pending announcements in arrival order.
func (q *Queue) Snapshot() []*Announcement {
	out := make([]*Announcement, len(q.items))
	copy(out, q.items)
	return out
}

// Clear drops every pending announcement.
func (q *Queue) Clear() {
	wasEmpty := len(q.items) == 0
	q.items = nil
	if !wasEmpty {
		q.notify()
	}
}

func (q *Queue) notify() {
	if q.onHead == nil {
		return
	}
	head, _ := q.PeekHead()
	q.onHead(head)
}
