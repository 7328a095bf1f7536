package challenge

import "testing"

func newTestAnnouncement(id string) *Announcement {
	return &Announcement{id: id, questions: []Question{{Kind: KindText, Payload: "1+1?"}}}
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(nil)

	if !q.IsEmpty() || q.Size() != 0 {
		t.Fatal("new queue should be empty")
	}
	if _, ok := q.PeekHead(); ok {
		t.Fatal("PeekHead on empty queue should report false")
	}

	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(newTestAnnouncement(id))
	}

	if q.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", q.Size())
	}

	head, ok := q.PeekHead()
	if !ok || head.ID() != "a" {
		t.Fatalf("PeekHead() = %v, want a", head)
	}
	if q.Size() != 3 {
		t.Error("PeekHead must not remove the head")
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.DequeueHead()
		if !ok || got.ID() != want {
			t.Fatalf("DequeueHead() = %v, want %s", got, want)
		}
	}
	if !q.IsEmpty() {
		t.Error("queue should be empty after draining")
	}
}

func TestQueue_DequeueEmptyIsNoop(t *testing.T) {
	calls := 0
	q := NewQueue(func(*Announcement) { calls++ })

	if a, ok := q.DequeueHead(); ok || a != nil {
		t.Errorf("DequeueHead on empty queue = %v, %v", a, ok)
	}
	if calls != 0 {
		t.Errorf("head hook should not fire on a no-op dequeue, fired %d times", calls)
	}
}

func TestQueue_EnqueueDoesNotDeduplicate(t *testing.T) {
	q := NewQueue(nil)
	a := newTestAnnouncement("same")

	q.Enqueue(a)
	q.Enqueue(a)

	if q.Size() != 2 {
		t.Errorf("Size() = %d, want 2", q.Size())
	}
}

func TestQueue_HeadHook(t *testing.T) {
	var heads []string
	q := NewQueue(func(head *Announcement) {
		if head == nil {
			heads = append(heads, "<nil>")
			return
		}
		heads = append(heads, head.ID())
	})

	q.Enqueue(newTestAnnouncement("a")) // empty -> a
	q.Enqueue(newTestAnnouncement("b")) // head unchanged
	q.DequeueHead()                     // a -> b
	q.DequeueHead()                     // b -> nil
	q.Enqueue(newTestAnnouncement("c")) // empty -> c
	q.Clear()                           // c -> nil
	q.Clear()                           // already empty

	want := []string{"a", "b", "<nil>", "c", "<nil>"}
	if len(heads) != len(want) {
		t.Fatalf("head changes = %v, want %v", heads, want)
	}
	for i := range want {
		if heads[i] != want[i] {
			t.Errorf("head change %d = %q, want %q", i, heads[i], want[i])
		}
	}
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue(nil)
	q.Enqueue(newTestAnnouncement("a"))
	q.Enqueue(newTestAnnouncement("b"))

	snap := q.Snapshot()
	snap[0] = newTestAnnouncement("mutated")

	head, _ := q.PeekHead()
	if head.ID() != "a" {
		t.Error("mutating the snapshot must not affect the queue")
	}
}
