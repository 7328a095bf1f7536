package challenge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
)

// recordingPublication captures every PublishChallengeAnswers call.
type recordingPublication struct {
	mu    sync.Mutex
	kind  string
	calls [][]string
	err   error
	onPub func(answers []string)
}

func (p *recordingPublication) PublishChallengeAnswers(answers []string) error {
	p.mu.Lock()
	p.calls = append(p.calls, slices.Clone(answers))
	onPub := p.onPub
	p.mu.Unlock()
	if onPub != nil {
		onPub(answers)
	}
	return p.err
}

func (p *recordingPublication) PublicationKind() string { return p.kind }

func (p *recordingPublication) Calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

func questions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{Kind: KindText, Payload: fmt.Sprintf("q%d", i)}
	}
	return qs
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ann-%d", n)
	}
}

func newTestCoordinator(opts ...Option) *Coordinator {
	return NewCoordinator(append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
}

func mustAnnounce(t *testing.T, c *Coordinator, n int, pub Publication) *Announcement {
	t.Helper()
	a, err := c.OnChallenge(questions(n), pub, nil)
	if err != nil {
		t.Fatalf("OnChallenge failed: %v", err)
	}
	return a
}

func TestOnChallenge_Validation(t *testing.T) {
	c := newTestCoordinator()

	tests := []struct {
		name      string
		questions []Question
		pub       Publication
	}{
		{"no questions", nil, &recordingPublication{}},
		{"empty questions", []Question{}, &recordingPublication{}},
		{"nil publication", questions(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := c.OnChallenge(tt.questions, tt.pub, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if a != nil {
				t.Error("no announcement should be returned on error")
			}
			if !errors.Is(err, errors.ErrInvalidAnnouncement) {
				t.Errorf("error should match ErrInvalidAnnouncement: %v", err)
			}
		})
	}

	if !c.IsEmpty() {
		t.Error("invalid announcements must not be enqueued")
	}
}

func TestOnChallenge_CopiesQuestions(t *testing.T) {
	c := newTestCoordinator()
	qs := questions(2)

	a, err := c.OnChallenge(qs, &recordingPublication{}, "target")
	if err != nil {
		t.Fatal(err)
	}
	qs[0].Payload = "mutated"

	if a.Question(0).Payload != "q0" {
		t.Error("announcement questions must be immutable")
	}
	got := a.Questions()
	got[1].Payload = "mutated"
	if a.Question(1).Payload != "q1" {
		t.Error("Questions() must return a copy")
	}
	if a.Target() != "target" {
		t.Errorf("Target() = %v", a.Target())
	}
	if a.ID() != "ann-1" {
		t.Errorf("ID() = %q", a.ID())
	}
}

func TestOnChallenge_DefaultIDsAreUnique(t *testing.T) {
	c := NewCoordinator()
	pub := &recordingPublication{}

	first := mustAnnounce(t, c, 1, pub)
	second := mustAnnounce(t, c, 1, pub)

	if first.ID() == "" || first.ID() == second.ID() {
		t.Errorf("IDs should be unique per round: %q, %q", first.ID(), second.ID())
	}
}

func TestCurrentAnnouncement_ArrivalOrderAcrossPublications(t *testing.T) {
	c := newTestCoordinator()
	pubs := []*recordingPublication{{kind: "post"}, {kind: "vote"}, {kind: "reply"}}

	// Interleave rounds from three publications, including a second round for pubs[0].
	order := []int{0, 1, 0, 2, 1}
	var want []string
	for _, i := range order {
		want = append(want, mustAnnounce(t, c, 1, pubs[i]).ID())
	}

	var got []string
	for !c.IsEmpty() {
		a, w, ok := c.CurrentAnnouncement()
		if !ok {
			t.Fatal("CurrentAnnouncement reported empty on a non-empty queue")
		}
		got = append(got, a.ID())
		if err := w.Submit(); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if !slices.Equal(got, want) {
		t.Errorf("presentation order = %v, want %v", got, want)
	}
}

func TestOnChallenge_ConcurrentCallersAllSucceed(t *testing.T) {
	c := NewCoordinator()
	const producers, rounds = 8, 25

	var wg sync.WaitGroup
	errs := make(chan error, producers*rounds)
	perProducer := make([][]string, producers)

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			pub := &recordingPublication{kind: fmt.Sprintf("pub-%d", p)}
			for r := 0; r < rounds; r++ {
				a, err := c.OnChallenge(questions(1), pub, nil)
				if err != nil {
					errs <- err
					return
				}
				perProducer[p] = append(perProducer[p], a.ID())
			}
		}(p)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent OnChallenge failed: %v", err)
	}
	if c.Size() != producers*rounds {
		t.Fatalf("Size() = %d, want %d", c.Size(), producers*rounds)
	}

	// Each producer's rounds must appear in the order it announced them.
	position := make(map[string]int)
	for i, a := range c.Pending() {
		position[a.ID()] = i
	}
	for p, ids := range perProducer {
		for i := 1; i < len(ids); i++ {
			if position[ids[i-1]] > position[ids[i]] {
				t.Errorf("producer %d: round %d queued before round %d", p, i, i-1)
			}
		}
	}
}

func TestScenario_LaterRoundWaitsForHead(t *testing.T) {
	c := newTestCoordinator()
	pubA := &recordingPublication{kind: "post"}
	pubB := &recordingPublication{kind: "vote"}

	a := mustAnnounce(t, c, 2, pubA)

	head, w, _ := c.CurrentAnnouncement()
	if head != a {
		t.Fatal("A should be head")
	}
	if err := w.RecordAnswer(0, "x"); err != nil {
		t.Fatal(err)
	}

	b := mustAnnounce(t, c, 1, pubB)

	head, w2, _ := c.CurrentAnnouncement()
	if head != a {
		t.Fatal("B must not preempt A")
	}
	if w2 != w {
		t.Fatal("enqueueing behind the head must not replace its walkthrough")
	}
	if w2.Answer(0) != "x" {
		t.Error("A's progress must survive B's arrival")
	}

	if err := w.Advance(); err != nil {
		t.Fatal(err)
	}
	if err := w.Abandon(); err != nil {
		t.Fatal(err)
	}

	head, _, ok := c.CurrentAnnouncement()
	if !ok || head != b {
		t.Fatal("B should appear only after A is abandoned")
	}
	if len(pubA.Calls()) != 0 {
		t.Error("abandoning A must not publish answers")
	}
}

func TestScenario_TwoQuestionSubmit(t *testing.T) {
	c := newTestCoordinator()
	pubX := &recordingPublication{kind: "reply"}

	if _, err := c.OnChallenge([]Question{{Payload: "2+2"}, {Payload: "3+4"}}, pubX, "targetX"); err != nil {
		t.Fatal(err)
	}

	steps := []func() error{
		func() error { return c.RecordAnswer(0, "4") },
		c.Advance,
		func() error { return c.RecordAnswer(1, "7") },
		c.Submit,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	calls := pubX.Calls()
	if len(calls) != 1 {
		t.Fatalf("PublishChallengeAnswers called %d times, want 1", len(calls))
	}
	if !slices.Equal(calls[0], []string{"4", "7"}) {
		t.Errorf("answers = %v, want [4 7]", calls[0])
	}
	if !c.IsEmpty() {
		t.Error("queue should be empty after submission")
	}
}

func TestNoLeakageAcrossAnnouncements(t *testing.T) {
	c := newTestCoordinator()
	pub := &recordingPublication{}

	first := mustAnnounce(t, c, 3, pub)
	mustAnnounce(t, c, 3, pub)

	_, w, _ := c.CurrentAnnouncement()
	_ = w.RecordAnswer(0, "a")
	_ = w.Advance()
	_ = w.RecordAnswer(1, "b")
	if err := c.Dismiss(); err != nil {
		t.Fatal(err)
	}

	_, next, ok := c.CurrentAnnouncement()
	if !ok {
		t.Fatal("second announcement should be head")
	}
	if next == w {
		t.Fatal("a new head must get a new walkthrough")
	}
	if next.CurrentIndex() != 0 || len(next.Answers()) != 0 || next.Status() != StatusActive {
		t.Errorf("walkthrough not fresh: index=%d answers=%v status=%v",
			next.CurrentIndex(), next.Answers(), next.Status())
	}

	// Re-announcing the very same announcement object after it left the
	// queue must not resurrect its old answers either.
	_ = next.Abandon()
	c.mu.Lock()
	c.queue.Enqueue(first)
	c.mu.Unlock()

	head, again, ok := c.CurrentAnnouncement()
	if !ok || head != first {
		t.Fatal("re-enqueued announcement should be head")
	}
	if again == w || again.CurrentIndex() != 0 || len(again.Answers()) != 0 {
		t.Error("re-enqueued announcement leaked prior walkthrough state")
	}
}

func TestCurrentAnnouncement_Empty(t *testing.T) {
	c := newTestCoordinator()

	a, w, ok := c.CurrentAnnouncement()
	if ok || a != nil || w != nil {
		t.Error("empty coordinator should have no current announcement")
	}
}

func TestCoordinator_OperationsWithoutChallenge(t *testing.T) {
	c := newTestCoordinator()

	ops := map[string]func() error{
		"record answer":     func() error { return c.RecordAnswer(0, "x") },
		"advance":           c.Advance,
		"retreat":           c.Retreat,
		"submit":            c.Submit,
		"abandon":           c.Abandon,
		"advance or submit": c.AdvanceOrSubmit,
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			if !errors.Is(err, errors.ErrNoActiveChallenge) {
				t.Errorf("expected ErrNoActiveChallenge, got %v", err)
			}
			if !errors.IsPrecondition(err) {
				t.Error("should be a precondition violation")
			}
		})
	}

	if err := c.Dismiss(); err != nil {
		t.Errorf("Dismiss on empty queue should be a no-op, got %v", err)
	}
}

func TestSubmit_TransportFailureStillResolves(t *testing.T) {
	c := newTestCoordinator()
	pub := &recordingPublication{kind: "vote", err: io.ErrUnexpectedEOF}

	mustAnnounce(t, c, 1, pub)
	_, w, _ := c.CurrentAnnouncement()

	err := w.Submit()
	if !errors.Is(err, errors.ErrTransport) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.IsPrecondition(err) {
		t.Error("transport failures are not precondition violations")
	}
	if w.Status() != StatusResolved {
		t.Errorf("Status() = %v, want resolved", w.Status())
	}
	if !c.IsEmpty() {
		t.Error("failed submission must still dequeue")
	}
	if len(pub.Calls()) != 1 {
		t.Error("failed submission must not be retried")
	}
}

type panickingPublication struct{}

func (panickingPublication) PublishChallengeAnswers([]string) error { panic("boom") }

func TestSubmit_PublicationPanicStillResolves(t *testing.T) {
	c := newTestCoordinator()
	mustAnnounce(t, c, 1, panickingPublication{})
	_, w, _ := c.CurrentAnnouncement()

	if err := w.Submit(); !errors.Is(err, errors.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if w.Status() != StatusResolved || !c.IsEmpty() {
		t.Error("walkthrough should resolve and dequeue after a panic")
	}
}

func TestSubmit_PublicationMayAnnounceNextRound(t *testing.T) {
	c := newTestCoordinator()
	pub := &recordingPublication{kind: "post"}
	pub.onPub = func([]string) {
		// A transport that reacts synchronously with a follow-up round
		// must not deadlock against the coordinator.
		if _, err := c.OnChallenge(questions(1), pub, nil); err != nil {
			t.Errorf("follow-up OnChallenge failed: %v", err)
		}
	}

	first := mustAnnounce(t, c, 1, pub)
	if err := c.Submit(); err != nil {
		t.Fatal(err)
	}
	pub.onPub = nil

	head, w, ok := c.CurrentAnnouncement()
	if !ok || head == first {
		t.Fatal("follow-up round should be the new head")
	}
	if w.Status() != StatusActive || w.CurrentIndex() != 0 {
		t.Error("follow-up round should have a fresh walkthrough")
	}
}

func TestDismiss(t *testing.T) {
	c := newTestCoordinator()
	pub := &recordingPublication{}

	mustAnnounce(t, c, 2, pub)
	_, w, _ := c.CurrentAnnouncement()

	if err := c.Dismiss(); err != nil {
		t.Fatal(err)
	}
	if w.Status() != StatusAbandoned {
		t.Errorf("Status() = %v, want abandoned", w.Status())
	}
	if len(pub.Calls()) != 0 {
		t.Error("Dismiss must not publish")
	}
	if !c.IsEmpty() {
		t.Error("Dismiss should dequeue the head")
	}
}

func TestStaleWalkthroughIsRejected(t *testing.T) {
	c := newTestCoordinator()
	pub := &recordingPublication{}

	mustAnnounce(t, c, 2, pub)
	mustAnnounce(t, c, 2, pub)
	_, old, _ := c.CurrentAnnouncement()
	if err := old.Abandon(); err != nil {
		t.Fatal(err)
	}

	_, fresh, _ := c.CurrentAnnouncement()

	for name, op := range map[string]func() error{
		"record":  func() error { return old.RecordAnswer(0, "leak") },
		"advance": old.Advance,
		"submit":  old.Submit,
		"abandon": old.Abandon,
	} {
		if err := op(); !errors.IsPrecondition(err) {
			t.Errorf("%s on a finished walkthrough should fail, got %v", name, err)
		}
	}

	if len(fresh.Answers()) != 0 || fresh.CurrentIndex() != 0 {
		t.Error("operations on a stale walkthrough leaked into the new head")
	}
	if len(pub.Calls()) != 0 {
		t.Error("stale submit must not publish")
	}
}

func TestClose(t *testing.T) {
	bus := event.NewBus(nil)
	c := newTestCoordinator(WithBus(bus))
	pub := &recordingPublication{}

	mustAnnounce(t, c, 1, pub)
	mustAnnounce(t, c, 1, pub)
	_, w, _ := c.CurrentAnnouncement()

	var depths []int
	bus.Subscribe(event.TypeQueueDepthChanged, func(e event.Event) {
		depths = append(depths, e.(event.QueueDepthChangedEvent).Depth)
	})

	c.Close()
	c.Close()

	if !c.IsEmpty() {
		t.Error("Close should drop pending rounds")
	}
	if w.Status() != StatusAbandoned {
		t.Errorf("active walkthrough should be abandoned on close, got %v", w.Status())
	}
	if len(pub.Calls()) != 0 {
		t.Error("Close must not publish answers")
	}
	if !slices.Equal(depths, []int{0}) {
		t.Errorf("depth events = %v, want [0]", depths)
	}
	if _, err := c.OnChallenge(questions(1), pub, nil); !errors.Is(err, errors.ErrCoordinatorClosed) {
		t.Errorf("OnChallenge after Close = %v, want ErrCoordinatorClosed", err)
	}
}

func TestCoordinator_PublishesLifecycleEvents(t *testing.T) {
	bus := event.NewBus(nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newTestCoordinator(WithBus(bus), WithClock(clock))

	var types []string
	var submitted event.ChallengeSubmittedEvent
	bus.SubscribeAll(func(e event.Event) {
		types = append(types, e.EventType())
		if s, ok := e.(event.ChallengeSubmittedEvent); ok {
			submitted = s
		}
	})

	pub := &recordingPublication{kind: "post"}
	mustAnnounce(t, c, 1, pub)
	mustAnnounce(t, c, 1, pub)
	now = now.Add(3 * time.Second)
	if err := c.Submit(); err != nil {
		t.Fatal(err)
	}
	if err := c.Dismiss(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		event.TypeChallengeAnnounced, event.TypeChallengeHeadChange, event.TypeQueueDepthChanged,
		event.TypeChallengeAnnounced, event.TypeQueueDepthChanged,
		event.TypeChallengeSubmitted, event.TypeChallengeHeadChange, event.TypeQueueDepthChanged,
		event.TypeChallengeAbandoned, event.TypeChallengeHeadChange, event.TypeQueueDepthChanged,
	}
	if !slices.Equal(types, want) {
		t.Errorf("event sequence:\n got %v\nwant %v", types, want)
	}
	if submitted.PublicationKind != "post" || submitted.AnswerCount != 1 || submitted.Duration != 3*time.Second {
		t.Errorf("unexpected submitted event: %+v", submitted)
	}
}

func TestAbandonedEventCarriesPublication(t *testing.T) {
	bus := event.NewBus(nil)
	c := newTestCoordinator(WithBus(bus))

	var got event.ChallengeAbandonedEvent
	bus.Subscribe(event.TypeChallengeAbandoned, func(e event.Event) {
		got = e.(event.ChallengeAbandonedEvent)
	})

	pub := &recordingPublication{kind: "vote"}
	a := mustAnnounce(t, c, 1, pub)
	if err := c.Dismiss(); err != nil {
		t.Fatal(err)
	}
	if got.AnnouncementID != a.ID() || got.PublicationKind != "vote" {
		t.Errorf("unexpected abandoned event: %+v", got)
	}
	if got.Publication != Publication(pub) {
		t.Error("abandoned event should carry the publication handle")
	}
}

// logLevels returns the level of every JSON record logged with msg.
func logLevels(t *testing.T, buf *bytes.Buffer, msg string) []string {
	t.Helper()
	var levels []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		if rec.Msg == msg {
			levels = append(levels, rec.Level)
		}
	}
	return levels
}

func TestFailuresLogAtTheirSeverity(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCoordinator(WithLogger(logging.NewWriterLogger(&buf, "debug")))

	mustAnnounce(t, c, 2, &recordingPublication{})
	if err := c.Submit(); !errors.IsPrecondition(err) {
		t.Fatalf("Submit on the first of two questions = %v", err)
	}
	if got := logLevels(t, &buf, "challenge precondition violated"); !slices.Equal(got, []string{"ERROR"}) {
		t.Errorf("precondition log levels = %v, want [ERROR]", got)
	}

	buf.Reset()
	mustAnnounce(t, c, 1, &recordingPublication{err: io.ErrClosedPipe})
	_ = c.Dismiss()
	if err := c.Submit(); !errors.Is(err, errors.ErrTransport) {
		t.Fatalf("Submit = %v, want a transport error", err)
	}
	if got := logLevels(t, &buf, "challenge answer delivery failed"); !slices.Equal(got, []string{"WARN"}) {
		t.Errorf("delivery failure log levels = %v, want [WARN]", got)
	}
}
