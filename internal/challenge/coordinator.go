package challenge

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
)

// Coordinator is the façade publication transports and presenters share.
// Transports call OnChallenge for every round the network issues;
// presenters read CurrentAnnouncement and drive the bound Walkthrough.
//
// All queue and walkthrough mutations are serialized behind one mutex.
// Events are published on the bus after the mutex is released.
type Coordinator struct {
	mu      sync.Mutex
	queue   *Queue
	current *Walkthrough
	closed  bool
	outbox  []event.Event

	bus    *event.Bus
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBus publishes lifecycle events on bus.
func WithBus(bus *event.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator overrides the announcement ID source (random UUIDs by default).
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// NewCoordinator creates an empty coordinator. The caller owns it for the
// lifetime of the event loop and calls Close on shutdown.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger: logging.NopLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("challenge_coordinator")
	c.queue = NewQueue(c.bindHeadLocked)
	return c
}

// OnChallenge records a challenge round issued for publication and appends
// it to the queue. It may be called repeatedly for the same publication and
// concurrently for different ones; arrival order is preserved.
func (c *Coordinator) OnChallenge(questions []Question, publication Publication, target any) (*Announcement, error) {
	if len(questions) == 0 {
		return nil, errors.NewValidationError("a challenge round needs at least one question").
			WithField("questions").
			WithValue(0).
			WithCause(errors.ErrInvalidAnnouncement)
	}
	if publication == nil {
		return nil, errors.NewValidationError("a challenge round needs a publication").
			WithField("publication").
			WithCause(errors.ErrInvalidAnnouncement)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.ErrCoordinatorClosed
	}

	a := &Announcement{
		id:          c.newID(),
		questions:   slices.Clone(questions),
		publication: publication,
		target:      target,
		receivedAt:  c.now(),
	}
	position := c.queue.Size() + 1
	kind := a.PublicationKind()

	c.emitLocked(event.NewChallengeAnnouncedEvent(a.id, kind, a.Len(), position))
	c.queue.Enqueue(a)
	c.emitLocked(event.NewQueueDepthChangedEvent(c.queue.Size()))

	c.logger.WithAnnouncement(a.id).WithPublication(kind).
		Info("challenge announced", "questions", a.Len(), "position", position)
	c.unlockAndFlush()
	return a, nil
}

// CurrentAnnouncement returns the head announcement and its walkthrough.
// The walkthrough is created fresh when the announcement becomes head and
// is returned unchanged on later calls until the head changes.
func (c *Coordinator) CurrentAnnouncement() (*Announcement, *Walkthrough, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, nil, false
	}
	return c.current.announcement, c.current, true
}

// Size returns the number of pending rounds, including the head.
func (c *Coordinator) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Size()
}

// IsEmpty reports whether a presenter has anything to show.
func (c *Coordinator) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.IsEmpty()
}

// Pending returns the queued announcements in presentation order.
func (c *Coordinator) Pending() []*Announcement {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Snapshot()
}

// Dismiss abandons the current walkthrough if one is active. It is a no-op
// when the queue is empty or the head is already being submitted.
func (c *Coordinator) Dismiss() error {
	c.mu.Lock()
	w := c.current
	if w == nil || w.status != StatusActive {
		c.mu.Unlock()
		return nil
	}
	err := w.abandonLocked()
	c.unlockAndFlush()
	return err
}

// RecordAnswer records an answer on the current walkthrough.
func (c *Coordinator) RecordAnswer(index int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return errors.NewChallengeError("record answer", errors.ErrNoActiveChallenge)
	}
	return c.current.recordAnswerLocked(index, value)
}

// Advance moves the current walkthrough to its next question.
func (c *Coordinator) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return errors.NewChallengeError("advance", errors.ErrNoActiveChallenge)
	}
	return c.current.advanceLocked()
}

// Retreat moves the current walkthrough to its previous question.
func (c *Coordinator) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return errors.NewChallengeError("retreat", errors.ErrNoActiveChallenge)
	}
	return c.current.retreatLocked()
}

// Submit submits the current walkthrough. See Walkthrough.Submit.
func (c *Coordinator) Submit() error {
	w, err := c.head("submit")
	if err != nil {
		return err
	}
	return w.Submit()
}

// Abandon abandons the current walkthrough. Unlike Dismiss it fails when
// nothing is active.
func (c *Coordinator) Abandon() error {
	w, err := c.head("abandon")
	if err != nil {
		return err
	}
	return w.Abandon()
}

// AdvanceOrSubmit applies the Enter-key action to the current walkthrough.
func (c *Coordinator) AdvanceOrSubmit() error {
	w, err := c.head("advance or submit")
	if err != nil {
		return err
	}
	return w.AdvanceOrSubmit()
}

// Close drops every pending round without notifying the network and
// rejects further announcements. An interrupted challenge must be
// re-triggered by the transport if the publication is retried.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	dropped := c.queue.Size()
	if c.current != nil && c.current.status == StatusActive {
		c.current.status = StatusAbandoned
	}
	c.queue.Clear()
	if dropped > 0 {
		c.emitLocked(event.NewQueueDepthChangedEvent(0))
	}
	c.logger.Info("challenge coordinator closed", "dropped", dropped)
	c.unlockAndFlush()
}

func (c *Coordinator) head(op string) (*Walkthrough, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, errors.NewChallengeError(op, errors.ErrNoActiveChallenge)
	}
	return c.current, nil
}

// bindHeadLocked is the queue's head-change hook. Every new head gets a
// fresh walkthrough so no answers carry over between rounds.
func (c *Coordinator) bindHeadLocked(head *Announcement) {
	if head == nil {
		c.current = nil
		c.emitLocked(event.NewHeadChangedEvent(""))
		return
	}
	c.current = newWalkthrough(c, head)
	c.emitLocked(event.NewHeadChangedEvent(head.id))
	c.logger.WithAnnouncement(head.id).Debug("challenge became head", "questions", head.Len())
}

// removeHeadLocked dequeues w's announcement if w is still bound to the head.
func (c *Coordinator) removeHeadLocked(w *Walkthrough) {
	if c.current != w {
		return
	}
	c.queue.DequeueHead()
	c.emitLocked(event.NewQueueDepthChangedEvent(c.queue.Size()))
}

func (c *Coordinator) emitLocked(e event.Event) {
	if c.bus == nil {
		return
	}
	c.outbox = append(c.outbox, e)
}

// unlockAndFlush releases c.mu and then publishes queued events.
func (c *Coordinator) unlockAndFlush() {
	events := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, e := range events {
		c.bus.Publish(e)
	}
}
