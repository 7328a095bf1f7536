package transport

import (
	"context"
	"slices"
	"sync"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
	"github.com/seedit/seedit-challenge/internal/publication"
)

// Result summarizes how one scenario publication ended.
type Result struct {
	Name        string
	Kind        string
	Rounds      int
	Submissions [][]string
	Verified    bool
	Abandoned   bool
	Finished    bool
	// CID is assigned to verified publications.
	CID string
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorBus mirrors verification outcomes on bus and watches it for
// abandoned challenges.
func WithSimulatorBus(bus *event.Bus) SimulatorOption {
	return func(s *Simulator) { s.bus = bus }
}

// WithSimulatorLogger sets the logger.
func WithSimulatorLogger(logger *logging.Logger) SimulatorOption {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Simulator replays a Scenario through an Inbox.
type Simulator struct {
	scenario *Scenario
	inbox    *Inbox
	bus      *event.Bus
	logger   *logging.Logger
	subID    string

	mu        sync.Mutex
	ctx       context.Context
	entries   []*simEntry
	remaining int
	started   bool
	done      chan struct{}
}

type simEntry struct {
	script    ScenarioPublication
	pub       *Publication
	round     int
	verified  bool
	abandoned bool
	finished  bool
	cid       string
}

// NewSimulator prepares a replay of scenario into inbox.
func NewSimulator(scenario *Scenario, inbox *Inbox, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		scenario: scenario,
		inbox:    inbox,
		logger:   logging.NopLogger(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("transport_simulator")

	for _, sp := range scenario.Publications {
		desc := sp.Publication
		scenario.Account.Sign(&desc)
		e := &simEntry{script: sp}
		e.pub = NewPublication(desc, func(_ *Publication, answers []string) error {
			return s.onAnswers(e, answers)
		})
		s.entries = append(s.entries, e)
	}
	s.remaining = len(s.entries)
	return s
}

// Start issues the first round of every publication, in scenario order.
// ctx also bounds the follow-up rounds issued after wrong answers.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("simulator already started")
	}
	s.started = true
	s.ctx = ctx
	if s.bus != nil {
		s.subID = s.bus.Subscribe(event.TypeChallengeAbandoned, s.onAbandoned)
	}
	entries := slices.Clone(s.entries)
	s.mu.Unlock()

	for _, e := range entries {
		if err := s.issue(ctx, e, 0); err != nil {
			return err
		}
	}
	return nil
}

// Stop detaches from the bus and closes every publication.
func (s *Simulator) Stop() {
	if s.bus != nil && s.subID != "" {
		s.bus.Unsubscribe(s.subID)
	}
	for _, p := range s.Publications() {
		p.Close()
	}
}

// Done is closed once every publication was verified, rejected for good,
// or abandoned.
func (s *Simulator) Done() <-chan struct{} { return s.done }

// Publications returns the simulated publications in scenario order.
func (s *Simulator) Publications() []*Publication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Publication, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.pub
	}
	return out
}

// Results reports the state of every publication.
func (s *Simulator) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.entries))
	for i, e := range s.entries {
		out[i] = Result{
			Name:        e.script.Name,
			Kind:        e.pub.PublicationKind(),
			Rounds:      e.round + 1,
			Submissions: e.pub.Submissions(),
			Verified:    e.verified,
			Abandoned:   e.abandoned,
			Finished:    e.finished,
			CID:         e.cid,
		}
	}
	return out
}

func (s *Simulator) issue(ctx context.Context, e *simEntry, round int) error {
	desc := e.pub.Descriptor()
	req := Request{
		Questions:   e.script.Rounds[round].Questions,
		Publication: e.pub,
		Target:      s.scenario.targetOf(&desc),
		Delivered: func(a *challenge.Announcement) {
			s.logger.WithAnnouncement(a.ID()).
				Debug("challenge round announced", "publication", e.script.Name, "round", round+1)
		},
	}
	s.logger.WithPublication(e.pub.PublicationKind()).
		Info("issuing challenge round", "publication", e.script.Name, "round", round+1)
	return s.inbox.Send(ctx, req)
}

// onAnswers judges a submission. It runs on the submitting goroutine,
// outside the coordinator's lock.
func (s *Simulator) onAnswers(e *simEntry, answers []string) error {
	s.mu.Lock()
	if e.finished {
		s.mu.Unlock()
		return errors.ErrPublicationClosed
	}
	round := e.script.Rounds[e.round]
	v := Verification{Success: round.Accepts(answers)}
	next := -1
	if !v.Success {
		v.Reason = round.Reason
		if v.Reason == "" {
			v.Reason = "wrong answer"
		}
		v.Errors = round.mismatches(answers)
		if e.round+1 < len(e.script.Rounds) {
			e.round++
			next = e.round
		}
	}
	v.Final = next < 0
	if v.Final {
		e.verified = v.Success
		if v.Success {
			desc := e.pub.Descriptor()
			if id, err := publication.ContentCID(&desc); err == nil {
				e.cid = id
			}
		}
		s.finishLocked(e)
	}
	s.mu.Unlock()

	e.pub.Verify(v)
	kind := e.pub.PublicationKind()
	if s.bus != nil {
		s.bus.Publish(event.NewVerificationEvent(kind, v.Success, v.Reason))
	}
	s.logger.WithPublication(kind).Info("challenge verification",
		"publication", e.script.Name, "success", v.Success, "final", v.Final)

	if next >= 0 {
		return s.issue(s.startContext(), e, next)
	}
	return nil
}

func (s *Simulator) onAbandoned(ev event.Event) {
	abandoned, ok := ev.(event.ChallengeAbandonedEvent)
	if !ok {
		return
	}
	pub, ok := abandoned.Publication.(*Publication)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.pub != pub {
			continue
		}
		if !e.finished {
			e.abandoned = true
			s.finishLocked(e)
		}
		return
	}
}

// startContext returns the context Start was called with.
func (s *Simulator) startContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Simulator) finishLocked(e *simEntry) {
	e.finished = true
	s.remaining--
	if s.remaining == 0 {
		close(s.done)
	}
}
