package challenge

import (
	"fmt"
	"slices"
	"time"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/event"
	"github.com/seedit/seedit-challenge/internal/logging"
)

// Status is the lifecycle state of a Walkthrough.
type Status int

const (
	// StatusActive accepts answers and navigation.
	StatusActive Status = iota
	// StatusSubmitting is held while answers are handed to the publication.
	StatusSubmitting
	// StatusResolved is terminal: answers were delivered.
	StatusResolved
	// StatusAbandoned is terminal: the user declined to answer.
	StatusAbandoned
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSubmitting:
		return "submitting"
	case StatusResolved:
		return "resolved"
	case StatusAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusAbandoned
}

// Walkthrough is the stepwise answer collection for the head announcement.
//
// A Walkthrough is created by its Coordinator whenever a new announcement
// becomes head, and every method is serialized behind the coordinator's
// mutex. Operations whose preconditions do not hold return an error
// matching errors.ErrPrecondition and leave the state untouched.
type Walkthrough struct {
	coord        *Coordinator
	announcement *Announcement
	current      int
	answers      []string // grows as answers are recorded; never longer than the highest visited index + 1
	status       Status
	boundAt      time.Time
}

func newWalkthrough(c *Coordinator, a *Announcement) *Walkthrough {
	return &Walkthrough{
		coord:        c,
		announcement: a,
		answers:      []string{},
		status:       StatusActive,
		boundAt:      c.now(),
	}
}

// Announcement returns the announcement this walkthrough is bound to.
func (w *Walkthrough) Announcement() *Announcement { return w.announcement }

// Total returns the number of questions.
func (w *Walkthrough) Total() int { return w.announcement.Len() }

// CurrentIndex returns the zero-based index of the question being answered.
func (w *Walkthrough) CurrentIndex() int {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return w.current
}

// CurrentQuestion returns the question being answered.
func (w *Walkthrough) CurrentQuestion() Question {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return w.announcement.Question(w.current)
}

// Status returns the lifecycle state.
func (w *Walkthrough) Status() Status {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return w.status
}

// Answers returns a copy of the answers recorded so far.
func (w *Walkthrough) Answers() []string {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return slices.Clone(w.answers)
}

// Answer returns the answer recorded at index i, or "" when none was.
func (w *Walkthrough) Answer(i int) string {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	if i < 0 || i >= len(w.answers) {
		return ""
	}
	return w.answers[i]
}

// HasNext reports whether a question follows the current one.
func (w *Walkthrough) HasNext() bool {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return w.current+1 < w.announcement.Len()
}

// HasPrevious reports whether a question precedes the current one.
func (w *Walkthrough) HasPrevious() bool {
	w.coord.mu.Lock()
	defer w.coord.mu.Unlock()
	return w.current > 0
}

// RecordAnswer sets the answer at index, which must not be ahead of the
// current question.
func (w *Walkthrough) RecordAnswer(index int, value string) error {
	w.coord.mu.Lock()
	err := w.recordAnswerLocked(index, value)
	w.coord.mu.Unlock()
	return err
}

// Advance moves to the next question.
func (w *Walkthrough) Advance() error {
	w.coord.mu.Lock()
	err := w.advanceLocked()
	w.coord.mu.Unlock()
	return err
}

// Retreat moves to the previous question. The answer at the index being
// left is kept.
func (w *Walkthrough) Retreat() error {
	w.coord.mu.Lock()
	err := w.retreatLocked()
	w.coord.mu.Unlock()
	return err
}

// Submit hands the full ordered answer list to the publication and removes
// the announcement from the queue. It is valid only on the last question.
//
// The returned slice always has one entry per question; unanswered slots
// are empty strings. A delivery failure is returned as a *errors.TransportError
// but the walkthrough still resolves: a retry must arrive as a new round.
func (w *Walkthrough) Submit() error {
	c := w.coord
	c.mu.Lock()
	answers, err := w.beginSubmitLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	// Delivery runs unlocked so a publication may announce its next round
	// synchronously.
	deliveryErr := deliver(w.announcement.publication, answers)

	if deliveryErr != nil {
		err = errors.NewTransportError("publish challenge answers", deliveryErr).
			WithPublication(w.announcement.PublicationKind())
	}

	c.mu.Lock()
	w.finishSubmitLocked(len(answers), err)
	c.unlockAndFlush()
	return err
}

// Abandon drops the announcement without publishing any answers.
func (w *Walkthrough) Abandon() error {
	c := w.coord
	c.mu.Lock()
	err := w.abandonLocked()
	c.unlockAndFlush()
	return err
}

// AdvanceOrSubmit advances when a next question exists and submits
// otherwise. It backs the Enter key.
func (w *Walkthrough) AdvanceOrSubmit() error {
	c := w.coord
	c.mu.Lock()
	if err := w.checkActiveLocked("advance or submit"); err != nil {
		c.mu.Unlock()
		return err
	}
	if w.current+1 < w.announcement.Len() {
		err := w.advanceLocked()
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	return w.Submit()
}

// -----------------------------------------------------------------------------
// Locked transitions; callers hold coord.mu
// -----------------------------------------------------------------------------

func (w *Walkthrough) recordAnswerLocked(index int, value string) error {
	if err := w.checkActiveLocked("record answer"); err != nil {
		return err
	}
	if index < 0 || index >= w.announcement.Len() {
		return w.failLocked("record answer", errors.ErrIndexOutOfRange)
	}
	if index > w.current {
		return w.failLocked("record answer", errors.ErrIndexAhead)
	}
	for len(w.answers) <= index {
		w.answers = append(w.answers, "")
	}
	w.answers[index] = value
	return nil
}

func (w *Walkthrough) advanceLocked() error {
	if err := w.checkActiveLocked("advance"); err != nil {
		return err
	}
	if w.current+1 >= w.announcement.Len() {
		return w.failLocked("advance", errors.ErrNoNextQuestion)
	}
	w.current++
	return nil
}

func (w *Walkthrough) retreatLocked() error {
	if err := w.checkActiveLocked("retreat"); err != nil {
		return err
	}
	if w.current == 0 {
		return w.failLocked("retreat", errors.ErrNoPreviousQuestion)
	}
	w.current--
	return nil
}

func (w *Walkthrough) beginSubmitLocked() ([]string, error) {
	if err := w.checkActiveLocked("submit"); err != nil {
		return nil, err
	}
	if w.current != w.announcement.Len()-1 {
		return nil, w.failLocked("submit", errors.ErrNotAtLastQuestion)
	}
	w.status = StatusSubmitting

	answers := make([]string, w.announcement.Len())
	copy(answers, w.answers)
	return answers, nil
}

func (w *Walkthrough) finishSubmitLocked(count int, deliveryErr error) {
	c := w.coord
	w.status = StatusResolved

	kind := w.announcement.PublicationKind()
	logger := c.logger.WithAnnouncement(w.announcement.id).WithPublication(kind)
	errMsg := ""
	if deliveryErr != nil {
		errMsg = deliveryErr.Error()
		logFailure(logger, deliveryErr, "challenge answer delivery failed")
	} else {
		logger.Info("challenge answers submitted", "answers", count)
	}

	c.emitLocked(event.NewChallengeSubmittedEvent(w.announcement.id, kind, count, c.now().Sub(w.boundAt), errMsg))
	c.removeHeadLocked(w)
}

func (w *Walkthrough) abandonLocked() error {
	if err := w.checkActiveLocked("abandon"); err != nil {
		return err
	}
	c := w.coord
	w.status = StatusAbandoned

	kind := w.announcement.PublicationKind()
	c.logger.WithAnnouncement(w.announcement.id).WithPublication(kind).
		Info("challenge abandoned", "step", w.current+1, "total", w.announcement.Len())
	c.emitLocked(event.NewChallengeAbandonedEvent(w.announcement.id, kind, w.announcement.publication, c.now().Sub(w.boundAt)))
	c.removeHeadLocked(w)
	return nil
}

func (w *Walkthrough) checkActiveLocked(op string) error {
	if w.status != StatusActive {
		return w.failLocked(op, errors.ErrNotActive)
	}
	if w.coord.current != w {
		return w.failLocked(op, errors.ErrStaleWalkthrough)
	}
	return nil
}

func (w *Walkthrough) failLocked(op string, cause error) error {
	err := errors.NewChallengeError(op, cause).
		WithAnnouncementID(w.announcement.id).
		WithStep(w.current, w.announcement.Len())
	logFailure(w.coord.logger.WithAnnouncement(w.announcement.id), err,
		"challenge precondition violated", "operation", op, "status", w.status.String())
	return err
}

// logFailure logs err at the level its severity maps to.
func logFailure(logger *logging.Logger, err error, msg string, args ...any) {
	severity := errors.GetSeverity(err)
	args = append(args, "error", err.Error(), "severity", severity.String())
	switch severity {
	case errors.SeverityCritical, errors.SeverityError:
		logger.Error(msg, args...)
	case errors.SeverityWarning:
		logger.Warn(msg, args...)
	case errors.SeverityInfo:
		logger.Info(msg, args...)
	default:
		logger.Debug(msg, args...)
	}
}

// deliver calls PublishChallengeAnswers, converting a panic into an error
// so the walkthrough always reaches a terminal state.
func deliver(p Publication, answers []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publication panicked: %v", r)
		}
	}()
	return p.PublishChallengeAnswers(answers)
}
