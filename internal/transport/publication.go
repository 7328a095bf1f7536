package transport

import (
	"slices"
	"sync"

	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/publication"
)

// AnswerSink receives answers submitted for p. It runs on the submitting
// goroutine and may issue a follow-up round before returning.
type AnswerSink func(p *Publication, answers []string) error

// verificationBuffer bounds undelivered outcomes per publication.
const verificationBuffer = 8

// Publication is a publication awaiting challenge verification. It
// implements challenge.KindedPublication.
type Publication struct {
	desc publication.Publication
	sink AnswerSink

	mu            sync.Mutex
	submissions   [][]string
	verifications chan Verification
	closed        bool
}

// NewPublication wraps desc. sink may be nil, in which case answers are only
// recorded.
func NewPublication(desc publication.Publication, sink AnswerSink) *Publication {
	return &Publication{
		desc:          desc,
		sink:          sink,
		verifications: make(chan Verification, verificationBuffer),
	}
}

// PublishChallengeAnswers records answers and forwards them to the sink.
func (p *Publication) PublishChallengeAnswers(answers []string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.ErrPublicationClosed
	}
	p.submissions = append(p.submissions, slices.Clone(answers))
	sink := p.sink
	p.mu.Unlock()

	if sink == nil {
		return nil
	}
	return sink(p, answers)
}

// PublicationKind reports the publication's kind.
func (p *Publication) PublicationKind() string {
	return string(publication.TypeOf(&p.desc))
}

// Descriptor returns a copy of the published content.
func (p *Publication) Descriptor() publication.Publication { return p.desc }

// Submissions returns every answer list received, oldest first.
func (p *Publication) Submissions() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]string, len(p.submissions))
	for i, s := range p.submissions {
		out[i] = slices.Clone(s)
	}
	return out
}

// Verifications delivers verification outcomes. It is closed by Close.
func (p *Publication) Verifications() <-chan Verification { return p.verifications }

// Verify delivers v without blocking. It reports false when the
// publication is closed or the channel is full.
func (p *Publication) Verify(v Verification) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.verifications <- v:
		return true
	default:
		return false
	}
}

// Close rejects further answers and closes the verification channel.
func (p *Publication) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.verifications)
}
