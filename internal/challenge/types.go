package challenge

import (
	"slices"
	"time"
)

// Well-known question kinds. The coordinator never interprets them; they
// are a hint for presenters.
const (
	KindImagePNG = "image/png"
	KindText     = "text/plain"
)

// Question is one prompt within a challenge round.
type Question struct {
	Kind    string `yaml:"type" json:"type"`
	Payload string `yaml:"challenge" json:"challenge"`
}

// Publication is the capability a pending publication exposes to the
// coordinator. Delivery is fire-and-forget: verification arrives later
// through a channel owned by the publication.
type Publication interface {
	PublishChallengeAnswers(answers []string) error
}

// KindedPublication is implemented by publications that can report their
// kind (post, reply, vote, edit) for logging and metrics.
type KindedPublication interface {
	Publication
	PublicationKind() string
}

// UnknownKind is reported for publications that do not implement KindedPublication.
const UnknownKind = "unknown"

// KindOf returns the publication kind, or UnknownKind.
func KindOf(p Publication) string {
	if k, ok := p.(KindedPublication); ok {
		if kind := k.PublicationKind(); kind != "" {
			return kind
		}
	}
	return UnknownKind
}

// Announcement describes one challenge round for one publication attempt.
// It is immutable once created.
type Announcement struct {
	id          string
	questions   []Question
	publication Publication
	target      any
	receivedAt  time.Time
}

// ID returns the round identifier. It is unique per round, not per publication.
func (a *Announcement) ID() string { return a.id }

// Len returns the number of questions, always at least one.
func (a *Announcement) Len() int { return len(a.questions) }

// Question returns the question at index i.
func (a *Announcement) Question(i int) Question { return a.questions[i] }

// Questions returns a copy of the ordered questions.
func (a *Announcement) Questions() []Question { return slices.Clone(a.questions) }

// Publication returns the pending publication handle.
func (a *Announcement) Publication() Publication { return a.publication }

// Target returns the content being acted on (the comment voted on, replied
// to or edited). It is display context only; nil for top-level posts.
func (a *Announcement) Target() any { return a.target }

// ReceivedAt returns when the round was announced.
func (a *Announcement) ReceivedAt() time.Time { return a.receivedAt }

// PublicationKind is shorthand for KindOf(a.Publication()).
func (a *Announcement) PublicationKind() string { return KindOf(a.publication) }
