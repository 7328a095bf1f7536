package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "challenge.announced").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeChallengeAnnounced  = "challenge.announced"
	TypeChallengeHeadChange = "challenge.head_changed"
	TypeChallengeSubmitted  = "challenge.submitted"
	TypeChallengeAbandoned  = "challenge.abandoned"
	TypeQueueDepthChanged   = "queue.depth_changed"
	TypeVerification        = "publication.verified"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Challenge Lifecycle Events
// -----------------------------------------------------------------------------

// ChallengeAnnouncedEvent is emitted when a challenge round is appended to the queue.
type ChallengeAnnouncedEvent struct {
	baseEvent
	AnnouncementID  string
	PublicationKind string
	QuestionCount   int
	Position        int // 1-based position in the queue at arrival
}

// NewChallengeAnnouncedEvent creates a ChallengeAnnouncedEvent.
func NewChallengeAnnouncedEvent(announcementID, kind string, questions, position int) ChallengeAnnouncedEvent {
	return ChallengeAnnouncedEvent{
		baseEvent:       newBaseEvent(TypeChallengeAnnounced),
		AnnouncementID:  announcementID,
		PublicationKind: kind,
		QuestionCount:   questions,
		Position:        position,
	}
}

// HeadChangedEvent is emitted when a different announcement becomes the head,
// or when the queue drains (AnnouncementID empty).
type HeadChangedEvent struct {
	baseEvent
	AnnouncementID string
}

// NewHeadChangedEvent creates a HeadChangedEvent.
func NewHeadChangedEvent(announcementID string) HeadChangedEvent {
	return HeadChangedEvent{
		baseEvent:      newBaseEvent(TypeChallengeHeadChange),
		AnnouncementID: announcementID,
	}
}

// ChallengeSubmittedEvent is emitted after answers were handed to the publication.
type ChallengeSubmittedEvent struct {
	baseEvent
	AnnouncementID  string
	PublicationKind string
	AnswerCount     int
	Duration        time.Duration // Time the round spent at the head
	Error           string        // Transport error message, if delivery failed
}

// NewChallengeSubmittedEvent creates a ChallengeSubmittedEvent.
func NewChallengeSubmittedEvent(announcementID, kind string, answers int, duration time.Duration, errMsg string) ChallengeSubmittedEvent {
	return ChallengeSubmittedEvent{
		baseEvent:       newBaseEvent(TypeChallengeSubmitted),
		AnnouncementID:  announcementID,
		PublicationKind: kind,
		AnswerCount:     answers,
		Duration:        duration,
		Error:           errMsg,
	}
}

// ChallengeAbandonedEvent is emitted when the user drops a challenge.
// Publication is the round's publication handle.
type ChallengeAbandonedEvent struct {
	baseEvent
	AnnouncementID  string
	PublicationKind string
	Publication     any
	Duration        time.Duration
}

// NewChallengeAbandonedEvent creates a ChallengeAbandonedEvent.
func NewChallengeAbandonedEvent(announcementID, kind string, publication any, duration time.Duration) ChallengeAbandonedEvent {
	return ChallengeAbandonedEvent{
		baseEvent:       newBaseEvent(TypeChallengeAbandoned),
		AnnouncementID:  announcementID,
		PublicationKind: kind,
		Publication:     publication,
		Duration:        duration,
	}
}

// QueueDepthChangedEvent is emitted whenever the number of pending rounds changes.
type QueueDepthChangedEvent struct {
	baseEvent
	Depth int
}

// NewQueueDepthChangedEvent creates a QueueDepthChangedEvent.
func NewQueueDepthChangedEvent(depth int) QueueDepthChangedEvent {
	return QueueDepthChangedEvent{
		baseEvent: newBaseEvent(TypeQueueDepthChanged),
		Depth:     depth,
	}
}

// -----------------------------------------------------------------------------
// Verification Events
// -----------------------------------------------------------------------------

// VerificationEvent mirrors a verification outcome observed on a
// publication's own channel. The coordinator never consumes it.
type VerificationEvent struct {
	baseEvent
	PublicationKind string
	Success         bool
	Reason          string
}

// NewVerificationEvent creates a VerificationEvent.
func NewVerificationEvent(kind string, success bool, reason string) VerificationEvent {
	return VerificationEvent{
		baseEvent:       newBaseEvent(TypeVerification),
		PublicationKind: kind,
		Success:         success,
		Reason:          reason,
	}
}
