package transport

import (
	"fmt"
	"strings"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/errors"
)

// Request is one challenge round issued by the network for a publication.
type Request struct {
	Questions   []challenge.Question
	Publication challenge.Publication
	// Target is the comment the publication acts on, if any.
	Target any
	// Delivered, if set, is called once the round has been announced.
	Delivered func(*challenge.Announcement)
}

// Announcer accepts challenge rounds. *challenge.Coordinator implements it.
type Announcer interface {
	OnChallenge(questions []challenge.Question, pub challenge.Publication, target any) (*challenge.Announcement, error)
}

// Verification is the network's verdict on submitted challenge answers.
type Verification struct {
	Success bool
	Reason  string
	Errors  []string
	// Final is false when a follow-up round will be issued.
	Final bool
}

// Err returns nil on success, or an error matching errors.ErrVerificationFailed.
func (v Verification) Err() error {
	if v.Success {
		return nil
	}
	reason := v.Reason
	if reason == "" {
		reason = "rejected"
	}
	if len(v.Errors) == 0 {
		return fmt.Errorf("%w: %s", errors.ErrVerificationFailed, reason)
	}
	return fmt.Errorf("%w: %s: %s", errors.ErrVerificationFailed, reason, strings.Join(v.Errors, ", "))
}

// Message is the user-facing status line for the outcome.
func (v Verification) Message() string {
	if err := v.Err(); err != nil {
		return err.Error()
	}
	return "challenge verification succeeded"
}
