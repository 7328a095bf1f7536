// Package errors provides centralized error definitions and error handling utilities
// for the challenge coordinator. It defines domain-specific errors, semantic error
// types, error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - ChallengeError: a walkthrough or coordinator operation was rejected
//   - TransportError: a publication failed to deliver challenge answers
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input (e.g. an announcement without questions)
//
// # Usage
//
//	err := errors.NewChallengeError("advance", errors.ErrNoNextQuestion).
//		WithAnnouncementID(id).
//		WithStep(2, 3)
//
//	if errors.IsPrecondition(err) {
//	    // presenter bug: the operation was not valid in the current state
//	}
//
// # Error Classification
//
// Precondition violations are programming errors in the presenter and are
// never user-facing. Transport errors are reported but never retried by the
// coordinator; abandonment is not an error at all.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// ErrPrecondition is the root of every walkthrough precondition violation.
// Every more specific walkthrough sentinel below matches it via errors.Is.
var ErrPrecondition = New("precondition violated")

// Walkthrough sentinel errors
var (
	// ErrNotActive indicates the walkthrough has left the active state.
	ErrNotActive = precondition("walkthrough is not active")
	// ErrIndexAhead indicates an answer was recorded past the current question.
	ErrIndexAhead = precondition("answer index is ahead of the current question")
	// ErrIndexOutOfRange indicates an answer index outside the question list.
	ErrIndexOutOfRange = precondition("answer index out of range")
	// ErrNoNextQuestion indicates advance was called on the last question.
	ErrNoNextQuestion = precondition("no next question")
	// ErrNoPreviousQuestion indicates retreat was called on the first question.
	ErrNoPreviousQuestion = precondition("no previous question")
	// ErrNotAtLastQuestion indicates submit was called before the last question.
	ErrNotAtLastQuestion = precondition("not at the last question")
	// ErrStaleWalkthrough indicates the walkthrough's announcement is no longer the head.
	ErrStaleWalkthrough = precondition("walkthrough is not bound to the current head")
)

// Coordinator sentinel errors
var (
	// ErrNoActiveChallenge indicates an operation was attempted with an empty queue.
	ErrNoActiveChallenge = precondition("no active challenge")
	// ErrInvalidAnnouncement indicates OnChallenge received unusable input.
	ErrInvalidAnnouncement = New("invalid challenge announcement")
	// ErrCoordinatorClosed indicates the coordinator was shut down.
	ErrCoordinatorClosed = New("coordinator closed")
)

// Transport sentinel errors
var (
	// ErrTransport indicates the publication failed to accept challenge answers.
	ErrTransport = New("challenge answer delivery failed")
	// ErrVerificationFailed indicates the network rejected a challenge answer.
	ErrVerificationFailed = New("challenge verification failed")
	// ErrPublicationClosed indicates the publication no longer accepts traffic.
	ErrPublicationClosed = New("publication closed")
)

// preconditionError lets specific sentinels match ErrPrecondition.
type preconditionError struct {
	msg string
}

func precondition(msg string) error {
	return &preconditionError{msg: msg}
}

func (e *preconditionError) Error() string { return e.msg }

func (e *preconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CoordinatorError is the base interface for all errors produced by this module.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CoordinatorError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ChallengeError represents a rejected walkthrough or coordinator operation.
//
// Example:
//
//	err := errors.NewChallengeError("submit", errors.ErrNotAtLastQuestion)
//	err = err.WithAnnouncementID("3f2a").WithStep(0, 2)
//	fmt.Println(err) // "challenge error [announcement=3f2a, step=1/2]: submit: not at the last question"
type ChallengeError struct {
	baseError
	Operation      string
	AnnouncementID string
	Index          int
	Total          int
}

// NewChallengeError creates a new ChallengeError for the named operation.
// Precondition violations are critical: they indicate a presenter bug.
func NewChallengeError(operation string, cause error) *ChallengeError {
	severity := SeverityError
	if Is(cause, ErrPrecondition) {
		severity = SeverityCritical
	}
	return &ChallengeError{
		baseError: baseError{
			message:    operation,
			cause:      cause,
			severity:   severity,
			userFacing: false,
		},
		Operation: operation,
		Index:     -1,
	}
}

// WithAnnouncementID adds an announcement ID to the error context.
func (e *ChallengeError) WithAnnouncementID(id string) *ChallengeError {
	e.AnnouncementID = id
	return e
}

// WithStep records the zero-based question index and the question count.
func (e *ChallengeError) WithStep(index, total int) *ChallengeError {
	e.Index = index
	e.Total = total
	return e
}

// Error returns the formatted error message.
func (e *ChallengeError) Error() string {
	var parts []string
	if e.AnnouncementID != "" {
		parts = append(parts, fmt.Sprintf("announcement=%s", e.AnnouncementID))
	}
	if e.Index >= 0 && e.Total > 0 {
		parts = append(parts, fmt.Sprintf("step=%d/%d", e.Index+1, e.Total))
	}

	prefix := "challenge error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("challenge error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// TransportError represents a failure reported by a publication while
// delivering challenge answers or verification outcomes.
//
// Example:
//
//	err := errors.NewTransportError("publish challenge answers", io.ErrClosedPipe).
//		WithPublication("reply")
type TransportError struct {
	baseError
	PublicationKind string
}

// NewTransportError creates a new TransportError. The cause is joined with
// ErrTransport so callers can match either.
func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{
		baseError: baseError{
			message:    message,
			cause:      Join(ErrTransport, cause),
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithPublication adds the publication kind to the error context.
func (e *TransportError) WithPublication(kind string) *TransportError {
	e.PublicationKind = kind
	return e
}

// Error returns the formatted error message.
func (e *TransportError) Error() string {
	prefix := "transport error"
	if e.PublicationKind != "" {
		prefix = fmt.Sprintf("transport error [publication=%s]", e.PublicationKind)
	}
	cause := e.cause
	if joined, ok := cause.(interface{ Unwrap() []error }); ok {
		// Skip the ErrTransport marker when printing.
		if errs := joined.Unwrap(); len(errs) == 2 && errs[1] != nil {
			cause = errs[1]
		} else {
			cause = nil
		}
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input.
//
// Example:
//
//	err := errors.NewValidationError("at least one question is required").
//		WithField("questions").WithValue(0)
type ValidationError struct {
	Message string
	Field   string
	Value   any
	cause   error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField adds the invalid field name.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds an underlying cause.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error")
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", e.Field))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Value != nil {
		sb.WriteString(fmt.Sprintf(" (got: %v)", e.Value))
	}
	if e.cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.cause))
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsPrecondition returns true for walkthrough and coordinator precondition
// violations, which are programming errors in the caller.
func IsPrecondition(err error) bool {
	return err != nil && Is(err, ErrPrecondition)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var coordErr CoordinatorError
	if As(err, &coordErr) {
		return coordErr.IsUserFacing()
	}
	var validation *ValidationError
	return As(err, &validation) || Is(err, ErrVerificationFailed)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CoordinatorError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var coordErr CoordinatorError
	if As(err, &coordErr) {
		return coordErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
