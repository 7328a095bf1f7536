// Package challenge coordinates anti-spam challenge rounds for pending
// publications.
//
// A publication (post, reply, vote or comment edit) handed to the network
// may receive zero or more challenge rounds before it is verified. Each
// round arrives through [Coordinator.OnChallenge] and becomes an
// [Announcement] at the tail of a FIFO [Queue]. Only the head is ever
// presented; it is bound to a fresh [Walkthrough] that tracks the question
// being answered and the answers collected so far.
//
// # Walkthrough States
//
//	active ──submit──▶ submitting ──▶ resolved
//	   │
//	   └──abandon──▶ abandoned
//
// Submitting hands the full ordered answer list to
// [Publication.PublishChallengeAnswers] and dequeues the head. Abandoning
// dequeues without contacting the network. Verification outcomes are
// delivered to the publication's own channel and never pass through this
// package.
//
// # Errors
//
// Calling an operation whose precondition does not hold (submitting before
// the last question, advancing past the end, acting on a walkthrough whose
// round already left the queue) returns an error matching
// errors.ErrPrecondition. Such calls never modify state.
//
// # Thread Safety
//
// [Coordinator] and [Walkthrough] are safe for concurrent use; all
// mutations are serialized behind the coordinator's mutex. [Queue] alone is
// not synchronized.
package challenge
