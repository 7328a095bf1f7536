// Package event provides a synchronous pub-sub bus for challenge lifecycle
// notifications.
//
// The challenge coordinator publishes an event whenever a round is
// announced, becomes the head, is submitted or is abandoned, and whenever
// the queue depth changes. Presenters and the metrics collector subscribe
// without importing the coordinator.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publishing goroutine; a panicking handler is logged and does not prevent
// delivery to the others. Publishers must not hold their own locks while
// calling Publish.
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - challenge.announced, challenge.head_changed
//   - challenge.submitted, challenge.abandoned
//   - queue.depth_changed
//   - publication.verified
package event
