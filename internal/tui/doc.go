// Package tui renders the challenge modal with Bubble Tea.
//
// The [Model] never owns challenge state. Every key press is forwarded to
// the shared *challenge.Coordinator and the view is re-read from it, so a
// round announced by the transport while the modal is open simply shows
// up in the queue badge. [Listen] bridges coordinator events from the bus
// into the program without blocking the publisher.
package tui
