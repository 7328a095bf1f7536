// Package transport carries challenge rounds between the network and the
// challenge coordinator.
//
// An [Inbox] is the single inbound channel of challenge requests; [Inbox.Run]
// drains it into a coordinator in arrival order. Each [Publication] owns an
// outbound channel of [Verification] outcomes that presenters may watch.
//
// There is no network client here. The [Simulator] replays a YAML scenario
// instead: it issues rounds, checks submitted answers and reports
// verification, issuing follow-up rounds when a scenario asks for them.
package transport
