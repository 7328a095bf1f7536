// Package publication describes the content a user publishes to a
// subplebbit (posts, replies, votes and comment edits) and renders the
// display context shown next to a challenge prompt.
//
// Comments are addressed by IPFS content identifiers; [ValidateCID] and
// [ShortCID] wrap go-cid for the presenter and the fixture loader.
package publication
