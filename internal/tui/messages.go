package tui

import "github.com/seedit/seedit-challenge/internal/transport"

// RefreshMsg asks the model to re-read coordinator state.
type RefreshMsg struct{}

// VerificationMsg carries a verification outcome for a submitted round.
type VerificationMsg struct {
	Kind         string
	Verification transport.Verification
}

// DoneMsg ends the program once no more challenges will arrive.
type DoneMsg struct{}
