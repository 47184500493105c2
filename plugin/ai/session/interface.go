// Package session holds per-conversation dispatcher state.
package session

import (
	"context"
	"time"
)

// SessionService loads and saves conversation state.
type SessionService interface {
	// Load returns the state for sessionID, or a fresh state if none exists.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Save stores the state under its SessionID.
	Save(ctx context.Context, state *State) error

	// Delete drops the state for sessionID.
	Delete(ctx context.Context, sessionID string) error
}

// PendingSuggestion is a proposed meeting awaiting the user's yes or no.
type PendingSuggestion struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	CreatedAt time.Time `json:"created_at"`
}

// Duration returns End - Start.
func (p PendingSuggestion) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// State is the dispatcher's per-session register. A nil Pending means the
// session is idle; otherwise it is awaiting confirmation.
type State struct {
	SessionID string             `json:"session_id"`
	Pending   *PendingSuggestion `json:"pending,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewState returns an idle state.
func NewState(sessionID string) *State {
	return &State{SessionID: sessionID}
}

// AwaitingConfirmation reports whether a suggestion is pending.
func (s *State) AwaitingConfirmation() bool {
	return s != nil && s.Pending != nil
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return &out
}
