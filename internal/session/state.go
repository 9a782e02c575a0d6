// Package session keeps the per-user conversational state of the front-end.
// The matching core never reads it.
package session

import (
	"slices"
	"time"
)

type State string

const (
	Idle            State = "idle"
	Registering     State = "registering"
	EditingProfile  State = "editing_profile"
	Viewing         State = "viewing"
	WritingMessage  State = "writing_message"
	ConfirmingLikes State = "confirming_likes"
	ViewingLikes    State = "viewing_likes"
	ViewingMatches  State = "viewing_matches"
	Reporting       State = "reporting"
)

// transitions lists the states reachable from each state.
// Every state may also return to Idle.
var transitions = map[State][]State{
	Idle:            {Registering, EditingProfile, Viewing, ConfirmingLikes, ViewingMatches},
	Registering:     {},
	EditingProfile:  {},
	Viewing:         {Viewing, WritingMessage, Reporting},
	WritingMessage:  {Viewing},
	ConfirmingLikes: {ViewingLikes},
	ViewingLikes:    {ViewingLikes, Reporting},
	ViewingMatches:  {Reporting},
	Reporting:       {Viewing, ViewingLikes, ViewingMatches},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if next == Idle {
		return true
	}
	return slices.Contains(transitions[s], next)
}

// Session is the stored value for one user.
type Session struct {
	UserID uint64 `json:"user_id"`
	State  State  `json:"state"`
	// Previous is where Reporting returns to.
	Previous State `json:"previous,omitempty"`
	// CandidateID is the profile currently on screen in Viewing or ViewingLikes.
	CandidateID uint64 `json:"candidate_id,omitempty"`
	// Queue holds pending profile ids, e.g. senders of unseen likes.
	Queue     []uint64  `json:"queue,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fresh returns the idle session of a user without stored state.
func Fresh(userID uint64) Session {
	return Session{UserID: userID, State: Idle}
}
