// Package events carries outbound notifications for the conversational front-end.
package events

import (
	"context"
	"slices"
	"time"
)

type Type string

const (
	// MatchCreated names both participants.
	MatchCreated Type = "match_created"
	// IncomingInterest names the recipient and carries the fresh inbox count.
	IncomingInterest Type = "incoming_interest"
	// UserBanned names the banned profile.
	UserBanned Type = "user_banned"
)

// Event is one notification. UserIDs holds every profile it concerns.
type Event struct {
	Type    Type      `json:"type"`
	UserIDs []uint64  `json:"user_ids"`
	Count   int64     `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

// Involves reports whether userID is one of the event's subjects.
func (e Event) Involves(userID uint64) bool {
	return slices.Contains(e.UserIDs, userID)
}

// Publisher delivers events to whoever listens.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
