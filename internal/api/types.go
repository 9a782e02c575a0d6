package api

import (
	"time"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/matching"
)

type Profile struct {
	ID            uint64    `json:"id"`
	ExternalID    int64     `json:"external_id"`
	Username      *string   `json:"username,omitempty"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	LookingFor    string    `json:"looking_for"`
	Bio           string    `json:"bio"`
	AffiliationID uint64    `json:"affiliation_id"`
	MediaRef      *string   `json:"media_ref,omitempty"`
	Active        bool      `json:"active"`
	Banned        bool      `json:"banned"`
	Registered    bool      `json:"registered"`
	Searchable    bool      `json:"searchable"`
	Synthetic     bool      `json:"synthetic"`
	Spotlighted   bool      `json:"spotlighted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastActive    time.Time `json:"last_active"`
}

func FromProfile(p *db.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:            p.ID,
		ExternalID:    p.ExternalID,
		Username:      p.Username,
		Name:          p.Name,
		Age:           p.Age,
		Gender:        string(p.Gender),
		LookingFor:    string(p.LookingFor),
		Bio:           p.Bio,
		AffiliationID: p.AffiliationID,
		MediaRef:      p.MediaRef,
		Active:        p.Active,
		Banned:        p.Banned,
		Registered:    p.Registered,
		Searchable:    p.Searchable,
		Synthetic:     p.Synthetic,
		Spotlighted:   p.Spotlighted,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		LastActive:    p.LastActive,
	}
}

type Affiliation struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	City      string `json:"city,omitempty"`
	Active    bool   `json:"active"`
}

func FromAffiliation(a *db.Affiliation) *Affiliation {
	return &Affiliation{ID: a.ID, Name: a.Name, ShortName: a.ShortName, City: a.City, Active: a.Active}
}

type Interest struct {
	ID        uint64    `json:"id"`
	FromID    uint64    `json:"from_id"`
	ToID      uint64    `json:"to_id"`
	Positive  bool      `json:"positive"`
	Message   *string   `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromInterest(i *db.Interest) *Interest {
	if i == nil {
		return nil
	}
	return &Interest{ID: i.ID, FromID: i.FromID, ToID: i.ToID, Positive: i.Positive, Message: i.Message, CreatedAt: i.CreatedAt}
}

type Match struct {
	ID         uint64    `json:"id"`
	UserLowID  uint64    `json:"user_low_id"`
	UserHighID uint64    `json:"user_high_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	// PartnerID is set when the match is listed for one participant.
	PartnerID uint64 `json:"partner_id,omitempty"`
}

func FromMatch(m *db.Match) *Match {
	if m == nil {
		return nil
	}
	return &Match{ID: m.ID, UserLowID: m.UserLowID, UserHighID: m.UserHighID, Active: m.Active, CreatedAt: m.CreatedAt}
}

type MatchResult struct {
	Matched bool   `json:"matched"`
	Created bool   `json:"created"`
	Match   *Match `json:"match,omitempty"`
}

func FromMatchResult(r matching.MatchResult) MatchResult {
	return MatchResult{Matched: r.Matched, Created: r.Created, Match: FromMatch(r.Match)}
}

type Report struct {
	ID           uint64     `json:"id"`
	FromID       uint64     `json:"from_id"`
	ToID         uint64     `json:"to_id"`
	Reason       string     `json:"reason"`
	Comment      *string    `json:"comment,omitempty"`
	Status       string     `json:"status"`
	AdminComment *string    `json:"admin_comment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

func FromReport(r *db.Report) *Report {
	return &Report{
		ID:           r.ID,
		FromID:       r.FromID,
		ToID:         r.ToID,
		Reason:       r.Reason,
		Comment:      r.Comment,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		CreatedAt:    r.CreatedAt,
		ReviewedAt:   r.ReviewedAt,
	}
}

type Event struct {
	Type    string    `json:"type"`
	UserIDs []uint64  `json:"user_ids"`
	Count   int64     `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

func FromEvent(e events.Event) *Event {
	return &Event{Type: string(e.Type), UserIDs: e.UserIDs, Count: e.Count, At: e.At}
}

// UserRequest addresses a single profile.
type UserRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

// PairRequest addresses two profiles. Self-pairs are rejected downstream.
type PairRequest struct {
	UserID  uint64 `json:"user_id" validate:"required"`
	OtherID uint64 `json:"other_id" validate:"required"`
}
