package db

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	// GenderAny is only valid as a preference (LookingFor).
	GenderAny Gender = "any"
)

// Expand returns the concrete genders a preference accepts.
func (g Gender) Expand() []Gender {
	if g == GenderAny {
		return []Gender{GenderMale, GenderFemale}
	}
	return []Gender{g}
}

// Accepts reports whether preference g admits the concrete gender other.
func (g Gender) Accepts(other Gender) bool {
	return g == GenderAny || g == other
}

// Affiliation scopes the candidate pool (e.g. a university).
type Affiliation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"uniqueIndex;size:255;not null"`
	ShortName string    `gorm:"size:50;not null"`
	City      string    `gorm:"size:100"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Profile is one person's dating presence. Rows are never hard-deleted.
//
// Indexes:
//   - idx_profiles_pool(affiliation_id, banned, active, searchable, last_active)
//     Serves the candidate selection scan ordered by last_active.
//   - ExternalID unique: one profile per chat identity.
type Profile struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement"`
	ExternalID    int64   `gorm:"uniqueIndex;not null"`
	Username      *string `gorm:"size:64"`
	Name          string  `gorm:"size:100;not null"`
	Age           int     `gorm:"not null"`
	Gender        Gender  `gorm:"size:10;not null"`
	LookingFor    Gender  `gorm:"size:10;not null"`
	Bio           string  `gorm:"type:text"`
	AffiliationID uint64  `gorm:"not null;index:idx_profiles_pool,priority:1"`
	MediaRef      *string `gorm:"size:255"`

	Active      bool `gorm:"not null;default:true;index:idx_profiles_pool,priority:3"`
	Banned      bool `gorm:"not null;default:false;index:idx_profiles_pool,priority:2"`
	Registered  bool `gorm:"not null;default:false"`
	Searchable  bool `gorm:"not null;default:true;index:idx_profiles_pool,priority:4"`
	Synthetic   bool `gorm:"not null;default:false"`
	Spotlighted bool `gorm:"not null;default:false"`

	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
	LastActive time.Time `gorm:"not null;index:idx_profiles_pool,priority:5,sort:desc"`
}

// Interest is one directional like/dislike. The ledger is append-only:
// the same ordered pair may hold many rows over time.
//
// Indexes:
//   - idx_interest_pair(from_id, to_id, positive, id) for reciprocation checks.
//   - idx_interest_inbox(to_id, positive, id) for incoming lists.
type Interest struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement;index:idx_interest_pair,priority:4;index:idx_interest_inbox,priority:3"`
	FromID    uint64    `gorm:"not null;index:idx_interest_pair,priority:1"`
	ToID      uint64    `gorm:"not null;index:idx_interest_pair,priority:2;index:idx_interest_inbox,priority:1"`
	Positive  bool      `gorm:"not null;index:idx_interest_pair,priority:3;index:idx_interest_inbox,priority:2"`
	Message   *string   `gorm:"size:200"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match is a confirmed mutual interest stored once per unordered pair.
// UserLowID < UserHighID always; the unique index on the pair is the only
// guard against duplicate matches under concurrent writers.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserLowID  uint64    `gorm:"not null;uniqueIndex:ux_match_pair,priority:1"`
	UserHighID uint64    `gorm:"not null;uniqueIndex:ux_match_pair,priority:2;index"`
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// PartnerOf returns the other participant.
func (m Match) PartnerOf(userID uint64) uint64 {
	if m.UserLowID == userID {
		return m.UserHighID
	}
	return m.UserLowID
}

// ViewedMark records that a viewer reacted to a shown profile.
type ViewedMark struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ViewerID  uint64    `gorm:"not null;uniqueIndex:ux_viewed_pair,priority:1"`
	ViewedID  uint64    `gorm:"not null;uniqueIndex:ux_viewed_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportRejected ReportStatus = "rejected"
)

// Report is a user complaint awaiting operator review.
type Report struct {
	ID           uint64       `gorm:"primaryKey;autoIncrement"`
	FromID       uint64       `gorm:"not null;index"`
	ToID         uint64       `gorm:"not null;index"`
	Reason       string       `gorm:"size:50;not null"`
	Comment      *string      `gorm:"type:text"`
	Status       ReportStatus `gorm:"size:20;not null;default:pending;index"`
	AdminComment *string      `gorm:"type:text"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
	ReviewedAt   *time.Time
}

// Models lists every table in migration order.
func Models() []any {
	return []any{&Affiliation{}, &Profile{}, &Interest{}, &Match{}, &ViewedMark{}, &Report{}}
}
