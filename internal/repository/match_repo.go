package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// MatchRepository stores one row per unordered pair in canonical order.
// The unique index ux_match_pair is the only guard against duplicate matches.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a copy bound to tx.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CreateIfAbsent inserts an active match for {a, b} unless the pair already has a row.
//
// Behavior:
//   - The pair is normalized (lower id first) before touching storage.
//   - INSERT ... ON CONFLICT DO NOTHING; created is true only when this call inserted.
//   - A duplicate-key error from a racing writer is treated like a conflict.
//   - The stored row is always re-read, so callers get the winner's row.
//   - race is true when the duplicate-key path was taken.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b uint64) (m *db.Match, created, race bool, err error) {
	if a == b {
		return nil, false, false, svcErr.InvalidState("profile %d cannot match itself", a)
	}
	low, high := canonicalPair(a, b)

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Match{UserLowID: low, UserHighID: high, Active: true})
	switch {
	case res.Error == nil:
		created = res.RowsAffected == 1
	case errors.Is(res.Error, gorm.ErrDuplicatedKey):
		race = true
	default:
		return nil, false, false, res.Error
	}

	m, err = r.GetByPair(ctx, low, high)
	if err != nil {
		return nil, false, race, err
	}
	return m, created, race, nil
}

// Reactivate flips an inactive match back to active.
// Exactly one concurrent caller gets true.
func (r *MatchRepository) Reactivate(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND active = ?", id, false).
		Update("active", true)
	return res.RowsAffected == 1, res.Error
}

// Deactivate ends the active match between a and b. ok is false when there was none.
func (r *MatchRepository) Deactivate(ctx context.Context, a, b uint64) (bool, error) {
	low, high := canonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_low_id = ? AND user_high_id = ? AND active = ?", low, high, true).
		Update("active", false)
	return res.RowsAffected == 1, res.Error
}

// GetByPair loads the match row of {a, b} regardless of its active flag.
func (r *MatchRepository) GetByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	low, high := canonicalPair(a, b)
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "match %d-%d", low, high)
	}
	return &m, nil
}

// ListActiveFor returns the user's active matches, newest first.
func (r *MatchRepository) ListActiveFor(ctx context.Context, userID uint64) ([]db.Match, error) {
	var out []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_low_id = ? OR user_high_id = ?) AND active = ?", userID, userID, true).
		Order("updated_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ActiveBetween loads the active match of {a, b} when neither side is banned.
// ok is false when there is no such match.
func (r *MatchRepository) ActiveBetween(ctx context.Context, a, b uint64) (*db.Match, bool, error) {
	low, high := canonicalPair(a, b)
	var rows []db.Match
	err := r.db.WithContext(ctx).
		Table("matches m").
		Select("m.*").
		Joins("JOIN profiles lo ON lo.id = m.user_low_id AND lo.banned = ?", false).
		Joins("JOIN profiles hi ON hi.id = m.user_high_id AND hi.banned = ?", false).
		Where("m.user_low_id = ? AND m.user_high_id = ? AND m.active = ?", low, high, true).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return &rows[0], true, nil
}
