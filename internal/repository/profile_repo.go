package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// ProfileRepository provides data access for Profile rows.
// Profiles are never hard-deleted; every mutation is a column update.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Create inserts a profile. A second profile for the same external chat id
// yields an AlreadyExists error.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return svcErr.Exists("profile for chat %d", p.ExternalID)
	}
	return err
}

func (r *ProfileRepository) Get(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "profile %d", id)
	}
	return &p, nil
}

func (r *ProfileRepository) GetByExternalID(ctx context.Context, externalID int64) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&p).Error; err != nil {
		return nil, notFound(err, "profile for chat %d", externalID)
	}
	return &p, nil
}

// Update applies a partial column update to a non-banned profile.
//
// Behavior:
//   - Unknown id → NotFound.
//   - Banned profile → InvalidState (the banned=false filter is part of the UPDATE).
func (r *ProfileRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ? AND banned = ?", id, false).
		Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return svcErr.Exists("profile %d", id)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// TouchActivity bumps last_active, which drives candidate ordering.
func (r *ProfileRepository) TouchActivity(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

// SetBanned flips the moderation flag. changed reports whether the stored value moved.
func (r *ProfileRepository) SetBanned(ctx context.Context, id uint64, banned bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ? AND banned = ?", id, !banned).
		Update("banned", banned)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// SetFlags updates operator-managed flags. Nil pointers are left untouched.
func (r *ProfileRepository) SetFlags(ctx context.Context, id uint64, synthetic, spotlighted *bool) error {
	fields := map[string]any{}
	if synthetic != nil {
		fields["synthetic"] = *synthetic
	}
	if spotlighted != nil {
		fields["spotlighted"] = *spotlighted
	}
	if len(fields) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&db.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		_, err := r.Get(ctx, id)
		return err
	}
	return nil
}

// IsOperable reports whether the profile exists and is not banned.
func (r *ProfileRepository) IsOperable(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ? AND banned = ?", id, false).
		Count(&count).Error
	return count > 0, err
}

// NextCandidate returns the head of the viewer's candidate stream, or nil when
// the pool is exhausted.
//
// Behavior:
//   - The viewer is joined with banned = false, so a viewer banned between the
//     caller's checks and this read gets an empty result.
//   - Candidate must share the viewer's affiliation, be active, registered,
//     searchable, not banned and not the viewer.
//   - Gender compatibility is two-sided: candidate gender is accepted by the
//     viewer's preference and viewer gender by the candidate's.
//   - Profiles already marked viewed by the viewer are excluded.
//   - Ordered by last_active DESC, id DESC; limit 1.
func (r *ProfileRepository) NextCandidate(ctx context.Context, viewer *db.Profile) (*db.Profile, error) {
	viewed := r.db.
		Table("viewed_marks vm").
		Select("1").
		Where("vm.viewer_id = ? AND vm.viewed_id = c.id", viewer.ID)

	var candidates []db.Profile
	err := r.db.WithContext(ctx).
		Table("profiles c").
		Select("c.*").
		Joins("JOIN profiles v ON v.id = ? AND v.banned = ? AND v.affiliation_id = c.affiliation_id", viewer.ID, false).
		Where("c.id <> ?", viewer.ID).
		Where("c.active = ? AND c.banned = ? AND c.registered = ? AND c.searchable = ?", true, false, true, true).
		Where("c.gender IN ?", viewer.LookingFor.Expand()).
		Where("c.looking_for IN ?", []db.Gender{viewer.Gender, db.GenderAny}).
		Where("NOT EXISTS (?)", viewed).
		Order("c.last_active DESC, c.id DESC").
		Limit(1).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// ListSpotlighted returns spotlighted, operable, searchable profiles of an
// affiliation, most recently active first.
func (r *ProfileRepository) ListSpotlighted(ctx context.Context, affiliationID uint64, limit int) ([]db.Profile, error) {
	var out []db.Profile
	err := r.db.WithContext(ctx).
		Where("affiliation_id = ? AND spotlighted = ?", affiliationID, true).
		Where("active = ? AND banned = ? AND registered = ? AND searchable = ?", true, false, true, true).
		Order("last_active DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// explainMiss classifies an UPDATE that touched no row on a non-banned filter.
func (r *ProfileRepository) explainMiss(ctx context.Context, id uint64) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Banned {
		return svcErr.InvalidState("profile %d is banned", id)
	}
	// MySQL reports 0 affected rows when values are unchanged
	return nil
}
