package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// ViewedRepository tracks which profiles a viewer already reacted to.
// Rows have set semantics through ux_viewed_pair.
type ViewedRepository struct {
	db *gorm.DB
}

func NewViewedRepository(database *gorm.DB) *ViewedRepository {
	return &ViewedRepository{db: database}
}

// WithTx returns a copy bound to tx.
func (r *ViewedRepository) WithTx(tx *gorm.DB) *ViewedRepository {
	return &ViewedRepository{db: tx}
}

// MarkViewed records viewer → viewed. A repeated mark is a no-op (created=false).
func (r *ViewedRepository) MarkViewed(ctx context.Context, viewerID, viewedID uint64) (bool, error) {
	if viewerID == viewedID {
		return false, svcErr.InvalidState("profile %d cannot view itself", viewerID)
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.ViewedMark{ViewerID: viewerID, ViewedID: viewedID})
	return res.RowsAffected == 1, res.Error
}

// Reset clears the viewer's whole viewed history.
func (r *ViewedRepository) Reset(ctx context.Context, viewerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("viewer_id = ?", viewerID).Delete(&db.ViewedMark{})
	return res.RowsAffected, res.Error
}

// ResetBetween clears marks in both directions between a and b.
func (r *ViewedRepository) ResetBetween(ctx context.Context, a, b uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(viewer_id = ? AND viewed_id = ?) OR (viewer_id = ? AND viewed_id = ?)", a, b, b, a).
		Delete(&db.ViewedMark{})
	return res.RowsAffected, res.Error
}

// ViewedIDs lists profiles the viewer has marked, oldest mark first.
func (r *ViewedRepository) ViewedIDs(ctx context.Context, viewerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.ViewedMark{}).
		Where("viewer_id = ?", viewerID).
		Order("id ASC").
		Pluck("viewed_id", &ids).Error
	return ids, err
}

// ReplaySynthetic deletes marks on synthetic profiles created before cutoff,
// returning those decoys to every viewer's pool.
func (r *ViewedRepository) ReplaySynthetic(ctx context.Context, cutoff time.Time) (int64, error) {
	synthetic := r.db.Model(&db.Profile{}).Select("id").Where("synthetic = ?", true)
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND viewed_id IN (?)", cutoff, synthetic).
		Delete(&db.ViewedMark{})
	return res.RowsAffected, res.Error
}
