package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// ReportRepository stores user complaints. Pending lists are always read from
// storage; nothing is cached in process.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// WithTx returns a copy bound to tx.
func (r *ReportRepository) WithTx(tx *gorm.DB) *ReportRepository {
	return &ReportRepository{db: tx}
}

func (r *ReportRepository) Create(ctx context.Context, rep *db.Report) error {
	if rep.Status == "" {
		rep.Status = db.ReportPending
	}
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *ReportRepository) Get(ctx context.Context, id uint64) (*db.Report, error) {
	var rep db.Report
	if err := r.db.WithContext(ctx).First(&rep, id).Error; err != nil {
		return nil, notFound(err, "report %d", id)
	}
	return &rep, nil
}

// ListPending returns pending reports, oldest first.
func (r *ReportRepository) ListPending(ctx context.Context, limit int) ([]db.Report, error) {
	var out []db.Report
	err := r.db.WithContext(ctx).
		Where("status = ?", db.ReportPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Review moves a pending report to status.
//
// Behavior:
//   - Unknown id → NotFound.
//   - Report no longer pending → InvalidState (only one reviewer wins).
func (r *ReportRepository) Review(
	ctx context.Context,
	id uint64,
	status db.ReportStatus,
	adminComment *string,
	at time.Time,
) error {
	res := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("id = ? AND status = ?", id, db.ReportPending).
		Updates(map[string]any{
			"status":        status,
			"admin_comment": adminComment,
			"reviewed_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return svcErr.InvalidState("report %d already reviewed", id)
	}
	return nil
}
