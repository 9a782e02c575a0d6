package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// AffiliationRepository manages the reference table that partitions candidate pools.
type AffiliationRepository struct {
	db *gorm.DB
}

func NewAffiliationRepository(database *gorm.DB) *AffiliationRepository {
	return &AffiliationRepository{db: database}
}

// Create inserts a new affiliation. Names are unique.
func (r *AffiliationRepository) Create(ctx context.Context, a *db.Affiliation) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return svcErr.Exists("affiliation %q", a.Name)
	}
	return err
}

func (r *AffiliationRepository) Get(ctx context.Context, id uint64) (*db.Affiliation, error) {
	var a db.Affiliation
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "affiliation %d", id)
	}
	return &a, nil
}

// RequireActive returns NotFound for unknown ids and InvalidState for disabled ones.
func (r *AffiliationRepository) RequireActive(ctx context.Context, id uint64) error {
	a, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !a.Active {
		return svcErr.InvalidState("affiliation %d is not active", id)
	}
	return nil
}

// List returns affiliations ordered by name.
func (r *AffiliationRepository) List(ctx context.Context, activeOnly bool) ([]db.Affiliation, error) {
	var out []db.Affiliation
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	return out, q.Find(&out).Error
}

func (r *AffiliationRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	res := r.db.WithContext(ctx).Model(&db.Affiliation{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
