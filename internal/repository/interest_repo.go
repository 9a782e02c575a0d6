package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// InterestRepository provides data access methods for the Interest ledger.
// The ledger is append-only: every like/dislike is a new row, and "current
// stance" reads compare row ids (later id wins).
type InterestRepository struct {
	db *gorm.DB
}

// NewInterestRepository creates a new repository bound to the given DB connection.
func NewInterestRepository(database *gorm.DB) *InterestRepository {
	return &InterestRepository{db: database}
}

// WithTx returns a copy bound to tx.
func (r *InterestRepository) WithTx(tx *gorm.DB) *InterestRepository {
	return &InterestRepository{db: tx}
}

// Create appends one interest row from → to.
//
// Behavior:
//   - from == to → InvalidState.
//   - Both profiles are read under a shared lock inside the insert transaction,
//     so a concurrent ban either waits for the insert or is seen by it.
//   - Unknown profile → NotFound; banned actor or target → InvalidState.
//
// Example:
//
//	repo.Create(ctx, 1, 2, true, nil) // user 1 liked user 2
func (r *InterestRepository) Create(
	ctx context.Context,
	fromID, toID uint64,
	positive bool,
	message *string,
) (*db.Interest, error) {
	if fromID == toID {
		return nil, svcErr.InvalidState("profile %d cannot react to itself", fromID)
	}

	interest := db.Interest{
		FromID:   fromID,
		ToID:     toID,
		Positive: positive,
		Message:  message,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profiles []db.Profile
		if err := tx.
			Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "banned").
			Where("id IN ?", []uint64{fromID, toID}).
			Find(&profiles).Error; err != nil {
			return err
		}

		found := make(map[uint64]bool, 2)
		for _, p := range profiles {
			found[p.ID] = true
			if p.Banned {
				return svcErr.InvalidState("profile %d is banned", p.ID)
			}
		}
		for _, id := range []uint64{fromID, toID} {
			if !found[id] {
				return svcErr.NotFound("profile %d", id)
			}
		}

		return tx.Create(&interest).Error
	})
	if err != nil {
		return nil, err
	}
	return &interest, nil
}

func (r *InterestRepository) Get(ctx context.Context, id uint64) (*db.Interest, error) {
	var i db.Interest
	if err := r.db.WithContext(ctx).First(&i, id).Error; err != nil {
		return nil, notFound(err, "interest %d", id)
	}
	return &i, nil
}

// HasReciprocal checks whether fromID currently likes toID.
//
// Behavior:
//   - True when at least one positive from → to row exists that is not
//     superseded by a later (higher id) from → to dislike.
//   - Any number of qualifying rows is fine; the query is an EXISTS.
//   - False when either profile is banned.
//
// Example:
//
//	repo.HasReciprocal(ctx, 2, 1) // -> true if user 2 likes user 1
func (r *InterestRepository) HasReciprocal(ctx context.Context, fromID, toID uint64) (bool, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Table("interests i").
		Select("i.id").
		Joins("JOIN profiles f ON f.id = i.from_id AND f.banned = ?", false).
		Joins("JOIN profiles t ON t.id = i.to_id AND t.banned = ?", false).
		Where("i.from_id = ? AND i.to_id = ? AND i.positive = ?", fromID, toID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interests d
				WHERE d.from_id = i.from_id
				  AND d.to_id = i.to_id
				  AND d.positive = ?
				  AND d.id > i.id
			)`, false).
		Limit(1).
		Pluck("i.id", &ids).Error
	return len(ids) > 0, err
}

// incoming builds the inbox predicate for recipient.
//
// A positive row i (sender → recipient) is listed unless:
//   - the sender is banned;
//   - the sender disliked the recipient after i;
//   - the recipient disliked the sender after i;
//   - the pair already has an active match.
func (r *InterestRepository) incoming(ctx context.Context, recipientID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("interests i").
		Joins("JOIN profiles s ON s.id = i.from_id AND s.banned = ?", false).
		Where("i.to_id = ? AND i.positive = ?", recipientID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interests d
				WHERE d.from_id = i.from_id
				  AND d.to_id = i.to_id
				  AND d.positive = ?
				  AND d.id > i.id
			)`, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interests rd
				WHERE rd.from_id = i.to_id
				  AND rd.to_id = i.from_id
				  AND rd.positive = ?
				  AND rd.id > i.id
			)`, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.user_low_id = CASE WHEN i.from_id < i.to_id THEN i.from_id ELSE i.to_id END
				  AND m.user_high_id = CASE WHEN i.from_id < i.to_id THEN i.to_id ELSE i.from_id END
				  AND m.active = ?
			)`, true)
}

// ListIncoming returns likes addressed to the recipient, newest first.
//
// Behavior:
//   - Same predicate as CountIncoming.
//   - Repeated likes from one sender are listed once per row.
//   - Cursor-based pagination on interest id via paginationToken.
//
// Example:
//
//	repo.ListIncoming(ctx, 42, nil, 5) // first 5 incoming likes for user 42
func (r *InterestRepository) ListIncoming(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Interest, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.incoming(ctx, recipientID).
		Select("i.*").
		Order("i.id DESC").
		Limit(limit + 1)
	if cursor.LastID > 0 {
		query = query.Where("i.id < ?", cursor.LastID)
	}

	var interests []db.Interest
	if err := query.Find(&interests).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Page(interests, limit, func(i db.Interest) uint64 { return i.ID })
	return page, next, nil
}

// CountIncoming returns how many listed likes the recipient has.
// Used in conjunction with Redis cache (DB is fallback).
func (r *InterestRepository) CountIncoming(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	if err := r.incoming(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count incoming for %d: %w", recipientID, err)
	}
	return count, nil
}

// DeleteBetween removes the interest history in both directions between a and b.
func (r *InterestRepository) DeleteBetween(ctx context.Context, a, b uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Delete(&db.Interest{})
	return res.RowsAffected, res.Error
}

// RecipientsOf lists distinct profiles fromID has ever liked.
func (r *InterestRepository) RecipientsOf(ctx context.Context, fromID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Interest{}).
		Distinct("to_id").
		Where("from_id = ? AND positive = ?", fromID, true).
		Pluck("to_id", &ids).Error
	return ids, err
}
